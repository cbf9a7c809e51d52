package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"retail-insights/models"
	"retail-insights/utils"
)

// DefaultReply is sent when an inquiry mentions none of the known keywords.
const DefaultReply = "Thank you for your inquiry. Please provide more details or contact support."

// keywordReplies are checked in order; the first keyword present wins.
var keywordReplies = []struct {
	keyword string
	reply   string
}{
	{"stock", "Please check the inventory dashboard or contact support for stock details."},
	{"availability", "Availability can be checked in real-time on the platform."},
	{"order", "Orders can be placed through the platform or by contacting support."},
	{"delivery", "Delivery timelines depend on your location. Please provide more details."},
	{"price", "Pricing details are available in the product catalog."},
}

// ReplyFor picks the canned response for an inquiry. Matching is on whole
// lowercase words, so "stocks" does not match "stock".
func ReplyFor(text string) string {
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = struct{}{}
	}
	for _, kr := range keywordReplies {
		if _, ok := words[kr.keyword]; ok {
			return kr.reply
		}
	}
	return DefaultReply
}

// InquiryResponder answers pending customer inquiries.
type InquiryResponder struct {
	store InquiryStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewInquiryResponder(store InquiryStore, log logrus.FieldLogger) *InquiryResponder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &InquiryResponder{store: store, log: log, now: time.Now}
}

// ProcessPending replies to every pending inquiry and returns the replies
// written. It stops at the first failed write; replies already written stay.
func (r *InquiryResponder) ProcessPending(ctx context.Context) ([]models.InquiryReply, error) {
	pending, err := r.store.PendingInquiries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: pending inquiries: %w", ErrUpstream, err)
	}
	r.log.Infof("💬 [INQUIRIES] found %d pending inquiries", len(pending))

	replies := make([]models.InquiryReply, 0, len(pending))
	for _, q := range pending {
		reply := models.InquiryReply{
			ID:           q.ID,
			InquiryText:  q.InquiryText,
			ResponseText: ReplyFor(q.InquiryText),
			RespondedAt:  r.now().UTC(),
		}
		if err := r.store.RespondToInquiry(ctx, reply.ID, reply.ResponseText, reply.RespondedAt); err != nil {
			return replies, fmt.Errorf("%w: respond to inquiry %d: %w", ErrPersist, q.ID, err)
		}
		r.log.WithField("inquiry_id", q.ID).Debugf("[INQUIRIES] %q -> %q", utils.Truncate(q.InquiryText, 120), reply.ResponseText)
		replies = append(replies, reply)
	}
	return replies, nil
}
