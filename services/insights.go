package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"retail-insights/models"
	"retail-insights/utils"
)

// ErrInsightFormat is returned when the text model's answer has no parseable JSON object.
var ErrInsightFormat = errors.New("failed to parse AI response format")

// TextGenerator turns a prompt into free text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Pipeline runs the analysis stages. *Runner implements it.
type Pipeline interface {
	Run(ctx context.Context, storeID *int64, stages Stage) (*models.RunResult, error)
}

// InsightService asks a text model to explain the forecast of a fresh run.
type InsightService struct {
	pipeline Pipeline
	gen      TextGenerator
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewInsightService(pipeline Pipeline, gen TextGenerator, log logrus.FieldLogger) *InsightService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &InsightService{pipeline: pipeline, gen: gen, log: log, now: time.Now}
}

// Summarize runs the forecast stages and attaches the model's analysis.
func (s *InsightService) Summarize(ctx context.Context, storeID *int64) (*models.InsightResponse, error) {
	result, err := s.pipeline.Run(ctx, storeID, ForecastStages)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	text, err := s.gen.Generate(ctx, insightPrompt(result, now))
	if err != nil {
		return nil, fmt.Errorf("generate insight: %w", err)
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		s.log.WithField("run_id", result.RunID).WithError(err).Warnf("[INSIGHTS] could not parse model output: %s", utils.Truncate(text, 500))
		return nil, err
	}

	return &models.InsightResponse{
		ReportName:  "Monthly Demand Outlook",
		GeneratedAt: now,
		RunID:       result.RunID,
		Forecasts:   result.Forecasts,
		AiAnalysis:  analysis,
	}, nil
}

func insightPrompt(result *models.RunResult, now time.Time) string {
	var b strings.Builder
	for _, f := range result.Forecasts {
		fmt.Fprintf(&b, "- %s at %s: predicted %.2f units for %s, stock %d, reorder level %d (%s)\n",
			f.ProductName, f.ShopName, f.PredictedDemand, f.ForecastPeriod, f.CurrentStock, f.ReorderLevel, f.Recommendation)
	}
	if b.Len() == 0 {
		b.WriteString("No forecasts could be produced; there is not enough monthly history.\n")
	}

	var anomalies strings.Builder
	for _, a := range result.Anomalies {
		fmt.Fprintf(&anomalies, "- %s at %s: %s quantity %d on %s\n",
			a.ProductName, a.ShopName, a.AnomalyType, a.Quantity, a.SoldAt.Format("2006-01-02"))
	}
	if anomalies.Len() == 0 {
		anomalies.WriteString("None.\n")
	}

	jsonFormat := `{"summary":"string","positive_factors":["string",...],"negative_factors":["string",...]}`

	return fmt.Sprintf(`
        You are an expert retail data analyst. Explain the next-month demand forecast below to a store manager.

        **Analysis Context:**
        - Today's Date: %s

        **Forecasts:**
        %s
        **Anomalous Sales:**
        %s
        **Required Output:**
        You must provide a single, minified JSON object with the following exact structure. Do not include any markdown formatting, backticks, or explanatory text before or after the JSON object.

        %s
    `, now.Format("2006-01-02"), b.String(), anomalies.String(), jsonFormat)
}

func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

func parseAnalysis(text string) (models.AiAnalysis, error) {
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return models.AiAnalysis{}, ErrInsightFormat
	}
	var analysis models.AiAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
		return models.AiAnalysis{}, fmt.Errorf("%w: %w", ErrInsightFormat, err)
	}
	if analysis.PositiveFactors == nil {
		analysis.PositiveFactors = []string{}
	}
	if analysis.NegativeFactors == nil {
		analysis.NegativeFactors = []string{}
	}
	return analysis, nil
}
