package models

import (
	"fmt"
	"time"
)

// --- Source Records ---

// SaleRecord is a single sale of a product at a store, as read from dynamic_sales.
type SaleRecord struct {
	ProductID int64     `json:"dynamic_product_id"`
	StoreID   int64     `json:"store_id"`
	Quantity  int       `json:"quantity"`
	SoldAt    time.Time `json:"sold_at"`
}

// PairKey identifies a (product, store) combination.
type PairKey struct {
	ProductID int64 `json:"dynamic_product_id"`
	StoreID   int64 `json:"store_id"`
}

// Less orders pairs by product then store.
func (k PairKey) Less(other PairKey) bool {
	if k.ProductID != other.ProductID {
		return k.ProductID < other.ProductID
	}
	return k.StoreID < other.StoreID
}

// Key returns the pair a sale belongs to.
func (s SaleRecord) Key() PairKey {
	return PairKey{ProductID: s.ProductID, StoreID: s.StoreID}
}

// MonthlyBucket is the total quantity sold for a pair within one calendar month ("2006-01").
type MonthlyBucket struct {
	ProductID     int64  `json:"dynamic_product_id"`
	StoreID       int64  `json:"store_id"`
	Month         string `json:"month"`
	TotalQuantity int    `json:"quantity"`
}

// Key returns the pair a bucket belongs to.
func (b MonthlyBucket) Key() PairKey {
	return PairKey{ProductID: b.ProductID, StoreID: b.StoreID}
}

// InventoryLevel is the current stock position of a pair in dynamic_inventory.
type InventoryLevel struct {
	AvailableQty int  `json:"available_qty"`
	ReorderLevel int  `json:"reorder_level"`
	Found        bool `json:"-"`
}

// --- Derived Entities ---

// AnomalyType classifies an outlying quantity.
type AnomalyType string

const (
	AnomalyHigh AnomalyType = "High"
	AnomalyLow  AnomalyType = "Low"
)

// Anomaly is a sale whose quantity was flagged as outlying within its pair.
type Anomaly struct {
	ProductID   int64       `json:"dynamic_product_id"`
	StoreID     int64       `json:"store_id"`
	Quantity    int         `json:"quantity"`
	SoldAt      time.Time   `json:"sold_at"`
	AnomalyType AnomalyType `json:"anomaly_type"`
	ProductName string      `json:"product_name,omitempty"`
	ShopName    string      `json:"shop_name,omitempty"`
	DetectedAt  time.Time   `json:"created_at"`
}

// RecommendationCategory says which list a Recommendation belongs to.
type RecommendationCategory string

const (
	CategoryRestock    RecommendationCategory = "Restock"
	CategoryAvoid      RecommendationCategory = "Avoid"
	CategoryHighDemand RecommendationCategory = "HighDemand"
)

// Recommendation is a month-level restock, avoid-restock or high-demand note for one bucket.
type Recommendation struct {
	ProductID      int64                  `json:"dynamic_product_id"`
	StoreID        int64                  `json:"store_id"`
	ProductName    string                 `json:"product_name"`
	ShopName       string                 `json:"shop_name"`
	Month          string                 `json:"month"`
	QuantitySold   int                    `json:"quantity_sold"`
	Recommendation string                 `json:"recommendation"`
	Category       RecommendationCategory `json:"category"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Describe sets the product and shop names and rewrites the recommendation text to match.
func (r *Recommendation) Describe(productName, shopName string) {
	r.ProductName = productName
	r.ShopName = shopName
	switch r.Category {
	case CategoryRestock:
		r.Recommendation = fmt.Sprintf("Restock %s for %s due to high demand", productName, r.Month)
	case CategoryHighDemand:
		r.Recommendation = fmt.Sprintf("High demand for %s in %s; plan inventory accordingly", productName, r.Month)
	case CategoryAvoid:
		r.Recommendation = fmt.Sprintf("Purchase %s less frequently for %s due to low sales", productName, r.Month)
	}
}

// Verdict is the outcome of comparing forecast demand with stock on hand.
type Verdict string

const (
	VerdictRestock   Verdict = "Restock"
	VerdictNoRestock Verdict = "NoRestock"
)

// Text is the human-readable form stored in the forecasts table.
func (v Verdict) Text() string {
	if v == VerdictRestock {
		return "Restock recommended"
	}
	return "No restock needed"
}

// Forecast is a one-period-ahead demand prediction for a pair.
type Forecast struct {
	ProductID       int64     `json:"dynamic_product_id"`
	StoreID         int64     `json:"store_id"`
	ProductName     string    `json:"product_name,omitempty"`
	ShopName        string    `json:"shop_name,omitempty"`
	PredictedDemand float64   `json:"predicted_demand"`
	CurrentStock    int       `json:"current_stock"`
	ReorderLevel    int       `json:"reorder_level"`
	Verdict         Verdict   `json:"verdict"`
	Recommendation  string    `json:"recommendation"`
	ForecastPeriod  string    `json:"forecast_period"`
	CreatedAt       time.Time `json:"created_at"`
}

// --- Customer Inquiries ---

// Inquiry is a pending customer question from customer_inquiries.
type Inquiry struct {
	ID          int64  `json:"id"`
	InquiryText string `json:"inquiry_text"`
}

// InquiryReply is the response written back for an inquiry.
type InquiryReply struct {
	ID           int64     `json:"id"`
	InquiryText  string    `json:"inquiry_text"`
	ResponseText string    `json:"response_text"`
	RespondedAt  time.Time `json:"responded_at"`
}
