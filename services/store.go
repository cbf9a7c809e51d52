package services

import (
	"context"
	"errors"
	"time"

	"retail-insights/models"
)

var (
	// ErrUpstream marks a failed read from the record store; the run is aborted.
	ErrUpstream = errors.New("upstream fetch failed")
	// ErrPersist marks a failed bulk insert; computed results are still returned.
	ErrPersist = errors.New("persisting results failed")
)

// SalesFilter narrows a sales read to one store and caps the row count.
type SalesFilter struct {
	StoreID *int64
	Limit   int
}

// SalesReader supplies sale records, newest first, at most Limit rows.
type SalesReader interface {
	ListSales(ctx context.Context, filter SalesFilter) ([]models.SaleRecord, error)
}

// InventoryReader looks up a pair's stock position. A missing row is not an error.
type InventoryReader interface {
	Inventory(ctx context.Context, productID, storeID int64) (models.InventoryLevel, error)
}

// NameResolver resolves display names. An unknown id returns "" and no error.
type NameResolver interface {
	ProductName(ctx context.Context, productID int64) (string, error)
	StoreName(ctx context.Context, storeID int64) (string, error)
}

// ResultWriter appends derived entities. Inserts are never deduplicated.
type ResultWriter interface {
	InsertAnomalies(ctx context.Context, anomalies []models.Anomaly) error
	InsertRecommendations(ctx context.Context, recs []models.Recommendation) error
	InsertForecasts(ctx context.Context, forecasts []models.Forecast) error
	SaveRun(ctx context.Context, run models.PipelineRun) error
}

// Store is everything a pipeline run needs from the record store.
type Store interface {
	SalesReader
	InventoryReader
	NameResolver
	ResultWriter
}

// InquiryStore reads and answers customer inquiries.
type InquiryStore interface {
	PendingInquiries(ctx context.Context) ([]models.Inquiry, error)
	RespondToInquiry(ctx context.Context, id int64, response string, at time.Time) error
}
