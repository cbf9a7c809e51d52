package models

import "time"

// TrendEntry is one row of a top-N ranking.
type TrendEntry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
}

// MonthlyTrend is the total quantity sold across all pairs in one month.
type MonthlyTrend struct {
	Month    string `json:"month"`
	Quantity int    `json:"quantity"`
}

// Trends holds the reporting aggregates for a run.
type Trends struct {
	TopProducts   []TrendEntry   `json:"top_products"`
	TopStores     []TrendEntry   `json:"top_stores"`
	MonthlyTrends []MonthlyTrend `json:"monthly_trends"`
}

// RunStatus is the final state of a pipeline run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// PipelineRun is the bookkeeping row written to pipeline_runs for every run.
type PipelineRun struct {
	ID              string    `json:"id"`
	StoreID         *int64    `json:"store_id,omitempty"`
	Stages          string    `json:"stages"`
	Status          RunStatus `json:"status"`
	SalesRead       int       `json:"sales_read"`
	Anomalies       int       `json:"anomalies"`
	Recommendations int       `json:"recommendations"`
	Forecasts       int       `json:"forecasts"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// RunResult carries everything a pipeline run derived.
type RunResult struct {
	RunID                  string           `json:"run_id"`
	Anomalies              []Anomaly        `json:"anomalies"`
	RestockRecommendations []Recommendation `json:"restock_recommendations"`
	AvoidRestock           []Recommendation `json:"avoid_restock"`
	HighDemandPeriods      []Recommendation `json:"high_demand_periods"`
	Forecasts              []Forecast       `json:"forecasts"`
	Trends                 *Trends          `json:"trends,omitempty"`
}

// RecommendationsResponse is the body of GET /recommendations.
type RecommendationsResponse struct {
	Anomalies              []Anomaly        `json:"anomalies"`
	RestockRecommendations []Recommendation `json:"restock_recommendations"`
	AvoidRestock           []Recommendation `json:"avoid_restock"`
	HighDemandPeriods      []Recommendation `json:"high_demand_periods"`
}

// ForecastResponse is the body of GET /api/v1/forecasts.
type ForecastResponse struct {
	RunID     string     `json:"run_id"`
	Forecasts []Forecast `json:"forecasts"`
	Anomalies []Anomaly  `json:"anomalies"`
	Trends    *Trends    `json:"trends"`
}
