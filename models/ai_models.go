package models

import "time"

// AiAnalysis contains the qualitative insights returned by the text model.
type AiAnalysis struct {
	Summary         string   `json:"summary"`
	PositiveFactors []string `json:"positive_factors"`
	NegativeFactors []string `json:"negative_factors"`
}

// InsightResponse is the body of GET /api/v1/insights.
type InsightResponse struct {
	ReportName  string     `json:"reportName"`
	GeneratedAt time.Time  `json:"generatedAt"`
	RunID       string     `json:"runId"`
	Forecasts   []Forecast `json:"forecasts"`
	AiAnalysis  AiAnalysis `json:"aiAnalysis"`
}
