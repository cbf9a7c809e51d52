package database

import "retail-insights/models"

// pipelineRunsDDL is the only table this service owns on Postgres; the sales,
// inventory, catalogue and output tables already exist there.
const pipelineRunsDDL = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id TEXT PRIMARY KEY,
	store_id BIGINT,
	stages TEXT NOT NULL,
	status TEXT NOT NULL,
	sales_read INTEGER NOT NULL DEFAULT 0,
	anomalies INTEGER NOT NULL DEFAULT 0,
	recommendations INTEGER NOT NULL DEFAULT 0,
	forecasts INTEGER NOT NULL DEFAULT 0,
	error TEXT,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);`

// sqliteDDL creates the full schema for an offline SQLite store.
var sqliteDDL = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		id INTEGER PRIMARY KEY,
		shop_name TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS dynamic_product (
		id INTEGER PRIMARY KEY,
		name TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS dynamic_sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dynamic_product_id INTEGER NOT NULL,
		store_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		sold_at DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_dynamic_sales_sold_at ON dynamic_sales (sold_at);`,
	`CREATE TABLE IF NOT EXISTS dynamic_inventory (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dynamic_product_id INTEGER NOT NULL,
		store_id INTEGER NOT NULL,
		available_qty INTEGER,
		reorder_level INTEGER
	);`,
	`CREATE TABLE IF NOT EXISTS anomalies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dynamic_product_id INTEGER NOT NULL,
		store_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		sold_at DATETIME NOT NULL,
		anomaly_type TEXT NOT NULL,
		product_name TEXT,
		shop_name TEXT,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS restock_recommendations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dynamic_product_id INTEGER NOT NULL,
		store_id INTEGER NOT NULL,
		product_name TEXT,
		shop_name TEXT,
		month TEXT NOT NULL,
		quantity_sold INTEGER NOT NULL,
		recommendation TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS forecasts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dynamic_product_id INTEGER NOT NULL,
		store_id INTEGER NOT NULL,
		predicted_demand REAL NOT NULL,
		current_stock INTEGER NOT NULL,
		product_name TEXT,
		shop_name TEXT,
		recommendation TEXT NOT NULL,
		forecast_period TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS customer_inquiries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		inquiry_text TEXT NOT NULL,
		response_text TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME
	);`,
	pipelineRunsDDL,
}

const (
	insertAnomalyColumns        = `dynamic_product_id, store_id, quantity, sold_at, anomaly_type, product_name, shop_name, created_at`
	insertRecommendationColumns = `dynamic_product_id, store_id, product_name, shop_name, month, quantity_sold, recommendation, created_at`
	insertForecastColumns       = `dynamic_product_id, store_id, predicted_demand, current_stock, product_name, shop_name, recommendation, forecast_period, created_at`
	insertRunColumns            = `id, store_id, stages, status, sales_read, anomalies, recommendations, forecasts, error, started_at, finished_at`
)

func anomalyArgs(a models.Anomaly) []any {
	return []any{a.ProductID, a.StoreID, a.Quantity, a.SoldAt, string(a.AnomalyType), a.ProductName, a.ShopName, a.DetectedAt}
}

func recommendationArgs(r models.Recommendation) []any {
	return []any{r.ProductID, r.StoreID, r.ProductName, r.ShopName, r.Month, r.QuantitySold, r.Recommendation, r.CreatedAt}
}

func forecastArgs(f models.Forecast) []any {
	return []any{f.ProductID, f.StoreID, f.PredictedDemand, f.CurrentStock, f.ProductName, f.ShopName, f.Recommendation, f.ForecastPeriod, f.CreatedAt}
}

func runArgs(r models.PipelineRun) []any {
	var errText *string
	if r.Error != "" {
		errText = &r.Error
	}
	return []any{r.ID, r.StoreID, r.Stages, string(r.Status), r.SalesRead, r.Anomalies, r.Recommendations, r.Forecasts, errText, r.StartedAt, r.FinishedAt}
}
