package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail-insights/models"
	"retail-insights/services"
)

// SQLiteStore keeps the whole schema in a local SQLite file, for offline runs
// and tests.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// EnsureSchema creates every table the pipeline reads or writes.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	for _, ddl := range sqliteDDL {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create sqlite schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListSales(ctx context.Context, filter services.SalesFilter) ([]models.SaleRecord, error) {
	query := `SELECT dynamic_product_id, store_id, quantity, sold_at FROM dynamic_sales`
	args := []any{}
	if filter.StoreID != nil {
		query += ` WHERE store_id = ?`
		args = append(args, *filter.StoreID)
	}
	// sold_at is stored as text with its own offset; order by the instant.
	query += ` ORDER BY julianday(sold_at) DESC, id DESC LIMIT ?`
	args = append(args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dynamic_sales: %w", err)
	}
	defer rows.Close()

	sales := []models.SaleRecord{}
	for rows.Next() {
		var sale models.SaleRecord
		if err := rows.Scan(&sale.ProductID, &sale.StoreID, &sale.Quantity, &sale.SoldAt); err != nil {
			return nil, fmt.Errorf("scan dynamic_sales row: %w", err)
		}
		sale.SoldAt = sale.SoldAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dynamic_sales: %w", err)
	}
	return sales, nil
}

func (s *SQLiteStore) Inventory(ctx context.Context, productID, storeID int64) (models.InventoryLevel, error) {
	var level models.InventoryLevel
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(available_qty, 0), COALESCE(reorder_level, 0)
		FROM dynamic_inventory
		WHERE dynamic_product_id = ? AND store_id = ?
		LIMIT 1`, productID, storeID).Scan(&level.AvailableQty, &level.ReorderLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return models.InventoryLevel{}, nil
	}
	if err != nil {
		return models.InventoryLevel{}, fmt.Errorf("query dynamic_inventory: %w", err)
	}
	level.Found = true
	return level, nil
}

func (s *SQLiteStore) ProductName(ctx context.Context, productID int64) (string, error) {
	return s.lookupName(ctx, `SELECT COALESCE(name, '') FROM dynamic_product WHERE id = ?`, productID)
}

func (s *SQLiteStore) StoreName(ctx context.Context, storeID int64) (string, error) {
	return s.lookupName(ctx, `SELECT COALESCE(shop_name, '') FROM stores WHERE id = ?`, storeID)
}

func (s *SQLiteStore) lookupName(ctx context.Context, query string, id int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (s *SQLiteStore) InsertAnomalies(ctx context.Context, anomalies []models.Anomaly) error {
	rows := make([][]any, len(anomalies))
	for i, a := range anomalies {
		rows[i] = anomalyArgs(a)
	}
	return s.insertAll(ctx, "anomalies", insertAnomalyColumns, rows)
}

func (s *SQLiteStore) InsertRecommendations(ctx context.Context, recs []models.Recommendation) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = recommendationArgs(r)
	}
	return s.insertAll(ctx, "restock_recommendations", insertRecommendationColumns, rows)
}

func (s *SQLiteStore) InsertForecasts(ctx context.Context, forecasts []models.Forecast) error {
	rows := make([][]any, len(forecasts))
	for i, f := range forecasts {
		rows[i] = forecastArgs(f)
	}
	return s.insertAll(ctx, "forecasts", insertForecastColumns, rows)
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run models.PipelineRun) error {
	query := fmt.Sprintf(`INSERT INTO pipeline_runs (%s) VALUES (%s)`, insertRunColumns, questionMarks(11))
	if _, err := s.db.ExecContext(ctx, query, runArgs(run)...); err != nil {
		return fmt.Errorf("insert pipeline_runs: %w", err)
	}
	return nil
}

// insertAll runs one prepared INSERT per row inside a transaction.
func (s *SQLiteStore) insertAll(ctx context.Context, table, columns string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s insert: %w", table, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, columns, questionMarks(len(rows[0]))))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for _, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s insert: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) PendingInquiries(ctx context.Context) ([]models.Inquiry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, inquiry_text FROM customer_inquiries WHERE status = 'pending' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query customer_inquiries: %w", err)
	}
	defer rows.Close()

	inquiries := []models.Inquiry{}
	for rows.Next() {
		var q models.Inquiry
		if err := rows.Scan(&q.ID, &q.InquiryText); err != nil {
			return nil, fmt.Errorf("scan customer_inquiries row: %w", err)
		}
		inquiries = append(inquiries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer_inquiries: %w", err)
	}
	return inquiries, nil
}

func (s *SQLiteStore) RespondToInquiry(ctx context.Context, id int64, response string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE customer_inquiries
		SET response_text = ?, status = 'responded', created_at = ?
		WHERE id = ?`, response, at, id)
	if err != nil {
		return fmt.Errorf("update customer_inquiries: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func questionMarks(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
