package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"retail-insights/models"
	"retail-insights/services"
)

// PostgresStore reads and writes the Supabase/Postgres schema through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates pipeline_runs if it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pipelineRunsDDL); err != nil {
		return fmt.Errorf("create pipeline_runs: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSales(ctx context.Context, filter services.SalesFilter) ([]models.SaleRecord, error) {
	query := `SELECT dynamic_product_id, store_id, quantity, sold_at FROM dynamic_sales`
	args := []any{}
	if filter.StoreID != nil {
		args = append(args, *filter.StoreID)
		query += fmt.Sprintf(" WHERE store_id = $%d", len(args))
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY sold_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *PostgresStore) Inventory(ctx context.Context, productID, storeID int64) (models.InventoryLevel, error) {
	var level models.InventoryLevel
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(available_qty, 0), COALESCE(reorder_level, 0)
		FROM dynamic_inventory
		WHERE dynamic_product_id = $1 AND store_id = $2
		LIMIT 1`, productID, storeID).Scan(&level.AvailableQty, &level.ReorderLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.InventoryLevel{}, nil
	}
	if err != nil {
		return models.InventoryLevel{}, fmt.Errorf("query dynamic_inventory: %w", err)
	}
	level.Found = true
	return level, nil
}

func (s *PostgresStore) ProductName(ctx context.Context, productID int64) (string, error) {
	return s.lookupName(ctx, `SELECT COALESCE(name, '') FROM dynamic_product WHERE id = $1`, productID)
}

func (s *PostgresStore) StoreName(ctx context.Context, storeID int64) (string, error) {
	return s.lookupName(ctx, `SELECT COALESCE(shop_name, '') FROM stores WHERE id = $1`, storeID)
}

func (s *PostgresStore) lookupName(ctx context.Context, query string, id int64) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx, query, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (s *PostgresStore) InsertAnomalies(ctx context.Context, anomalies []models.Anomaly) error {
	rows := make([][]any, len(anomalies))
	for i, a := range anomalies {
		rows[i] = anomalyArgs(a)
	}
	return s.insertBatch(ctx, "anomalies", insertAnomalyColumns, rows)
}

func (s *PostgresStore) InsertRecommendations(ctx context.Context, recs []models.Recommendation) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = recommendationArgs(r)
	}
	return s.insertBatch(ctx, "restock_recommendations", insertRecommendationColumns, rows)
}

func (s *PostgresStore) InsertForecasts(ctx context.Context, forecasts []models.Forecast) error {
	rows := make([][]any, len(forecasts))
	for i, f := range forecasts {
		rows[i] = forecastArgs(f)
	}
	return s.insertBatch(ctx, "forecasts", insertForecastColumns, rows)
}

func (s *PostgresStore) SaveRun(ctx context.Context, run models.PipelineRun) error {
	query := fmt.Sprintf(`INSERT INTO pipeline_runs (%s) VALUES (%s)`, insertRunColumns, placeholders(11))
	if _, err := s.pool.Exec(ctx, query, runArgs(run)...); err != nil {
		return fmt.Errorf("insert pipeline_runs: %w", err)
	}
	return nil
}

// insertBatch sends one INSERT per row in a single batch inside a transaction,
// so a set lands completely or not at all.
func (s *PostgresStore) insertBatch(ctx context.Context, table, columns string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, columns, placeholders(len(rows[0])))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s insert: %w", table, err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(query, args...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s insert: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) PendingInquiries(ctx context.Context) ([]models.Inquiry, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, inquiry_text FROM customer_inquiries WHERE status = 'pending' ORDER BY id`)
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

func (s *PostgresStore) RespondToInquiry(ctx context.Context, id int64, response string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE customer_inquiries
		SET response_text = $1, status = 'responded', created_at = $2
		WHERE id = $3`, response, at, id)
	if err != nil {
		return fmt.Errorf("update customer_inquiries: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(ps, ", ")
}
