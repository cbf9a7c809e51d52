package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"retail-insights/analytics"
	"retail-insights/models"
)

// Stage selects which analyses a run performs.
type Stage uint8

const (
	StageAnomalies Stage = 1 << iota
	StagePatterns
	StageForecasts
	StageTrends
)

const (
	// RecommendationStages backs GET /recommendations.
	RecommendationStages = StageAnomalies | StagePatterns
	// ForecastStages backs GET /api/v1/forecasts.
	ForecastStages = StageForecasts | StageAnomalies | StageTrends
	// AllStages is what the batch command runs.
	AllStages = StageAnomalies | StagePatterns | StageForecasts | StageTrends
)

func (s Stage) Has(other Stage) bool { return s&other != 0 }

func (s Stage) String() string {
	var names []string
	for _, st := range []struct {
		stage Stage
		name  string
	}{
		{StageAnomalies, "anomalies"},
		{StagePatterns, "patterns"},
		{StageForecasts, "forecasts"},
		{StageTrends, "trends"},
	} {
		if s.Has(st.stage) {
			names = append(names, st.name)
		}
	}
	return strings.Join(names, ",")
}

// RunnerConfig tunes a Runner. Zero values get defaults.
type RunnerConfig struct {
	SalesLimit int
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

// Runner executes the analysis pipeline against a record store. It holds no
// results between runs.
type Runner struct {
	store    Store
	strategy analytics.Strategy
	limit    int
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewRunner constructs a Runner over the given store and anomaly strategy.
func NewRunner(store Store, strategy analytics.Strategy, cfg RunnerConfig) *Runner {
	r := &Runner{
		store:    store,
		strategy: strategy,
		limit:    cfg.SalesLimit,
		log:      cfg.Logger,
		now:      cfg.Now,
	}
	if r.limit <= 0 {
		r.limit = 500
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run fetches the latest sales (optionally for one store), runs the selected
// stages, enriches the output with display names and appends it to the store.
//
// A failed sales or inventory read aborts the run with ErrUpstream and a nil
// result. A failed insert returns the computed result together with ErrPersist.
func (r *Runner) Run(ctx context.Context, storeID *int64, stages Stage) (*models.RunResult, error) {
	now := r.now().UTC()
	run := models.PipelineRun{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		Stages:    stages.String(),
		StartedAt: now,
	}
	log := r.log.WithFields(logrus.Fields{
		"run_id":   run.ID,
		"stages":   run.Stages,
		"strategy": r.strategy.Name(),
	})
	if storeID != nil {
		log = log.WithField("store_id", *storeID)
	}

	log.Info("🚀 [PIPELINE] run started")
	result, err := r.execute(ctx, &run, stages, now, log)
	r.record(ctx, &run, err, log)
	return result, err
}

func (r *Runner) execute(ctx context.Context, run *models.PipelineRun, stages Stage, now time.Time, log logrus.FieldLogger) (*models.RunResult, error) {
	records, err := r.store.ListSales(ctx, SalesFilter{StoreID: run.StoreID, Limit: r.limit})
	if err != nil {
		return nil, fmt.Errorf("%w: list sales: %w", ErrUpstream, err)
	}
	run.SalesRead = len(records)
	if len(records) == 0 {
		log.Info("[PIPELINE] no sales data found")
	}

	agg := analytics.Aggregate(records)
	log.WithFields(logrus.Fields{
		"sales":   len(records),
		"pairs":   len(agg.Series),
		"buckets": len(agg.Buckets),
	}).Debug("📊 [PIPELINE] aggregated sales")

	result := &models.RunResult{
		RunID:                  run.ID,
		Anomalies:              []models.Anomaly{},
		RestockRecommendations: []models.Recommendation{},
		AvoidRestock:           []models.Recommendation{},
		HighDemandPeriods:      []models.Recommendation{},
		Forecasts:              []models.Forecast{},
	}

	if stages.Has(StageAnomalies) {
		result.Anomalies = analytics.DetectAnomalies(agg, r.strategy, now, log)
	}
	if stages.Has(StagePatterns) {
		report := analytics.AnalyzePatterns(agg.Buckets, now)
		result.RestockRecommendations = report.Restock
		result.AvoidRestock = report.AvoidRestock
		result.HighDemandPeriods = report.HighDemand
	}
	if stages.Has(StageForecasts) {
		if result.Forecasts, err = r.forecast(ctx, agg, now, log); err != nil {
			return nil, err
		}
	}
	if stages.Has(StageTrends) {
		trends := analytics.Summarize(records)
		result.Trends = &trends
	}

	names := newNameBook(r.store, log)
	names.enrichAnomalies(ctx, result.Anomalies)
	names.enrichRecommendations(ctx, result.RestockRecommendations)
	names.enrichRecommendations(ctx, result.AvoidRestock)
	names.enrichRecommendations(ctx, result.HighDemandPeriods)
	names.enrichForecasts(ctx, result.Forecasts)
	if result.Trends != nil {
		names.enrichTrends(ctx, result.Trends)
	}

	return result, r.persist(ctx, run, result, log)
}

func (r *Runner) forecast(ctx context.Context, agg analytics.Aggregation, now time.Time, log logrus.FieldLogger) ([]models.Forecast, error) {
	forecasts := []models.Forecast{}
	monthly := agg.MonthlySeries()
	for _, pair := range agg.Pairs() {
		series := monthly[pair]
		fields := logrus.Fields{"product_id": pair.ProductID, "store_id": pair.StoreID, "months": len(series)}
		if len(series) < 2 {
			log.WithFields(fields).Debug("[FORECAST] skipping pair: fewer than two months")
			continue
		}

		inventory, err := r.store.Inventory(ctx, pair.ProductID, pair.StoreID)
		if err != nil {
			return nil, fmt.Errorf("%w: inventory for product %d store %d: %w", ErrUpstream, pair.ProductID, pair.StoreID, err)
		}
		if !inventory.Found {
			log.WithFields(fields).Info("[FORECAST] no inventory row, defaulting stock and reorder level to 0")
		}

		f, ok := analytics.ForecastPair(pair, series, inventory, now)
		if !ok {
			log.WithFields(fields).Warn("[FORECAST] regression failed, skipping pair")
			continue
		}
		forecasts = append(forecasts, f)
	}
	return forecasts, nil
}

func (r *Runner) persist(ctx context.Context, run *models.PipelineRun, result *models.RunResult, log logrus.FieldLogger) error {
	if len(result.Anomalies) > 0 {
		log.Infof("[PIPELINE] inserting %d anomalies", len(result.Anomalies))
		if err := r.store.InsertAnomalies(ctx, result.Anomalies); err != nil {
			return fmt.Errorf("%w: insert anomalies: %w", ErrPersist, err)
		}
		run.Anomalies = len(result.Anomalies)
	}

	recs := make([]models.Recommendation, 0, len(result.RestockRecommendations)+len(result.AvoidRestock)+len(result.HighDemandPeriods))
	recs = append(recs, result.RestockRecommendations...)
	recs = append(recs, result.AvoidRestock...)
	recs = append(recs, result.HighDemandPeriods...)
	if len(recs) > 0 {
		log.Infof("[PIPELINE] inserting %d restock, %d avoid restock, %d high-demand recommendations",
			len(result.RestockRecommendations), len(result.AvoidRestock), len(result.HighDemandPeriods))
		if err := r.store.InsertRecommendations(ctx, recs); err != nil {
			return fmt.Errorf("%w: insert recommendations: %w", ErrPersist, err)
		}
		run.Recommendations = len(recs)
	}

	if len(result.Forecasts) > 0 {
		log.Infof("[PIPELINE] inserting %d forecasts", len(result.Forecasts))
		if err := r.store.InsertForecasts(ctx, result.Forecasts); err != nil {
			return fmt.Errorf("%w: insert forecasts: %w", ErrPersist, err)
		}
		run.Forecasts = len(result.Forecasts)
	}
	return nil
}

// record writes the pipeline_runs row. It survives cancellation of the run's context.
func (r *Runner) record(ctx context.Context, run *models.PipelineRun, runErr error, log logrus.FieldLogger) {
	run.FinishedAt = r.now().UTC()
	run.Status = models.RunCompleted
	if runErr != nil {
		run.Status = models.RunFailed
		run.Error = runErr.Error()
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.store.SaveRun(saveCtx, *run); err != nil {
		log.WithError(err).Warn("[PIPELINE] failed to record run")
	}

	entry := log.WithFields(logrus.Fields{
		"sales_read":      run.SalesRead,
		"anomalies":       run.Anomalies,
		"recommendations": run.Recommendations,
		"forecasts":       run.Forecasts,
		"duration_ms":     run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
	})
	if runErr != nil {
		entry.WithError(runErr).Error("❌ [PIPELINE] run failed")
		return
	}
	entry.Info("🏁 [PIPELINE] run completed")
}
