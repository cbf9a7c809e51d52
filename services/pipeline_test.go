package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-insights/analytics"
	"retail-insights/models"
)

var fixedNow = time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)

func newTestRunner(store Store) (*Runner, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	runner := NewRunner(store, analytics.NewZScore(), RunnerConfig{
		SalesLimit: 500,
		Logger:     logger,
		Now:        func() time.Time { return fixedNow },
	})
	return runner, hook
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "anomalies,patterns", RecommendationStages.String())
	assert.Equal(t, "anomalies,forecasts,trends", ForecastStages.String())
	assert.Equal(t, "anomalies,patterns,forecasts,trends", AllStages.String())
	assert.True(t, AllStages.Has(StageTrends))
	assert.False(t, RecommendationStages.Has(StageForecasts))
}

func TestRunAllStages(t *testing.T) {
	store := newFakeStore()
	runner, _ := newTestRunner(store)

	result, err := runner.Run(context.Background(), nil, AllStages)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 500, store.lastFilter.Limit)
	assert.Nil(t, store.lastFilter.StoreID)

	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, 100, result.Anomalies[0].Quantity)
	assert.Equal(t, models.AnomalyHigh, result.Anomalies[0].AnomalyType)
	assert.Equal(t, "Jasmine Rice 5kg", result.Anomalies[0].ProductName)
	assert.Equal(t, "Downtown", result.Anomalies[0].ShopName)

	require.Len(t, result.RestockRecommendations, 1)
	assert.Equal(t, "2024-04", result.RestockRecommendations[0].Month)
	assert.Equal(t, "Restock Jasmine Rice 5kg for 2024-04 due to high demand", result.RestockRecommendations[0].Recommendation)
	require.Len(t, result.HighDemandPeriods, 1)
	assert.Empty(t, result.AvoidRestock)
	assert.NotNil(t, result.AvoidRestock)

	require.Len(t, result.Forecasts, 1)
	f := result.Forecasts[0]
	assert.InDelta(t, 115.0, f.PredictedDemand, 0.01)
	assert.Equal(t, models.VerdictRestock, f.Verdict)
	assert.Equal(t, "Restock recommended", f.Recommendation)
	assert.Equal(t, "2024-06", f.ForecastPeriod)
	assert.Equal(t, "Downtown", f.ShopName)

	require.NotNil(t, result.Trends)
	require.Len(t, result.Trends.TopProducts, 1)
	assert.Equal(t, 250, result.Trends.TopProducts[0].Quantity)
	assert.Equal(t, "Jasmine Rice 5kg", result.Trends.TopProducts[0].Name)
	assert.Len(t, result.Trends.MonthlyTrends, 4)

	assert.Len(t, store.anomalies, 1)
	assert.Len(t, store.recommendations, 2)
	assert.Len(t, store.forecasts, 1)

	require.Len(t, store.runs, 1)
	run := store.runs[0]
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, models.RunCompleted, run.Status)
	assert.Equal(t, 16, run.SalesRead)
	assert.Equal(t, 1, run.Anomalies)
	assert.Equal(t, 2, run.Recommendations)
	assert.Equal(t, 1, run.Forecasts)
	assert.Empty(t, run.Error)
}

func TestRunRecommendationStagesSkipsForecastsAndTrends(t *testing.T) {
	store := newFakeStore()
	store.inventoryErr = errors.New("must not be called")
	runner, _ := newTestRunner(store)

	result, err := runner.Run(context.Background(), nil, RecommendationStages)
	require.NoError(t, err)
	assert.Empty(t, result.Forecasts)
	assert.NotNil(t, result.Forecasts)
	assert.Nil(t, result.Trends)
	assert.Empty(t, store.forecasts)
}

func TestRunPassesStoreFilter(t *testing.T) {
	store := newFakeStore()
	runner, _ := newTestRunner(store)
	storeID := int64(7)

	_, err := runner.Run(context.Background(), &storeID, RecommendationStages)
	require.NoError(t, err)
	require.NotNil(t, store.lastFilter.StoreID)
	assert.Equal(t, int64(7), *store.lastFilter.StoreID)
	require.Len(t, store.runs, 1)
	assert.Equal(t, int64(7), *store.runs[0].StoreID)
}

func TestRunIsNotIdempotent(t *testing.T) {
	store := newFakeStore()
	runner, _ := newTestRunner(store)

	first, err := runner.Run(context.Background(), nil, RecommendationStages)
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), nil, RecommendationStages)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Len(t, store.anomalies, 2)
	assert.Len(t, store.recommendations, 4)
	assert.Equal(t, store.anomalies[0].SoldAt, store.anomalies[1].SoldAt)
	assert.Len(t, store.runs, 2)
}

func TestRunEmptySales(t *testing.T) {
	store := newFakeStore()
	store.sales = nil
	runner, _ := newTestRunner(store)

	result, err := runner.Run(context.Background(), nil, AllStages)
	require.NoError(t, err)
	assert.Empty(t, result.Anomalies)
	assert.Empty(t, result.RestockRecommendations)
	assert.Empty(t, result.Forecasts)
	require.NotNil(t, result.Trends)
	assert.Empty(t, result.Trends.TopProducts)
	assert.Empty(t, store.anomalies)
	require.Len(t, store.runs, 1)
	assert.Equal(t, models.RunCompleted, store.runs[0].Status)
}

func TestRunAbortsOnSalesFetchFailure(t *testing.T) {
	store := newFakeStore()
	store.salesErr = errors.New("connection refused")
	runner, _ := newTestRunner(store)

	result, err := runner.Run(context.Background(), nil, AllStages)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, store.anomalies)

	require.Len(t, store.runs, 1)
	assert.Equal(t, models.RunFailed, store.runs[0].Status)
	assert.Contains(t, store.runs[0].Error, "connection refused")
}

func TestRunAbortsOnInventoryFailure(t *testing.T) {
	store := newFakeStore()
	store.inventoryErr = errors.New("timeout")
	runner, _ := newTestRunner(store)

	result, err := runner.Run(context.Background(), nil, ForecastStages)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Empty(t, store.anomalies)
}

func TestRunDefaultsMissingInventoryToZero(t *testing.T) {
	store := newFakeStore()
	store.inventory = map[models.PairKey]models.InventoryLevel{}
	runner, hook := newTestRunner(store)

	result, err := runner.Run(context.Background(), nil, ForecastStages)
	require.NoError(t, err)
	require.Len(t, result.Forecasts, 1)
	assert.Zero(t, result.Forecasts[0].CurrentStock)
	assert.Zero(t, result.Forecasts[0].ReorderLevel)
	assert.Equal(t, models.VerdictRestock, result.Forecasts[0].Verdict)

	logged := false
	for _, e := range hook.AllEntries() {
		if e.Message == "[FORECAST] no inventory row, defaulting stock and reorder level to 0" {
			logged = true
			assert.Equal(t, int64(1), e.Data["product_id"])
		}
	}
	assert.True(t, logged)
}

func TestRunReturnsResultWhenPersistFails(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("disk full")
	runner, hook := newTestRunner(store)

	result, err := runner.Run(context.Background(), nil, RecommendationStages)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	require.NotNil(t, result)
	assert.Len(t, result.Anomalies, 1)
	assert.Len(t, result.RestockRecommendations, 1)

	require.Len(t, store.runs, 1)
	assert.Equal(t, models.RunFailed, store.runs[0].Status)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestRunSurvivesRunBookkeepingFailure(t *testing.T) {
	store := newFakeStore()
	store.runErr = errors.New("pipeline_runs missing")
	runner, hook := newTestRunner(store)

	_, err := runner.Run(context.Background(), nil, RecommendationStages)
	require.NoError(t, err)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "[PIPELINE] failed to record run" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunFallsBackToIDLabels(t *testing.T) {
	store := newFakeStore()
	store.namesErr = errors.New("relation stores does not exist")
	runner, hook := newTestRunner(store)

	result, err := runner.Run(context.Background(), nil, RecommendationStages)
	require.NoError(t, err)
	assert.Equal(t, "Product ID: 1", result.Anomalies[0].ProductName)
	assert.Equal(t, "Store ID: 1", result.Anomalies[0].ShopName)
	assert.Equal(t, "Restock Product ID: 1 for 2024-04 due to high demand", result.RestockRecommendations[0].Recommendation)

	// One lookup per id per run, then memoized.
	assert.Equal(t, 2, store.nameLookups)

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestRunUnknownNamesUseIDLabels(t *testing.T) {
	store := newFakeStore()
	store.products = nil
	runner, _ := newTestRunner(store)

	result, err := runner.Run(context.Background(), nil, RecommendationStages)
	require.NoError(t, err)
	assert.Equal(t, "Product ID: 1", result.HighDemandPeriods[0].ProductName)
	assert.Equal(t, "Downtown", result.HighDemandPeriods[0].ShopName)
}
