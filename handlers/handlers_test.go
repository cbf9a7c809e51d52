package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retail-insights/middleware"
	"retail-insights/models"
	"retail-insights/services"
)

type fakePipeline struct {
	result  *models.RunResult
	err     error
	stages  services.Stage
	storeID *int64
	calls   int
}

func (p *fakePipeline) Run(_ context.Context, storeID *int64, stages services.Stage) (*models.RunResult, error) {
	p.calls++
	p.stages = stages
	p.storeID = storeID
	return p.result, p.err
}

type fakeInquiries struct {
	replies []models.InquiryReply
	err     error
}

func (f *fakeInquiries) ProcessPending(context.Context) ([]models.InquiryReply, error) {
	return f.replies, f.err
}

type fakeInsights struct {
	resp *models.InsightResponse
	err  error
}

func (f *fakeInsights) Summarize(context.Context, *int64) (*models.InsightResponse, error) {
	return f.resp, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func sampleResult() *models.RunResult {
	soldAt := time.Date(2024, time.April, 15, 12, 0, 0, 0, time.UTC)
	return &models.RunResult{
		RunID: "run-1",
		Anomalies: []models.Anomaly{{
			ProductID: 1, StoreID: 1, Quantity: 100, SoldAt: soldAt, AnomalyType: models.AnomalyHigh,
			ProductName: "Rice", ShopName: "Downtown", DetectedAt: soldAt,
		}},
		RestockRecommendations: []models.Recommendation{{
			ProductID: 1, StoreID: 1, Month: "2024-04", QuantitySold: 120, Category: models.CategoryRestock,
			Recommendation: "Restock Rice for 2024-04 due to high demand",
		}},
		AvoidRestock:      []models.Recommendation{},
		HighDemandPeriods: []models.Recommendation{},
		Forecasts: []models.Forecast{{
			ProductID: 1, StoreID: 1, PredictedDemand: 115, CurrentStock: 20,
			Verdict: models.VerdictRestock, Recommendation: "Restock recommended", ForecastPeriod: "2024-06",
		}},
		Trends: &models.Trends{
			TopProducts:   []models.TrendEntry{{ID: 1, Name: "Rice", Quantity: 250}},
			TopStores:     []models.TrendEntry{{ID: 1, Name: "Downtown", Quantity: 250}},
			MonthlyTrends: []models.MonthlyTrend{{Month: "2024-04", Quantity: 120}},
		},
	}
}

func newTestApp(h *Handler) *fiber.App {
	logger, _ := logtest.NewNullLogger()
	h.Log = logger
	if h.Timeout == 0 {
		h.Timeout = time.Second
	}

	app := fiber.New()
	app.Get("/recommendations", middleware.StoreFilter, h.HandleRecommendations)
	app.Get("/forecasts", middleware.StoreFilter, h.HandleForecasts)
	app.Get("/trends", middleware.StoreFilter, h.HandleTrends)
	app.Get("/trends/export", middleware.StoreFilter, h.HandleTrendsExport)
	app.Get("/insights", middleware.StoreFilter, h.HandleInsights)
	app.Post("/inquiries/process", h.HandleProcessInquiries)
	app.Get("/health/db", h.HandleDBHealth)
	app.Get("/version", h.HandleVersion)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

func TestHandleRecommendations(t *testing.T) {
	pipeline := &fakePipeline{result: sampleResult()}
	app := newTestApp(&Handler{Pipeline: pipeline})

	var body map[string]json.RawMessage
	status := doJSON(t, app, "GET", "/recommendations?store_id=3", &body)

	assert.Equal(t, 200, status)
	assert.Equal(t, services.RecommendationStages, pipeline.stages)
	require.NotNil(t, pipeline.storeID)
	assert.Equal(t, int64(3), *pipeline.storeID)

	assert.ElementsMatch(t, []string{"anomalies", "restock_recommendations", "avoid_restock", "high_demand_periods"}, keys(body))
	assert.JSONEq(t, `[]`, string(body["avoid_restock"]))

	var anomalies []map[string]any
	require.NoError(t, json.Unmarshal(body["anomalies"], &anomalies))
	require.Len(t, anomalies, 1)
	assert.Equal(t, "High", anomalies[0]["anomaly_type"])
	assert.Equal(t, float64(1), anomalies[0]["dynamic_product_id"])
	assert.Equal(t, "2024-04-15T12:00:00Z", anomalies[0]["sold_at"])
}

func TestHandleRecommendationsRejectsBadStoreID(t *testing.T) {
	pipeline := &fakePipeline{result: sampleResult()}
	app := newTestApp(&Handler{Pipeline: pipeline})

	var body map[string]string
	status := doJSON(t, app, "GET", "/recommendations?store_id=abc", &body)

	assert.Equal(t, 400, status)
	assert.Equal(t, "Invalid store_id format", body["error"])
	assert.Zero(t, pipeline.calls)
}

func TestHandleRecommendationsPipelineFailure(t *testing.T) {
	pipeline := &fakePipeline{err: fmt.Errorf("%w: list sales: connection refused", services.ErrUpstream)}
	app := newTestApp(&Handler{Pipeline: pipeline})

	var body map[string]string
	status := doJSON(t, app, "GET", "/recommendations", &body)

	assert.Equal(t, 500, status)
	assert.Equal(t, "Internal Server Error: upstream fetch failed: list sales: connection refused", body["error"])
}

func TestHandleForecasts(t *testing.T) {
	pipeline := &fakePipeline{result: sampleResult()}
	app := newTestApp(&Handler{Pipeline: pipeline})

	var body models.ForecastResponse
	status := doJSON(t, app, "GET", "/forecasts", &body)

	assert.Equal(t, 200, status)
	assert.Equal(t, services.ForecastStages, pipeline.stages)
	assert.Nil(t, pipeline.storeID)
	assert.Equal(t, "run-1", body.RunID)
	require.Len(t, body.Forecasts, 1)
	assert.Equal(t, "Restock recommended", body.Forecasts[0].Recommendation)
	require.NotNil(t, body.Trends)
	assert.Equal(t, 250, body.Trends.TopProducts[0].Quantity)
}

func TestHandleTrends(t *testing.T) {
	pipeline := &fakePipeline{result: sampleResult()}
	app := newTestApp(&Handler{Pipeline: pipeline})

	var body models.Trends
	status := doJSON(t, app, "GET", "/trends", &body)

	assert.Equal(t, 200, status)
	assert.Equal(t, services.StageTrends, pipeline.stages)
	assert.Equal(t, "Downtown", body.TopStores[0].Name)
}

func TestHandleTrendsExport(t *testing.T) {
	app := newTestApp(&Handler{Pipeline: &fakePipeline{result: sampleResult()}})

	resp, err := app.Test(httptest.NewRequest("GET", "/trends/export", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, services.XLSXContentType, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(services.SheetTopProducts)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Rice", "250"}, rows[1])
}

func TestHandleInsights(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		app := newTestApp(&Handler{Pipeline: &fakePipeline{}})
		var body map[string]string
		assert.Equal(t, 503, doJSON(t, app, "GET", "/insights", &body))
		assert.Equal(t, "Insights are not configured", body["error"])
	})

	t.Run("ok", func(t *testing.T) {
		insights := &fakeInsights{resp: &models.InsightResponse{
			ReportName: "Monthly Demand Outlook",
			RunID:      "run-1",
			AiAnalysis: models.AiAnalysis{Summary: "steady", PositiveFactors: []string{}, NegativeFactors: []string{}},
		}}
		app := newTestApp(&Handler{Pipeline: &fakePipeline{}, Insights: insights})
		var body models.InsightResponse
		assert.Equal(t, 200, doJSON(t, app, "GET", "/insights", &body))
		assert.Equal(t, "steady", body.AiAnalysis.Summary)
	})

	t.Run("model failure", func(t *testing.T) {
		insights := &fakeInsights{err: services.ErrInsightFormat}
		app := newTestApp(&Handler{Pipeline: &fakePipeline{}, Insights: insights})
		assert.Equal(t, 502, doJSON(t, app, "GET", "/insights", nil))
	})

	t.Run("canceled", func(t *testing.T) {
		insights := &fakeInsights{err: fmt.Errorf("list sales: %w", context.Canceled)}
		app := newTestApp(&Handler{Pipeline: &fakePipeline{}, Insights: insights})
		assert.Equal(t, 500, doJSON(t, app, "GET", "/insights", nil))
	})

	t.Run("pipeline failure", func(t *testing.T) {
		insights := &fakeInsights{err: fmt.Errorf("%w: boom", services.ErrUpstream)}
		app := newTestApp(&Handler{Pipeline: &fakePipeline{}, Insights: insights})
		assert.Equal(t, 500, doJSON(t, app, "GET", "/insights", nil))
	})
}

func TestHandleProcessInquiries(t *testing.T) {
	inquiries := &fakeInquiries{replies: []models.InquiryReply{{ID: 4, InquiryText: "price?", ResponseText: "catalog"}}}
	app := newTestApp(&Handler{Inquiries: inquiries})

	var body struct {
		Processed int                   `json:"processed"`
		Replies   []models.InquiryReply `json:"replies"`
	}
	assert.Equal(t, 200, doJSON(t, app, "POST", "/inquiries/process", &body))
	assert.Equal(t, 1, body.Processed)
	assert.Equal(t, int64(4), body.Replies[0].ID)

	inquiries.err = errors.New("down")
	assert.Equal(t, 500, doJSON(t, app, "POST", "/inquiries/process", nil))
}

func TestHandleDBHealth(t *testing.T) {
	app := newTestApp(&Handler{DB: fakePinger{}})
	var body map[string]string
	assert.Equal(t, 200, doJSON(t, app, "GET", "/health/db", &body))
	assert.Equal(t, "ok", body["status"])

	app = newTestApp(&Handler{DB: fakePinger{err: errors.New("no route to host")}})
	assert.Equal(t, 503, doJSON(t, app, "GET", "/health/db", &body))
	assert.Equal(t, "database unreachable", body["error"])
}

func TestHandleVersion(t *testing.T) {
	app := newTestApp(&Handler{Version: "1.2.0"})
	var body map[string]any
	assert.Equal(t, 200, doJSON(t, app, "GET", "/version", &body))
	assert.Equal(t, "1.2.0", body["version"])
	assert.NotEmpty(t, body["go_version"])
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
