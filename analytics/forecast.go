package analytics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"retail-insights/models"
)

// ForecastHorizon is how far ahead of the run the forecast period label points.
const ForecastHorizon = 30 * 24 * time.Hour

// PredictNext fits an ordinary least squares line of total against month index
// (0, 1, 2, ...) and evaluates it at index len(totals). Negative predictions are
// clamped to zero.
func PredictNext(totals []float64) (float64, error) {
	if len(totals) < 2 {
		return 0, ErrInsufficientData
	}
	if err := checkFinite(totals); err != nil {
		return 0, err
	}
	xs := make([]float64, len(totals))
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, totals, nil, false)
	predicted := alpha + beta*float64(len(totals))
	if math.IsNaN(predicted) || math.IsInf(predicted, 0) {
		return 0, ErrDegenerateSeries
	}
	return math.Max(0, predicted), nil
}

// ForecastPair predicts next-period demand for one pair from its month-ordered
// buckets and compares it with stock on hand plus the reorder level. ok is false
// when the pair has fewer than two buckets or the fit fails.
//
// The forecast period is the month 30 days after now, independent of which month
// the regression index actually lands on.
func ForecastPair(pair models.PairKey, series []models.MonthlyBucket, inventory models.InventoryLevel, now time.Time) (models.Forecast, bool) {
	totals := make([]float64, len(series))
	for i, b := range series {
		totals[i] = float64(b.TotalQuantity)
	}
	predicted, err := PredictNext(totals)
	if err != nil {
		return models.Forecast{}, false
	}

	verdict := models.VerdictNoRestock
	if predicted > float64(inventory.AvailableQty+inventory.ReorderLevel) {
		verdict = models.VerdictRestock
	}

	return models.Forecast{
		ProductID:       pair.ProductID,
		StoreID:         pair.StoreID,
		PredictedDemand: roundDemand(predicted),
		CurrentStock:    inventory.AvailableQty,
		ReorderLevel:    inventory.ReorderLevel,
		Verdict:         verdict,
		Recommendation:  verdict.Text(),
		ForecastPeriod:  MonthLabel(now.Add(ForecastHorizon)),
		CreatedAt:       now,
	}, true
}

// roundDemand normalizes a prediction to two decimal places before it leaves the core.
func roundDemand(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
