package analytics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"retail-insights/models"
)

var (
	// ErrInsufficientData is returned for series below a strategy's minimum length.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrSeriesTooLarge is returned for series above a strategy's maximum length.
	ErrSeriesTooLarge = errors.New("dataset too large")
	// ErrDegenerateSeries is returned when a series cannot be fitted at all.
	ErrDegenerateSeries = errors.New("degenerate series")
)

// Strategy names accepted by NewStrategy.
const (
	StrategyIsolationForest = "isolation_forest"
	StrategyZScore          = "zscore"
)

// Flag marks one point of a series as outlying.
type Flag struct {
	Index int
	Type  models.AnomalyType
	Score float64
}

// Strategy scores a single pair's quantities and reports the outlying points.
// Implementations must be deterministic for the same input.
type Strategy interface {
	Name() string
	Detect(quantities []float64) ([]Flag, error)
}

// NewStrategy builds the strategy registered under name.
func NewStrategy(name string, seed int64) (Strategy, error) {
	switch name {
	case StrategyIsolationForest:
		return NewIsolationForest(seed), nil
	case StrategyZScore:
		return NewZScore(), nil
	default:
		return nil, fmt.Errorf("unknown anomaly strategy %q", name)
	}
}

// DetectAnomalies runs the strategy over every pair's series. A pair that is too
// short, too long or fails to fit is logged and skipped; it never stops the others.
func DetectAnomalies(agg Aggregation, strategy Strategy, detectedAt time.Time, log logrus.FieldLogger) []models.Anomaly {
	anomalies := make([]models.Anomaly, 0)
	for _, pair := range agg.Pairs() {
		series := agg.Series[pair]
		fields := logrus.Fields{
			"product_id": pair.ProductID,
			"store_id":   pair.StoreID,
			"strategy":   strategy.Name(),
			"points":     len(series),
		}

		flags, err := strategy.Detect(Quantities(series))
		switch {
		case errors.Is(err, ErrInsufficientData), errors.Is(err, ErrSeriesTooLarge):
			log.WithFields(fields).Infof("[ANOMALY] skipping pair: %v", err)
			continue
		case err != nil:
			log.WithFields(fields).WithError(err).Error("[ANOMALY] detection failed for pair")
			continue
		}

		if len(flags) > 0 {
			log.WithFields(fields).Debugf("[ANOMALY] %d anomalies found", len(flags))
		}
		for _, f := range flags {
			rec := series[f.Index]
			anomalies = append(anomalies, models.Anomaly{
				ProductID:   rec.ProductID,
				StoreID:     rec.StoreID,
				Quantity:    rec.Quantity,
				SoldAt:      rec.SoldAt,
				AnomalyType: f.Type,
				DetectedAt:  detectedAt,
			})
		}
	}
	return anomalies
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value at %d is not finite", ErrDegenerateSeries, i)
		}
	}
	return nil
}
