package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"retail-insights/models"
)

// ZScore flags points whose population z-score exceeds Threshold in absolute value.
type ZScore struct {
	Threshold float64
	MinPoints int
}

// NewZScore returns the default |z| > 3 detector for series of three or more points.
func NewZScore() *ZScore {
	return &ZScore{Threshold: 3, MinPoints: 3}
}

func (z *ZScore) Name() string { return StrategyZScore }

// Detect classifies a flagged point High when its z-score is positive, Low otherwise.
func (z *ZScore) Detect(quantities []float64) ([]Flag, error) {
	if len(quantities) < z.MinPoints {
		return nil, ErrInsufficientData
	}
	if err := checkFinite(quantities); err != nil {
		return nil, err
	}

	mean, std := stat.PopMeanStdDev(quantities, nil)
	var flags []Flag
	for i, q := range quantities {
		score := 0.0
		if std > 0 {
			score = (q - mean) / std
		}
		if math.Abs(score) <= z.Threshold {
			continue
		}
		kind := models.AnomalyLow
		if score > 0 {
			kind = models.AnomalyHigh
		}
		flags = append(flags, Flag{Index: i, Type: kind, Score: score})
	}
	return flags, nil
}
