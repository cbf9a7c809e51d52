package analytics

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"retail-insights/models"
)

// PatternReport is the outcome of classifying monthly buckets against global thresholds.
type PatternReport struct {
	Mean          float64
	Std           float64
	HighThreshold float64
	LowThreshold  float64

	Restock      []models.Recommendation
	AvoidRestock []models.Recommendation
	HighDemand   []models.Recommendation
}

// AnalyzePatterns computes mean ± one sample standard deviation over every bucket
// and classifies each bucket against those thresholds. A bucket at or above the high
// threshold yields both a Restock and a HighDemand recommendation; otherwise a bucket
// at or below the low threshold yields an Avoid recommendation.
//
// With fewer than two buckets the standard deviation is undefined and nothing is emitted.
func AnalyzePatterns(buckets []models.MonthlyBucket, createdAt time.Time) PatternReport {
	report := PatternReport{
		Restock:      []models.Recommendation{},
		AvoidRestock: []models.Recommendation{},
		HighDemand:   []models.Recommendation{},
	}
	if len(buckets) < 2 {
		return report
	}

	totals := make([]float64, len(buckets))
	for i, b := range buckets {
		totals[i] = float64(b.TotalQuantity)
	}
	report.Mean, report.Std = stat.MeanStdDev(totals, nil)
	report.HighThreshold = report.Mean + report.Std
	report.LowThreshold = report.Mean - report.Std

	for i, b := range buckets {
		switch {
		case totals[i] >= report.HighThreshold:
			report.Restock = append(report.Restock, newRecommendation(b, models.CategoryRestock, createdAt))
			report.HighDemand = append(report.HighDemand, newRecommendation(b, models.CategoryHighDemand, createdAt))
		case totals[i] <= report.LowThreshold:
			report.AvoidRestock = append(report.AvoidRestock, newRecommendation(b, models.CategoryAvoid, createdAt))
		}
	}
	return report
}

func newRecommendation(b models.MonthlyBucket, category models.RecommendationCategory, createdAt time.Time) models.Recommendation {
	rec := models.Recommendation{
		ProductID:    b.ProductID,
		StoreID:      b.StoreID,
		Month:        b.Month,
		QuantitySold: b.TotalQuantity,
		Category:     category,
		CreatedAt:    createdAt,
	}
	rec.Describe(ProductLabel(b.ProductID), StoreLabel(b.StoreID))
	return rec
}

// ProductLabel is the display name used when a product has no name on record.
func ProductLabel(id int64) string {
	return fmt.Sprintf("Product ID: %d", id)
}

// StoreLabel is the display name used when a store has no name on record.
func StoreLabel(id int64) string {
	return fmt.Sprintf("Store ID: %d", id)
}
