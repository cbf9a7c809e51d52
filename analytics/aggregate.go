// Package analytics turns raw sale records into anomalies, monthly restock
// recommendations, demand forecasts and top-N trends. Everything here is a pure
// function of its input; persistence and name lookups live in services.
package analytics

import (
	"sort"
	"time"

	"retail-insights/models"
)

// MonthLayout is the calendar-month label format used for buckets and forecast periods.
const MonthLayout = "2006-01"

// MonthLabel returns the UTC calendar month of t.
func MonthLabel(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}

// Aggregation is the grouped form of a batch of sale records.
type Aggregation struct {
	// Series holds each pair's sales ordered by sold_at.
	Series map[models.PairKey][]models.SaleRecord
	// Buckets holds one entry per (product, store, month), ordered by pair then month.
	Buckets []models.MonthlyBucket
}

type bucketKey struct {
	pair  models.PairKey
	month string
}

// Aggregate partitions records by pair and sums quantities per calendar month.
// An empty input yields an empty Aggregation.
func Aggregate(records []models.SaleRecord) Aggregation {
	agg := Aggregation{Series: make(map[models.PairKey][]models.SaleRecord)}
	if len(records) == 0 {
		agg.Buckets = []models.MonthlyBucket{}
		return agg
	}

	totals := make(map[bucketKey]int)
	for _, rec := range records {
		key := rec.Key()
		agg.Series[key] = append(agg.Series[key], rec)
		totals[bucketKey{pair: key, month: MonthLabel(rec.SoldAt)}] += rec.Quantity
	}

	for key := range agg.Series {
		series := agg.Series[key]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].SoldAt.Before(series[j].SoldAt)
		})
	}

	agg.Buckets = make([]models.MonthlyBucket, 0, len(totals))
	for key, total := range totals {
		agg.Buckets = append(agg.Buckets, models.MonthlyBucket{
			ProductID:     key.pair.ProductID,
			StoreID:       key.pair.StoreID,
			Month:         key.month,
			TotalQuantity: total,
		})
	}
	sort.Slice(agg.Buckets, func(i, j int) bool {
		a, b := agg.Buckets[i], agg.Buckets[j]
		if a.Key() != b.Key() {
			return a.Key().Less(b.Key())
		}
		return a.Month < b.Month
	})
	return agg
}

// Pairs returns every pair present in the aggregation in product, store order.
func (a Aggregation) Pairs() []models.PairKey {
	pairs := make([]models.PairKey, 0, len(a.Series))
	for key := range a.Series {
		pairs = append(pairs, key)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Less(pairs[j]) })
	return pairs
}

// MonthlySeries groups the buckets by pair, each slice ordered by month ascending.
func (a Aggregation) MonthlySeries() map[models.PairKey][]models.MonthlyBucket {
	out := make(map[models.PairKey][]models.MonthlyBucket)
	for _, b := range a.Buckets {
		out[b.Key()] = append(out[b.Key()], b)
	}
	return out
}

// Quantities returns the raw quantities of a pair's series as floats.
func Quantities(series []models.SaleRecord) []float64 {
	out := make([]float64, len(series))
	for i, rec := range series {
		out[i] = float64(rec.Quantity)
	}
	return out
}
