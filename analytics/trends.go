package analytics

import (
	"sort"

	"retail-insights/models"
)

// TopN is the size of the product and store rankings.
const TopN = 5

// Summarize ranks products and stores by total quantity (ties by ascending id) and
// totals quantity per month in ascending month order.
func Summarize(records []models.SaleRecord) models.Trends {
	byProduct := make(map[int64]int)
	byStore := make(map[int64]int)
	byMonth := make(map[string]int)
	for _, rec := range records {
		byProduct[rec.ProductID] += rec.Quantity
		byStore[rec.StoreID] += rec.Quantity
		byMonth[MonthLabel(rec.SoldAt)] += rec.Quantity
	}

	monthly := make([]models.MonthlyTrend, 0, len(byMonth))
	for month, qty := range byMonth {
		monthly = append(monthly, models.MonthlyTrend{Month: month, Quantity: qty})
	}
	sort.Slice(monthly, func(i, j int) bool { return monthly[i].Month < monthly[j].Month })

	return models.Trends{
		TopProducts:   topEntries(byProduct, TopN),
		TopStores:     topEntries(byStore, TopN),
		MonthlyTrends: monthly,
	}
}

func topEntries(totals map[int64]int, n int) []models.TrendEntry {
	entries := make([]models.TrendEntry, 0, len(totals))
	for id, qty := range totals {
		entries = append(entries, models.TrendEntry{ID: id, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Quantity != entries[j].Quantity {
			return entries[i].Quantity > entries[j].Quantity
		}
		return entries[i].ID < entries[j].ID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
