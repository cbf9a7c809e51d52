package services

import (
	"context"
	"time"

	"retail-insights/models"
)

type fakeStore struct {
	sales     []models.SaleRecord
	inventory map[models.PairKey]models.InventoryLevel
	products  map[int64]string
	stores    map[int64]string

	salesErr     error
	inventoryErr error
	namesErr     error
	insertErr    error
	runErr       error

	lastFilter      SalesFilter
	anomalies       []models.Anomaly
	recommendations []models.Recommendation
	forecasts       []models.Forecast
	runs            []models.PipelineRun
	nameLookups     int

	inquiries []models.Inquiry
	replies   map[int64]string
}

func (f *fakeStore) ListSales(_ context.Context, filter SalesFilter) ([]models.SaleRecord, error) {
	f.lastFilter = filter
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	return f.sales, nil
}

func (f *fakeStore) Inventory(_ context.Context, productID, storeID int64) (models.InventoryLevel, error) {
	if f.inventoryErr != nil {
		return models.InventoryLevel{}, f.inventoryErr
	}
	return f.inventory[models.PairKey{ProductID: productID, StoreID: storeID}], nil
}

func (f *fakeStore) ProductName(_ context.Context, id int64) (string, error) {
	f.nameLookups++
	if f.namesErr != nil {
		return "", f.namesErr
	}
	return f.products[id], nil
}

func (f *fakeStore) StoreName(_ context.Context, id int64) (string, error) {
	f.nameLookups++
	if f.namesErr != nil {
		return "", f.namesErr
	}
	return f.stores[id], nil
}

func (f *fakeStore) InsertAnomalies(_ context.Context, anomalies []models.Anomaly) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.anomalies = append(f.anomalies, anomalies...)
	return nil
}

func (f *fakeStore) InsertRecommendations(_ context.Context, recs []models.Recommendation) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.recommendations = append(f.recommendations, recs...)
	return nil
}

func (f *fakeStore) InsertForecasts(_ context.Context, forecasts []models.Forecast) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.forecasts = append(f.forecasts, forecasts...)
	return nil
}

func (f *fakeStore) SaveRun(_ context.Context, run models.PipelineRun) error {
	if f.runErr != nil {
		return f.runErr
	}
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeStore) PendingInquiries(_ context.Context) ([]models.Inquiry, error) {
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	var pending []models.Inquiry
	for _, q := range f.inquiries {
		if _, done := f.replies[q.ID]; !done {
			pending = append(pending, q)
		}
	}
	return pending, nil
}

func (f *fakeStore) RespondToInquiry(_ context.Context, id int64, response string, _ time.Time) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.replies == nil {
		f.replies = make(map[int64]string)
	}
	f.replies[id] = response
	return nil
}

// weeklySales returns one sale per week starting 2024-01-01 for product 1 at
// store 1: fifteen sales of 10 then a single sale of 100 on 2024-04-15.
// Monthly totals come out as Jan 50, Feb 40, Mar 40, Apr 120.
func weeklySales() []models.SaleRecord {
	start := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	sales := make([]models.SaleRecord, 0, 16)
	for i := 0; i < 16; i++ {
		qty := 10
		if i == 15 {
			qty = 100
		}
		sales = append(sales, models.SaleRecord{
			ProductID: 1,
			StoreID:   1,
			Quantity:  qty,
			SoldAt:    start.AddDate(0, 0, 7*i),
		})
	}
	return sales
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sales: weeklySales(),
		inventory: map[models.PairKey]models.InventoryLevel{
			{ProductID: 1, StoreID: 1}: {AvailableQty: 20, ReorderLevel: 10, Found: true},
		},
		products: map[int64]string{1: "Jasmine Rice 5kg"},
		stores:   map[int64]string{1: "Downtown"},
	}
}
