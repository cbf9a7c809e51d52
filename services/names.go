package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"retail-insights/analytics"
	"retail-insights/models"
)

// nameBook memoizes display names for the lifetime of one run.
type nameBook struct {
	resolver NameResolver
	log      logrus.FieldLogger
	products map[int64]string
	stores   map[int64]string
}

func newNameBook(resolver NameResolver, log logrus.FieldLogger) *nameBook {
	return &nameBook{
		resolver: resolver,
		log:      log,
		products: make(map[int64]string),
		stores:   make(map[int64]string),
	}
}

func (b *nameBook) product(ctx context.Context, id int64) string {
	if name, ok := b.products[id]; ok {
		return name
	}
	name, err := b.resolver.ProductName(ctx, id)
	if err != nil {
		b.log.WithError(err).WithField("product_id", id).Warn("[NAMES] product lookup failed, using id label")
	}
	if name == "" {
		name = analytics.ProductLabel(id)
	}
	b.products[id] = name
	return name
}

func (b *nameBook) store(ctx context.Context, id int64) string {
	if name, ok := b.stores[id]; ok {
		return name
	}
	name, err := b.resolver.StoreName(ctx, id)
	if err != nil {
		b.log.WithError(err).WithField("store_id", id).Warn("[NAMES] store lookup failed, using id label")
	}
	if name == "" {
		name = analytics.StoreLabel(id)
	}
	b.stores[id] = name
	return name
}

func (b *nameBook) enrichAnomalies(ctx context.Context, anomalies []models.Anomaly) {
	for i := range anomalies {
		anomalies[i].ProductName = b.product(ctx, anomalies[i].ProductID)
		anomalies[i].ShopName = b.store(ctx, anomalies[i].StoreID)
	}
}

func (b *nameBook) enrichRecommendations(ctx context.Context, recs []models.Recommendation) {
	for i := range recs {
		recs[i].Describe(b.product(ctx, recs[i].ProductID), b.store(ctx, recs[i].StoreID))
	}
}

func (b *nameBook) enrichForecasts(ctx context.Context, forecasts []models.Forecast) {
	for i := range forecasts {
		forecasts[i].ProductName = b.product(ctx, forecasts[i].ProductID)
		forecasts[i].ShopName = b.store(ctx, forecasts[i].StoreID)
	}
}

func (b *nameBook) enrichTrends(ctx context.Context, trends *models.Trends) {
	for i := range trends.TopProducts {
		trends.TopProducts[i].Name = b.product(ctx, trends.TopProducts[i].ID)
	}
	for i := range trends.TopStores {
		trends.TopStores[i].Name = b.store(ctx, trends.TopStores[i].ID)
	}
}
