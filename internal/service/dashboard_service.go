package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/stock"
	"go-inventory-ledger/pkg/e"
)

const (
	defaultMovementDays = 7
	maxMovementDays     = 366
)

// ProductStatus is a product together with its stock classification.
type ProductStatus struct {
	model.Product
	Status stock.Status `json:"status"`
}

type DashboardService interface {
	GetDashboardStats(ctx context.Context) (*stock.Metrics, error)
	GetProducts(ctx context.Context, selector stock.Selector) ([]ProductStatus, error)
	GetStockMovement(ctx context.Context, days int) ([]model.StockMovementData, error)
}

type dashboardService struct {
	store repository.Store
	now   func() time.Time
}

func NewDashboardService(store repository.Store) DashboardService {
	return &dashboardService{store: store, now: time.Now}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*stock.Metrics, error) {
	products, err := s.store.Products().FindAll(ctx)
	if err != nil {
		return nil, e.Wrap("DashboardService.GetDashboardStats", classify(err))
	}
	metrics := stock.ComputeMetrics(products)
	return &metrics, nil
}

func (s *dashboardService) GetProducts(ctx context.Context, selector stock.Selector) ([]ProductStatus, error) {
	products, err := s.store.Products().FindAll(ctx)
	if err != nil {
		return nil, e.Wrap("DashboardService.GetProducts", classify(err))
	}

	filtered := stock.Filter(products, selector)
	out := make([]ProductStatus, 0, len(filtered))
	for _, p := range filtered {
		out = append(out, ProductStatus{Product: p, Status: stock.Classify(p)})
	}
	return out, nil
}

// GetStockMovement returns one row per day for the last days days, oldest
// first, including days without movements. days is capped at a year.
func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]model.StockMovementData, error) {
	if days <= 0 {
		days = defaultMovementDays
	}
	if days > maxMovementDays {
		days = maxMovementDays
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(days - 1))

	entries, err := s.store.Transactions().FindSince(ctx, start)
	if err != nil {
		return nil, e.Wrap("DashboardService.GetStockMovement", e.Persistence(err))
	}

	byDay := make(map[string]*model.StockMovementData, days)
	series := make([]model.StockMovementData, days)
	for i := 0; i < days; i++ {
		series[i].Date = start.AddDate(0, 0, i).Format(time.DateOnly)
		byDay[series[i].Date] = &series[i]
	}

	for _, t := range entries {
		row, ok := byDay[t.CreatedAt.In(now.Location()).Format(time.DateOnly)]
		if !ok {
			continue
		}
		switch t.Type {
		case model.TxIn:
			row.Inbound += t.Quantity
		case model.TxOut:
			row.Outbound += t.Quantity
		}
	}

	return series, nil
}
