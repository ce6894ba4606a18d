package stock

import (
	"go-inventory-ledger/internal/model"

	"github.com/shopspring/decimal"
)

type Metrics struct {
	Total      int             `json:"total_products"`
	LowStock   int             `json:"low_stock_count"`
	OutOfStock int             `json:"out_of_stock_count"`
	TotalValue decimal.Decimal `json:"total_valuation"`
}

// ComputeMetrics aggregates a snapshot. The valuation is exact; only
// TotalValueDisplay rounds.
func ComputeMetrics(snapshot []model.Product) Metrics {
	m := Metrics{Total: len(snapshot), TotalValue: decimal.Zero}
	for _, p := range snapshot {
		if IsLow(p) {
			m.LowStock++
		}
		if p.Quantity == 0 {
			m.OutOfStock++
		}
		m.TotalValue = m.TotalValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return m
}

// TotalValueDisplay formats the valuation with two fractional digits.
func (m Metrics) TotalValueDisplay() string {
	return m.TotalValue.StringFixed(2)
}
