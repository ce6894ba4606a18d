// Package stock holds the pure read-side views over a catalog snapshot:
// status classification, filtering and aggregate metrics.
package stock

import (
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/e"
)

type Status string

const (
	StatusNormal Status = "NORMAL"
	StatusLow    Status = "LOW"
	StatusOut    Status = "OUT"
)

// Classify returns OUT at zero regardless of the threshold, LOW at or below
// the threshold, NORMAL otherwise.
func Classify(p model.Product) Status {
	switch {
	case p.Quantity == 0:
		return StatusOut
	case p.Quantity <= p.MinQuantity:
		return StatusLow
	default:
		return StatusNormal
	}
}

// IsLow matches the low-stock boundary used by the metrics, out-of-stock included.
func IsLow(p model.Product) bool {
	return p.Quantity <= p.MinQuantity
}

type Selector string

const (
	SelectAll Selector = "ALL"
	SelectLow Selector = "LOW"
	SelectOut Selector = "OUT"
)

// ParseSelector accepts all, low and out in any case. Empty means ALL.
func ParseSelector(s string) (Selector, error) {
	switch sel := Selector(strings.ToUpper(strings.TrimSpace(s))); sel {
	case "":
		return SelectAll, nil
	case SelectAll, SelectLow, SelectOut:
		return sel, nil
	default:
		return "", e.Validationf("unknown stock filter %q, use all, low or out", s)
	}
}

// Filter returns the products matching sel, preserving snapshot order.
func Filter(snapshot []model.Product, sel Selector) []model.Product {
	if sel == SelectAll || sel == "" {
		return snapshot
	}
	out := make([]model.Product, 0, len(snapshot))
	for _, p := range snapshot {
		switch sel {
		case SelectLow:
			if st := Classify(p); st == StatusLow || st == StatusOut {
				out = append(out, p)
			}
		case SelectOut:
			if Classify(p) == StatusOut {
				out = append(out, p)
			}
		}
	}
	return out
}
