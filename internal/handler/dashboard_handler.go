package handler

import (
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetProducts lists products with their stock status.
// Query params: status (all, low, out; default all)
func (h *DashboardHandler) GetProducts(c *fiber.Ctx) error {
	selector, err := stock.ParseSelector(c.Query("status"))
	if err != nil {
		return writeError(c, err)
	}

	products, err := h.service.GetProducts(c.UserContext(), selector)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7, at most 366)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days <= 0 {
		days = 7
	}

	data, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"period": len(data),
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"total_products":     stats.Total,
		"low_stock_count":    stats.LowStock,
		"out_of_stock_count": stats.OutOfStock,
		"total_valuation":    stats.TotalValueDisplay(),
	})
}
