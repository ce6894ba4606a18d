package handler

import (
	"go-inventory-ledger/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Register mounts the inventory API on api (normally the /api/v1 group).
func Register(api fiber.Router, inv *InventoryHandler, dash *DashboardHandler) {
	// Dashboard Routes
	api.Get("/dashboard/stats", dash.GetDashboardStats)
	api.Get("/dashboard/stock-movement", dash.GetStockMovement)

	// Product Routes
	api.Get("/products", dash.GetProducts)
	api.Post("/products", inv.CreateProduct)

	product := api.Group("/products/:id", middleware.RequireProductID())
	product.Get("", inv.GetProduct)
	product.Patch("", inv.UpdateProduct)
	product.Delete("", inv.DeleteProduct)
	product.Post("/movements", inv.CreateMovement)
	product.Get("/transactions", inv.GetProductTransactions)
	product.Get("/audit", inv.AuditProduct)

	// Ledger Routes
	api.Get("/transactions", inv.GetTransactions)
}
