package handler

import (
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	catalog service.CatalogService
	stock   service.StockService
	ledger  service.LedgerService
}

func NewInventoryHandler(catalog service.CatalogService, stock service.StockService, ledger service.LedgerService) *InventoryHandler {
	return &InventoryHandler{catalog: catalog, stock: stock, ledger: ledger}
}

// movementBody is the payload of POST /products/:id/movements.
type movementBody struct {
	Type     model.TransactionType `json:"type"`
	Quantity int                   `json:"quantity"`
	Notes    string                `json:"notes"`
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var req model.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.catalog.Create(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.catalog.Get(c.UserContext(), middleware.ProductID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product)
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	var patch model.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.catalog.Update(c.UserContext(), middleware.ProductID(c), &patch)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.catalog.Delete(c.UserContext(), middleware.ProductID(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func (h *InventoryHandler) CreateMovement(c *fiber.Ctx) error {
	var body movementBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.stock.RecordMovement(c.UserContext(), &model.MovementRequest{
		ProductID: middleware.ProductID(c),
		Type:      body.Type,
		Quantity:  body.Quantity,
		Notes:     body.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": result})
}

func (h *InventoryHandler) GetProductTransactions(c *fiber.Ctx) error {
	entries, err := h.ledger.ListFor(c.UserContext(), middleware.ProductID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(entries)
}

func (h *InventoryHandler) AuditProduct(c *fiber.Ctx) error {
	rec, err := h.stock.Reconcile(c.UserContext(), middleware.ProductID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rec)
}

// GetTransactions lists the newest ledger entries. Query params: limit
func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	entries, err := h.ledger.Recent(c.UserContext(), c.QueryInt("limit"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(entries)
}
