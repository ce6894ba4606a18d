package model

import "github.com/google/uuid"

// Event actions broadcast after a committed change.
const (
	ActionProductCreated     = "product_created"
	ActionProductUpdated     = "product_updated"
	ActionProductDeleted     = "product_deleted"
	ActionTransactionCreated = "transaction_created"
)

// StockEvent is the payload pushed to websocket clients and the event topic.
type StockEvent struct {
	Type        string       `json:"type"`
	Action      string       `json:"action"`
	ProductID   uuid.UUID    `json:"product_id"`
	Product     *Product     `json:"product,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
	OldQuantity *int         `json:"old_quantity,omitempty"`
	Message     string       `json:"message"`
}

// NewStockEvent builds a "stock_update" event for product.
func NewStockEvent(action string, product *Product, message string) StockEvent {
	ev := StockEvent{
		Type:    "stock_update",
		Action:  action,
		Product: product,
		Message: message,
	}
	if product != nil {
		ev.ProductID = product.ID
	}
	return ev
}
