package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxIn  TransactionType = "IN"
	TxOut TransactionType = "OUT"
)

// Valid reports whether t is one of the known movement directions.
func (t TransactionType) Valid() bool {
	return t == TxIn || t == TxOut
}

// Delta returns the signed change a movement of quantity units applies.
func (t TransactionType) Delta(quantity int) int {
	if t == TxOut {
		return -quantity
	}
	return quantity
}

// Transaction is one immutable ledger entry.
type Transaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Type      TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Quantity  int             `gorm:"not null" json:"quantity"` // magnitude, always > 0
	Notes     string          `gorm:"type:text;not null;default:''" json:"notes"`
	CreatedAt time.Time       `gorm:"<-:create" json:"created_at"`
}

func (Transaction) TableName() string {
	return "inventory_transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

// Signed returns the entry's contribution to the product quantity.
func (t Transaction) Signed() int {
	return t.Type.Delta(t.Quantity)
}

// MovementRequest is the input of a stock movement.
type MovementRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Type      TransactionType `json:"type" validate:"required,oneof=IN OUT"`
	Quantity  int             `json:"quantity" validate:"required,gt=0,max=2147483647"`
	Notes     string          `json:"notes"`
}

// StockMovementData is one day of inbound/outbound totals for charts.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}
