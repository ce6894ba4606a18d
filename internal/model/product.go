package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest stock level the quantity columns (INTEGER) hold.
const MaxQuantity = math.MaxInt32

// MaxPrice is the exclusive upper bound of a numeric(12,2) price.
var MaxPrice = decimal.New(1, 10)

type Product struct {
	BaseModel
	SKU         string `gorm:"type:varchar(50);not null" json:"sku"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	Category    string `gorm:"type:varchar(100);not null;default:''" json:"category"`

	// Quantity is owned by the stock movement path; field edits never write it.
	Quantity int `gorm:"not null;default:0" json:"quantity"`
	// InitialQuantity is the movement-free baseline recorded on create.
	InitialQuantity int             `gorm:"not null;default:0;<-:create" json:"initial_quantity"`
	MinQuantity     int             `gorm:"not null;default:0" json:"min_quantity"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
}

func (Product) TableName() string {
	return "products"
}

// ProductInput is the payload accepted when a product is created.
type ProductInput struct {
	SKU         string          `json:"sku" validate:"required,max=50"`
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Category    string          `json:"category" validate:"max=100"`
	Quantity    int             `json:"quantity" validate:"gte=0,max=2147483647"`
	MinQuantity int             `json:"min_quantity" validate:"gte=0,max=2147483647"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
}

// ProductPatch is a partial field edit. Nil fields are left untouched.
// Quantity is only present so that an attempt to set it can be rejected.
type ProductPatch struct {
	SKU         *string          `json:"sku"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	MinQuantity *int             `json:"min_quantity"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int             `json:"quantity,omitempty"`
}

// IsEmpty reports whether the patch carries no editable field.
func (p ProductPatch) IsEmpty() bool {
	return p.SKU == nil && p.Name == nil && p.Description == nil &&
		p.Category == nil && p.MinQuantity == nil && p.Price == nil
}

// Columns returns the column/value pairs to write, keyed by database column.
func (p ProductPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.SKU != nil {
		cols["sku"] = *p.SKU
	}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.MinQuantity != nil {
		cols["min_quantity"] = *p.MinQuantity
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	return cols
}

