package repository

import (
	"context"
	"errors"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
)

var (
	// ErrRecordNotFound is returned by every lookup that matches no live row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrConditionFailed is returned when a conditional write matched no row.
	ErrConditionFailed = errors.New("conditional write matched no row")
	// ErrDuplicateKey is returned when a write collides with a unique key (live SKU).
	ErrDuplicateKey = errors.New("duplicate key")
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDUnscoped also returns soft-deleted products.
	FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDUnscopedForUpdate locks a live or soft-deleted row.
	FindByIDUnscopedForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	// AdjustQuantity applies delta only if the resulting quantity stays >= 0.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository has no update or delete: the ledger is append-only.
type TransactionRepository interface {
	Create(ctx context.Context, transaction *model.Transaction) error
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error)
	FindRecent(ctx context.Context, limit int) ([]model.Transaction, error)
	FindSince(ctx context.Context, since time.Time) ([]model.Transaction, error)
}

// Store groups the collections and runs units of work atomically.
type Store interface {
	Products() ProductRepository
	Transactions() TransactionRepository
	// Atomic runs fn against a transaction-scoped Store. A non-nil error from
	// fn, or a failed commit, discards every write made through it.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}
