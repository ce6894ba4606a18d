package repository

import (
	"context"

	"gorm.io/gorm"
)

type gormStore struct {
	db           *gorm.DB
	products     ProductRepository
	transactions TransactionRepository
}

// NewGormStore builds the PostgreSQL-backed Store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{
		db:           db,
		products:     NewProductRepo(db),
		transactions: NewTransactionRepo(db),
	}
}

func (s *gormStore) Products() ProductRepository {
	return s.products
}

func (s *gormStore) Transactions() TransactionRepository {
	return s.transactions
}

// Atomic wraps fn in a database transaction; repositories handed to fn share it.
func (s *gormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
