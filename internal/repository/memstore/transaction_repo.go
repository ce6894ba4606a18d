package memstore

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
)

type transactionRepo struct {
	x *executor
}

func (r *transactionRepo) Create(ctx context.Context, transaction *model.Transaction) error {
	return r.x.write(ctx, OpTransactionCreate, func(st *state, undo func(func())) error {
		if transaction.ID == uuid.Nil {
			transaction.ID = uuid.New()
		}
		transaction.CreatedAt = r.x.store.now()

		st.transactions = append(st.transactions, *transaction)
		undo(func() {
			st.transactions = st.transactions[:len(st.transactions)-1]
		})
		return nil
	})
}

func (r *transactionRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error) {
	return r.filter(ctx, func(t model.Transaction) bool { return t.ProductID == productID })
}

func (r *transactionRepo) FindRecent(ctx context.Context, limit int) ([]model.Transaction, error) {
	all, err := r.filter(ctx, func(model.Transaction) bool { return true })
	if err != nil {
		return nil, err
	}
	// Insertion order is chronological; reverse it for newest first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *transactionRepo) FindSince(ctx context.Context, since time.Time) ([]model.Transaction, error) {
	return r.filter(ctx, func(t model.Transaction) bool { return !t.CreatedAt.Before(since) })
}

func (r *transactionRepo) filter(ctx context.Context, keep func(model.Transaction) bool) ([]model.Transaction, error) {
	result := make([]model.Transaction, 0)
	err := r.x.read(ctx, func(st *state) error {
		for _, t := range st.transactions {
			if keep(t) {
				result = append(result, t)
			}
		}
		return nil
	})
	return result, err
}
