package service

import (
	"context"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/e"

	"github.com/google/uuid"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// Ledger appends entries through whatever TransactionRepository it is given,
// usually the transaction-scoped one of an open Store.Atomic.
type Ledger struct {
	repo repository.TransactionRepository
}

func NewLedger(repo repository.TransactionRepository) *Ledger {
	return &Ledger{repo: repo}
}

func (l *Ledger) Append(ctx context.Context, productID uuid.UUID, txType model.TransactionType, quantity int, notes string) (*model.Transaction, error) {
	if productID == uuid.Nil {
		return nil, e.Validationf("product id is required")
	}
	if !txType.Valid() {
		return nil, e.Validationf("transaction type must be IN or OUT, got %q", txType)
	}
	if quantity <= 0 {
		return nil, e.Validationf("quantity must be positive, got %d", quantity)
	}

	entry := &model.Transaction{
		ProductID: productID,
		Type:      txType,
		Quantity:  quantity,
		Notes:     notes,
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		return nil, e.Persistence(err)
	}
	return entry, nil
}

// LedgerService is the read side of the ledger.
type LedgerService interface {
	ListFor(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error)
	Recent(ctx context.Context, limit int) ([]model.Transaction, error)
}

type ledgerService struct {
	store repository.Store
}

func NewLedgerService(store repository.Store) LedgerService {
	return &ledgerService{store: store}
}

// ListFor returns a product's entries oldest first. Deleted products keep
// their history.
func (s *ledgerService) ListFor(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error) {
	const op = "LedgerService.ListFor"

	if _, err := s.store.Products().FindByIDUnscoped(ctx, productID); err != nil {
		return nil, e.Wrap(op, classify(err))
	}

	entries, err := s.store.Transactions().FindByProduct(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, e.Persistence(err))
	}
	return entries, nil
}

// Recent returns the newest entries across all products. A non-positive
// limit means the default; larger limits are capped.
func (s *ledgerService) Recent(ctx context.Context, limit int) ([]model.Transaction, error) {
	switch {
	case limit <= 0:
		limit = defaultRecentLimit
	case limit > maxRecentLimit:
		limit = maxRecentLimit
	}

	entries, err := s.store.Transactions().FindRecent(ctx, limit)
	if err != nil {
		return nil, e.Wrap("LedgerService.Recent", e.Persistence(err))
	}
	return entries, nil
}

// sumLedger totals the IN and OUT quantities of entries.
func sumLedger(entries []model.Transaction) (in, out int) {
	for _, t := range entries {
		switch t.Type {
		case model.TxIn:
			in += t.Quantity
		case model.TxOut:
			out += t.Quantity
		}
	}
	return in, out
}

