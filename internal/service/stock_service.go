package service

import (
	"context"
	"errors"
	"fmt"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/e"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/moby/locker"
	"go.uber.org/zap"
)

// MovementResult is the outcome of a committed stock movement.
type MovementResult struct {
	Transaction *model.Transaction `json:"transaction"`
	Product     *model.Product     `json:"product"`
}

// Reconciliation compares a product's stored quantity with the one its
// ledger implies.
type Reconciliation struct {
	ProductID       uuid.UUID `json:"product_id"`
	SKU             string    `json:"sku"`
	InitialQuantity int       `json:"initial_quantity"`
	Inbound         int       `json:"inbound"`
	Outbound        int       `json:"outbound"`
	Entries         int       `json:"entries"`
	Expected        int       `json:"expected_quantity"`
	Stored          int       `json:"stored_quantity"`
	Consistent      bool      `json:"consistent"`
}

// StockService is the only writer of product quantities.
type StockService interface {
	RecordMovement(ctx context.Context, req *model.MovementRequest) (*MovementResult, error)
	Reconcile(ctx context.Context, id uuid.UUID) (*Reconciliation, error)
	// ReconcileAll audits every live product and returns the ones that drifted.
	ReconcileAll(ctx context.Context) ([]Reconciliation, error)
}

type stockService struct {
	store     repository.Store
	events    *OrderedPublisher
	logger    *zap.Logger
	locks     *locker.Locker
}

func NewStockService(store repository.Store, publisher EventPublisher, logger *zap.Logger) StockService {
	return &stockService{
		store:     store,
		events:    ordered(publisher, logger),
		logger:    logger,
		locks:     locker.New(),
	}
}

func (s *stockService) RecordMovement(ctx context.Context, req *model.MovementRequest) (*MovementResult, error) {
	const op = "StockService.RecordMovement"

	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, e.Wrap(op, validationError(errs))
	}

	s.locks.Lock(req.ProductID.String())
	defer s.locks.Unlock(req.ProductID.String())

	var (
		result      MovementResult
		oldQuantity int
	)
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		product, err := tx.Products().FindByIDForUpdate(ctx, req.ProductID)
		if err != nil {
			return classify(err)
		}

		delta := req.Type.Delta(req.Quantity)
		if delta > 0 && product.Quantity > model.MaxQuantity-delta {
			return e.Validationf("receiving %d units would exceed the maximum quantity of %d (%d on hand)",
				req.Quantity, model.MaxQuantity, product.Quantity)
		}
		if product.Quantity+delta < 0 {
			return e.InsufficientStock(product.Quantity, req.Quantity)
		}

		// The conditional write re-checks the guard in the store itself.
		if err := tx.Products().AdjustQuantity(ctx, product.ID, delta); err != nil {
			if errors.Is(err, repository.ErrConditionFailed) {
				return e.InsufficientStock(product.Quantity, req.Quantity)
			}
			return classify(err)
		}

		entry, err := NewLedger(tx.Transactions()).Append(ctx, product.ID, req.Type, req.Quantity, req.Notes)
		if err != nil {
			return err
		}

		updated, err := tx.Products().FindByID(ctx, product.ID)
		if err != nil {
			return classify(err)
		}

		oldQuantity = product.Quantity
		result = MovementResult{Transaction: entry, Product: updated}
		return nil
	})
	if err != nil {
		err = classify(err)
		if errors.Is(err, e.ErrPersistence) {
			s.logger.Error("stock movement rolled back",
				zap.Stringer("product_id", req.ProductID),
				zap.String("type", string(req.Type)),
				zap.Int("quantity", req.Quantity),
				zap.Error(err),
			)
		}
		return nil, e.Wrap(op, err)
	}

	s.logger.Info("stock movement recorded",
		zap.Stringer("product_id", result.Product.ID),
		zap.String("type", string(result.Transaction.Type)),
		zap.Int("quantity", result.Transaction.Quantity),
		zap.Int("new_quantity", result.Product.Quantity),
	)

	event := model.NewStockEvent(model.ActionTransactionCreated, result.Product, movementMessage(result.Product, result.Transaction))
	event.Transaction = result.Transaction
	event.OldQuantity = &oldQuantity
	s.events.enqueue(event)

	return &result, nil
}

func movementMessage(p *model.Product, t *model.Transaction) string {
	verb := "added"
	if t.Type == model.TxOut {
		verb = "removed"
	}
	return fmt.Sprintf("%s %d units of '%s' (%s)", verb, t.Quantity, p.Name, t.Type)
}

// Reconcile recomputes initial_quantity + IN - OUT for one product, deleted
// or not, and compares it with the stored quantity.
func (s *stockService) Reconcile(ctx context.Context, id uuid.UUID) (*Reconciliation, error) {
	const op = "StockService.Reconcile"

	s.locks.Lock(id.String())
	defer s.locks.Unlock(id.String())

	var rec *Reconciliation
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		// The row lock keeps a movement from another process from landing
		// between the two reads.
		product, err := tx.Products().FindByIDUnscopedForUpdate(ctx, id)
		if err != nil {
			return classify(err)
		}
		entries, err := tx.Transactions().FindByProduct(ctx, id)
		if err != nil {
			return e.Persistence(err)
		}
		rec = reconcile(product, entries)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, classify(err))
	}

	if !rec.Consistent {
		s.logger.Error("ledger does not match stored quantity",
			zap.Stringer("product_id", rec.ProductID),
			zap.Int("stored", rec.Stored),
			zap.Int("expected", rec.Expected),
		)
	}
	return rec, nil
}

func (s *stockService) ReconcileAll(ctx context.Context) ([]Reconciliation, error) {
	products, err := s.store.Products().FindAll(ctx)
	if err != nil {
		return nil, e.Wrap("StockService.ReconcileAll", classify(err))
	}

	drifted := []Reconciliation{}
	for _, p := range products {
		rec, err := s.Reconcile(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if !rec.Consistent {
			drifted = append(drifted, *rec)
		}
	}
	return drifted, nil
}

func reconcile(p *model.Product, entries []model.Transaction) *Reconciliation {
	in, out := sumLedger(entries)
	expected := p.InitialQuantity + in - out
	return &Reconciliation{
		ProductID:       p.ID,
		SKU:             p.SKU,
		InitialQuantity: p.InitialQuantity,
		Inbound:         in,
		Outbound:        out,
		Entries:         len(entries),
		Expected:        expected,
		Stored:          p.Quantity,
		Consistent:      expected == p.Quantity,
	}
}
