// Package memstore is an in-process implementation of repository.Store.
//
// All collections live behind one mutex. Atomic holds that mutex for the
// whole unit of work and records an undo entry for every write, so a failing
// unit leaves no trace.
package memstore

import (
	"context"
	"sync"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
)

// Write operation names passed to a FaultFunc.
const (
	OpProductCreate     = "products.create"
	OpProductUpdate     = "products.update"
	OpProductAdjust     = "products.adjust"
	OpProductDelete     = "products.delete"
	OpTransactionCreate = "transactions.create"
)

// FaultFunc is consulted before every write; a non-nil result fails the write.
type FaultFunc func(op string) error

type Option func(*Store)

// WithFault installs a fault hook, used to simulate store failures.
func WithFault(fn FaultFunc) Option {
	return func(s *Store) { s.fault = fn }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type Store struct {
	mu    sync.Mutex
	data  *state
	fault FaultFunc
	now   func() time.Time
}

func New(opts ...Option) *Store {
	s := &Store{
		data: newState(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetFault replaces the fault hook at runtime.
func (s *Store) SetFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

func (s *Store) Products() repository.ProductRepository {
	return &productRepo{x: s.exec(nil)}
}

func (s *Store) Transactions() repository.TransactionRepository {
	return &transactionRepo{x: s.exec(nil)}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j := &journal{}
	err := fn(&txStore{x: s.exec(j)})
	if err != nil {
		j.rollback()
		return err
	}
	return nil
}

// exec returns the executor used by repositories. Outside a transaction
// (j == nil) every call takes the store mutex; inside one it is already held.
func (s *Store) exec(j *journal) *executor {
	return &executor{store: s, journal: j}
}

type txStore struct {
	x *executor
}

func (t *txStore) Products() repository.ProductRepository {
	return &productRepo{x: t.x}
}

func (t *txStore) Transactions() repository.TransactionRepository {
	return &transactionRepo{x: t.x}
}

// Atomic on a transaction-scoped store joins the outer unit of work.
func (t *txStore) Atomic(ctx context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

type executor struct {
	store   *Store
	journal *journal
}

func (x *executor) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if x.journal == nil {
		x.store.mu.Lock()
		defer x.store.mu.Unlock()
	}
	return fn(x.store.data)
}

func (x *executor) write(ctx context.Context, op string, fn func(st *state, undo func(func())) error) error {
	return x.read(ctx, func(st *state) error {
		if x.store.fault != nil {
			if err := x.store.fault(op); err != nil {
				return err
			}
		}
		return fn(st, x.journal.push)
	})
}

type journal struct {
	undo []func()
}

// push is safe on a nil journal: single writes outside Atomic need no undo.
func (j *journal) push(fn func()) {
	if j == nil {
		return
	}
	j.undo = append(j.undo, fn)
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

type state struct {
	products     map[uuid.UUID]*model.Product
	order        []uuid.UUID
	transactions []model.Transaction
}

func newState() *state {
	return &state{products: make(map[uuid.UUID]*model.Product)}
}
