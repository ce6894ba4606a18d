package service_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/repository/memstore"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/stock"
	"go-inventory-ledger/pkg/e"
)

type recordingPublisher struct {
	events chan model.StockEvent
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(chan model.StockEvent, 64)}
}

func (p *recordingPublisher) Publish(_ context.Context, event model.StockEvent) error {
	p.events <- event
	return nil
}

func (p *recordingPublisher) next(c *qt.C) model.StockEvent {
	select {
	case ev := <-p.events:
		return ev
	case <-time.After(2 * time.Second):
		c.Fatal("no event published")
		return model.StockEvent{}
	}
}

type fixture struct {
	store   *memstore.Store
	pub     *recordingPublisher
	catalog service.CatalogService
	stock   service.StockService
	ledger  service.LedgerService
}

func newFixture(opts ...memstore.Option) *fixture {
	store := memstore.New(opts...)
	pub := newRecordingPublisher()
	logger := zap.NewNop()
	return &fixture{
		store:   store,
		pub:     pub,
		catalog: service.NewCatalogService(store, pub, logger),
		stock:   service.NewStockService(store, pub, logger),
		ledger:  service.NewLedgerService(store),
	}
}

func (f *fixture) addProduct(c *qt.C, sku string, qty, minQty int, price string) *model.Product {
	p, err := f.catalog.Create(context.Background(), &model.ProductInput{
		SKU:         sku,
		Name:        "Item " + sku,
		Quantity:    qty,
		MinQuantity: minQty,
		Price:       decimal.RequireFromString(price),
	})
	c.Assert(err, qt.IsNil)
	f.pub.next(c)
	return p
}

func (f *fixture) move(id uuid.UUID, typ model.TransactionType, qty int) (*service.MovementResult, error) {
	return f.stock.RecordMovement(context.Background(), &model.MovementRequest{
		ProductID: id,
		Type:      typ,
		Quantity:  qty,
	})
}

func TestCatalog_Create(t *testing.T) {
	c := qt.New(t)
	f := newFixture()

	p := f.addProduct(c, "A1", 10, 3, "2.50")
	c.Assert(p.ID, qt.Not(qt.Equals), uuid.Nil)
	c.Assert(p.Quantity, qt.Equals, 10)
	c.Assert(p.InitialQuantity, qt.Equals, 10)

	list, err := f.catalog.List(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 1)
	c.Assert(list[0].SKU, qt.Equals, "A1")
}

func TestCatalog_CreateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input model.ProductInput
	}{
		{"empty sku", model.ProductInput{SKU: "  ", Name: "x"}},
		{"empty name", model.ProductInput{SKU: "A1"}},
		{"negative quantity", model.ProductInput{SKU: "A1", Name: "x", Quantity: -1}},
		{"negative min quantity", model.ProductInput{SKU: "A1", Name: "x", MinQuantity: -1}},
		{"negative price", model.ProductInput{SKU: "A1", Name: "x", Price: decimal.RequireFromString("-1")}},
		{"sub-cent price", model.ProductInput{SKU: "A1", Name: "x", Price: decimal.RequireFromString("1.005")}},
		{"quantity above column range", model.ProductInput{SKU: "A1", Name: "x", Quantity: model.MaxQuantity + 1}},
		{"min quantity above column range", model.ProductInput{SKU: "A1", Name: "x", MinQuantity: model.MaxQuantity + 1}},
		{"price above column range", model.ProductInput{SKU: "A1", Name: "x", Price: decimal.RequireFromString("10000000000")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			f := newFixture()

			_, err := f.catalog.Create(context.Background(), &tt.input)
			c.Assert(err, qt.ErrorIs, e.ErrValidation)

			list, err := f.catalog.List(context.Background())
			c.Assert(err, qt.IsNil)
			c.Assert(list, qt.HasLen, 0)
		})
	}
}

func TestCatalog_DuplicateSKU(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	ctx := context.Background()

	first := f.addProduct(c, "A1", 1, 0, "1")
	_, err := f.catalog.Create(ctx, &model.ProductInput{SKU: "A1", Name: "again"})
	c.Assert(err, qt.ErrorIs, e.ErrDuplicateSKU)
	c.Assert(err, qt.ErrorIs, e.ErrValidation)

	// The SKU is free again once its owner is deleted.
	c.Assert(f.catalog.Delete(ctx, first.ID), qt.IsNil)
	_, err = f.catalog.Create(ctx, &model.ProductInput{SKU: "A1", Name: "again"})
	c.Assert(err, qt.IsNil)
}

func TestCatalog_UpdateRejectsQuantity(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 5, 0, "1")

	qty := 100
	_, err := f.catalog.Update(context.Background(), p.ID, &model.ProductPatch{Quantity: &qty})
	c.Assert(err, qt.ErrorIs, e.ErrQuantityPatch)

	got, err := f.catalog.Get(context.Background(), p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Quantity, qt.Equals, 5)
}

func TestCatalog_UpdateFields(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 5, 0, "1")
	f.addProduct(c, "B2", 5, 0, "1")

	name, minQty := "Renamed", 7
	price := decimal.RequireFromString("9.99")
	updated, err := f.catalog.Update(context.Background(), p.ID, &model.ProductPatch{
		Name:        &name,
		MinQuantity: &minQty,
		Price:       &price,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(updated.Name, qt.Equals, "Renamed")
	c.Assert(updated.MinQuantity, qt.Equals, 7)
	c.Assert(updated.Price.String(), qt.Equals, "9.99")
	c.Assert(updated.Quantity, qt.Equals, 5)
	c.Assert(f.pub.next(c).Action, qt.Equals, model.ActionProductUpdated)

	taken := "B2"
	_, err = f.catalog.Update(context.Background(), p.ID, &model.ProductPatch{SKU: &taken})
	c.Assert(err, qt.ErrorIs, e.ErrDuplicateSKU)

	empty := " "
	_, err = f.catalog.Update(context.Background(), p.ID, &model.ProductPatch{Name: &empty})
	c.Assert(err, qt.ErrorIs, e.ErrValidation)

	_, err = f.catalog.Update(context.Background(), uuid.New(), &model.ProductPatch{Name: &name})
	c.Assert(err, qt.ErrorIs, e.ErrNotFound)
}

func TestCatalog_DeleteKeepsLedger(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	ctx := context.Background()
	p := f.addProduct(c, "A1", 5, 0, "1")

	_, err := f.move(p.ID, model.TxOut, 2)
	c.Assert(err, qt.IsNil)

	c.Assert(f.catalog.Delete(ctx, p.ID), qt.IsNil)
	_, err = f.catalog.Get(ctx, p.ID)
	c.Assert(err, qt.ErrorIs, e.ErrNotFound)
	c.Assert(f.catalog.Delete(ctx, p.ID), qt.ErrorIs, e.ErrNotFound)

	entries, err := f.ledger.ListFor(ctx, p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 1)

	_, err = f.ledger.ListFor(ctx, uuid.New())
	c.Assert(err, qt.ErrorIs, e.ErrNotFound)
}

// Scenario: product with 10 units receives 5, then ships 12.
func TestRecordMovement_InThenOut(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 10, 2, "1.00")

	res, err := f.move(p.ID, model.TxIn, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Product.Quantity, qt.Equals, 15)
	c.Assert(res.Transaction.Type, qt.Equals, model.TxIn)
	c.Assert(res.Transaction.Quantity, qt.Equals, 5)

	ev := f.pub.next(c)
	c.Assert(ev.Action, qt.Equals, model.ActionTransactionCreated)
	c.Assert(*ev.OldQuantity, qt.Equals, 10)
	c.Assert(ev.Transaction.ID, qt.Equals, res.Transaction.ID)

	res, err = f.move(p.ID, model.TxOut, 12)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Product.Quantity, qt.Equals, 3)

	entries, err := f.ledger.ListFor(context.Background(), p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 2)
	c.Assert(entries[0].Type, qt.Equals, model.TxIn)
	c.Assert(entries[1].Type, qt.Equals, model.TxOut)
}

// Scenario: an OUT larger than the stock on hand is refused without effect.
func TestRecordMovement_InsufficientStock(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 3, 0, "1")

	_, err := f.move(p.ID, model.TxOut, 4)
	c.Assert(err, qt.ErrorIs, e.ErrInsufficientStock)

	got, err := f.catalog.Get(context.Background(), p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Quantity, qt.Equals, 3)

	entries, err := f.ledger.ListFor(context.Background(), p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 0)
}

func TestRecordMovement_DrainToZero(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 4, 1, "1")

	res, err := f.move(p.ID, model.TxOut, 4)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Product.Quantity, qt.Equals, 0)

	products, err := service.NewDashboardService(f.store).GetProducts(context.Background(), stock.SelectOut)
	c.Assert(err, qt.IsNil)
	c.Assert(products, qt.HasLen, 1)
	c.Assert(products[0].Status, qt.Equals, stock.StatusOut)
}

func TestRecordMovement_Validation(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 4, 0, "1")

	tests := []struct {
		name string
		req  model.MovementRequest
	}{
		{"nil product", model.MovementRequest{Type: model.TxIn, Quantity: 1}},
		{"bad type", model.MovementRequest{ProductID: p.ID, Type: "MOVE", Quantity: 1}},
		{"zero quantity", model.MovementRequest{ProductID: p.ID, Type: model.TxIn}},
		{"negative quantity", model.MovementRequest{ProductID: p.ID, Type: model.TxOut, Quantity: -2}},
		{"quantity above column range", model.MovementRequest{ProductID: p.ID, Type: model.TxIn, Quantity: model.MaxQuantity + 1}},
	}
	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			_, err := f.stock.RecordMovement(context.Background(), &tt.req)
			c.Assert(err, qt.ErrorIs, e.ErrValidation)
		})
	}

	_, err := f.move(uuid.New(), model.TxIn, 1)
	c.Assert(err, qt.ErrorIs, e.ErrNotFound)
}

// Scenario: the store fails while appending the ledger entry.
func TestRecordMovement_StoreFailureRollsBack(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 10, 0, "1")

	f.store.SetFault(func(op string) error {
		if op == memstore.OpTransactionCreate {
			return errors.New("connection reset")
		}
		return nil
	})

	_, err := f.move(p.ID, model.TxOut, 4)
	c.Assert(err, qt.ErrorIs, e.ErrPersistence)

	f.store.SetFault(nil)
	got, err := f.catalog.Get(context.Background(), p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Quantity, qt.Equals, 10)

	entries, err := f.ledger.ListFor(context.Background(), p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 0)

	select {
	case ev := <-f.pub.events:
		c.Fatalf("unexpected event %q after rollback", ev.Action)
	case <-time.After(50 * time.Millisecond):
	}
}

// Scenario: OUT 3 and OUT 4 race on a product holding 5.
func TestRecordMovement_ConcurrentOuts(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 5, 0, "1")

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, qty := range []int{3, 4} {
		wg.Add(1)
		go func(i, qty int) {
			defer wg.Done()
			_, errs[i] = f.move(p.ID, model.TxOut, qty)
		}(i, qty)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		c.Assert(err, qt.ErrorIs, e.ErrInsufficientStock)
	}
	c.Assert(succeeded, qt.Equals, 1)

	rec, err := f.stock.Reconcile(context.Background(), p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(rec.Consistent, qt.IsTrue)
	c.Assert(rec.Entries, qt.Equals, 1)
	c.Assert(rec.Stored >= 0, qt.IsTrue)
}

func TestRecordMovement_ManyConcurrentMovementsKeepInvariant(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	a := f.addProduct(c, "A1", 20, 0, "1")
	b := f.addProduct(c, "B1", 20, 0, "1")

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := a.ID
			if i%2 == 1 {
				id = b.ID
			}
			typ := model.TxOut
			if i%3 == 0 {
				typ = model.TxIn
			}
			_, _ = f.move(id, typ, 1+i%4)
		}(i)
	}
	wg.Wait()

	drifted, err := f.stock.ReconcileAll(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(drifted, qt.HasLen, 0)
}

func TestReconcile_DetectsDrift(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	ctx := context.Background()
	p := f.addProduct(c, "A1", 5, 0, "1")

	// A write that bypasses the stock path leaves the ledger behind.
	c.Assert(f.store.Products().AdjustQuantity(ctx, p.ID, 2), qt.IsNil)

	rec, err := f.stock.Reconcile(ctx, p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(rec.Consistent, qt.IsFalse)
	c.Assert(rec.Expected, qt.Equals, 5)
	c.Assert(rec.Stored, qt.Equals, 7)

	drifted, err := f.stock.ReconcileAll(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(drifted, qt.HasLen, 1)
	c.Assert(drifted[0].SKU, qt.Equals, "A1")

	_, err = f.stock.Reconcile(ctx, uuid.New())
	c.Assert(err, qt.ErrorIs, e.ErrNotFound)
}

func TestLedger_AppendValidates(t *testing.T) {
	c := qt.New(t)
	store := memstore.New()
	ledger := service.NewLedger(store.Transactions())
	ctx := context.Background()

	_, err := ledger.Append(ctx, uuid.New(), model.TxIn, 0, "")
	c.Assert(err, qt.ErrorIs, e.ErrValidation)
	_, err = ledger.Append(ctx, uuid.New(), "SIDEWAYS", 1, "")
	c.Assert(err, qt.ErrorIs, e.ErrValidation)
	_, err = ledger.Append(ctx, uuid.Nil, model.TxIn, 1, "")
	c.Assert(err, qt.ErrorIs, e.ErrValidation)

	entry, err := ledger.Append(ctx, uuid.New(), model.TxOut, 2, "damaged")
	c.Assert(err, qt.IsNil)
	c.Assert(entry.ID, qt.Not(qt.Equals), uuid.Nil)
	c.Assert(entry.Signed(), qt.Equals, -2)
}

func TestLedger_RecentNewestFirst(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 0, 0, "1")

	for i := 1; i <= 3; i++ {
		_, err := f.move(p.ID, model.TxIn, i)
		c.Assert(err, qt.IsNil)
	}

	recent, err := f.ledger.Recent(context.Background(), 2)
	c.Assert(err, qt.IsNil)
	c.Assert(recent, qt.HasLen, 2)
	c.Assert(recent[0].Quantity, qt.Equals, 3)
	c.Assert(recent[1].Quantity, qt.Equals, 2)
}

func TestParsePrice(t *testing.T) {
	c := qt.New(t)

	price, err := service.ParsePrice(" 2.50 ")
	c.Assert(err, qt.IsNil)
	c.Assert(price.StringFixed(2), qt.Equals, "2.50")

	price, err = service.ParsePrice("9999999999.99")
	c.Assert(err, qt.IsNil)
	c.Assert(price.StringFixed(2), qt.Equals, "9999999999.99")

	for _, in := range []string{"", "abc", "-1", "0.001", "10000000000"} {
		_, err := service.ParsePrice(in)
		c.Assert(err, qt.ErrorIs, e.ErrValidation, qt.Commentf("input %q", in))
	}
}

func TestRecordMovement_InboundBeyondMaxQuantity(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 10, 0, "1")

	_, err := f.move(p.ID, model.TxIn, math.MaxInt)
	c.Assert(err, qt.ErrorIs, e.ErrValidation)
	c.Assert(errors.Is(err, e.ErrInsufficientStock), qt.IsFalse)

	_, err = f.move(p.ID, model.TxIn, model.MaxQuantity-9)
	c.Assert(err, qt.ErrorIs, e.ErrValidation)
	c.Assert(err, qt.ErrorMatches, `.*would exceed the maximum quantity.*`)

	got, err := f.catalog.Get(context.Background(), p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Quantity, qt.Equals, 10)

	res, err := f.move(p.ID, model.TxIn, model.MaxQuantity-10)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Product.Quantity, qt.Equals, model.MaxQuantity)

	entries, err := f.ledger.ListFor(context.Background(), p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 1)
}

func TestCatalog_UpdateRejectsOutOfRangeFields(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	p := f.addProduct(c, "A1", 1, 0, "1")

	minQty := model.MaxQuantity + 1
	_, err := f.catalog.Update(context.Background(), p.ID, &model.ProductPatch{MinQuantity: &minQty})
	c.Assert(err, qt.ErrorIs, e.ErrValidation)

	price := decimal.RequireFromString("12345678901.50")
	_, err = f.catalog.Update(context.Background(), p.ID, &model.ProductPatch{Price: &price})
	c.Assert(err, qt.ErrorIs, e.ErrValidation)
}

// stallingPublisher holds up the first delivery so that unordered delivery
// would let later events overtake it.
type stallingPublisher struct {
	calls  atomic.Int32
	events chan model.StockEvent
}

func (p *stallingPublisher) Publish(_ context.Context, event model.StockEvent) error {
	if p.calls.Add(1) == 1 {
		time.Sleep(50 * time.Millisecond)
	}
	p.events <- event
	return nil
}

func TestEvents_DeliveredInCommitOrder(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	store := memstore.New()

	pub := &stallingPublisher{events: make(chan model.StockEvent, 16)}
	events := service.NewOrderedPublisher(pub, zap.NewNop())
	catalog := service.NewCatalogService(store, events, zap.NewNop())
	stockSvc := service.NewStockService(store, events, zap.NewNop())

	p, err := catalog.Create(ctx, &model.ProductInput{SKU: "A1", Name: "Widget", Quantity: 5})
	c.Assert(err, qt.IsNil)
	for _, m := range []struct {
		typ model.TransactionType
		qty int
	}{{model.TxIn, 3}, {model.TxOut, 2}, {model.TxOut, 1}} {
		_, err := stockSvc.RecordMovement(ctx, &model.MovementRequest{ProductID: p.ID, Type: m.typ, Quantity: m.qty})
		c.Assert(err, qt.IsNil)
	}

	flushCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	c.Assert(events.Flush(flushCtx), qt.IsNil)
	c.Assert(pub.events, qt.HasLen, 4)

	var (
		actions    []string
		quantities []int
	)
	for i := 0; i < 4; i++ {
		ev := <-pub.events
		actions = append(actions, ev.Action)
		quantities = append(quantities, ev.Product.Quantity)
	}
	c.Assert(actions, qt.DeepEquals, []string{
		model.ActionProductCreated,
		model.ActionTransactionCreated,
		model.ActionTransactionCreated,
		model.ActionTransactionCreated,
	})
	c.Assert(quantities, qt.DeepEquals, []int{5, 8, 6, 5})
}

// lockTrackingStore records every product read that takes a row lock
// covering soft-deleted rows.
type lockTrackingStore struct {
	repository.Store
	locked *[]uuid.UUID
}

func (s lockTrackingStore) Products() repository.ProductRepository {
	return lockTrackingProducts{ProductRepository: s.Store.Products(), locked: s.locked}
}

func (s lockTrackingStore) Atomic(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.Atomic(ctx, func(tx repository.Store) error {
		return fn(lockTrackingStore{Store: tx, locked: s.locked})
	})
}

type lockTrackingProducts struct {
	repository.ProductRepository
	locked *[]uuid.UUID
}

func (r lockTrackingProducts) FindByIDUnscopedForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	*r.locked = append(*r.locked, id)
	return r.ProductRepository.FindByIDUnscopedForUpdate(ctx, id)
}

func TestReconcile_LocksProductRow(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	ctx := context.Background()
	p := f.addProduct(c, "A1", 5, 0, "1")
	_, err := f.move(p.ID, model.TxOut, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(f.catalog.Delete(ctx, p.ID), qt.IsNil)

	var locked []uuid.UUID
	svc := service.NewStockService(lockTrackingStore{Store: f.store, locked: &locked}, nil, zap.NewNop())

	rec, err := svc.Reconcile(ctx, p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(rec.Consistent, qt.IsTrue)
	c.Assert(rec.Stored, qt.Equals, 3)
	c.Assert(locked, qt.DeepEquals, []uuid.UUID{p.ID})
}
