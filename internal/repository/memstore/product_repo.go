package memstore

import (
	"context"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type productRepo struct {
	x *executor
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.x.write(ctx, OpProductCreate, func(st *state, undo func(func())) error {
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		if skuTaken(st, product.SKU, product.ID) {
			return repository.ErrDuplicateKey
		}
		now := r.x.store.now()
		product.CreatedAt = now
		product.UpdatedAt = now

		stored := *product
		st.products[stored.ID] = &stored
		st.order = append(st.order, stored.ID)
		undo(func() {
			delete(st.products, stored.ID)
			st.order = st.order[:len(st.order)-1]
		})
		return nil
	})
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.x.read(ctx, func(st *state) error {
		products = make([]model.Product, 0, len(st.order))
		for _, id := range st.order {
			if p := st.products[id]; !p.DeletedAt.Valid {
				products = append(products, *p)
			}
		}
		return nil
	})
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.find(ctx, id, false)
}

func (r *productRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.find(ctx, id, false)
}

func (r *productRepo) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.find(ctx, id, true)
}

func (r *productRepo) FindByIDUnscopedForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.find(ctx, id, true)
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var found *model.Product
	err := r.x.read(ctx, func(st *state) error {
		for _, id := range st.order {
			if p := st.products[id]; !p.DeletedAt.Valid && p.SKU == sku {
				cp := *p
				found = &cp
				return nil
			}
		}
		return repository.ErrRecordNotFound
	})
	return found, err
}

func (r *productRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.x.write(ctx, OpProductUpdate, func(st *state, undo func(func())) error {
		p, ok := live(st, id)
		if !ok {
			return repository.ErrRecordNotFound
		}
		if sku, ok := fields["sku"].(string); ok && skuTaken(st, sku, id) {
			return repository.ErrDuplicateKey
		}
		before := *p
		applyColumns(p, fields)
		p.UpdatedAt = r.x.store.now()
		undo(func() { *p = before })
		return nil
	})
}

func (r *productRepo) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	return r.x.write(ctx, OpProductAdjust, func(st *state, undo func(func())) error {
		p, ok := live(st, id)
		if !ok || p.Quantity+delta < 0 {
			return repository.ErrConditionFailed
		}
		before := *p
		p.Quantity += delta
		p.UpdatedAt = r.x.store.now()
		undo(func() { *p = before })
		return nil
	})
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.x.write(ctx, OpProductDelete, func(st *state, undo func(func())) error {
		p, ok := live(st, id)
		if !ok {
			return repository.ErrRecordNotFound
		}
		before := *p
		p.DeletedAt = gorm.DeletedAt{Time: r.x.store.now(), Valid: true}
		undo(func() { *p = before })
		return nil
	})
}

func (r *productRepo) find(ctx context.Context, id uuid.UUID, unscoped bool) (*model.Product, error) {
	var found *model.Product
	err := r.x.read(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok || (p.DeletedAt.Valid && !unscoped) {
			return repository.ErrRecordNotFound
		}
		cp := *p
		found = &cp
		return nil
	})
	return found, err
}

// skuTaken mirrors the partial unique index on live products.
func skuTaken(st *state, sku string, self uuid.UUID) bool {
	for _, p := range st.products {
		if p.ID != self && !p.DeletedAt.Valid && p.SKU == sku {
			return true
		}
	}
	return false
}

func live(st *state, id uuid.UUID) (*model.Product, bool) {
	p, ok := st.products[id]
	if !ok || p.DeletedAt.Valid {
		return nil, false
	}
	return p, true
}

// applyColumns mirrors the column names produced by model.ProductPatch.Columns.
func applyColumns(p *model.Product, fields map[string]interface{}) {
	for col, v := range fields {
		switch col {
		case "sku":
			p.SKU = v.(string)
		case "name":
			p.Name = v.(string)
		case "description":
			p.Description = v.(string)
		case "category":
			p.Category = v.(string)
		case "min_quantity":
			p.MinQuantity = v.(int)
		case "price":
			p.Price = v.(decimal.Decimal)
		}
	}
}
