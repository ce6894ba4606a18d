package repository

import (
	"context"
	"errors"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *productRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	// Pessimistic locking, held until the surrounding transaction commits
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *productRepo) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.first(r.db.WithContext(ctx).Unscoped(), "id = ?", id)
}

func (r *productRepo) FindByIDUnscopedForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.first(r.db.WithContext(ctx).Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	return r.first(r.db.WithContext(ctx), "sku = ?", sku)
}

func (r *productRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// AdjustQuantity is a single conditional write evaluated atomically by the database.
func (r *productRepo) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

// Delete is a soft delete; the row stays as a tombstone for its ledger entries.
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) first(db *gorm.DB, query string, args ...interface{}) (*model.Product, error) {
	var product model.Product
	if err := db.Where(query, args...).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &product, nil
}

// translate maps driver errors (gorm runs with TranslateError) to repository errors.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}
