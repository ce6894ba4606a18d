package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/e"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CatalogService interface {
	Create(ctx context.Context, req *model.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, patch *model.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

type catalogService struct {
	store     repository.Store
	events    *OrderedPublisher
	logger    *zap.Logger
}

func NewCatalogService(store repository.Store, publisher EventPublisher, logger *zap.Logger) CatalogService {
	return &catalogService{
		store:     store,
		events:    ordered(publisher, logger),
		logger:    logger,
	}
}

func (s *catalogService) Create(ctx context.Context, req *model.ProductInput) (*model.Product, error) {
	const op = "CatalogService.Create"

	// 1. Normalize and validate the struct
	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		err := validationError(errs)
		s.logger.Debug("product rejected", zap.String("sku", req.SKU), zap.Error(err))
		return nil, e.Wrap(op, err)
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, e.Wrap(op, err)
	}

	// 2. SKU must be unique among live products
	if err := s.ensureSKUFree(ctx, req.SKU, uuid.Nil); err != nil {
		return nil, e.Wrap(op, err)
	}

	// 3. Persist; the creation quantity is the baseline of the ledger
	product := &model.Product{
		SKU:             req.SKU,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Quantity:        req.Quantity,
		InitialQuantity: req.Quantity,
		MinQuantity:     req.MinQuantity,
		Price:           req.Price,
	}
	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, e.Wrap(op, classify(err))
	}

	s.logger.Info("product created", zap.Stringer("product_id", product.ID), zap.String("sku", product.SKU))
	s.events.enqueue(model.NewStockEvent(
		model.ActionProductCreated, product,
		fmt.Sprintf("product '%s' created with %d units", product.Name, product.Quantity),
	))

	return product, nil
}

func (s *catalogService) Update(ctx context.Context, id uuid.UUID, patch *model.ProductPatch) (*model.Product, error) {
	const op = "CatalogService.Update"

	if patch.Quantity != nil {
		return nil, e.Wrap(op, e.ErrQuantityPatch)
	}
	if err := normalizePatch(patch); err != nil {
		return nil, e.Wrap(op, err)
	}

	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}

	if patch.SKU != nil {
		if err := s.ensureSKUFree(ctx, *patch.SKU, id); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	if err := s.store.Products().Update(ctx, id, patch.Columns()); err != nil {
		return nil, e.Wrap(op, classify(err))
	}

	updated, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, classify(err))
	}

	s.events.enqueue(model.NewStockEvent(
		model.ActionProductUpdated, updated,
		fmt.Sprintf("product '%s' updated", updated.Name),
	))

	return updated, nil
}

// Delete soft-deletes the product; its ledger entries are kept.
func (s *catalogService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "CatalogService.Delete"

	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return e.Wrap(op, classify(err))
	}
	if err := s.store.Products().Delete(ctx, id); err != nil {
		return e.Wrap(op, classify(err))
	}

	s.logger.Info("product deleted", zap.Stringer("product_id", id), zap.String("sku", product.SKU))
	s.events.enqueue(model.NewStockEvent(
		model.ActionProductDeleted, product,
		fmt.Sprintf("product '%s' deleted", product.Name),
	))

	return nil
}

func (s *catalogService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.store.Products().FindAll(ctx)
	if err != nil {
		return nil, e.Wrap("CatalogService.List", classify(err))
	}
	return products, nil
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, e.Wrap("CatalogService.Get", classify(err))
	}
	return product, nil
}

func (s *catalogService) ensureSKUFree(ctx context.Context, sku string, self uuid.UUID) error {
	existing, err := s.store.Products().FindBySKU(ctx, sku)
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		return nil
	case err != nil:
		return e.Persistence(err)
	case existing.ID != self:
		return e.ErrDuplicateSKU
	default:
		return nil
	}
}

func normalizePatch(patch *model.ProductPatch) error {
	if patch.SKU != nil {
		sku := strings.TrimSpace(*patch.SKU)
		if sku == "" {
			return e.Validationf("sku must not be empty")
		}
		if len(sku) > 50 {
			return e.Validationf("sku must be at most 50 characters")
		}
		patch.SKU = &sku
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return e.Validationf("name must not be empty")
		}
		if len(name) > 255 {
			return e.Validationf("name must be at most 255 characters")
		}
		patch.Name = &name
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if len(category) > 100 {
			return e.Validationf("category must be at most 100 characters")
		}
		patch.Category = &category
	}
	if patch.MinQuantity != nil {
		if *patch.MinQuantity < 0 {
			return e.Validationf("min_quantity must not be negative")
		}
		if *patch.MinQuantity > model.MaxQuantity {
			return e.Validationf("min_quantity must be at most %d", model.MaxQuantity)
		}
	}
	if patch.Price != nil {
		return validatePrice(*patch.Price)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return e.Validationf("price must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return e.Validationf("price must have at most 2 decimal places")
	}
	if price.GreaterThanOrEqual(model.MaxPrice) {
		return e.Validationf("price must be below %s", model.MaxPrice)
	}
	return nil
}

// ParsePrice converts operator input such as "2.50" into a price, rejecting
// non-numeric, negative and sub-cent values instead of falling back to zero.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, e.Validationf("price is empty")
	}
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, e.Validationf("price %q is not a number", s)
	}
	if err := validatePrice(price); err != nil {
		return decimal.Zero, err
	}
	return price, nil
}
