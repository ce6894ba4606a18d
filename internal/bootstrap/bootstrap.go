// Package bootstrap builds the store and services shared by cmd/api and
// cmd/inventoryctl from the loaded configuration.
package bootstrap

import (
	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/repository/memstore"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/database"

	"go.uber.org/zap"
)

// OpenStore returns the configured store and a func releasing it.
func OpenStore(cfg *config.Config, log *zap.Logger) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), func() {}, nil
	}

	if cfg.DB.AutoMigrate {
		if err := database.RunMigrations(cfg.DB.DSN(), log); err != nil {
			return nil, nil, err
		}
	}

	db, err := database.ConnectDB(cfg.DB, log)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repository.NewGormStore(db), closeDB, nil
}

type Services struct {
	Catalog   service.CatalogService
	Stock     service.StockService
	Ledger    service.LedgerService
	Dashboard service.DashboardService
	// Events is nil when no publisher was given.
	Events *service.OrderedPublisher
}

// NewServices shares one ordered event queue between the catalog and stock
// services, so subscribers see a product's events in commit order.
func NewServices(store repository.Store, pub service.EventPublisher, log *zap.Logger) *Services {
	var events *service.OrderedPublisher
	if pub != nil {
		events = service.NewOrderedPublisher(pub, log.Named("events"))
		pub = events
	}
	return &Services{
		Catalog:   service.NewCatalogService(store, pub, log.Named("catalog")),
		Stock:     service.NewStockService(store, pub, log.Named("stock")),
		Ledger:    service.NewLedgerService(store),
		Dashboard: service.NewDashboardService(store),
		Events:    events,
	}
}
