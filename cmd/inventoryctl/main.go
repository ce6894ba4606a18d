package main

import (
	"context"
	"fmt"
	"os"

	"go-inventory-ledger/internal/bootstrap"
	"go-inventory-ledger/internal/cli"
	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	// Operators read command output on stdout; keep the log quiet.
	log, err := logger.New("warn", cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	defer log.Sync()

	closeStore := func() {}
	defer func() { closeStore() }()

	root := cli.NewRootCommand(func(ctx context.Context) (*bootstrap.Services, error) {
		store, closer, err := bootstrap.OpenStore(cfg, log)
		if err != nil {
			return nil, err
		}
		closeStore = closer

		return bootstrap.NewServices(store, nil, log), nil
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
