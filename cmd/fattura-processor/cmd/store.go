package cmd

import (
	"context"
	"fmt"

	"github.com/rezonia/fattura-processor/internal/logger"
	"github.com/rezonia/fattura-processor/internal/model"
	"github.com/rezonia/fattura-processor/internal/server"
	"github.com/rezonia/fattura-processor/internal/store/memory"
	"github.com/rezonia/fattura-processor/internal/store/sqlite"
)

// appStore is what the commands need from either backend
type appStore interface {
	server.Store
	Suppliers(ctx context.Context) ([]model.SupplierRecord, error)
}

// openStore opens the configured backend. The memory backend lives only
// as long as the process, so one-shot commands warn about it.
func openStore() (appStore, func() error, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		s, err := sqlite.Open(cfg.Database.DSN, sqlite.WithLogger(logger.WithComponent("store")))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		printVerbose("Using sqlite database %s\n", cfg.Database.DSN)
		return s, s.Close, nil
	default:
		printVerbose("Using in-memory store, nothing is kept after exit\n")
		return memory.New(), func() error { return nil }, nil
	}
}

// openPersistentStore is openStore for commands that read back what earlier
// runs wrote. They are refused on the memory backend, which would always
// look empty.
func openPersistentStore(command string) (appStore, func() error, error) {
	if !cfg.Persistent() {
		return nil, nil, fmt.Errorf("%s needs a persistent store: set database.driver to sqlite (driver is %q)", command, cfg.Database.Driver)
	}
	return openStore()
}
