package runlog

import (
	"fmt"
	"log/slog"

	"mercator-hq/dsm/pkg/config"
)

// Open creates the backend selected by cfg.Backend.
func Open(cfg *config.RunLogConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.MaxRecords), nil
	case "sqlite":
		return NewSQLiteStore(&cfg.SQLite, logger)
	default:
		return nil, fmt.Errorf("unknown run log backend %q (want memory or sqlite)", cfg.Backend)
	}
}
