package storage

import (
	"errors"
	"strings"

	"replybot/internal/schedule"
	logx "replybot/pkg/logx"
)

// Open initializes the configured schedule store. The scheduler always
// needs one, so an empty driver falls back to the in-memory store.
func Open(cfg Config, log logx.Logger) (schedule.Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "memory", "none":
		return NewMemory(), nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
