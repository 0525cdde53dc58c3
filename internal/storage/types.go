package storage

import "time"

// Config configures schedule persistence.
//
// Driver values:
//   - "memory": process-local store, lost on restart
//   - "sqlite": SQLite database file
//
// An empty Driver means "memory".
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
