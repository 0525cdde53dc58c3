package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"replybot/internal/schedule"
	logx "replybot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (schedule.Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Create(ctx context.Context, sc *schedule.Schedule) error {
	targets, responses, err := encodeJSONColumns(sc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schedules(id, kind, owner, targets, total_steps, completed_steps, responses, status, provider, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		sc.ID, string(sc.Kind), sc.Owner, targets, sc.TotalSteps, sc.CompletedSteps, responses,
		string(sc.Status), nullStr(sc.Provider),
		sc.CreatedAt.UTC().Format(time.RFC3339Nano), sc.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) Update(ctx context.Context, sc *schedule.Schedule) error {
	targets, responses, err := encodeJSONColumns(sc)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE schedules
		 SET targets=?, total_steps=?, completed_steps=?, responses=?, status=?, provider=?, updated_at=?
		 WHERE id=?`,
		targets, sc.TotalSteps, sc.CompletedSteps, responses, string(sc.Status), nullStr(sc.Provider),
		sc.UpdatedAt.UTC().Format(time.RFC3339Nano), sc.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

const selectCols = `id, kind, owner, targets, total_steps, completed_steps, responses, status, provider, created_at, updated_at`

func (s *sqliteStore) Get(ctx context.Context, id string) (*schedule.Schedule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM schedules WHERE id = ?`, id)
	sc, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, schedule.ErrNotFound
	}
	return sc, err
}

func (s *sqliteStore) ListByOwner(ctx context.Context, owner string) ([]*schedule.Schedule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectCols+` FROM schedules WHERE owner = ? ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*schedule.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*schedule.Schedule, error) {
	var (
		sc                 schedule.Schedule
		kind, status       string
		targets, responses string
		provider           sql.NullString
		created, updated   string
	)
	err := row.Scan(&sc.ID, &kind, &sc.Owner, &targets, &sc.TotalSteps, &sc.CompletedSteps,
		&responses, &status, &provider, &created, &updated)
	if err != nil {
		return nil, err
	}
	sc.Kind = schedule.Kind(kind)
	sc.Status = schedule.Status(status)
	sc.Provider = provider.String
	if err := json.Unmarshal([]byte(targets), &sc.Targets); err != nil {
		return nil, fmt.Errorf("decode targets for %s: %w", sc.ID, err)
	}
	if err := json.Unmarshal([]byte(responses), &sc.Responses); err != nil {
		return nil, fmt.Errorf("decode responses for %s: %w", sc.ID, err)
	}
	if sc.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("decode created_at for %s: %w", sc.ID, err)
	}
	if sc.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("decode updated_at for %s: %w", sc.ID, err)
	}
	return &sc, nil
}

func encodeJSONColumns(sc *schedule.Schedule) (targets, responses string, err error) {
	tb, err := json.Marshal(sc.Targets)
	if err != nil {
		return "", "", fmt.Errorf("encode targets: %w", err)
	}
	rb, err := json.Marshal(sc.Responses)
	if err != nil {
		return "", "", fmt.Errorf("encode responses: %w", err)
	}
	return string(tb), string(rb), nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
