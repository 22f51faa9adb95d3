package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Config selects the journal database.
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	Timeout      time.Duration
}

const schema = `CREATE TABLE IF NOT EXISTS settlements (
	id         TEXT PRIMARY KEY,
	sender     TEXT NOT NULL,
	receiver   TEXT NOT NULL,
	deliver    TEXT NOT NULL,
	send_max   TEXT NOT NULL,
	delivered  TEXT NOT NULL,
	spent      TEXT NOT NULL,
	result     TEXT NOT NULL,
	rounds     INTEGER NOT NULL,
	committed  BOOLEAN NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS settlements_created_at ON settlements (created_at)`

const columns = `id, sender, receiver, deliver, send_max, delivered, spent, result, rounds, committed, created_at`

// SQLJournal is a Journal on database/sql. Queries are written with $N
// placeholders and rebound for drivers that expect ?.
type SQLJournal struct {
	mu      sync.RWMutex
	db      *sql.DB
	driver  string
	timeout time.Duration
	log     *slog.Logger
}

// Open opens the journal described by cfg. The none driver, or an empty
// one, returns None.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (Journal, error) {
	switch cfg.Driver {
	case DriverNone, "":
		return None{}, nil
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("journal driver %s needs a dsn", cfg.Driver)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	switch {
	case cfg.Driver == DriverSQLite:
		// SQLite serialises writers; one connection avoids busy errors.
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	j := &SQLJournal{db: db, driver: cfg.Driver, timeout: cfg.Timeout, log: log}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}
	if err := j.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	log.Info("journal opened", "driver", cfg.Driver)
	return j, nil
}

func (j *SQLJournal) initSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites $N placeholders to ? for SQLite.
func (j *SQLJournal) rebind(query string) string {
	if j.driver != DriverSQLite {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] != '$' {
			b.WriteByte(query[i])
			continue
		}
		k := i + 1
		for k < len(query) && query[k] >= '0' && query[k] <= '9' {
			k++
		}
		if k == i+1 {
			b.WriteByte('$')
			continue
		}
		b.WriteByte('?')
		i = k - 1
	}
	return b.String()
}

func (j *SQLJournal) conn() (*sql.DB, error) {
	if j.db == nil {
		return nil, ErrClosed
	}
	return j.db, nil
}

func (j *SQLJournal) Append(ctx context.Context, r Record) (Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	db, err := j.conn()
	if err != nil {
		return r, err
	}
	r = stamp(r)

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	query := j.rebind(`INSERT INTO settlements (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	_, err = db.ExecContext(ctx, query,
		r.ID.String(), r.Sender, r.Receiver, r.Deliver, r.SendMax,
		r.Delivered, r.Spent, r.Result, r.Rounds, r.Committed, r.CreatedAt.UnixNano())
	if err != nil {
		return r, fmt.Errorf("failed to append settlement %s: %w", r.ID, err)
	}
	j.log.Debug("settlement journaled", "id", r.ID.String(), "result", r.Result)
	return r, nil
}

func (j *SQLJournal) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	db, err := j.conn()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	row := db.QueryRowContext(ctx, j.rebind(`SELECT `+columns+` FROM settlements WHERE id = $1`), id.String())
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settlement %s: %w", id, err)
	}
	return r, nil
}

func (j *SQLJournal) Recent(ctx context.Context, limit int) ([]Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	db, err := j.conn()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	query := j.rebind(`SELECT ` + columns + ` FROM settlements
		ORDER BY created_at DESC, id LIMIT $1`)
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (j *SQLJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		r       Record
		id      string
		created int64
	)
	err := s.Scan(&id, &r.Sender, &r.Receiver, &r.Deliver, &r.SendMax,
		&r.Delivered, &r.Spent, &r.Result, &r.Rounds, &r.Committed, &created)
	if err != nil {
		return nil, err
	}
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("bad settlement id %q: %w", id, err)
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	return &r, nil
}

// String names the driver, for logs.
func (j *SQLJournal) String() string {
	return "journal(" + j.driver + ")"
}
