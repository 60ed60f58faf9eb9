// Package storage is a SQL record store for deployments that do not use a spreadsheet.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"spesebot/internal/core"
	ports "spesebot/internal/sheets"
)

// Dialect selects the SQL driver and migration set.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

// Repository stores expenses in a single expenses table.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

// Ensure interface conformance
var _ ports.Store = (*Repository)(nil)

// NewSQLiteRepository opens (creating if needed) the database file at dbPath.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DialectSQLite, dbPath)
}

// NewPostgresRepository connects to the database at dsn.
func NewPostgresRepository(dsn string) (*Repository, error) {
	return open(DialectPostgres, dsn)
}

func open(d Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if d == DialectSQLite {
		// One writer at a time keeps modernc sqlite clear of SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: d}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const readyTimeout = 2 * time.Second

// Name identifies the repository in readiness output.
func (r *Repository) Name() string {
	return string(r.dialect)
}

// Ready pings the database with a short timeout.
func (r *Repository) Ready() bool {
	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()
	return r.Ping(ctx) == nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Append implements sheets.ExpenseWriter
func (r *Repository) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		r.rebind(`INSERT INTO expenses (recorded_at, category, item, amount) VALUES (?, ?, ?, ?) RETURNING id`),
		e.Timestamp.Unix(), e.Category, e.Item, e.Amount.String(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved",
		"dialect", r.dialect,
		"id", id,
		"item", e.Item,
		"amount", e.Amount.String())

	return strconv.FormatInt(id, 10), nil
}

// ReadAll implements sheets.ExpenseReader. Rows are returned in insertion
// order; rows with an unreadable timestamp or amount are rejected and
// RejectedRow.Row carries their id.
func (r *Repository) ReadAll(ctx context.Context) (core.Ledger, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recorded_at, category, item, amount FROM expenses ORDER BY id`)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var ledger core.Ledger
	for rows.Next() {
		var (
			id         int64
			recordedAt int64
			category   string
			item       string
			amount     string
		)
		if err := rows.Scan(&id, &recordedAt, &category, &item, &amount); err != nil {
			return core.Ledger{}, fmt.Errorf("scan expense: %w", err)
		}
		e, err := decode(recordedAt, category, item, amount)
		if err != nil {
			ledger.Rejected = append(ledger.Rejected, core.RejectedRow{Row: int(id), Reason: err})
			continue
		}
		ledger.Records = append(ledger.Records, e)
	}
	if err := rows.Err(); err != nil {
		return core.Ledger{}, fmt.Errorf("iterate expenses: %w", err)
	}
	return ledger, nil
}

func decode(recordedAt int64, category, item, amount string) (core.Expense, error) {
	if recordedAt <= 0 {
		return core.Expense{}, core.ErrInvalidTimestamp
	}
	m, err := core.ParseStoredAmount(amount)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Timestamp: time.Unix(recordedAt, 0),
		Category:  core.StoredCategory(category),
		Item:      strings.TrimSpace(item),
		Amount:    m,
	}, nil
}
