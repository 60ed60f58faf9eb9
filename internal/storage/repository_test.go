package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"spesebot/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "spesebot.db")
	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_AppendReadAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ts := time.Date(2026, 10, 14, 12, 30, 0, 0, time.Local)

	inputs := []core.Expense{
		{Timestamp: ts, Category: "Food", Item: "Coffee", Amount: core.MoneyFromCents(350)},
		{Timestamp: ts.Add(time.Minute), Item: "Bus", Amount: core.MoneyFromCents(210)},
	}
	for i, e := range inputs {
		ref, err := repo.Append(ctx, e)
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		if ref == "" {
			t.Fatalf("Append %d returned empty ref", i)
		}
	}

	ledger, err := repo.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(ledger.Rejected) != 0 {
		t.Fatalf("unexpected rejected rows: %+v", ledger.Rejected)
	}
	if len(ledger.Records) != len(inputs) {
		t.Fatalf("expected %d records, got %d", len(inputs), len(ledger.Records))
	}
	for i, got := range ledger.Records {
		want := inputs[i]
		if !got.Timestamp.Equal(want.Timestamp) || got.Category != want.Category || got.Item != want.Item || !got.Amount.Equal(want.Amount) {
			t.Errorf("record %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestRepository_AppendRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Append(context.Background(), core.Expense{Timestamp: time.Now(), Item: "Free lunch"})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRepository_ReadAllQuarantinesBadRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.db.ExecContext(ctx,
		`INSERT INTO expenses (recorded_at, category, item, amount) VALUES (?, ?, ?, ?), (?, ?, ?, ?), (?, ?, ?, ?), (?, ?, ?, ?)`,
		time.Now().Unix(), "Gifts", "Flowers", "10.00",
		time.Now().Unix(), "", "Pen", "n/a",
		time.Now().Unix(), " health ", "Pills", "4.20",
		time.Now().Unix(), "Food", "Yacht", "1e999999999",
	); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ledger, err := repo.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	wantCategories := []string{"Gifts", "health"}
	if len(ledger.Records) != len(wantCategories) {
		t.Fatalf("unexpected records: %+v", ledger.Records)
	}
	for i, want := range wantCategories {
		if got := ledger.Records[i].Category; got != want {
			t.Errorf("record %d category = %q, want %q", i, got, want)
		}
	}
	wantRows := []int{2, 4}
	if len(ledger.Rejected) != len(wantRows) {
		t.Fatalf("expected %d rejected rows, got %+v", len(wantRows), ledger.Rejected)
	}
	for i, r := range ledger.Rejected {
		if !errors.Is(r.Reason, core.ErrInvalidAmount) || r.Row != wantRows[i] {
			t.Errorf("rejected[%d] = %+v", i, r)
		}
	}
}

func TestRepository_Ready(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ready.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if repo.Name() != "sqlite" {
		t.Errorf("Name() = %q", repo.Name())
	}
	if !repo.Ready() {
		t.Fatal("expected open repository to be ready")
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if repo.Ready() {
		t.Fatal("expected closed repository to report not ready")
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "m.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(DialectSQLite, dbPath); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}

func TestRebind(t *testing.T) {
	pg := &Repository{dialect: DialectPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &Repository{dialect: DialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}
