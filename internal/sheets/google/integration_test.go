//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"spesebot/internal/core"
)

// Integration tests require a service account with access to a scratch spreadsheet.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_AppendAndReadBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	opts := Options{
		CredentialsPath: os.Getenv("GOOGLE_CREDENTIALS_PATH"),
		CredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SpreadsheetName: os.Getenv("GOOGLE_SPREADSHEET_NAME"),
	}
	if opts.CredentialsPath == "" && opts.CredentialsJSON == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}
	if opts.SpreadsheetID == "" && opts.SpreadsheetName == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID or GOOGLE_SPREADSHEET_NAME not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, opts)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader failed: %v", err)
	}

	before, err := client.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	item := "Integration " + time.Now().Format("150405")
	e := core.Expense{
		Timestamp: time.Now().Truncate(time.Second),
		Category:  "Other",
		Item:      item,
		Amount:    core.MoneyFromCents(123),
	}
	ref, err := client.Append(ctx, e)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	t.Logf("appended at %s", ref)

	after, err := client.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(after.Records) != len(before.Records)+1 {
		t.Fatalf("expected %d records, got %d", len(before.Records)+1, len(after.Records))
	}
	last := after.Records[len(after.Records)-1]
	if last.Item != item || !last.Amount.Equal(e.Amount) {
		t.Fatalf("last record mismatch: %+v", last)
	}
}
