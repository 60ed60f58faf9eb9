package sheets

import (
	"context"

	"spesebot/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		// Append stores one expense and returns a backend specific row reference.
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseReader returns every stored expense in insertion order. Rows that
	// fail validation are reported in Ledger.Rejected instead of Records.
	ExpenseReader interface {
		ReadAll(ctx context.Context) (core.Ledger, error)
	}

	Store interface {
		ExpenseWriter
		ExpenseReader
	}
)

// Header is the first row of a spreadsheet backed record store.
var Header = []string{"Date", "Category", "Item", "Amount"}
