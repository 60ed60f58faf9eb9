package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"spesebot/internal/core"
	ports "spesebot/internal/sheets"
)

// columns holds the zero-based position of each known header; -1 when absent.
type columns struct {
	date, category, item, amount int
}

// mapHeader locates the expected columns by name, case-insensitively.
// Date, Item and Amount are required; Category is optional.
func mapHeader(headers []string) (columns, error) {
	cols := columns{
		date:     indexOf(headers, ports.Header[0]),
		category: indexOf(headers, ports.Header[1]),
		item:     indexOf(headers, ports.Header[2]),
		amount:   indexOf(headers, ports.Header[3]),
	}
	var missing []string
	if cols.date == -1 {
		missing = append(missing, ports.Header[0])
	}
	if cols.item == -1 {
		missing = append(missing, ports.Header[2])
	}
	if cols.amount == -1 {
		missing = append(missing, ports.Header[3])
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}
	return cols, nil
}

// parseRecords converts a values matrix, header first, into a ledger.
// Blank rows are skipped; rows with an unreadable date or amount are reported
// in Rejected with their 1-based sheet row.
func parseRecords(values [][]any, loc *time.Location) (core.Ledger, error) {
	var ledger core.Ledger
	if len(values) == 0 {
		return ledger, nil
	}
	cols, err := mapHeader(toStrings(values[0]))
	if err != nil {
		return core.Ledger{}, err
	}
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		e, err := decodeRow(row, cols, loc)
		if err != nil {
			ledger.Rejected = append(ledger.Rejected, core.RejectedRow{Row: i + 1, Reason: err})
			continue
		}
		ledger.Records = append(ledger.Records, e)
	}
	return ledger, nil
}

func decodeRow(row []string, cols columns, loc *time.Location) (core.Expense, error) {
	ts, err := core.ParseTimestamp(safeGet(row, cols.date), loc)
	if err != nil {
		return core.Expense{}, err
	}
	amount, err := core.ParseStoredAmount(safeGet(row, cols.amount))
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: %q", err, safeGet(row, cols.amount))
	}
	return core.Expense{
		Timestamp: ts,
		Category:  core.StoredCategory(safeGet(row, cols.category)),
		Item:      strings.TrimSpace(safeGet(row, cols.item)),
		Amount:    amount,
	}, nil
}

// encodeRow renders an expense in header order.
func encodeRow(e core.Expense, loc *time.Location) []any {
	return []any{
		core.FormatTimestamp(e.Timestamp.In(loc)),
		e.Category,
		e.Item,
		e.Amount.String(),
	}
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch n := v.(type) {
		case nil:
		case float64:
			// Unformatted numbers arrive as JSON numbers; %v would print large ones in exponent form.
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func indexOf(arr []string, key string) int {
	for i, s := range arr {
		if strings.EqualFold(strings.TrimSpace(s), key) {
			return i
		}
	}
	return -1
}

func safeGet(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, s := range row {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
