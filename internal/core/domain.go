package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the layout of the Date column in the record store.
const TimestampLayout = "2006-01-02 15:04:05"

// MaxItemLength bounds the item label of a single expense.
const MaxItemLength = 200

type (
	Expense struct {
		Timestamp time.Time
		Category  string // empty for expenses recorded without the guided flow
		Item      string
		Amount    Money
	}

	// RejectedRow is a stored row that failed validation when read back.
	RejectedRow struct {
		Row    int // 1-based position in the store, header included when there is one
		Reason error
	}

	// Ledger is the validated content of a record store.
	Ledger struct {
		Records  []Expense
		Rejected []RejectedRow
	}
)

var (
	ErrMissingSeparator = errors.New("missing separator")
	ErrEmptyItem        = errors.New("empty item")
	ErrItemTooLong      = fmt.Errorf("item too long (max %d characters)", MaxItemLength)
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrUnknownCategory  = errors.New("unknown category")
)

// ParseEntry splits "item, amount" on the first comma and validates both parts.
func ParseEntry(text string) (string, Money, error) {
	idx := strings.Index(text, ",")
	if idx < 0 {
		return "", Money{}, ErrMissingSeparator
	}
	item := strings.TrimSpace(text[:idx])
	if item == "" {
		return "", Money{}, ErrEmptyItem
	}
	if len(item) > MaxItemLength {
		return "", Money{}, ErrItemTooLong
	}
	amount, err := ParseAmount(text[idx+1:])
	if err != nil {
		return "", Money{}, err
	}
	return item, amount, nil
}

// NewExpense parses text and stamps it with now.
func NewExpense(now time.Time, category, text string) (Expense, error) {
	item, amount, err := ParseEntry(text)
	if err != nil {
		return Expense{}, err
	}
	e := Expense{
		Timestamp: now.Truncate(time.Second),
		Category:  category,
		Item:      item,
		Amount:    amount,
	}
	return e, e.Validate()
}

func (e Expense) Validate() error {
	if e.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if strings.TrimSpace(e.Item) == "" {
		return ErrEmptyItem
	}
	if len(e.Item) > MaxItemLength {
		return ErrItemTooLong
	}
	return e.Amount.Validate()
}

// CategoryLabel returns the category used when grouping the expense.
func (e Expense) CategoryLabel() string {
	if strings.TrimSpace(e.Category) == "" {
		return Uncategorized
	}
	return e.Category
}

// FormatTimestamp renders t in the record store layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a Date cell in loc. A date without time of day is
// accepted and read as midnight.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{TimestampLayout, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
