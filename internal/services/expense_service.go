// Package services orchestrates record stores and event publishing.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spesebot/internal/amqp"
	"spesebot/internal/core"
	"spesebot/internal/log"
	"spesebot/internal/sheets"
)

// Publisher sends expense events. *amqp.Client implements it.
type Publisher interface {
	PublishExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error
}

// Origin identifies who recorded an expense.
type Origin struct {
	Platform  string
	ChannelID string
	UserID    string
}

// ExpenseService records expenses in the store and announces them on the bus.
type ExpenseService struct {
	store     sheets.Store
	publisher Publisher
	logger    *log.Logger
}

// NewExpenseService wires a store with an optional publisher; publisher may be nil.
func NewExpenseService(store sheets.Store, publisher Publisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentBackend),
	}
}

// Record appends e and publishes an expense.recorded event. A publish failure
// is logged and does not fail the call: the expense is already stored.
func (s *ExpenseService) Record(ctx context.Context, e core.Expense, origin Origin) (string, error) {
	if s.store == nil {
		return "", errors.New("record store not configured")
	}
	start := time.Now()
	ref, err := s.store.Append(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense recorded",
		log.NewFields().
			WithOperation(log.OpAppend).
			WithSender(origin.Platform, origin.ChannelID, origin.UserID).
			WithExpense(e.Category, e.Item, e.Amount.String()).
			ToSlice()...,
	)
	s.logger.DebugContext(ctx, "Append finished", log.FieldSheetsRef, ref, log.FieldDuration, time.Since(start).Milliseconds())

	if s.publisher != nil {
		msg := amqp.NewExpenseRecordedMessage(e, ref, origin.Platform, origin.UserID)
		if err := s.publisher.PublishExpenseRecorded(ctx, msg); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish expense event",
				log.FieldOperation, log.OpPublish,
				"event_id", msg.EventID,
				log.FieldError, err)
		}
	}

	return ref, nil
}

// Summarize reads the whole store and totals the records in window.
func (s *ExpenseService) Summarize(ctx context.Context, w core.Window, now time.Time) (core.Summary, error) {
	if s.store == nil {
		return core.Summary{}, errors.New("record store not configured")
	}
	ledger, err := s.store.ReadAll(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("read expenses: %w", err)
	}

	if n := len(ledger.Rejected); n > 0 {
		first := ledger.Rejected[0]
		s.logger.WarnContext(ctx, "Skipped invalid rows",
			log.FieldOperation, log.OpSummary,
			log.FieldRejectedRows, n,
			"first_row", first.Row,
			"first_reason", first.Reason)
	}

	sum := core.Summarize(ledger.Records, w, now)
	s.logger.DebugContext(ctx, "Summary computed",
		log.FieldWindow, w.Key,
		log.FieldRecords, len(ledger.Records),
		"matched", sum.Count)
	return sum, nil
}
