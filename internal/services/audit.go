package services

import (
	"context"
	"sync/atomic"

	"spesebot/internal/amqp"
	"spesebot/internal/log"
)

// AuditLog writes every consumed expense event to the log.
type AuditLog struct {
	logger *log.Logger
	seen   atomic.Int64
}

func NewAuditLog(logger *log.Logger) *AuditLog {
	return &AuditLog{logger: logger.WithComponent(log.ComponentAudit)}
}

// Handle is an amqp consumer handler.
func (a *AuditLog) Handle(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	a.seen.Add(1)
	a.logger.InfoContext(ctx, "Expense event",
		"event_id", msg.EventID,
		"recorded_at", msg.RecordedAt,
		log.FieldCategory, msg.Category,
		log.FieldItem, msg.Item,
		log.FieldAmount, msg.Amount,
		log.FieldPlatform, msg.Platform,
		log.FieldUserID, msg.UserID,
		log.FieldSheetsRef, msg.Ref)
	return nil
}

// Seen returns the number of events handled.
func (a *AuditLog) Seen() int64 {
	return a.seen.Load()
}
