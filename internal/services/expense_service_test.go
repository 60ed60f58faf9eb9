package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"spesebot/internal/amqp"
	"spesebot/internal/core"
	"spesebot/internal/log"
	"spesebot/internal/sheets/memory"
)

type fakePublisher struct {
	msgs []*amqp.ExpenseRecordedMessage
	err  error
}

func (p *fakePublisher) PublishExpenseRecorded(_ context.Context, msg *amqp.ExpenseRecordedMessage) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

type failingStore struct{ err error }

func (f failingStore) Append(context.Context, core.Expense) (string, error) { return "", f.err }
func (f failingStore) ReadAll(context.Context) (core.Ledger, error)         { return core.Ledger{}, f.err }

func expense(ts time.Time, cat, item string, cents int64) core.Expense {
	return core.Expense{Timestamp: ts, Category: cat, Item: item, Amount: core.MoneyFromCents(cents)}
}

func TestExpenseService_Record(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewExpenseService(store, pub, log.Discard())

	e := expense(time.Now(), "Food", "Coffee", 350)
	ref, err := svc.Record(context.Background(), e, Origin{Platform: "discord", ChannelID: "c1", UserID: "u1"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if ref == "" {
		t.Fatal("expected a row reference")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored expense, got %d", store.Len())
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.msgs))
	}
	if got := pub.msgs[0]; got.Item != "Coffee" || got.Amount != "3.50" || got.Ref != ref || got.Platform != "discord" {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestExpenseService_RecordPublishFailureIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Component: "test"})
	store := memory.New()
	svc := NewExpenseService(store, &fakePublisher{err: errors.New("broker down")}, logger)

	if _, err := svc.Record(context.Background(), expense(time.Now(), "", "Bus", 210), Origin{}); err != nil {
		t.Fatalf("publish failure must not fail Record: %v", err)
	}
	if store.Len() != 1 {
		t.Fatal("expense should still be stored")
	}
	if !strings.Contains(buf.String(), "broker down") {
		t.Errorf("publish failure should be logged, got %q", buf.String())
	}
}

func TestExpenseService_RecordStoreFailure(t *testing.T) {
	pub := &fakePublisher{}
	boom := errors.New("quota exceeded")
	svc := NewExpenseService(failingStore{err: boom}, pub, log.Discard())

	_, err := svc.Record(context.Background(), expense(time.Now(), "", "Bus", 210), Origin{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatal("nothing should be published when the store fails")
	}
}

func TestExpenseService_RecordWithoutPublisher(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil, log.Discard())
	if _, err := svc.Record(context.Background(), expense(time.Now(), "", "Tea", 100), Origin{}); err != nil {
		t.Fatalf("Record: %v", err)
	}
}

func TestExpenseService_Summarize(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	store := memory.New(
		expense(now.AddDate(0, 0, -10), "Food", "Lunch", 1000),
		expense(now.AddDate(0, 0, -3), "Food", "Dinner", 550),
		expense(now.AddDate(0, 0, -2), "Transport", "Bus", 325),
		expense(now.AddDate(0, 0, -40), "Food", "Old", 9900),
	)
	svc := NewExpenseService(store, nil, log.Discard())

	sum, err := svc.Summarize(context.Background(), core.OneMonth, now)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Count != 3 {
		t.Fatalf("expected 3 matching records, got %d", sum.Count)
	}
	want := map[string]string{"Food": "15.50", "Transport": "3.25"}
	for _, c := range sum.Categories {
		if want[c.Name] != c.Total.String() {
			t.Errorf("%s = %s, want %s", c.Name, c.Total, want[c.Name])
		}
	}

	all, err := svc.Summarize(context.Background(), core.AllTime, now)
	if err != nil {
		t.Fatalf("Summarize all: %v", err)
	}
	if all.Count != 4 {
		t.Fatalf("all time should include every record, got %d", all.Count)
	}
}

func TestExpenseService_SummarizeReadFailure(t *testing.T) {
	svc := NewExpenseService(failingStore{err: errors.New("403")}, nil, log.Discard())
	if _, err := svc.Summarize(context.Background(), core.AllTime, time.Now()); err == nil {
		t.Fatal("expected read error")
	}
}

func TestAuditLog_Handle(t *testing.T) {
	var buf bytes.Buffer
	a := NewAuditLog(log.New(log.Config{Output: &buf}))
	msg := amqp.NewExpenseRecordedMessage(expense(time.Now(), "Food", "Coffee", 350), "1", "telegram", "42")
	if err := a.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if a.Seen() != 1 {
		t.Errorf("Seen = %d", a.Seen())
	}
	if !strings.Contains(buf.String(), msg.EventID) || !strings.Contains(buf.String(), "component=audit") {
		t.Errorf("unexpected log output: %q", buf.String())
	}
}
