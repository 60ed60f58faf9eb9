package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spesebot/internal/core"
)

func TestMemoryStoreAppendAndReadAll(t *testing.T) {
	s := New()
	ref, err := s.Append(context.Background(), core.Expense{
		Timestamp: time.Now(),
		Category:  "Food",
		Item:      "t",
		Amount:    core.MoneyFromCents(123),
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	ledger, err := s.ReadAll(context.Background())
	if err != nil || len(ledger.Records) != 1 || len(ledger.Rejected) != 0 {
		t.Fatalf("unexpected ledger: %+v err=%v", ledger, err)
	}
	if ledger.Records[0].Amount.String() != "1.23" {
		t.Fatalf("unexpected amount %s", ledger.Records[0].Amount)
	}

	// Mutating the returned slice must not affect the store.
	ledger.Records[0].Item = "changed"
	again, _ := s.ReadAll(context.Background())
	if again.Records[0].Item != "t" {
		t.Fatalf("store leaked its backing slice")
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Append(context.Background(), core.Expense{Timestamp: time.Now(), Item: "x"})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("invalid expense was stored")
	}
}

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Append(context.Background(), core.Expense{Timestamp: time.Now(), Item: "x", Amount: core.MoneyFromCents(1)})
		}()
	}
	wg.Wait()
	if s.Len() != 50 {
		t.Fatalf("expected 50 items, got %d", s.Len())
	}
}
