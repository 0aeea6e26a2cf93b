// ABOUTME: Tests for the credit ledger: grants, transactional debits, refunds, and idempotent allowances.
// ABOUTME: Exercises the flow.CreditGate contract the runtime debits through.

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCreditsGrantDebitRefund(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Grant(ctx, "signup", 100); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := s.Debit(ctx, "image", 4); err != nil {
		t.Fatalf("debit: %v", err)
	}

	balance, err := s.Balance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 96 {
		t.Errorf("expected balance 96, got %d", balance)
	}

	if err := s.Refund(ctx, "image", 4); err != nil {
		t.Fatalf("refund: %v", err)
	}
	balance, _ = s.Balance(ctx)
	if balance != 100 {
		t.Errorf("expected refund to restore balance, got %d", balance)
	}
}

func TestCreditsDebitRefusedWhenInsufficient(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Grant(ctx, "signup", 3); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := s.Debit(ctx, "image", 4); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	// The refused debit must not move the balance.
	balance, _ := s.Balance(ctx)
	if balance != 3 {
		t.Errorf("expected balance untouched at 3, got %d", balance)
	}
}

func TestCreditsZeroCostIsFree(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Debit(ctx, "text", 0); err != nil {
		t.Fatalf("zero-cost debit must succeed on empty balance: %v", err)
	}
	if err := s.Grant(ctx, "oops", 0); err == nil {
		t.Error("zero grants are rejected")
	}
}

func TestCreditsConcurrentDebitsNeverOverspend(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Grant(ctx, "signup", 10); err != nil {
		t.Fatalf("grant: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Debit(ctx, "image", 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInsufficientCredits) {
			t.Errorf("unexpected debit error: %v", err)
		}
	}
	if succeeded != 10 {
		t.Errorf("expected exactly 10 debits to land, got %d", succeeded)
	}
	balance, _ := s.Balance(ctx)
	if balance != 0 {
		t.Errorf("expected balance drained to 0, got %d", balance)
	}
}

func TestLedgerEntriesNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.Grant(ctx, "signup", 10)
	_ = s.Debit(ctx, "image", 4)
	_ = s.Refund(ctx, "image", 4)

	entries, err := s.LedgerEntries(ctx, 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Kind != "refund" || entries[2].Kind != "grant" {
		t.Errorf("expected newest first, got %+v", entries)
	}
	if entries[1].Amount != -4 {
		t.Errorf("debits are stored negative, got %d", entries[1].Amount)
	}

	limited, _ := s.LedgerEntries(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("expected limit respected, got %d", len(limited))
	}
}

func TestGrantedSinceGatesDailyAllowance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cutoff := time.Now().Add(-time.Hour)
	granted, err := s.GrantedSince(ctx, "daily", cutoff)
	if err != nil {
		t.Fatalf("granted since: %v", err)
	}
	if granted {
		t.Error("expected no grant before any was made")
	}

	if err := s.Grant(ctx, "daily", 20); err != nil {
		t.Fatalf("grant: %v", err)
	}
	granted, err = s.GrantedSince(ctx, "daily", cutoff)
	if err != nil {
		t.Fatalf("granted since: %v", err)
	}
	if !granted {
		t.Error("expected the fresh grant to be visible")
	}

	// A different reason does not satisfy the gate.
	granted, _ = s.GrantedSince(ctx, "promo", cutoff)
	if granted {
		t.Error("grants are keyed by reason")
	}
}
