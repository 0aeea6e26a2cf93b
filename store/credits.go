// ABOUTME: Credit ledger backing the flow runtime's credit gate.
// ABOUTME: Append-only entries; debits check the balance inside a transaction.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/litai12/Tanva-sub008/flow"
)

// LedgerEntry is one credit movement. Amount is positive for grants and
// refunds, negative for debits.
type LedgerEntry struct {
	EntryID   int64  `json:"entryId"`
	Kind      string `json:"kind"` // "grant", "debit", "refund"
	Reason    string `json:"reason"`
	Amount    int    `json:"amount"`
	CreatedAt string `json:"createdAt"`
}

// Balance returns the current credit balance.
func (s *Store) Balance(ctx context.Context) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM credit_ledger").Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

// Grant adds credits to the balance.
func (s *Store) Grant(ctx context.Context, reason string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	return s.appendEntry(ctx, "grant", reason, amount)
}

// Debit spends credits. It checks the balance and appends the entry inside
// one transaction so concurrent debits cannot overspend.
func (s *Store) Debit(ctx context.Context, reason string, cost int) error {
	if cost <= 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin debit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var balance int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM credit_ledger").Scan(&balance); err != nil {
		return fmt.Errorf("query balance: %w", err)
	}
	if balance < cost {
		return ErrInsufficientCredits
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO credit_ledger (kind, reason, amount, created_at) VALUES (?, ?, ?, ?)",
		"debit", reason, -cost, time.Now().UTC().Format(timeFormat)); err != nil {
		return fmt.Errorf("append debit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit debit: %w", err)
	}
	return nil
}

// Refund returns credits after a failed run.
func (s *Store) Refund(ctx context.Context, reason string, cost int) error {
	if cost <= 0 {
		return nil
	}
	return s.appendEntry(ctx, "refund", reason, cost)
}

func (s *Store) appendEntry(ctx context.Context, kind, reason string, amount int) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO credit_ledger (kind, reason, amount, created_at) VALUES (?, ?, ?, ?)",
		kind, reason, amount, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("append %s: %w", kind, err)
	}
	return nil
}

// LedgerEntries returns up to limit entries, newest first. limit <= 0
// returns all.
func (s *Store) LedgerEntries(ctx context.Context, limit int) ([]LedgerEntry, error) {
	query := `SELECT entry_id, kind, reason, amount, created_at
		 FROM credit_ledger ORDER BY entry_id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.EntryID, &e.Kind, &e.Reason, &e.Amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GrantedSince reports whether any grant with the given reason exists at or
// after the cutoff. The daily allowance job uses this to stay idempotent.
func (s *Store) GrantedSince(ctx context.Context, reason string, cutoff time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credit_ledger
		 WHERE kind = 'grant' AND reason = ? AND created_at >= ?`,
		reason, cutoff.UTC().Format(timeFormat)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query grants: %w", err)
	}
	return count > 0, nil
}

// Interface assertion against the flow credit gate contract.
var _ flow.CreditGate = (*Store)(nil)
