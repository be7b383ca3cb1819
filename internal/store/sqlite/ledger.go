package sqlite

import (
	"context"
	"fmt"

	"github.com/rezonia/fattura-processor/internal/model"
)

// AppendEntries inserts a batch in one transaction
func (s *Store) AppendEntries(ctx context.Context, entries []model.JournalEntry) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO journal_entries
		(id, closure_id, register, debit, credit, account_ref, description, entry_date, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx, e.ID, e.ClosureID, string(e.Register), e.Debit, e.Credit,
			e.AccountRef, e.Description, formatTime(e.Date), e.CreatedBy, formatTime(e.CreatedAt)); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteByClosure removes every entry of a closure and returns how many
func (s *Store) DeleteByClosure(ctx context.Context, closureID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE closure_id = ?`, closureID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ListByClosure returns the entries of a closure in insertion order
func (s *Store) ListByClosure(ctx context.Context, closureID string) ([]model.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, closure_id, register, debit, credit, account_ref,
		description, entry_date, created_by, created_at
		FROM journal_entries WHERE closure_id = ? ORDER BY seq`, closureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		var register, date, createdAt string
		if err := rows.Scan(&e.ID, &e.ClosureID, &register, &e.Debit, &e.Credit, &e.AccountRef,
			&e.Description, &date, &e.CreatedBy, &createdAt); err != nil {
			return nil, err
		}
		e.Register = model.RegisterType(register)
		if e.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("entry %s: bad entry_date: %w", e.ID, err)
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("entry %s: bad created_at: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
