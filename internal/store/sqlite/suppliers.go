package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rezonia/fattura-processor/internal/model"
)

const supplierColumns = `id, name, tax_id, fiscal_code, address, postal_code, city,
	province, country, default_account_ref, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSupplier(row rowScanner) (*model.SupplierRecord, error) {
	var rec model.SupplierRecord
	var createdAt, updatedAt string
	err := row.Scan(&rec.ID, &rec.Name, &rec.TaxID, &rec.FiscalCode, &rec.Address,
		&rec.PostalCode, &rec.City, &rec.Province, &rec.Country, &rec.DefaultAccountRef,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("supplier %s: bad created_at: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("supplier %s: bad updated_at: %w", rec.ID, err)
	}
	return &rec, nil
}

// FindByID returns the supplier with the given ID
func (s *Store) FindByID(ctx context.Context, id string) (*model.SupplierRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = ?`, id)
	return scanSupplier(row)
}

// FindByTaxID returns the supplier with exactly this tax ID
func (s *Store) FindByTaxID(ctx context.Context, taxID string) (*model.SupplierRecord, error) {
	if taxID == "" {
		return nil, model.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE tax_id = ?`, taxID)
	return scanSupplier(row)
}

// FindByFiscalCode returns the oldest supplier with this fiscal code
func (s *Store) FindByFiscalCode(ctx context.Context, fiscalCode string) (*model.SupplierRecord, error) {
	if fiscalCode == "" {
		return nil, model.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE fiscal_code = ? ORDER BY created_at LIMIT 1`, fiscalCode)
	return scanSupplier(row)
}

// Create inserts a supplier. A tax ID clash is reported as
// model.ErrDuplicateSupplier wrapping the driver error.
func (s *Store) Create(ctx context.Context, rec *model.SupplierRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suppliers (`+supplierColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.TaxID, rec.FiscalCode, rec.Address, rec.PostalCode, rec.City,
		rec.Province, rec.Country, rec.DefaultAccountRef, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
	return classify(err)
}

// Update replaces an existing supplier
func (s *Store) Update(ctx context.Context, rec *model.SupplierRecord) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE suppliers SET name = ?, tax_id = ?, fiscal_code = ?, address = ?, postal_code = ?,
			city = ?, province = ?, country = ?, default_account_ref = ?, updated_at = ?
		WHERE id = ?`,
		rec.Name, rec.TaxID, rec.FiscalCode, rec.Address, rec.PostalCode, rec.City,
		rec.Province, rec.Country, rec.DefaultAccountRef, formatTime(rec.UpdatedAt), rec.ID)
	if err != nil {
		return classify(err)
	}
	return requireAffected(res)
}

// Delete removes a supplier
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Suppliers returns every supplier ordered by name
func (s *Store) Suppliers(ctx context.Context) ([]model.SupplierRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SupplierRecord
	for rows.Next() {
		rec, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var serr *sqlitedriver.Error
	if errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: %w", model.ErrDuplicateSupplier, err)
	}
	return err
}
