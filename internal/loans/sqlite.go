package loans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/loanguard/billcheck/internal/model"
)

// SQLiteStore keeps loan records in a SQLite database. Amounts are stored as
// decimal text so no precision is lost.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and ensures the loan
// tables exist.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS loans (
			id TEXT PRIMARY KEY,
			sanctioned_amount TEXT NOT NULL,
			vendor_name TEXT NOT NULL DEFAULT '',
			purpose TEXT NOT NULL DEFAULT '',
			sanctioned_date TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sanctioned_items (
			loan_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			quantity TEXT NOT NULL,
			unit_price TEXT NOT NULL,
			total_price TEXT NOT NULL,
			PRIMARY KEY (loan_id, position),
			FOREIGN KEY (loan_id) REFERENCES loans(id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a loan and its items.
func (s *SQLiteStore) Put(ctx context.Context, l model.LoanSanctionRecord) error {
	_, err := s.PutAll(ctx, []model.LoanSanctionRecord{l})
	return err
}

// PutAll inserts or replaces loans in a single transaction and returns the
// number written.
func (s *SQLiteStore) PutAll(ctx context.Context, loans []model.LoanSanctionRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, l := range loans {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sanctioned_items WHERE loan_id = ?`, l.ID); err != nil {
			return 0, fmt.Errorf("clear items for %s: %w", l.ID, err)
		}

		var sanctionedOn sql.NullString
		if !l.SanctionedDate.IsZero() {
			sanctionedOn = sql.NullString{String: l.SanctionedDate.Format(DateLayout), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO loans (id, sanctioned_amount, vendor_name, purpose, sanctioned_date)
			VALUES (?,?,?,?,?)`,
			l.ID, l.SanctionedAmount.String(), l.VendorName, l.Purpose, sanctionedOn,
		)
		if err != nil {
			return 0, fmt.Errorf("insert loan %d: %w", i, err)
		}

		for pos, it := range l.Items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO sanctioned_items (loan_id, position, name, quantity, unit_price, total_price)
				VALUES (?,?,?,?,?,?)`,
				l.ID, pos, it.Name, it.Quantity.String(), it.UnitPrice.String(), it.TotalPrice.String(),
			)
			if err != nil {
				return 0, fmt.Errorf("insert item %d of %s: %w", pos, l.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(loans), nil
}

// Get returns a loan by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.LoanSanctionRecord, error) {
	var (
		p            model.LoanParams
		amount       string
		sanctionedOn sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, sanctioned_amount, vendor_name, purpose, sanctioned_date FROM loans WHERE id = ?`, id,
	).Scan(&p.ID, &amount, &p.VendorName, &p.Purpose, &sanctionedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LoanSanctionRecord{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.LoanSanctionRecord{}, fmt.Errorf("query loan %s: %w", id, err)
	}

	if p.SanctionedAmount, err = decimal.NewFromString(amount); err != nil {
		return model.LoanSanctionRecord{}, fmt.Errorf("parse amount of %s: %w", id, err)
	}
	if sanctionedOn.Valid {
		if p.SanctionedDate, err = time.Parse(DateLayout, sanctionedOn.String); err != nil {
			return model.LoanSanctionRecord{}, fmt.Errorf("parse date of %s: %w", id, err)
		}
	}

	p.Items, err = s.items(ctx, id)
	if err != nil {
		return model.LoanSanctionRecord{}, err
	}
	return model.NewLoanSanctionRecord(p)
}

func (s *SQLiteStore) items(ctx context.Context, loanID string) ([]model.SanctionedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, quantity, unit_price, total_price FROM sanctioned_items
		WHERE loan_id = ? ORDER BY position`, loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("query items of %s: %w", loanID, err)
	}
	defer rows.Close()

	var out []model.SanctionedItem
	for rows.Next() {
		var name string
		var raw [3]string
		if err := rows.Scan(&name, &raw[0], &raw[1], &raw[2]); err != nil {
			return nil, fmt.Errorf("scan item of %s: %w", loanID, err)
		}
		var nums [3]decimal.Decimal
		for i, r := range raw {
			d, err := decimal.NewFromString(r)
			if err != nil {
				return nil, fmt.Errorf("parse item of %s: %w", loanID, err)
			}
			nums[i] = d
		}
		out = append(out, model.SanctionedItem{
			Name:       name,
			Quantity:   nums[0],
			UnitPrice:  nums[1],
			TotalPrice: nums[2],
		})
	}
	return out, rows.Err()
}

// Count returns the number of stored loans.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count loans: %w", err)
	}
	return n, nil
}
