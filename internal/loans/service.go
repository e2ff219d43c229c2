// Package loans stores loan sanction records.
package loans

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loanguard/billcheck/internal/model"
)

// ErrNotFound is returned when no loan has the requested ID.
var ErrNotFound = errors.New("loan not found")

// Store looks up loan records by ID.
type Store interface {
	Get(ctx context.Context, id string) (model.LoanSanctionRecord, error)
}

// Paths of the CSV loan files relative to a repo root.
var (
	LoansFile = filepath.Join("loans", "loans.csv")
	ItemsFile = filepath.Join("loans", "sanctioned-items.csv")
)

// Service provides in-memory lookup over loan records.
type Service struct {
	loans []model.LoanSanctionRecord
	byID  map[string]model.LoanSanctionRecord
}

// NewService creates a Service from a slice of loans.
func NewService(loans []model.LoanSanctionRecord) *Service {
	byID := make(map[string]model.LoanSanctionRecord, len(loans))
	for _, l := range loans {
		byID[l.ID] = l
	}
	return &Service{loans: loans, byID: byID}
}

// Load reads the loan CSV files from a repo root and returns a Service.
func Load(repoRoot string) (*Service, error) {
	lf, err := os.Open(filepath.Join(repoRoot, LoansFile))
	if err != nil {
		return nil, fmt.Errorf("opening loans: %w", err)
	}
	defer lf.Close()

	itf, err := os.Open(filepath.Join(repoRoot, ItemsFile))
	if err != nil {
		return nil, fmt.Errorf("opening sanctioned items: %w", err)
	}
	defer itf.Close()

	loans, err := ReadLoans(lf, itf)
	if err != nil {
		return nil, fmt.Errorf("reading loans: %w", err)
	}
	return NewService(loans), nil
}

// All returns all loans in file order.
func (s *Service) All() []model.LoanSanctionRecord {
	return s.loans
}

// Get returns a loan by ID.
func (s *Service) Get(_ context.Context, id string) (model.LoanSanctionRecord, error) {
	l, ok := s.byID[id]
	if !ok {
		return model.LoanSanctionRecord{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return l, nil
}

// Save writes the loans to the CSV files under repoRoot.
func (s *Service) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, filepath.Dir(LoansFile))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating loans dir: %w", err)
	}

	lf, err := os.Create(filepath.Join(repoRoot, LoansFile))
	if err != nil {
		return fmt.Errorf("creating loans file: %w", err)
	}
	defer lf.Close()

	itf, err := os.Create(filepath.Join(repoRoot, ItemsFile))
	if err != nil {
		return fmt.Errorf("creating sanctioned items file: %w", err)
	}
	defer itf.Close()

	if err := WriteLoans(lf, itf, s.loans); err != nil {
		return fmt.Errorf("writing loans: %w", err)
	}
	return nil
}
