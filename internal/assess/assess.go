// Package assess runs documents through recognition and scoring. It owns the
// loan lookup, the OCR retry policy and the RED fallback for unreadable
// documents.
package assess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/loanguard/billcheck/internal/bills"
	"github.com/loanguard/billcheck/internal/compare"
	"github.com/loanguard/billcheck/internal/extract"
	"github.com/loanguard/billcheck/internal/loans"
	"github.com/loanguard/billcheck/internal/model"
	"github.com/loanguard/billcheck/internal/ocr"
	"github.com/loanguard/billcheck/internal/risk"
)

// Assessment is the outcome for one document.
type Assessment struct {
	ID          string
	LoanID      string
	Document    string
	Mode        model.Mode
	Fields      model.Fields // free-text mode only
	Result      model.Result
	AutoApprove bool
	AssessedAt  time.Time
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	Engine  *compare.Engine
	Loans   loans.Store
	OCR     ocr.Provider
	Bills   *bills.Registry
	Logger  *slog.Logger
	Retries int // extra OCR attempts after the first failure
	Workers int // parallel assessments in Batch
	Now     func() time.Time
}

// Service assesses documents against loan records.
type Service struct {
	engine  *compare.Engine
	loans   loans.Store
	ocr     ocr.Provider
	bills   *bills.Registry
	logger  *slog.Logger
	retries int
	workers int
	now     func() time.Time
}

// NewService returns a Service. Loans and OCR may be nil: without a store
// every document is scored with no loan record, and without OCR every
// document is treated as unreadable.
func NewService(opts Options) *Service {
	s := &Service{
		engine:  opts.Engine,
		loans:   opts.Loans,
		ocr:     opts.OCR,
		bills:   opts.Bills,
		logger:  opts.Logger,
		retries: max(0, opts.Retries),
		workers: max(1, opts.Workers),
		now:     opts.Now,
	}
	if s.engine == nil {
		s.engine = compare.NewEngine(compare.DefaultSettings())
	}
	if s.bills == nil {
		s.bills = bills.DefaultRegistry()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Loan fetches a loan record. A loan that does not exist yields nil and no
// error; the caller scores without a cross-check.
func (s *Service) Loan(ctx context.Context, loanID string) (*model.LoanSanctionRecord, error) {
	if loanID == "" || s.loans == nil {
		return nil, nil
	}
	l, err := s.loans.Get(ctx, loanID)
	if errors.Is(err, loans.ErrNotFound) {
		s.logger.Warn("assess.loan_missing", "loan_id", loanID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading loan %s: %w", loanID, err)
	}
	return &l, nil
}

// Recognize runs OCR on path, retrying failed attempts. Cancellation is
// returned immediately and never retried.
func (s *Service) Recognize(ctx context.Context, path string) (ocr.Result, error) {
	if s.ocr == nil {
		return ocr.Result{}, &ocr.Error{Path: path, Op: "recognize", Err: errors.New("no OCR provider configured")}
	}

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return ocr.Result{}, err
		}
		res, err := s.ocr.Recognize(ctx, path)
		if err == nil {
			return res, nil
		}
		if ocr.IsCanceled(err) {
			return ocr.Result{}, err
		}
		lastErr = err
		s.logger.Warn("assess.ocr_retry", "path", path, "attempt", attempt+1, "error", err)
	}
	return ocr.Result{}, lastErr
}

// AssessText scores already recognized text.
func (s *Service) AssessText(ctx context.Context, text, loanID string) (Assessment, error) {
	loan, err := s.Loan(ctx, loanID)
	if err != nil {
		return Assessment{}, err
	}
	a := s.newAssessment(loanID, "", model.ModeFreeText)
	a.Fields = extract.Fields(text)
	a.Result = s.engine.FreeText(text, loan)
	s.finish(&a)
	return a, nil
}

// AssessDocument recognizes the document at path and scores its text. A
// recognition failure produces the RED fallback result, not an error.
func (s *Service) AssessDocument(ctx context.Context, path, loanID string) (Assessment, error) {
	res, err := s.Recognize(ctx, path)
	if err != nil {
		if ocr.IsCanceled(err) {
			return Assessment{}, err
		}
		s.logger.Error("assess.ocr_failed", "path", path, "loan_id", loanID, "error", err)
		a := s.newAssessment(loanID, path, model.ModeFreeText)
		a.Fields = model.Fields{}
		a.Result = compare.ProcessingFailure(model.ModeFreeText, err)
		s.finish(&a)
		return a, nil
	}

	a, err := s.AssessText(ctx, res.Text, loanID)
	if err != nil {
		return Assessment{}, err
	}
	a.Document = path
	return a, nil
}

// AssessItemized compares a structured bill with the loan's sanctioned
// items. A missing loan record gives an insufficient_data result.
func (s *Service) AssessItemized(ctx context.Context, bill model.ItemizedBill, loanID string) (Assessment, error) {
	loan, err := s.Loan(ctx, loanID)
	if err != nil {
		return Assessment{}, err
	}
	var rec model.LoanSanctionRecord
	if loan != nil {
		rec = *loan
	}
	a := s.newAssessment(loanID, "", model.ModeItemized)
	a.Result = s.engine.Itemized(rec, bill)
	s.finish(&a)
	return a, nil
}

// AssessFile assesses one inbox file according to its kind.
func (s *Service) AssessFile(ctx context.Context, f bills.FileInfo) (Assessment, error) {
	if f.Kind == bills.KindDocument {
		return s.AssessDocument(ctx, f.Path, f.LoanID)
	}

	bill, err := s.ParseBill(f.Path)
	if err != nil {
		return Assessment{}, err
	}
	a, err := s.AssessItemized(ctx, bill, f.LoanID)
	if err != nil {
		return Assessment{}, err
	}
	a.Document = f.Path
	return a, nil
}

// ParseBill reads an itemized bill with the parser for its extension.
func (s *Service) ParseBill(path string) (model.ItemizedBill, error) {
	p := s.bills.ForFile(path)
	if p == nil {
		return model.ItemizedBill{}, fmt.Errorf("no bill parser for %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return model.ItemizedBill{}, fmt.Errorf("opening bill: %w", err)
	}
	defer f.Close()

	bill, err := p.Parse(f)
	if err != nil {
		return model.ItemizedBill{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return bill, nil
}

func (s *Service) newAssessment(loanID, doc string, mode model.Mode) Assessment {
	return Assessment{
		ID:         uuid.NewString(),
		LoanID:     loanID,
		Document:   doc,
		Mode:       mode,
		AssessedAt: s.now().UTC(),
	}
}

func (s *Service) finish(a *Assessment) {
	a.AutoApprove = risk.ShouldAutoApprove(a.Result)
	s.logger.Info("assess.ok",
		"id", a.ID,
		"loan_id", a.LoanID,
		"mode", a.Mode,
		"verdict", a.Result.Verdict,
		"risk_score", a.Result.RiskScore,
		"risk_category", a.Result.RiskCategory,
		"discrepancies", len(a.Result.Discrepancies),
	)
}
