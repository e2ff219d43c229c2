package assess

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanguard/billcheck/internal/bills"
	"github.com/loanguard/billcheck/internal/loans"
	"github.com/loanguard/billcheck/internal/model"
	"github.com/loanguard/billcheck/internal/ocr"
)

const invoiceText = `ABC MACHINERY LTD
Invoice No: INV-2024-01
Date: 12/01/2024
Vendor: ABC Machinery Ltd
Item: Power Tiller x1
Total: Rs. 50000
`

const tractorBill = `{
  "vendor_name": "ABC Machinery Ltd",
  "items": [
    {"description": "Agricultural Tractor 45HP", "quantity": 1, "unit_price": "100000.00", "total_amount": "100000.00"},
    {"description": "Rotavator 6ft", "quantity": 1, "unit_price": 48500, "total_amount": 48500}
  ],
  "total_bill_amount": "148500.00"
}`

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// flakyOCR fails the first failures calls, then returns text.
type flakyOCR struct {
	mu       sync.Mutex
	failures int
	err      error
	text     string
	calls    int
}

func (f *flakyOCR) Recognize(ctx context.Context, path string) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return ocr.Result{}, &ocr.Error{Path: path, Op: "tesseract", Err: f.err}
	}
	return ocr.Result{Text: f.text, Source: "fake"}, nil
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (model.LoanSanctionRecord, error) {
	return model.LoanSanctionRecord{}, errors.New("database is locked")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLoans(t *testing.T) *loans.Service {
	t.Helper()
	tractor, err := model.NewLoanSanctionRecord(model.LoanParams{
		ID:               "LN-100",
		SanctionedAmount: dec("148500"),
		VendorName:       "ABC Machinery Ltd",
		Purpose:          "Tractor purchase",
		Items: []model.SanctionedItem{
			{Name: "Agricultural Tractor 45HP", Quantity: dec("1"), UnitPrice: dec("100000"), TotalPrice: dec("100000")},
			{Name: "Rotavator 6ft", Quantity: dec("1"), UnitPrice: dec("48500"), TotalPrice: dec("48500")},
		},
	})
	require.NoError(t, err)
	tiller, err := model.NewLoanSanctionRecord(model.LoanParams{
		ID:               "LN-200",
		SanctionedAmount: dec("50000"),
		VendorName:       "ABC Machinery",
	})
	require.NoError(t, err)
	return loans.NewService([]model.LoanSanctionRecord{tractor, tiller})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, provider ocr.Provider, retries int) *Service {
	t.Helper()
	return NewService(Options{
		Loans:   testLoans(t),
		OCR:     provider,
		Logger:  quietLogger(),
		Retries: retries,
		Workers: 3,
		Now:     func() time.Time { return fixedNow },
	})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAssessDocument_CleanInvoice(t *testing.T) {
	svc := newTestService(t, &flakyOCR{text: invoiceText}, 0)

	a, err := svc.AssessDocument(context.Background(), "scan.png", "LN-200")
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "LN-200", a.LoanID)
	assert.Equal(t, "scan.png", a.Document)
	assert.Equal(t, model.ModeFreeText, a.Mode)
	assert.Equal(t, fixedNow, a.AssessedAt)
	assert.Equal(t, model.VerdictExact, a.Result.Verdict)
	assert.Equal(t, 0, a.Result.RiskScore)
	assert.Equal(t, model.CategoryGreen, a.Result.RiskCategory)
	assert.True(t, a.Fields.Has(model.FieldInvoiceNo))
	assert.False(t, a.AutoApprove, "free-text results are never auto-approved")
}

func TestAssessDocument_OCRFailureIsRed(t *testing.T) {
	provider := &flakyOCR{failures: 10, err: errors.New("exit status 1")}
	svc := newTestService(t, provider, 2)

	a, err := svc.AssessDocument(context.Background(), "scan.png", "LN-200")
	require.NoError(t, err)

	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, 100, a.Result.RiskScore)
	assert.Equal(t, model.CategoryRed, a.Result.RiskCategory)
	assert.Equal(t, model.VerdictInsufficientData, a.Result.Verdict)
	require.Len(t, a.Result.Discrepancies, 1)
	assert.Equal(t, model.KindOCRQuality, a.Result.Discrepancies[0].Kind)
	assert.Contains(t, a.Result.Discrepancies[0].Description, "exit status 1")
	assert.Empty(t, a.Fields)
	assert.False(t, a.AutoApprove)
}

func TestAssessDocument_RetrySucceeds(t *testing.T) {
	provider := &flakyOCR{failures: 1, err: errors.New("timeout"), text: invoiceText}
	svc := newTestService(t, provider, 1)

	a, err := svc.AssessDocument(context.Background(), "scan.png", "LN-200")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, model.CategoryGreen, a.Result.RiskCategory)
}

func TestAssessDocument_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(t, &flakyOCR{text: invoiceText}, 3)

	_, err := svc.AssessDocument(ctx, "scan.png", "LN-200")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssessDocument_NoProvider(t *testing.T) {
	svc := newTestService(t, nil, 0)

	a, err := svc.AssessDocument(context.Background(), "scan.png", "")
	require.NoError(t, err)
	assert.Equal(t, 100, a.Result.RiskScore)
	assert.Equal(t, model.CategoryRed, a.Result.RiskCategory)
}

func TestAssessText_UnknownLoan(t *testing.T) {
	svc := newTestService(t, nil, 0)

	a, err := svc.AssessText(context.Background(), invoiceText, "LN-999")
	require.NoError(t, err)
	assert.False(t, a.Result.HasKind(model.KindTotalMismatch))
	assert.False(t, a.Result.HasKind(model.KindVendorMismatch))
	assert.Equal(t, model.VerdictExact, a.Result.Verdict)
}

func TestAssessText_StoreError(t *testing.T) {
	svc := NewService(Options{Loans: brokenStore{}, Logger: quietLogger()})

	_, err := svc.AssessText(context.Background(), invoiceText, "LN-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestAssessItemized_ExactIsAutoApproved(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "LN-100__bill.json", tractorBill)
	svc := newTestService(t, nil, 0)

	a, err := svc.AssessFile(context.Background(), bills.FileInfo{
		Name: "LN-100__bill.json", Path: path, Kind: bills.KindItemized, LoanID: "LN-100",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ModeItemized, a.Mode)
	assert.Equal(t, path, a.Document)
	assert.Equal(t, model.VerdictExact, a.Result.Verdict)
	assert.Equal(t, 100, a.Result.ConfidencePercent)
	assert.Equal(t, model.CategoryGreen, a.Result.RiskCategory)
	assert.True(t, a.AutoApprove)
	assert.Nil(t, a.Fields)
}

func TestAssessItemized_MissingLoanIsInsufficient(t *testing.T) {
	svc := newTestService(t, nil, 0)
	bill := model.ItemizedBill{
		Items: []model.BillItem{
			{Description: "Rotavator", Quantity: dec("1"), UnitPrice: dec("10"), TotalAmount: dec("10")},
		},
		TotalBillAmount: dec("10"),
	}

	a, err := svc.AssessItemized(context.Background(), bill, "LN-404")
	require.NoError(t, err)
	assert.Equal(t, model.VerdictInsufficientData, a.Result.Verdict)
	assert.False(t, a.AutoApprove)
}

func TestAssessFile_BadBill(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "LN-100__bill.json", `{"items": "nope"}`)
	svc := newTestService(t, nil, 0)

	_, err := svc.AssessFile(context.Background(), bills.FileInfo{Path: path, Kind: bills.KindItemized, LoanID: "LN-100"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestBatch_KeepsOrderAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "LN-100__bill.json", tractorBill)
	bad := writeFile(t, dir, "LN-100__broken.json", `not json`)

	files := []bills.FileInfo{
		{Name: "LN-200__scan.png", Path: "LN-200__scan.png", Kind: bills.KindDocument, LoanID: "LN-200"},
		{Name: "LN-100__broken.json", Path: bad, Kind: bills.KindItemized, LoanID: "LN-100"},
		{Name: "LN-100__bill.json", Path: good, Kind: bills.KindItemized, LoanID: "LN-100"},
		{Name: "LN-200__blank.png", Path: "LN-200__blank.png", Kind: bills.KindDocument, LoanID: "LN-200"},
	}
	svc := newTestService(t, &flakyOCR{text: invoiceText}, 0)

	items, err := svc.Batch(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, items, len(files))
	for i, it := range items {
		assert.Equal(t, files[i].Name, it.File.Name)
	}
	assert.NoError(t, items[0].Err)
	assert.Error(t, items[1].Err)
	assert.Equal(t, model.ModeItemized, items[2].Assessment.Mode)
	assert.Equal(t, model.ModeFreeText, items[3].Assessment.Mode)

	sum := Summarize(items)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.AutoApprove)
	assert.Equal(t, 3, sum.ByCategory[model.CategoryGreen])
}

func TestBatch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(t, &flakyOCR{text: invoiceText}, 0)

	_, err := svc.Batch(ctx, []bills.FileInfo{{Name: "a.png", Path: "a.png", Kind: bills.KindDocument}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatch_Empty(t *testing.T) {
	svc := newTestService(t, nil, 0)
	items, err := svc.Batch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
