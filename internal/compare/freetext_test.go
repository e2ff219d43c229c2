package compare

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanguard/billcheck/internal/model"
	"github.com/loanguard/billcheck/internal/risk"
)

const fullInvoice = `ABC MACHINERY LTD
Invoice No: INV-2024-01
Date: 12/01/2024
Vendor: ABC Machinery Ltd
Item: Power Tiller x1
Total: Rs. 50000
`

func loanFor(t *testing.T, amount, vendor string) *model.LoanSanctionRecord {
	t.Helper()
	rec, err := model.NewLoanSanctionRecord(model.LoanParams{
		ID:               "LN-FT",
		SanctionedAmount: dec(amount),
		VendorName:       vendor,
	})
	require.NoError(t, err)
	return &rec
}

func TestFreeText_EmptyText(t *testing.T) {
	r := FreeText("", nil)
	assertWellFormed(t, r)

	assert.Equal(t, model.ModeFreeText, r.Mode)
	// 15+10+15+10 missing fields, 20 short text, 10 no digits.
	assert.Equal(t, 80, r.RiskScore)
	assert.Equal(t, model.CategoryRed, r.RiskCategory)
	assert.Equal(t, model.VerdictInsufficientData, r.Verdict)
	assert.Equal(t, 0, r.ConfidencePercent)
	assert.Equal(t, []model.DiscrepancyKind{
		model.KindMissingField,
		model.KindMissingField,
		model.KindMissingField,
		model.KindMissingField,
		model.KindOCRQuality,
		model.KindOCRQuality,
	}, kinds(r))
	assert.Equal(t, "Missing Invoice No", r.Discrepancies[0].Description)
	assert.Equal(t, "Missing Vendor", r.Discrepancies[3].Description)
	assert.Equal(t, "Very poor OCR quality", r.Discrepancies[4].Description)
	assert.Equal(t, []string{risk.RecHighRisk, risk.RecVendorCheck}, r.Recommendations)
	assert.False(t, risk.ShouldAutoApprove(r))
}

func TestFreeText_WellFormedInvoice(t *testing.T) {
	loan := loanFor(t, "50000", "ABC Machinery Ltd")

	r := FreeText(fullInvoice, loan)
	assertWellFormed(t, r)

	assert.Empty(t, r.Discrepancies)
	assert.Equal(t, 0, r.RiskScore)
	assert.Equal(t, model.VerdictExact, r.Verdict)
	assert.Equal(t, model.CategoryGreen, r.RiskCategory)
	assert.False(t, risk.ShouldAutoApprove(r), "free-text results are never auto-approved")
}

func TestFreeText_ShortInvoiceOnlyQualityPenalty(t *testing.T) {
	text := "Invoice No: INV-2024-01\nDate: 12/01/2024\nTotal: Rs. 50000\nVendor: ABC Machinery Ltd"
	loan := loanFor(t, "50000", "ABC Machinery Ltd")

	r := FreeText(text, loan)
	assertWellFormed(t, r)

	require.Len(t, r.Discrepancies, 1)
	assert.Equal(t, model.KindOCRQuality, r.Discrepancies[0].Kind)
	assert.Equal(t, "Poor OCR quality", r.Discrepancies[0].Description)
	assert.Equal(t, 10, r.RiskScore)
	assert.Equal(t, model.VerdictPartial, r.Verdict)
	assert.Equal(t, model.CategoryGreen, r.RiskCategory)
}

func TestFreeText_ScoreClamped(t *testing.T) {
	loan := loanFor(t, "50000", "ABC Machinery Ltd")

	// 15 + 10 missing fields, 40 total, 20 vendor, 20 quality = 105
	r := FreeText("Total: 999999\nVendor: Foo Traders", loan)
	assertWellFormed(t, r)

	assert.Equal(t, []model.DiscrepancyKind{
		model.KindMissingField,
		model.KindMissingField,
		model.KindTotalMismatch,
		model.KindVendorMismatch,
		model.KindOCRQuality,
	}, kinds(r))
	assert.Equal(t, 100, r.RiskScore)
	assert.Equal(t, model.CategoryRed, r.RiskCategory)
	assert.Equal(t, model.VerdictMismatch, r.Verdict)

	total := r.Discrepancies[2]
	assert.Equal(t, "50000.00", total.Expected)
	assert.Equal(t, "999999.00", total.Actual)

	vendor := r.Discrepancies[3]
	assert.Equal(t, "ABC Machinery Ltd", vendor.Expected)
	assert.Equal(t, "Foo Traders", vendor.Actual)
}

func TestFreeText_TotalBands(t *testing.T) {
	const padding = "Thank you for your business. Goods once sold will not be taken back.\n"
	loan := loanFor(t, "100000", "ABC Machinery Ltd")

	tests := []struct {
		total   string
		penalty int
	}{
		{"160000", 40},
		{"150000", 25}, // exactly 50% falls in the moderate band
		{"125000", 25},
		{"115000", 15},
		{"85000", 15},
		{"110000", 0},
		{"90000", 0},
		{"100000", 0},
	}
	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			text := fmt.Sprintf("Invoice No: INV-1\nDate: 01/01/2024\nVendor: ABC Machinery Ltd\nTotal: Rs. %s\n%s", tt.total, padding)
			r := FreeText(text, loan)
			assertWellFormed(t, r)

			assert.Equal(t, tt.penalty, r.RiskScore)
			assert.Equal(t, tt.penalty > 0, r.HasKind(model.KindTotalMismatch))
		})
	}
}

func TestFreeText_VendorContainment(t *testing.T) {
	tests := []struct {
		name     string
		approved string
		mismatch bool
	}{
		{"identical", "ABC Machinery Ltd", false},
		{"approved is shorter", "abc machinery", false},
		{"extracted is shorter", "ABC Machinery Ltd Branch Office", false},
		{"different vendor", "XYZ Tools", true},
		{"no approved vendor", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FreeText(fullInvoice, loanFor(t, "50000", tt.approved))
			assert.Equal(t, tt.mismatch, r.HasKind(model.KindVendorMismatch))
		})
	}
}

func TestFreeText_NoLoanSkipsCrossChecks(t *testing.T) {
	text := "Invoice No: INV-7\nDate: 01/01/2024\nVendor: Foo Traders\nTotal: Rs. 999999\n" +
		"Thank you for your business. Goods once sold will not be taken back."

	r := FreeText(text, nil)
	assert.False(t, r.HasKind(model.KindTotalMismatch))
	assert.False(t, r.HasKind(model.KindVendorMismatch))
	assert.Equal(t, 0, r.RiskScore)
}

func TestFreeText_NoDigits(t *testing.T) {
	r := FreeText("Vendor: Foo Traders", nil)
	require.NotEmpty(t, r.Discrepancies)
	last := r.Discrepancies[len(r.Discrepancies)-1]
	assert.Equal(t, model.KindOCRQuality, last.Kind)
	assert.Equal(t, "Document contains no numeric content", last.Description)
	// 15 + 10 + 15 missing fields, 20 quality, 10 no digits
	assert.Equal(t, 70, r.RiskScore)
	assert.Equal(t, model.VerdictMismatch, r.Verdict)
}

func TestFreeText_Idempotent(t *testing.T) {
	loan := loanFor(t, "40000", "Someone Else")
	assert.Equal(t, FreeText(fullInvoice, loan), FreeText(fullInvoice, loan))
}

func TestNewEngine_CopiesTotalBands(t *testing.T) {
	s := DefaultSettings()
	e := NewEngine(s)
	s.FreeText.TotalBands[0].Penalty = 1

	loan := loanFor(t, "10000", "ABC Machinery Ltd")
	r := e.FreeText(fullInvoice, loan)
	assert.Equal(t, 40, r.RiskScore)
}
