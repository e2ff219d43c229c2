package compare

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/loanguard/billcheck/internal/extract"
	"github.com/loanguard/billcheck/internal/model"
	"github.com/loanguard/billcheck/internal/risk"
)

// FreeText scores recognized bill text. loan is optional; when present the
// extracted total and vendor are cross-checked against it. Penalties are
// recorded as discrepancies in evaluation order.
func (e *Engine) FreeText(text string, loan *model.LoanSanctionRecord) model.Result {
	s := e.settings.FreeText
	fields := e.extractor.Extract(text)

	ds := []model.Discrepancy{}
	score := 0
	add := func(d model.Discrepancy, penalty int) {
		ds = append(ds, d)
		score += penalty
	}

	required := []struct {
		field   model.Field
		penalty int
	}{
		{model.FieldInvoiceNo, s.MissingInvoicePenalty},
		{model.FieldDate, s.MissingDatePenalty},
		{model.FieldTotal, s.MissingTotalPenalty},
		{model.FieldVendor, s.MissingVendorPenalty},
	}
	for _, r := range required {
		if !fields.Has(r.field) {
			add(model.Discrepancy{
				Kind:        model.KindMissingField,
				Description: "Missing " + string(r.field),
			}, r.penalty)
		}
	}

	if loan != nil && loan.SanctionedAmount.IsPositive() {
		if invoiceTotal, ok := extract.Amount(fields, model.FieldTotal); ok {
			rel := invoiceTotal.Sub(loan.SanctionedAmount).Abs().Div(loan.SanctionedAmount)
			for _, b := range s.TotalBands {
				if rel.GreaterThan(b.Over) {
					add(model.Discrepancy{
						Kind:        model.KindTotalMismatch,
						Description: b.Description,
						Expected:    loan.SanctionedAmount.StringFixed(2),
						Actual:      invoiceTotal.StringFixed(2),
					}, b.Penalty)
					break
				}
			}
		}
	}

	if loan != nil && loan.VendorName != "" {
		if vendor, ok := fields.Get(model.FieldVendor); ok && !sameVendor(vendor, loan.VendorName) {
			add(model.Discrepancy{
				Kind:        model.KindVendorMismatch,
				Description: "Vendor on bill does not match approved vendor",
				Expected:    loan.VendorName,
				Actual:      vendor,
			}, s.VendorMismatchPenalty)
		}
	}

	length := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case length < s.VeryPoorTextLen:
		add(model.Discrepancy{
			Kind:        model.KindOCRQuality,
			Description: "Very poor OCR quality",
			Expected:    strconv.Itoa(s.VeryPoorTextLen),
			Actual:      strconv.Itoa(length),
		}, s.VeryPoorTextPenalty)
	case length < s.PoorTextLen:
		add(model.Discrepancy{
			Kind:        model.KindOCRQuality,
			Description: "Poor OCR quality",
			Expected:    strconv.Itoa(s.PoorTextLen),
			Actual:      strconv.Itoa(length),
		}, s.PoorTextPenalty)
	}

	if strings.IndexFunc(text, unicode.IsDigit) < 0 {
		add(model.Discrepancy{
			Kind:        model.KindOCRQuality,
			Description: "Document contains no numeric content",
		}, s.NoDigitPenalty)
	}

	score = clampScore(score)
	category := risk.Classify(score, model.ModeFreeText)

	var verdict model.Verdict
	switch {
	case len(fields) == 0:
		verdict = model.VerdictInsufficientData
	case len(ds) == 0:
		verdict = model.VerdictExact
	case category == model.CategoryRed:
		verdict = model.VerdictMismatch
	default:
		verdict = model.VerdictPartial
	}

	return model.Result{
		Mode:              model.ModeFreeText,
		Verdict:           verdict,
		ConfidencePercent: 0,
		Discrepancies:     ds,
		RiskScore:         score,
		RiskCategory:      category,
		Recommendations:   risk.Recommend(ds, score),
	}
}

// sameVendor is a case-insensitive containment check in either direction.
func sameVendor(a, b string) bool {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	return strings.Contains(a, b) || strings.Contains(b, a)
}
