package compare

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/loanguard/billcheck/internal/model"
	"github.com/loanguard/billcheck/internal/risk"
)

var hundred = decimal.NewFromInt(100)

// Itemized compares bill against the loan's sanctioned items. When either
// side has no line items the result is insufficient_data and nothing else is
// scored.
func (e *Engine) Itemized(loan model.LoanSanctionRecord, bill model.ItemizedBill) model.Result {
	s := e.settings.Itemized
	if !loan.HasItems() || !bill.HasItems() {
		return e.insufficientItems(loan, bill)
	}

	ds := []model.Discrepancy{}
	score := 0

	sanctionedTotal := loan.ItemsTotal()
	if bill.TotalBillAmount.Sub(sanctionedTotal).Abs().GreaterThan(sanctionedTotal.Mul(s.TotalTolerance)) {
		ds = append(ds, model.Discrepancy{
			Kind:        model.KindTotalMismatch,
			Description: fmt.Sprintf("Total amount mismatch exceeds %s%% tolerance", percent(s.TotalTolerance)),
			Expected:    sanctionedTotal.StringFixed(2),
			Actual:      bill.TotalBillAmount.StringFixed(2),
		})
		score += s.TotalMismatchPenalty
	}

	descriptions := bill.Descriptions()
	matched := 0
	for _, item := range loan.Items {
		idx, ok := e.settings.Matcher.Find(item.Name, descriptions)
		if !ok {
			ds = append(ds, model.Discrepancy{
				Kind:        model.KindItemMissing,
				Description: "Sanctioned item not found in bill: " + item.Name,
				Expected:    fmt.Sprintf("%s x %s @ %s", item.Name, item.Quantity, item.UnitPrice.StringFixed(2)),
			})
			score += s.MissingItemPenalty
			continue
		}
		matched++
		billed := bill.Items[idx]

		if !item.Quantity.Equal(billed.Quantity) {
			ds = append(ds, model.Discrepancy{
				Kind:        model.KindQuantity,
				Description: "Quantity mismatch for " + item.Name,
				Expected:    item.Quantity.String(),
				Actual:      billed.Quantity.String(),
			})
			score += s.QuantityPenalty
		}

		if billed.UnitPrice.Sub(item.UnitPrice).Abs().GreaterThan(item.UnitPrice.Mul(s.PriceTolerance)) {
			ds = append(ds, model.Discrepancy{
				Kind:        model.KindPrice,
				Description: fmt.Sprintf("Unit price variance exceeds %s%% for %s", percent(s.PriceTolerance), item.Name),
				Expected:    item.UnitPrice.StringFixed(2),
				Actual:      billed.UnitPrice.StringFixed(2),
			})
			score += s.PricePenalty
		}
	}

	total := len(loan.Items)
	matchPct := decimal.NewFromInt(int64(matched)).Mul(hundred).Div(decimal.NewFromInt(int64(total)))
	confidence := matchPct.Sub(decimal.NewFromInt(int64(s.ConfidencePerIssue * len(ds))))
	if confidence.IsNegative() {
		confidence = decimal.Zero
	}

	var verdict model.Verdict
	switch {
	case len(ds) == 0:
		verdict = model.VerdictExact
	case score < s.PartialMaxScore && matched*100 >= s.PartialMinMatchedPct*total:
		verdict = model.VerdictPartial
	default:
		verdict = model.VerdictMismatch
	}

	score = clampScore(score)
	return model.Result{
		Mode:              model.ModeItemized,
		Verdict:           verdict,
		ConfidencePercent: min(100, int(confidence.Round(0).IntPart())),
		Discrepancies:     ds,
		RiskScore:         score,
		RiskCategory:      risk.Classify(score, model.ModeItemized),
		Recommendations:   risk.Recommend(ds, score),
	}
}

func (e *Engine) insufficientItems(loan model.LoanSanctionRecord, bill model.ItemizedBill) model.Result {
	var gap string
	switch {
	case !loan.HasItems() && !bill.HasItems():
		gap = "missing sanctioned items and bill items"
	case !loan.HasItems():
		gap = "missing sanctioned items"
	default:
		gap = "missing bill items"
	}

	score := clampScore(e.settings.Itemized.InsufficientDataScore)
	return model.Result{
		Mode:              model.ModeItemized,
		Verdict:           model.VerdictInsufficientData,
		ConfidencePercent: 0,
		Discrepancies: []model.Discrepancy{{
			Kind:        model.KindItemMissing,
			Description: "Insufficient data for comparison - " + gap,
			Expected:    "Complete loan document with itemized breakdown",
			Actual:      "Incomplete data",
		}},
		RiskScore:       score,
		RiskCategory:    risk.Classify(score, model.ModeItemized),
		Recommendations: []string{risk.RecUploadSanction, risk.RecItemwiseBill},
	}
}

// percent renders a fraction such as 0.05 as "5".
func percent(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).String()
}
