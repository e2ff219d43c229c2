// Package risk maps risk scores to categories and turns discrepancies into
// officer-facing recommendations.
package risk

import "github.com/loanguard/billcheck/internal/model"

// Bands are the inclusive upper bounds of the GREEN and AMBER categories.
// Anything above AmberMax is RED.
type Bands struct {
	GreenMax int
	AmberMax int
}

// Per-mode bands. The two modes score on independently calibrated scales.
var (
	ItemizedBands = Bands{GreenMax: 25, AmberMax: 60}
	FreeTextBands = Bands{GreenMax: 20, AmberMax: 50}
)

// BandsFor returns the bands used for mode. Unknown modes use the itemized
// scale.
func BandsFor(mode model.Mode) Bands {
	if mode == model.ModeFreeText {
		return FreeTextBands
	}
	return ItemizedBands
}

// Classify maps score to a category for mode. It is total over all ints:
// negative scores are GREEN and scores above 100 are RED.
func Classify(score int, mode model.Mode) model.Category {
	return BandsFor(mode).Classify(score)
}

// Classify maps score to a category.
func (b Bands) Classify(score int) model.Category {
	switch {
	case score <= b.GreenMax:
		return model.CategoryGreen
	case score <= b.AmberMax:
		return model.CategoryAmber
	default:
		return model.CategoryRed
	}
}

// Auto-approval limits.
const (
	AutoApproveMaxScore      = 25
	AutoApproveMinConfidence = 80
)

// ShouldAutoApprove reports whether result may be approved without officer
// review. Only itemized comparisons qualify; free-text results carry no
// confidence.
func ShouldAutoApprove(result model.Result) bool {
	return result.Mode == model.ModeItemized &&
		result.Verdict == model.VerdictExact &&
		result.RiskScore <= AutoApproveMaxScore &&
		result.ConfidencePercent >= AutoApproveMinConfidence
}
