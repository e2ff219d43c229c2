package compare

import (
	"github.com/loanguard/billcheck/internal/model"
	"github.com/loanguard/billcheck/internal/risk"
)

// ProcessingFailure is the terminal result for a document whose text could
// not be recognized. It is always RED with score 100, whatever the mode.
func ProcessingFailure(mode model.Mode, err error) model.Result {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return model.Result{
		Mode:              mode,
		Verdict:           model.VerdictInsufficientData,
		ConfidencePercent: 0,
		Discrepancies: []model.Discrepancy{{
			Kind:        model.KindOCRQuality,
			Description: "Document processing failed: " + reason,
		}},
		RiskScore:       100,
		RiskCategory:    model.CategoryRed,
		Recommendations: []string{risk.RecManualVerify},
	}
}
