package risk

import "github.com/loanguard/billcheck/internal/model"

// Recommendation texts.
const (
	RecHighRisk       = "High risk — recommend field verification"
	RecVendorCheck    = "Cross-check vendor authenticity"
	RecMediumRisk     = "Medium risk — request additional documentation"
	RecLowRisk        = "Low risk — minor discrepancies acceptable"
	RecMarketPrices   = "Verify current market prices for flagged items"
	RecQuantity       = "Confirm quantity requirements with beneficiary"
	RecMissingItems   = "Request bills for all sanctioned items"
	RecManualVerify   = "Document processing failed — manual verification required"
	RecUploadSanction = "Upload complete loan sanction document"
	RecItemwiseBill   = "Ensure bill has clear item-wise breakdown"
)

// kindAdvice is evaluated in order; each kind contributes at most once.
var kindAdvice = []struct {
	kind model.DiscrepancyKind
	text string
}{
	{model.KindPrice, RecMarketPrices},
	{model.KindQuantity, RecQuantity},
	{model.KindItemMissing, RecMissingItems},
}

// Recommend builds recommendations from the score band followed by one line
// per discrepancy kind present. The result is never nil.
func Recommend(discrepancies []model.Discrepancy, score int) []string {
	out := []string{}
	switch {
	case score > 70:
		out = append(out, RecHighRisk, RecVendorCheck)
	case score > 40:
		out = append(out, RecMediumRisk)
	case score > 20:
		out = append(out, RecLowRisk)
	}

	present := make(map[model.DiscrepancyKind]bool, len(discrepancies))
	for _, d := range discrepancies {
		present[d.Kind] = true
	}
	for _, a := range kindAdvice {
		if present[a.kind] {
			out = append(out, a.text)
		}
	}
	return out
}
