package model

// Mode selects the scoring strategy. The two modes use independently
// calibrated score scales.
type Mode string

const (
	ModeItemized Mode = "itemized"
	ModeFreeText Mode = "free_text"
)

// DiscrepancyKind classifies a detected inconsistency.
type DiscrepancyKind string

const (
	KindPrice          DiscrepancyKind = "price"
	KindQuantity       DiscrepancyKind = "quantity"
	KindItemMissing    DiscrepancyKind = "item_missing"
	KindTotalMismatch  DiscrepancyKind = "total_mismatch"
	KindMissingField   DiscrepancyKind = "missing_field"
	KindOCRQuality     DiscrepancyKind = "ocr_quality"
	KindVendorMismatch DiscrepancyKind = "vendor_mismatch"
)

// Discrepancy is a single inconsistency between sanctioned terms and a bill.
type Discrepancy struct {
	Kind        DiscrepancyKind `json:"kind"`
	Description string          `json:"description"`
	Expected    string          `json:"expected_value,omitempty"` // empty if not applicable
	Actual      string          `json:"actual_value,omitempty"`
}

// Verdict is the overall match outcome.
type Verdict string

const (
	VerdictExact            Verdict = "exact"
	VerdictPartial          Verdict = "partial"
	VerdictMismatch         Verdict = "mismatch"
	VerdictInsufficientData Verdict = "insufficient_data"
)

// Category is the risk band derived from a risk score.
type Category string

const (
	CategoryGreen Category = "GREEN"
	CategoryAmber Category = "AMBER"
	CategoryRed   Category = "RED"
)

// Result is the sole output of a comparison.
type Result struct {
	Mode              Mode          `json:"mode"`
	Verdict           Verdict       `json:"match_verdict"`
	ConfidencePercent int           `json:"confidence_percent"`
	Discrepancies     []Discrepancy `json:"discrepancies"`
	RiskScore         int           `json:"risk_score"`
	RiskCategory      Category      `json:"risk_category"`
	Recommendations   []string      `json:"recommendations"`
}

// HasKind reports whether any discrepancy is of kind k.
func (r Result) HasKind(k DiscrepancyKind) bool {
	for _, d := range r.Discrepancies {
		if d.Kind == k {
			return true
		}
	}
	return false
}
