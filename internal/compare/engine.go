// Package compare scores a proof-of-purchase document against a loan's
// sanctioned terms.
//
// Itemized compares a structured bill line by line. FreeText scores recognized
// text for completeness and consistency. The two score scales are calibrated
// separately and classified with different bands (see risk.BandsFor).
package compare

import (
	"github.com/shopspring/decimal"

	"github.com/loanguard/billcheck/internal/extract"
	"github.com/loanguard/billcheck/internal/match"
	"github.com/loanguard/billcheck/internal/model"
)

// ItemizedSettings are the calibration constants for itemized comparison.
type ItemizedSettings struct {
	TotalTolerance        decimal.Decimal // fraction of the sanctioned sum
	PriceTolerance        decimal.Decimal // fraction of the sanctioned unit price
	TotalMismatchPenalty  int
	MissingItemPenalty    int
	QuantityPenalty       int
	PricePenalty          int
	InsufficientDataScore int
	ConfidencePerIssue    int // confidence lost per discrepancy
	PartialMaxScore       int // partial requires a score strictly below this
	PartialMinMatchedPct  int
}

// TotalBand is a penalty for an invoice total whose relative difference from
// the sanctioned amount is strictly above Over.
type TotalBand struct {
	Over        decimal.Decimal
	Penalty     int
	Description string
}

// FreeTextSettings are the calibration constants for free-text scoring.
type FreeTextSettings struct {
	MissingInvoicePenalty int
	MissingDatePenalty    int
	MissingTotalPenalty   int
	MissingVendorPenalty  int
	TotalBands            []TotalBand // checked in order, first applicable wins
	VendorMismatchPenalty int
	VeryPoorTextLen       int
	VeryPoorTextPenalty   int
	PoorTextLen           int
	PoorTextPenalty       int
	NoDigitPenalty        int
}

// Settings configures an Engine.
type Settings struct {
	Matcher  match.Matcher
	Itemized ItemizedSettings
	FreeText FreeTextSettings
}

// DefaultSettings returns the standard calibration.
func DefaultSettings() Settings {
	return Settings{
		Matcher: match.Default(),
		Itemized: ItemizedSettings{
			TotalTolerance:        decimal.RequireFromString("0.05"),
			PriceTolerance:        decimal.RequireFromString("0.10"),
			TotalMismatchPenalty:  30,
			MissingItemPenalty:    20,
			QuantityPenalty:       15,
			PricePenalty:          25,
			InsufficientDataScore: 50,
			ConfidencePerIssue:    10,
			PartialMaxScore:       30,
			PartialMinMatchedPct:  80,
		},
		FreeText: FreeTextSettings{
			MissingInvoicePenalty: 15,
			MissingDatePenalty:    10,
			MissingTotalPenalty:   15,
			MissingVendorPenalty:  10,
			TotalBands: []TotalBand{
				{Over: decimal.RequireFromString("0.5"), Penalty: 40, Description: "Invoice total significantly differs from sanctioned amount"},
				{Over: decimal.RequireFromString("0.2"), Penalty: 25, Description: "Invoice total moderately differs from sanctioned amount"},
				{Over: decimal.RequireFromString("0.1"), Penalty: 15, Description: "Minor difference between invoice total and sanctioned amount"},
			},
			VendorMismatchPenalty: 20,
			VeryPoorTextLen:       50,
			VeryPoorTextPenalty:   20,
			PoorTextLen:           100,
			PoorTextPenalty:       10,
			NoDigitPenalty:        10,
		},
	}
}

// Engine runs comparisons. It is read-only after construction and safe for
// concurrent use.
type Engine struct {
	settings  Settings
	extractor *extract.Extractor
}

// NewEngine returns an Engine using s.
func NewEngine(s Settings) *Engine {
	bands := make([]TotalBand, len(s.FreeText.TotalBands))
	copy(bands, s.FreeText.TotalBands)
	s.FreeText.TotalBands = bands

	return &Engine{
		settings:  s,
		extractor: extract.New(extract.DefaultRules()),
	}
}

// Settings returns the engine's calibration.
func (e *Engine) Settings() Settings {
	return e.settings
}

var defaultEngine = NewEngine(DefaultSettings())

// Itemized compares an itemized bill with default settings.
func Itemized(loan model.LoanSanctionRecord, bill model.ItemizedBill) model.Result {
	return defaultEngine.Itemized(loan, bill)
}

// FreeText scores recognized text with default settings. loan may be nil.
func FreeText(text string, loan *model.LoanSanctionRecord) model.Result {
	return defaultEngine.FreeText(text, loan)
}

func clampScore(score int) int {
	return min(100, max(0, score))
}
