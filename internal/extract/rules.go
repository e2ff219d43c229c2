package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/loanguard/billcheck/internal/model"
)

// Rule is one extraction pattern for a field. Rules for the same field are
// tried in slice order and the first one that yields a value wins.
type Rule struct {
	Field   model.Field
	Pattern *regexp.Regexp
	// Post cleans the first capture group. Returning false rejects the
	// capture and lets the next rule run. Nil means strings.TrimSpace.
	Post func(string) (string, bool)
	// Last uses the final occurrence in the text instead of the first.
	Last bool
}

const (
	currency  = `(?:₹|rs\.?|inr|\$)`
	amount    = `([0-9][0-9,]*(?:\.[0-9]+)?)`
	moneyTail = `\b\s*(?:\(\s*` + currency + `\s*\))?\s*[:\-]?\s*(?:` + currency + `\s*)?` + amount
	dateToken = `(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}|\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2})`
)

var reVendorStop = regexp.MustCompile(`(?i)\b(?:date|address|phone)\b`)

// DefaultRules returns the built-in rule set, most specific pattern first
// within each field.
func DefaultRules() []Rule {
	return []Rule{
		{
			Field:   model.FieldInvoiceNo,
			Pattern: regexp.MustCompile(`(?i)\b(?:invoice|bill|receipt)\s*(?:number\b|num\b\.?|no\b\.?|#)\s*[:#.\-]?\s*([A-Z0-9][A-Z0-9/\-]*)`),
			Post:    cleanReference,
		},
		{
			Field:   model.FieldInvoiceNo,
			Pattern: regexp.MustCompile(`(?i)\b(INV-[A-Z0-9][A-Z0-9/\-]*)`),
			Post:    cleanReference,
		},
		{
			Field:   model.FieldDate,
			Pattern: regexp.MustCompile(`(?i)\bdated?\b\s*[:\-]?\s*` + dateToken),
		},
		{
			Field:   model.FieldDate,
			Pattern: regexp.MustCompile(`\b` + dateToken + `\b`),
		},
		{
			Field:   model.FieldTotal,
			Pattern: regexp.MustCompile(`(?i)\bgrand\s*total` + moneyTail),
			Post:    cleanMoney,
		},
		{
			Field:   model.FieldTotal,
			Pattern: regexp.MustCompile(`(?i)\b(?:total\s+amount|total|amount)` + moneyTail),
			Post:    cleanMoney,
		},
		{
			Field:   model.FieldTotal,
			Pattern: regexp.MustCompile(`(?m)([0-9][0-9,]*\.[0-9]{2})[ \t\r]*$`),
			Post:    cleanMoney,
			Last:    true,
		},
		{
			Field:   model.FieldVendor,
			Pattern: regexp.MustCompile(`(?i)\b(?:vendor|supplier|from|company)(?:\s+name)?\s*[:\-]\s*([A-Z&.][A-Z &.]*)`),
			Post:    cleanVendor,
		},
		{
			Field:   model.FieldVendor,
			Pattern: regexp.MustCompile(`\b([A-Z][A-Za-z&.]*(?:[ \t]+[A-Z&][A-Za-z&.]*)*[ \t]+(?:Ltd|Inc|Corp)\b\.?)`),
			Post:    cleanVendor,
		},
		{
			Field:   model.FieldAssetValue,
			Pattern: regexp.MustCompile(`(?i)\basset\s+value` + moneyTail),
			Post:    cleanMoney,
		},
		{
			Field:   model.FieldAssetValue,
			Pattern: regexp.MustCompile(`(?i)\bvalue` + moneyTail),
			Post:    cleanMoney,
		},
	}
}

func cleanReference(s string) (string, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), "/-")
	return s, s != ""
}

// cleanMoney drops thousands separators and rejects anything that is not a
// plain decimal number.
func cleanMoney(s string) (string, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return "", false
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return "", false
	}
	return s, true
}

func cleanVendor(s string) (string, bool) {
	if loc := reVendorStop.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = strings.Join(strings.Fields(s), " ")
	return s, s != ""
}
