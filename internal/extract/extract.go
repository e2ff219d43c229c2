// Package extract pulls named fields out of recognized bill text using
// ordered regular-expression rules.
package extract

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/loanguard/billcheck/internal/model"
)

// Extractor applies a fixed rule set. It holds no mutable state and is safe
// for concurrent use.
type Extractor struct {
	rules []Rule
}

// New returns an Extractor over rules. Rule order is significant.
func New(rules []Rule) *Extractor {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Extractor{rules: cp}
}

var defaultExtractor = New(DefaultRules())

// Fields extracts fields from text with the default rules.
func Fields(text string) model.Fields {
	return defaultExtractor.Extract(text)
}

// Extract runs every rule against text. A field with no matching rule is
// absent from the result. Extraction never fails.
func (e *Extractor) Extract(text string) model.Fields {
	out := make(model.Fields)
	for _, r := range e.rules {
		if _, done := out[r.Field]; done {
			continue
		}
		if v, ok := apply(r, text); ok {
			out[r.Field] = v
		}
	}
	return out
}

func apply(r Rule, text string) (string, bool) {
	var groups []string
	if r.Last {
		all := r.Pattern.FindAllStringSubmatch(text, -1)
		if len(all) > 0 {
			groups = all[len(all)-1]
		}
	} else {
		groups = r.Pattern.FindStringSubmatch(text)
	}
	if len(groups) < 2 {
		return "", false
	}

	if r.Post == nil {
		v := strings.TrimSpace(groups[1])
		return v, v != ""
	}
	return r.Post(groups[1])
}

// Amount parses a monetary field. It returns false when the field is absent
// or not numeric.
func Amount(fields model.Fields, field model.Field) (decimal.Decimal, bool) {
	v, ok := fields.Get(field)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
