package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SanctionedItem is a line item the loan was approved to finance.
type SanctionedItem struct {
	Name       string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// LoanSanctionRecord holds the sanctioned terms of a loan. Records are built
// with NewLoanSanctionRecord and treated as read-only afterwards.
type LoanSanctionRecord struct {
	ID               string
	SanctionedAmount decimal.Decimal
	VendorName       string // empty = no approved vendor
	Purpose          string
	SanctionedDate   time.Time // zero if unknown
	Items            []SanctionedItem
}

// HasItems reports whether the record carries an itemized breakdown.
func (l LoanSanctionRecord) HasItems() bool {
	return len(l.Items) > 0
}

// ItemsTotal returns the sum of the sanctioned items' total prices.
func (l LoanSanctionRecord) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range l.Items {
		sum = sum.Add(it.TotalPrice)
	}
	return sum
}

// LoanParams holds the inputs for NewLoanSanctionRecord.
type LoanParams struct {
	ID               string
	SanctionedAmount decimal.Decimal
	VendorName       string
	Purpose          string
	SanctionedDate   time.Time
	Items            []SanctionedItem
}

// ValidationError describes a single impossible value in a loan record.
type ValidationError struct {
	LoanID      string
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("loan %s: %s: %s", e.LoanID, e.Field, e.Description)
}

// NewLoanSanctionRecord validates params and returns a record. All violations
// are reported together, joined into one error.
func NewLoanSanctionRecord(p LoanParams) (LoanSanctionRecord, error) {
	var errs []error
	id := strings.TrimSpace(p.ID)

	if id == "" {
		errs = append(errs, ValidationError{LoanID: p.ID, Field: "id", Description: "must not be empty"})
	}
	if !p.SanctionedAmount.IsPositive() {
		errs = append(errs, ValidationError{
			LoanID:      id,
			Field:       "sanctioned_amount",
			Description: fmt.Sprintf("must be positive, got %s", p.SanctionedAmount),
		})
	}

	items := make([]SanctionedItem, len(p.Items))
	for i, it := range p.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.Name) == "" {
			errs = append(errs, ValidationError{LoanID: id, Field: field + ".name", Description: "must not be empty"})
		}
		if !it.Quantity.IsPositive() {
			errs = append(errs, ValidationError{LoanID: id, Field: field + ".quantity", Description: fmt.Sprintf("must be positive, got %s", it.Quantity)})
		}
		if !it.UnitPrice.IsPositive() {
			errs = append(errs, ValidationError{LoanID: id, Field: field + ".unit_price", Description: fmt.Sprintf("must be positive, got %s", it.UnitPrice)})
		}
		if it.TotalPrice.IsNegative() {
			errs = append(errs, ValidationError{LoanID: id, Field: field + ".total_price", Description: fmt.Sprintf("must not be negative, got %s", it.TotalPrice)})
		}
		items[i] = SanctionedItem{
			Name:       strings.TrimSpace(it.Name),
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		}
	}

	if len(errs) > 0 {
		return LoanSanctionRecord{}, errors.Join(errs...)
	}

	return LoanSanctionRecord{
		ID:               id,
		SanctionedAmount: p.SanctionedAmount,
		VendorName:       strings.TrimSpace(p.VendorName),
		Purpose:          p.Purpose,
		SanctionedDate:   p.SanctionedDate,
		Items:            items,
	}, nil
}
