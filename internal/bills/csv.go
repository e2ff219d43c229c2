package bills

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/loanguard/billcheck/internal/model"
)

// CSVParser parses bills exported as one row per line item:
//
//	description,quantity,unit_price,total_amount
//
// A row whose description is "TOTAL" carries the bill total. Without one the
// total is the sum of the line totals.
type CSVParser struct{}

const (
	csvNumFields = 4
	csvColDesc   = 0
	csvColQty    = 1
	csvColUnit   = 2
	csvColTotal  = 3
	csvTotalRow  = "total"
)

// Format returns the parser name.
func (p *CSVParser) Format() string { return "csv" }

// Parse reads a bill CSV.
func (p *CSVParser) Parse(r io.Reader) (model.ItemizedBill, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = csvNumFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return model.ItemizedBill{}, fmt.Errorf("reading bill CSV: %w", err)
	}

	bill := model.ItemizedBill{Items: []model.BillItem{}}
	if len(records) <= 1 {
		return bill, nil
	}

	sum := decimal.Zero
	var total *decimal.Decimal
	for i, rec := range records[1:] {
		if strings.EqualFold(strings.TrimSpace(rec[csvColDesc]), csvTotalRow) {
			t, err := parseAmount(rec[csvColTotal])
			if err != nil {
				return model.ItemizedBill{}, fmt.Errorf("row %d: parsing total_amount %q: %w", i+2, rec[csvColTotal], err)
			}
			total = &t
			continue
		}
		item, err := parseCSVRow(rec)
		if err != nil {
			return model.ItemizedBill{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		sum = sum.Add(item.TotalAmount)
		bill.Items = append(bill.Items, item)
	}

	bill.TotalBillAmount = sum
	if total != nil {
		bill.TotalBillAmount = *total
	}
	return bill, nil
}

func parseCSVRow(rec []string) (model.BillItem, error) {
	desc := strings.TrimSpace(rec[csvColDesc])
	if desc == "" {
		return model.BillItem{}, errors.New("empty description")
	}

	qty, err := parseAmount(rec[csvColQty])
	if err != nil {
		return model.BillItem{}, fmt.Errorf("parsing quantity %q: %w", rec[csvColQty], err)
	}
	unit, err := parseAmount(rec[csvColUnit])
	if err != nil {
		return model.BillItem{}, fmt.Errorf("parsing unit_price %q: %w", rec[csvColUnit], err)
	}

	total := qty.Mul(unit)
	if s := strings.TrimSpace(rec[csvColTotal]); s != "" {
		total, err = parseAmount(s)
		if err != nil {
			return model.BillItem{}, fmt.Errorf("parsing total_amount %q: %w", rec[csvColTotal], err)
		}
	}

	return model.BillItem{
		Description: desc,
		Quantity:    qty,
		UnitPrice:   unit,
		TotalAmount: total,
	}, nil
}

// parseAmount accepts thousands separators.
func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
}
