package loans

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanguard/billcheck/internal/model"
)

// DateLayout is the sanctioned_date format in loans.csv.
const DateLayout = "2006-01-02"

const (
	numLoanFields = 5
	colLoanID     = 0
	colAmount     = 1
	colVendor     = 2
	colPurpose    = 3
	colDate       = 4
)

const (
	numItemFields = 5
	colItemLoanID = 0
	colItemName   = 1
	colQuantity   = 2
	colUnitPrice  = 3
	colTotalPrice = 4
)

var (
	loanHeader = []string{"loan_id", "sanctioned_amount", "vendor_name", "purpose", "sanctioned_date"}
	itemHeader = []string{"loan_id", "item_name", "quantity", "unit_price", "total_price"}
)

// ReadLoans reads loans.csv and sanctioned-items.csv and assembles validated
// records. Items keep their file order within each loan.
func ReadLoans(loansR, itemsR io.Reader) ([]model.LoanSanctionRecord, error) {
	loanRows, err := readRows(loansR, numLoanFields)
	if err != nil {
		return nil, fmt.Errorf("reading loans CSV: %w", err)
	}
	itemRows, err := readRows(itemsR, numItemFields)
	if err != nil {
		return nil, fmt.Errorf("reading sanctioned items CSV: %w", err)
	}

	params := make([]model.LoanParams, 0, len(loanRows))
	index := make(map[string]int, len(loanRows))
	for i, rec := range loanRows {
		p, err := UnmarshalLoan(rec)
		if err != nil {
			return nil, fmt.Errorf("loans row %d: %w", i+2, err)
		}
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("loans row %d: duplicate loan_id %q", i+2, p.ID)
		}
		index[p.ID] = len(params)
		params = append(params, p)
	}

	for i, rec := range itemRows {
		loanID, item, err := UnmarshalItem(rec)
		if err != nil {
			return nil, fmt.Errorf("items row %d: %w", i+2, err)
		}
		idx, ok := index[loanID]
		if !ok {
			return nil, fmt.Errorf("items row %d: unknown loan_id %q", i+2, loanID)
		}
		params[idx].Items = append(params[idx].Items, item)
	}

	out := make([]model.LoanSanctionRecord, 0, len(params))
	for _, p := range params {
		rec, err := model.NewLoanSanctionRecord(p)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteLoans writes both CSV files.
func WriteLoans(loansW, itemsW io.Writer, loans []model.LoanSanctionRecord) error {
	lw := csv.NewWriter(loansW)
	iw := csv.NewWriter(itemsW)

	if err := lw.Write(loanHeader); err != nil {
		return fmt.Errorf("writing loans header: %w", err)
	}
	if err := iw.Write(itemHeader); err != nil {
		return fmt.Errorf("writing items header: %w", err)
	}

	for i, l := range loans {
		if err := lw.Write(MarshalLoan(l)); err != nil {
			return fmt.Errorf("writing loans row %d: %w", i+2, err)
		}
		for _, it := range l.Items {
			if err := iw.Write(MarshalItem(l.ID, it)); err != nil {
				return fmt.Errorf("writing items for %s: %w", l.ID, err)
			}
		}
	}

	lw.Flush()
	iw.Flush()
	if err := lw.Error(); err != nil {
		return err
	}
	return iw.Error()
}

func readRows(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

// MarshalLoan converts a loan record to a loans.csv row.
func MarshalLoan(l model.LoanSanctionRecord) []string {
	row := make([]string, numLoanFields)
	row[colLoanID] = l.ID
	row[colAmount] = l.SanctionedAmount.StringFixed(2)
	row[colVendor] = l.VendorName
	row[colPurpose] = l.Purpose
	if !l.SanctionedDate.IsZero() {
		row[colDate] = l.SanctionedDate.Format(DateLayout)
	}
	return row
}

// UnmarshalLoan converts a loans.csv row to loan params. Items are attached
// separately.
func UnmarshalLoan(record []string) (model.LoanParams, error) {
	if len(record) != numLoanFields {
		return model.LoanParams{}, fmt.Errorf("expected %d fields, got %d", numLoanFields, len(record))
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[colAmount]))
	if err != nil {
		return model.LoanParams{}, fmt.Errorf("parsing sanctioned_amount %q: %w", record[colAmount], err)
	}

	var sanctionedOn time.Time
	if s := strings.TrimSpace(record[colDate]); s != "" {
		sanctionedOn, err = time.Parse(DateLayout, s)
		if err != nil {
			return model.LoanParams{}, fmt.Errorf("parsing sanctioned_date %q: %w", s, err)
		}
	}

	return model.LoanParams{
		ID:               strings.TrimSpace(record[colLoanID]),
		SanctionedAmount: amount,
		VendorName:       record[colVendor],
		Purpose:          record[colPurpose],
		SanctionedDate:   sanctionedOn,
	}, nil
}

// MarshalItem converts a sanctioned item to a sanctioned-items.csv row.
func MarshalItem(loanID string, it model.SanctionedItem) []string {
	row := make([]string, numItemFields)
	row[colItemLoanID] = loanID
	row[colItemName] = it.Name
	row[colQuantity] = it.Quantity.String()
	row[colUnitPrice] = it.UnitPrice.StringFixed(2)
	row[colTotalPrice] = it.TotalPrice.StringFixed(2)
	return row
}

// UnmarshalItem converts a sanctioned-items.csv row to its loan ID and item.
func UnmarshalItem(record []string) (string, model.SanctionedItem, error) {
	if len(record) != numItemFields {
		return "", model.SanctionedItem{}, fmt.Errorf("expected %d fields, got %d", numItemFields, len(record))
	}

	nums := make([]decimal.Decimal, 3)
	for i, col := range []int{colQuantity, colUnitPrice, colTotalPrice} {
		d, err := decimal.NewFromString(strings.TrimSpace(record[col]))
		if err != nil {
			return "", model.SanctionedItem{}, fmt.Errorf("parsing %s %q: %w", itemHeader[col], record[col], err)
		}
		nums[i] = d
	}

	return strings.TrimSpace(record[colItemLoanID]), model.SanctionedItem{
		Name:       record[colItemName],
		Quantity:   nums[0],
		UnitPrice:  nums[1],
		TotalPrice: nums[2],
	}, nil
}
