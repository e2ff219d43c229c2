package model

import "github.com/shopspring/decimal"

// BillItem is one line of an itemized bill.
type BillItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ItemizedBill is a pre-structured proof-of-purchase document.
type ItemizedBill struct {
	VendorName      string          `json:"vendor_name,omitempty"`
	BillDate        string          `json:"bill_date,omitempty"`
	Items           []BillItem      `json:"items"`
	TotalBillAmount decimal.Decimal `json:"total_bill_amount"`
}

// HasItems reports whether the bill carries any line items.
func (b ItemizedBill) HasItems() bool {
	return len(b.Items) > 0
}

// Descriptions returns the item descriptions in bill order.
func (b ItemizedBill) Descriptions() []string {
	out := make([]string, len(b.Items))
	for i, it := range b.Items {
		out[i] = it.Description
	}
	return out
}

// Field names a value extracted from recognized bill text.
type Field string

const (
	FieldInvoiceNo  Field = "Invoice No"
	FieldDate       Field = "Date"
	FieldTotal      Field = "Total"
	FieldVendor     Field = "Vendor"
	FieldAssetValue Field = "Asset Value"
)

// AllFields lists every extractable field in extraction order.
var AllFields = []Field{FieldInvoiceNo, FieldDate, FieldTotal, FieldVendor, FieldAssetValue}

// Fields maps extracted fields to their trimmed values. A missing key means
// the field was not found.
type Fields map[Field]string

// Get returns the value for f and whether it was extracted.
func (f Fields) Get(field Field) (string, bool) {
	v, ok := f[field]
	return v, ok
}

// Has reports whether field was extracted.
func (f Fields) Has(field Field) bool {
	_, ok := f[field]
	return ok
}
