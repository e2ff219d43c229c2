package extract

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanguard/billcheck/internal/model"
)

const sampleInvoice = `ABC MACHINERY LTD
Invoice No: INV-2024-01
Date: 12/01/2024
Vendor: ABC Machinery Ltd
Item: Power Tiller x1
Total: Rs. 50000
`

func TestFields_WellFormedInvoice(t *testing.T) {
	f := Fields(sampleInvoice)

	assert.Equal(t, model.Fields{
		model.FieldInvoiceNo: "INV-2024-01",
		model.FieldDate:      "12/01/2024",
		model.FieldTotal:     "50000",
		model.FieldVendor:    "ABC Machinery Ltd",
	}, f)
}

func TestFields_Empty(t *testing.T) {
	assert.Empty(t, Fields(""))
}

func TestFields_Idempotent(t *testing.T) {
	first := Fields(sampleInvoice)
	second := Fields(sampleInvoice)
	assert.Equal(t, first, second)
}

func TestFields_PerField(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field model.Field
		want  string // empty = absent
	}{
		{"invoice labeled", "Invoice No: INV-2024-01", model.FieldInvoiceNo, "INV-2024-01"},
		{"bill hash", "Bill #4521", model.FieldInvoiceNo, "4521"},
		{"receipt number slashes", "Receipt Number: RC/22/118", model.FieldInvoiceNo, "RC/22/118"},
		{"invoice no dot", "Invoice No.: 778", model.FieldInvoiceNo, "778"},
		{"bare inv prefix", "Ref INV-778-A copy", model.FieldInvoiceNo, "INV-778-A"},
		{"invoice notes is not a number", "Invoice Notes: deliver by noon", model.FieldInvoiceNo, ""},

		{"date d/m/y", "Date: 12/01/2024", model.FieldDate, "12/01/2024"},
		{"dated y-m-d", "Dated 2024-01-12", model.FieldDate, "2024-01-12"},
		{"date dots", "Date - 05.11.23", model.FieldDate, "05.11.23"},
		{"bare date", "Purchased on 3-4-2024 at the shop", model.FieldDate, "3-4-2024"},
		{"no date", "Purchased yesterday", model.FieldDate, ""},

		{"total rupees", "Total: Rs. 50000", model.FieldTotal, "50000"},
		{"grand total separators", "Grand Total: ₹ 1,20,000.50", model.FieldTotal, "120000.50"},
		{"grand total preferred", "Sub Total 100.00\nGrand Total $118.00", model.FieldTotal, "118.00"},
		{"total amount currency in parens", "Total Amount (INR): 2,500", model.FieldTotal, "2500"},
		{"amount label", "Amount: 999.99", model.FieldTotal, "999.99"},
		{"trailing amount uses last line", "Seeds 250.00\nFertilizer 1,100.00\n", model.FieldTotal, "1100.00"},
		{"no total", "Thank you for shopping", model.FieldTotal, ""},

		{"vendor labeled", "Vendor: ABC Machinery Ltd", model.FieldVendor, "ABC Machinery Ltd"},
		{"supplier stops at address", "Supplier - Krishna Agro Traders Address: Main Road", model.FieldVendor, "Krishna Agro Traders"},
		{"company stops at phone", "Company: Green & Sons Phone 99999", model.FieldVendor, "Green & Sons"},
		{"vendor stops at newline", "From: Patel Seeds\nDate: 01/02/2024", model.FieldVendor, "Patel Seeds"},
		{"ltd fallback", "Thanks\nSharma Tractors Pvt Ltd\nGSTIN 22AAA", model.FieldVendor, "Sharma Tractors Pvt Ltd"},
		{"inc fallback", "Sold by Acme Tools Inc. on credit", model.FieldVendor, "Acme Tools Inc."},
		{"no vendor", "cash memo", model.FieldVendor, ""},

		{"asset value", "Asset Value: Rs 75,000", model.FieldAssetValue, "75000"},
		{"value", "Value: $300.5", model.FieldAssetValue, "300.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Fields(tt.text).Get(tt.field)
			if tt.want == "" {
				assert.False(t, ok, "expected %s to be absent, got %q", tt.field, got)
				return
			}
			require.True(t, ok, "expected %s to be extracted", tt.field)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractor_FirstRuleWins(t *testing.T) {
	e := New([]Rule{
		{Field: model.FieldVendor, Pattern: regexp.MustCompile(`first:(\w+)`)},
		{Field: model.FieldVendor, Pattern: regexp.MustCompile(`second:(\w+)`)},
	})
	f := e.Extract("second:b first:a")
	assert.Equal(t, "a", f[model.FieldVendor])
}

func TestExtractor_RejectedCaptureFallsThrough(t *testing.T) {
	e := New([]Rule{
		{
			Field:   model.FieldTotal,
			Pattern: regexp.MustCompile(`total:(\S+)`),
			Post:    cleanMoney,
		},
		{
			Field:   model.FieldTotal,
			Pattern: regexp.MustCompile(`sum:(\S+)`),
			Post:    cleanMoney,
		},
	})
	f := e.Extract("total:abc sum:12,000")
	assert.Equal(t, "12000", f[model.FieldTotal])
}

func TestAmount(t *testing.T) {
	f := model.Fields{model.FieldTotal: "50000.50", model.FieldVendor: "ABC"}

	d, ok := Amount(f, model.FieldTotal)
	require.True(t, ok)
	assert.Equal(t, "50000.50", d.StringFixed(2))

	_, ok = Amount(f, model.FieldVendor)
	assert.False(t, ok)

	_, ok = Amount(f, model.FieldAssetValue)
	assert.False(t, ok)
}
