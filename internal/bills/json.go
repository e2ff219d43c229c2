package bills

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/loanguard/billcheck/internal/model"
)

// BillSchema is the JSON schema itemized bill fixtures must satisfy. Amounts
// may be JSON numbers or decimal strings.
const BillSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["items", "total_bill_amount"],
  "additionalProperties": false,
  "properties": {
    "vendor_name": {"type": "string"},
    "bill_date": {"type": "string"},
    "total_bill_amount": {"$ref": "#/definitions/amount"},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["description", "quantity", "unit_price", "total_amount"],
        "additionalProperties": false,
        "properties": {
          "description": {"type": "string", "minLength": 1},
          "quantity": {"$ref": "#/definitions/amount"},
          "unit_price": {"$ref": "#/definitions/amount"},
          "total_amount": {"$ref": "#/definitions/amount"}
        }
      }
    }
  },
  "definitions": {
    "amount": {
      "type": ["number", "string"],
      "pattern": "^-?[0-9]+(\\.[0-9]+)?$"
    }
  }
}`

var compileBillSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("bill.json", strings.NewReader(BillSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("bill.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// JSONParser parses bill fixtures shaped like model.ItemizedBill.
type JSONParser struct{}

// Format returns the parser name.
func (p *JSONParser) Format() string { return "json" }

// Parse validates the document against BillSchema and decodes it.
func (p *JSONParser) Parse(r io.Reader) (model.ItemizedBill, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.ItemizedBill{}, fmt.Errorf("reading bill JSON: %w", err)
	}

	schema, err := compileBillSchema()
	if err != nil {
		return model.ItemizedBill{}, err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return model.ItemizedBill{}, fmt.Errorf("unmarshal bill: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return model.ItemizedBill{}, fmt.Errorf("bill does not match schema: %w", err)
	}

	var bill model.ItemizedBill
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&bill); err != nil {
		return model.ItemizedBill{}, fmt.Errorf("decoding bill: %w", err)
	}
	if bill.Items == nil {
		bill.Items = []model.BillItem{}
	}
	return bill, nil
}
