// Package reconcile turns raw, potentially malformed model output into a
// guaranteed-consistent, schema-valid ExtractionData: it parses the JSON,
// normalizes numeric formats, recomputes missing amounts, deduplicates
// same-page items, and aggregates the item count.
package reconcile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"medibill/internal/domain"
	"medibill/internal/parser"
)

// extractionSchema checks the structural shape of the model's JSON. Leaf
// values are deliberately loose; the normalizer re-validates every one.
const extractionSchema = `{
	"type": "object",
	"required": ["pagewise_line_items"],
	"properties": {
		"pagewise_line_items": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"bill_items": {
						"type": "array",
						"items": {"type": "object"}
					}
				}
			}
		}
	}
}`

var extractionSchemaCompiled = jsonschema.MustCompileString("extraction.json", extractionSchema)

type rawExtraction struct {
	PagewiseLineItems []rawPage `json:"pagewise_line_items"`
}

type rawPage struct {
	PageNo    any       `json:"page_no"`
	PageType  any       `json:"page_type"`
	BillItems []rawItem `json:"bill_items"`
}

type rawItem struct {
	ItemName     any `json:"item_name"`
	ItemQuantity any `json:"item_quantity"`
	ItemRate     any `json:"item_rate"`
	ItemAmount   any `json:"item_amount"`
}

// decode strips non-JSON wrapping from the model's text and parses it into
// the raw extraction shape. Numbers are kept as json.Number so the
// normalizer controls all numeric coercion.
func decode(rawText string) (*rawExtraction, error) {
	js, err := parser.ExtractJSONObject(rawText)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal([]byte(js), &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if err := extractionSchemaCompiled.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	dec := json.NewDecoder(strings.NewReader(js))
	dec.UseNumber()
	var ext rawExtraction
	if err := dec.Decode(&ext); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return &ext, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// toPageNo coerces the reported page number to a string, defaulting to the
// 1-based source position when the model omitted it.
func toPageNo(v any, idx int) string {
	s := strings.TrimSpace(toString(v))
	if s == "" {
		return strconv.Itoa(idx + 1)
	}
	return s
}
