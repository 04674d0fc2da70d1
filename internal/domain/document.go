package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DocumentType is the classified category of a document.
type DocumentType string

const (
	DocumentTypeBankStatement DocumentType = "bank_statement"
	DocumentTypeCreditBureau  DocumentType = "credit_bureau"
	DocumentTypeKybKyc        DocumentType = "kyb_kyc"
	DocumentTypeUnknown       DocumentType = "unknown"
)

// Content is the extracted payload of a document. It is one of
// *Tabular, *Text or *Unrecognized.
type Content interface {
	contentKind() string
}

// Row is one tabular record keyed by raw header.
type Row map[string]any

// IsBlank reports whether a cell carries no value. Blank strings count.
func IsBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

// Tabular holds spreadsheet-like content. Headers keep first-seen order.
type Tabular struct {
	Headers []string
	Rows    []Row
}

// Text holds free text from PDFs, images or OCR.
type Text struct {
	Content string
}

// Unrecognized is any payload that is neither tabular nor text, including
// extraction error payloads.
type Unrecognized struct {
	Reason string
}

func (*Tabular) contentKind() string      { return "tabular" }
func (*Text) contentKind() string         { return "text" }
func (*Unrecognized) contentKind() string { return "unrecognized" }

// Kind names the content variant for logging.
func Kind(c Content) string {
	if c == nil {
		return "none"
	}
	return c.contentKind()
}

// DecodeContent turns the upstream payload ({"excel_data": [...]} or
// {"text_content": "..."}) into a Content variant. Shapes that match neither
// decode to *Unrecognized rather than an error.
func DecodeContent(raw json.RawMessage) Content {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &Unrecognized{Reason: "content is not a JSON object"}
	}

	if data, ok := envelope["excel_data"]; ok {
		var records []*orderedmap.OrderedMap[string, any]
		if err := json.Unmarshal(data, &records); err != nil {
			return &Unrecognized{Reason: fmt.Sprintf("excel_data is not a list of rows: %v", err)}
		}
		return tabularFromOrdered(records)
	}

	if data, ok := envelope["text_content"]; ok {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return &Unrecognized{Reason: "text_content is not a string"}
		}
		return &Text{Content: text}
	}

	if data, ok := envelope["error"]; ok {
		var msg string
		_ = json.Unmarshal(data, &msg)
		return &Unrecognized{Reason: msg}
	}

	return &Unrecognized{Reason: "neither excel_data nor text_content present"}
}

func tabularFromOrdered(records []*orderedmap.OrderedMap[string, any]) *Tabular {
	t := &Tabular{Rows: make([]Row, 0, len(records))}
	seen := make(map[string]bool)

	for _, rec := range records {
		if rec == nil {
			continue
		}
		row := make(Row, rec.Len())
		for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
			if !seen[pair.Key] {
				seen[pair.Key] = true
				t.Headers = append(t.Headers, pair.Key)
			}
			row[pair.Key] = pair.Value
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// EncodeContent renders a Content back into the upstream payload shape.
// Tabular rows keep header order.
func EncodeContent(c Content) (json.RawMessage, error) {
	switch v := c.(type) {
	case *Tabular:
		rows := make([]*orderedmap.OrderedMap[string, any], 0, len(v.Rows))
		for _, r := range v.Rows {
			om := orderedmap.New[string, any](len(v.Headers))
			for _, h := range v.Headers {
				if val, ok := r[h]; ok {
					om.Set(h, val)
				}
			}
			rows = append(rows, om)
		}
		return json.Marshal(map[string]any{"excel_data": rows})
	case *Text:
		return json.Marshal(map[string]string{"text_content": v.Content})
	case *Unrecognized:
		return json.Marshal(map[string]string{"error": v.Reason})
	default:
		return nil, fmt.Errorf("encode content: unsupported variant %T", c)
	}
}
