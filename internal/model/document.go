// Package model defines the core domain models used throughout the application.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Veraticus/docmatch/internal/common"
)

// Kind identifies the business document type.
type Kind string

// Document kinds.
const (
	KindInvoice         Kind = "invoice"
	KindPurchaseOrder   Kind = "purchase-order"
	KindDeliveryReceipt Kind = "delivery-receipt"
)

// Kinds lists every supported document kind.
var Kinds = []Kind{KindInvoice, KindPurchaseOrder, KindDeliveryReceipt}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInvoice, KindPurchaseOrder, KindDeliveryReceipt:
		return true
	}
	return false
}

// Field is a single name/value entry of a header list or an item.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts string, number, boolean and null values.
// Numbers keep their literal text so "10.50" and 10.50 read the same.
func (f *Field) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Name = raw.Name
	f.Value = rawValueString(raw.Value)
	return nil
}

func rawValueString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
		return ""
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err == nil {
			return strconv.FormatBool(b)
		}
		return ""
	case '{', '[':
		// Nested structures are not field values; keep them verbatim.
		return string(trimmed)
	default:
		return string(trimmed)
	}
}

// Item is one line of a document. Items are identified by their position.
type Item struct {
	Fields []Field `json:"fields"`
}

// Document is a business document as received from the caller.
// The engine never mutates a Document.
type Document struct {
	ID      string  `json:"id"`
	Kind    Kind    `json:"kind"`
	Site    string  `json:"site"`
	Headers []Field `json:"headers"`
	Items   []Item  `json:"items"`
}

// Ref returns the reference used to identify the document in reports.
func (d Document) Ref() DocumentRef {
	return DocumentRef{ID: d.ID, Kind: d.Kind}
}

// Header returns the first non-empty header value with the given name.
func (d Document) Header(name string) string {
	for _, h := range d.Headers {
		if h.Name == name && h.Value != "" {
			return h.Value
		}
	}
	return ""
}

// Validate checks the fields a caller must supply before matching.
func (d Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", common.ErrInvalidDocument)
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: %w: document %s has kind %q", common.ErrInvalidDocument, common.ErrUnsupportedKind, d.ID, d.Kind)
	}
	return nil
}

// DocumentRef identifies a document inside a report or a group.
type DocumentRef struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}
