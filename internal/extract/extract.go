// Package extract turns schema-open documents into named-field lookups.
//
// Documents carry arbitrary header and item fields. Extraction never fails:
// unknown names pass through, missing names are simply absent, and an item
// without fields yields an empty lookup.
package extract

import (
	"strconv"
	"strings"

	"github.com/Veraticus/docmatch/internal/model"
	"github.com/shopspring/decimal"
)

// Fields is a named-field lookup over one header list or item.
type Fields map[string]string

// newFields builds a lookup; the first non-empty value of a repeated name wins.
func newFields(list []model.Field) Fields {
	fields := make(Fields, len(list))
	for _, f := range list {
		if f.Name == "" {
			continue
		}
		if existing, ok := fields[f.Name]; ok && existing != "" {
			continue
		}
		fields[f.Name] = f.Value
	}
	return fields
}

// Get returns the raw value of a field.
func (f Fields) Get(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

// First returns the first alias holding a non-blank value.
func (f Fields) First(names ...string) (string, string, bool) {
	for _, name := range names {
		if v, ok := f[name]; ok && strings.TrimSpace(v) != "" {
			return name, v, true
		}
	}
	return "", "", false
}

// Text is a text value together with the field it was read from.
type Text struct {
	Field string
	Value string
}

// Present reports whether the text has non-blank content.
func (t Text) Present() bool {
	return strings.TrimSpace(t.Value) != ""
}

// Number is a numeric value together with the field it was read from.
// OK is false when the field is absent or unparsable.
type Number struct {
	Field string
	Raw   string
	Value decimal.Decimal
	OK    bool
}

// String formats the parsed number.
func (n Number) String() string {
	if !n.OK {
		return ""
	}
	return n.Value.String()
}

// Display returns the value as written in the document, for messages and
// deviation values.
func (n Number) Display() string {
	if !n.OK {
		return ""
	}
	if raw := strings.TrimSpace(n.Raw); raw != "" {
		return raw
	}
	return n.Value.String()
}

// Extracted is the canonical view of a document.
type Extracted struct {
	Kind   model.Kind
	Header Fields
	Items  []Item
}

// Item is one extracted line together with its position in the document.
type Item struct {
	Index  int
	Kind   model.Kind
	Fields Fields
}

// Extract builds the canonical lookup for a document.
func Extract(doc model.Document) Extracted {
	out := Extracted{
		Kind:   doc.Kind,
		Header: newFields(doc.Headers),
		Items:  make([]Item, len(doc.Items)),
	}
	for i, item := range doc.Items {
		out.Items[i] = Item{
			Index:  i,
			Kind:   doc.Kind,
			Fields: newFields(item.Fields),
		}
	}
	return out
}

// Currency returns the document currency.
func (e Extracted) Currency() Text {
	return text(e.Header, aliasesFor(e.Kind, ConceptCurrency))
}

// TotalAmount returns the document total including VAT.
func (e Extracted) TotalAmount() Number {
	return number(e.Header, aliasesFor(e.Kind, ConceptTotalAmount))
}

// OrderReference returns the purchase order number the document refers to
// (for purchase orders: their own order number).
func (e Extracted) OrderReference() Text {
	return text(e.Header, aliasesFor(e.Kind, ConceptOrderReference))
}

// Description returns the item description with newlines flattened.
func (it Item) Description() Text {
	t := text(it.Fields, aliasesFor(it.Kind, ConceptDescription))
	t.Value = strings.Join(strings.Fields(t.Value), " ")
	return t
}

// ArticleNumber returns the article or inventory number.
func (it Item) ArticleNumber() Text {
	return text(it.Fields, aliasesFor(it.Kind, ConceptArticleNumber))
}

// Quantity returns the item quantity.
func (it Item) Quantity() Number {
	return number(it.Fields, aliasesFor(it.Kind, ConceptQuantity))
}

// UnitPrice returns the price per unit.
func (it Item) UnitPrice() Number {
	return number(it.Fields, aliasesFor(it.Kind, ConceptUnitPrice))
}

// LineAmount returns the line amount, computing quantity × unit price when
// the document kind allows it and no explicit amount exists.
func (it Item) LineAmount() Number {
	if n := number(it.Fields, aliasesFor(it.Kind, ConceptLineAmount)); n.OK {
		return n
	}
	if it.Kind == model.KindInvoice {
		return Number{}
	}

	qty := it.Quantity()
	price := it.UnitPrice()
	if !qty.OK || !price.OK {
		return Number{}
	}
	return Number{
		Field: qty.Field + "*" + price.Field,
		Value: qty.Value.Mul(price.Value),
		OK:    true,
	}
}

// LineNumber returns the item line number, or 0 when absent or not an integer.
func (it Item) LineNumber() int {
	_, v, ok := it.Fields.First(aliasesFor(it.Kind, ConceptLineNumber)...)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Position returns the line number when present, else the 1-based position.
func (it Item) Position() int {
	if n := it.LineNumber(); n > 0 {
		return n
	}
	return it.Index + 1
}

// POLineReference returns the purchase order line the item points at.
func (it Item) POLineReference() Text {
	t := text(it.Fields, aliasesFor(it.Kind, ConceptPOLineReference))
	t.Value = strings.TrimSpace(t.Value)
	return t
}

// PONumber returns the purchase order number recorded on the item.
func (it Item) PONumber() Text {
	return text(it.Fields, aliasesFor(it.Kind, ConceptPONumber))
}

func text(f Fields, aliases []string) Text {
	name, v, ok := f.First(aliases...)
	if !ok {
		return Text{}
	}
	return Text{Field: name, Value: v}
}

func number(f Fields, aliases []string) Number {
	for _, name := range aliases {
		raw, ok := f[name]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		d, err := ParseDecimal(raw)
		if err != nil {
			continue
		}
		return Number{Field: name, Raw: raw, Value: d, OK: true}
	}
	return Number{}
}

// ParseDecimal parses a numeric field value. A single comma is accepted as
// the decimal separator and spaces used for digit grouping are ignored.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}
