// Package grouping links invoices, purchase orders and delivery receipts that
// refer to the same purchase order lines.
package grouping

import (
	"github.com/Veraticus/docmatch/internal/extract"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/Veraticus/docmatch/internal/pairing"
)

// Result is the outcome of a merge check.
type Result string

// Merge results.
const (
	ResultMerge   Result = "merge"
	ResultNoMerge Result = "no_merge"
)

// Merge reasons.
const (
	ReasonMissingItems      = "missing_items"
	ReasonSharedLineItems   = "shared_line_items"
	ReasonNoSharedLineItems = "no_shared_line_items"
)

// MergeDecision tells whether an invoice and a delivery receipt belong to the
// same three-way match through a purchase order. The counts describe the
// inputs so a missing_items reply shows which document was empty.
type MergeDecision struct {
	Result             Result   `json:"result"`
	Reason             string   `json:"reason,omitempty"`
	SharedLines        []string `json:"shared_lines"`
	SharedLineCount    int      `json:"shared_line_count"`
	MatchedPairCount   int      `json:"matched_pair_count"`
	InvoiceItems       int      `json:"invoice_item_count"`
	DeliveryItems      int      `json:"delivery_item_count"`
	PurchaseOrderItems int      `json:"po_item_count"`
}

// MergeCheck decides whether invoice and delivery share at least one line of po.
// MatchedPairCount is the number of invoice items paired directly with a
// delivery item by the item pairing engine.
func MergeCheck(invoice, delivery, po model.Document) MergeDecision {
	decision := MergeDecision{
		Result:             ResultNoMerge,
		SharedLines:        []string{},
		InvoiceItems:       len(invoice.Items),
		DeliveryItems:      len(delivery.Items),
		PurchaseOrderItems: len(po.Items),
	}
	if decision.InvoiceItems == 0 || decision.DeliveryItems == 0 || decision.PurchaseOrderItems == 0 {
		decision.Reason = ReasonMissingItems
		return decision
	}

	inv, del := extract.Extract(invoice), extract.Extract(delivery)
	lines := linesOf(extract.Extract(po))
	invoiceRefs := referencedLines(inv, lines)
	deliveryRefs := referencedLines(del, lines)

	for key := range invoiceRefs {
		if _, ok := deliveryRefs[key]; ok {
			decision.SharedLines = append(decision.SharedLines, key)
		}
	}
	sortKeys(decision.SharedLines)
	decision.SharedLineCount = len(decision.SharedLines)

	for _, p := range pairing.PairItems(inv.Items, del.Items, pairing.DefaultOptions()) {
		if p.Matched() {
			decision.MatchedPairCount++
		}
	}

	if decision.SharedLineCount == 0 {
		decision.Reason = ReasonNoSharedLineItems
		return decision
	}
	decision.Result = ResultMerge
	decision.Reason = ReasonSharedLineItems
	return decision
}
