package report

import (
	"github.com/Veraticus/docmatch/internal/extract"
	"github.com/Veraticus/docmatch/internal/model"
)

// Future match certainties per document kind. They estimate how likely a
// document is to be matched by a document that has not arrived yet.
const (
	InvoiceMatchedFuture            = 0.1
	InvoiceUnmatchedReferenceFuture = 0.85
	InvoiceUnmatchedFuture          = 0.5
	PurchaseOrderMatchedFuture      = 0.3
	PurchaseOrderUnmatchedFuture    = 0.7
	DeliveryMatchedFuture           = 0.1
	DeliveryUnmatchedFuture         = 0.6
)

// FutureMatchCertainty estimates whether doc will be matched in the future,
// given whether it was matched now. Purchase orders stay open for more
// deliveries and invoices; an unmatched invoice carrying an order reference
// is very likely to find its order later.
func FutureMatchCertainty(doc model.Document, matched bool) float64 {
	switch doc.Kind {
	case model.KindInvoice:
		if matched {
			return InvoiceMatchedFuture
		}
		if extract.Extract(doc).OrderReference().Present() {
			return InvoiceUnmatchedReferenceFuture
		}
		return InvoiceUnmatchedFuture
	case model.KindPurchaseOrder:
		if matched {
			return PurchaseOrderMatchedFuture
		}
		return PurchaseOrderUnmatchedFuture
	case model.KindDeliveryReceipt:
		if matched {
			return DeliveryMatchedFuture
		}
		return DeliveryUnmatchedFuture
	default:
		return InvoiceUnmatchedFuture
	}
}
