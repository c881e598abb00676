package extract

import "github.com/Veraticus/docmatch/internal/model"

// Concept is a canonical field meaning shared by all document kinds.
type Concept string

// Canonical concepts.
const (
	ConceptDescription     Concept = "description"
	ConceptArticleNumber   Concept = "article-number"
	ConceptQuantity        Concept = "quantity"
	ConceptUnitPrice       Concept = "unit-price"
	ConceptLineAmount      Concept = "line-amount"
	ConceptLineNumber      Concept = "line-number"
	ConceptPOLineReference Concept = "po-line-reference"
	ConceptPONumber        Concept = "po-number"
	ConceptCurrency        Concept = "currency"
	ConceptTotalAmount     Concept = "total-amount"
	ConceptOrderReference  Concept = "order-reference"
)

var descriptionAliases = []string{"inventoryDescription", "description", "text"}

// genericAliases apply to documents of unknown kind.
var genericAliases = map[Concept][]string{
	ConceptDescription:     descriptionAliases,
	ConceptArticleNumber:   {"inventoryNumber", "inventory", "item-id"},
	ConceptQuantity:        {"quantity"},
	ConceptUnitPrice:       {"unitAmount", "unit-price"},
	ConceptLineAmount:      {"amount"},
	ConceptLineNumber:      {"lineNumber"},
	ConceptPOLineReference: {"orderLineReference", "purchaseOrderLineNumber"},
	ConceptPONumber:        {"purchaseOrderNumber"},
	ConceptCurrency:        {"currency"},
	ConceptTotalAmount:     {"incVatAmount"},
	ConceptOrderReference:  {"orderReference", "purchaseOrderNumber", "orderNumber"},
}

var kindAliases = map[model.Kind]map[Concept][]string{
	model.KindInvoice: {
		ConceptArticleNumber:   {"purchaseReceiptDatainventory", "inventoryNumber", "inventory", "item-id"},
		ConceptQuantity:        {"purchaseReceiptDataQuantity", "quantity"},
		ConceptUnitPrice:       {"purchaseReceiptDataUnitAmount", "unit-price", "unitAmount"},
		ConceptLineAmount:      {"debit", "amount"},
		ConceptPOLineReference: {"orderLineReference"},
		ConceptOrderReference:  {"orderReference"},
	},
	model.KindPurchaseOrder: {
		ConceptArticleNumber:   {"inventoryNumber", "inventory"},
		ConceptQuantity:        {"quantityToInvoice", "quantity"},
		ConceptUnitPrice:       {"unitAmount", "unit-price"},
		ConceptPOLineReference: {"lineNumber"},
		ConceptPONumber:        {},
		ConceptOrderReference:  {"orderNumber"},
	},
	model.KindDeliveryReceipt: {
		ConceptArticleNumber:   {"inventoryNumber", "inventory"},
		ConceptQuantity:        {"quantity"},
		ConceptUnitPrice:       {"unitAmount", "unit-price"},
		ConceptPOLineReference: {"purchaseOrderLineNumber"},
		ConceptOrderReference:  {"purchaseOrderNumber", "orderReference"},
	},
}

// aliasesFor returns the field names holding a concept for a document kind.
func aliasesFor(kind model.Kind, concept Concept) []string {
	if byConcept, ok := kindAliases[kind]; ok {
		if names, ok := byConcept[concept]; ok {
			return names
		}
	}
	return genericAliases[concept]
}

// Aliases exposes the field names consulted for a concept, in priority order.
func Aliases(kind model.Kind, concept Concept) []string {
	names := aliasesFor(kind, concept)
	out := make([]string, len(names))
	copy(out, names)
	return out
}
