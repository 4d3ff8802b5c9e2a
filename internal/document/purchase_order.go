// Package document renders purchase orders from approved requests and
// reconciles submitted receipts against them.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
)

// ErrMissingProformaData signals purchase-order generation was attempted on a
// request that carries no extracted proforma fields.
var ErrMissingProformaData = errors.New("no proforma data available")

// POStatusIssued marks a generated purchase order
const POStatusIssued = "issued"

// PurchaseOrder bundles the structured fields (persisted on the request) with
// the rendered text document (stored as the attachment).
type PurchaseOrder struct {
	Number   string
	Filename string
	Content  string
	Fields   map[string]any
}

// GeneratePurchaseOrder deterministically renders a purchase order for a fully
// approved request. Vendor, items, currency and terms come from the extracted
// proforma fields (defaulted when absent); the total amount comes from the
// request's authoritative approved amount, never from the extraction.
func GeneratePurchaseOrder(req *model.PurchaseRequest) (*PurchaseOrder, error) {
	if strings.TrimSpace(req.ProformaData) == "" {
		return nil, ErrMissingProformaData
	}
	var proforma map[string]any
	if err := json.Unmarshal([]byte(req.ProformaData), &proforma); err != nil || len(proforma) == 0 {
		return nil, ErrMissingProformaData
	}

	date := req.CreatedAt.Format("20060102")
	poNumber := fmt.Sprintf("PO-%s-%s", req.ID, date)

	items, _ := proforma["items"].([]any)
	if items == nil {
		items = []any{}
	}

	fields := map[string]any{
		"po_number":      poNumber,
		"request_id":     req.ID.String(),
		"request_title":  req.Title,
		"created_at":     req.CreatedAt.Format(time.RFC3339),
		"approved_at":    req.UpdatedAt.Format(time.RFC3339),
		"vendor":         stringOr(proforma, "vendor", "Unknown"),
		"items":          items,
		"total_amount":   req.Amount.InexactFloat64(),
		"currency":       stringOr(proforma, "currency", "USD"),
		"terms":          stringOr(proforma, "terms", ""),
		"payment_terms":  stringOr(proforma, "payment_terms", ""),
		"delivery_terms": stringOr(proforma, "delivery_terms", ""),
		"status":         POStatusIssued,
	}

	return &PurchaseOrder{
		Number:   poNumber,
		Filename: fmt.Sprintf("PO_%s_%s.txt", req.ID, date),
		Content:  renderPurchaseOrder(fields, items),
		Fields:   fields,
	}, nil
}

func renderPurchaseOrder(fields map[string]any, items []any) string {
	var b strings.Builder
	line := strings.Repeat("=", 44)

	fmt.Fprintf(&b, "PURCHASE ORDER\n%s\n", line)
	fmt.Fprintf(&b, "PO Number: %v\n", fields["po_number"])
	fmt.Fprintf(&b, "Date: %v\n\n", fields["created_at"])
	fmt.Fprintf(&b, "Request: %v\n\n", fields["request_title"])
	fmt.Fprintf(&b, "VENDOR INFORMATION\n%s\n%v\n\n", line, fields["vendor"])
	fmt.Fprintf(&b, "ITEMS\n%s\n", line)

	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%v: %v x %v = %v\n",
			valueOr(item, "name", "Item"),
			valueOr(item, "quantity", 1),
			valueOr(item, "unit_price", 0),
			valueOr(item, "total", 0),
		)
	}

	fmt.Fprintf(&b, "\nTOTAL: %v %v\n\n", fields["currency"], fields["total_amount"])
	fmt.Fprintf(&b, "TERMS & CONDITIONS\n%s\n%v\n\n", line, fields["terms"])
	fmt.Fprintf(&b, "Payment Terms: %v\n", fields["payment_terms"])
	fmt.Fprintf(&b, "Delivery Terms: %v\n", fields["delivery_terms"])

	return b.String()
}

func stringOr(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func valueOr(m map[string]any, key string, fallback any) any {
	if v, ok := m[key]; ok && v != nil {
		return v
	}
	return fallback
}
