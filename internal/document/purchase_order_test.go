package document

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func approvedRequest(t *testing.T, proformaData string) *model.PurchaseRequest {
	t.Helper()
	return &model.PurchaseRequest{
		ID:           uuid.New(),
		Title:        "Office laptops",
		Amount:       decimal.NewFromFloat(2499.99),
		Status:       model.StatusApproved,
		ProformaData: proformaData,
		CreatedAt:    time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 3, 16, 9, 30, 0, 0, time.UTC),
	}
}

func TestGeneratePurchaseOrderRequiresProformaData(t *testing.T) {
	for _, data := range []string{"", "   ", "{}", "not json"} {
		req := approvedRequest(t, data)
		if _, err := GeneratePurchaseOrder(req); !errors.Is(err, ErrMissingProformaData) {
			t.Errorf("ProformaData=%q: error = %v, want ErrMissingProformaData", data, err)
		}
	}
}

func TestGeneratePurchaseOrderNumberFormat(t *testing.T) {
	req := approvedRequest(t, `{"vendor": "Acme Corp"}`)

	po, err := GeneratePurchaseOrder(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantNumber := fmt.Sprintf("PO-%s-20260315", req.ID)
	if po.Number != wantNumber {
		t.Errorf("Number = %q, want %q", po.Number, wantNumber)
	}
	wantFilename := fmt.Sprintf("PO_%s_20260315.txt", req.ID)
	if po.Filename != wantFilename {
		t.Errorf("Filename = %q, want %q", po.Filename, wantFilename)
	}
}

func TestGeneratePurchaseOrderFields(t *testing.T) {
	req := approvedRequest(t, `{
		"vendor": "Acme Corp",
		"currency": "EUR",
		"payment_terms": "Net 30",
		"items": [
			{"name": "Laptop", "quantity": 2, "unit_price": 1200, "total": 2400}
		]
	}`)

	po, err := GeneratePurchaseOrder(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if po.Fields["vendor"] != "Acme Corp" {
		t.Errorf("vendor = %v", po.Fields["vendor"])
	}
	if po.Fields["currency"] != "EUR" {
		t.Errorf("currency = %v", po.Fields["currency"])
	}
	if po.Fields["status"] != POStatusIssued {
		t.Errorf("status = %v, want %q", po.Fields["status"], POStatusIssued)
	}
	// The authoritative amount comes from the request, not the proforma
	if got := po.Fields["total_amount"].(float64); got != 2499.99 {
		t.Errorf("total_amount = %v, want 2499.99", got)
	}

	if !strings.Contains(po.Content, "PURCHASE ORDER") {
		t.Error("rendered document missing header")
	}
	if !strings.Contains(po.Content, "Laptop: 2 x 1200 = 2400") {
		t.Errorf("rendered document missing item line:\n%s", po.Content)
	}
	if !strings.Contains(po.Content, "Payment Terms: Net 30") {
		t.Error("rendered document missing payment terms")
	}
}

func TestGeneratePurchaseOrderDefaults(t *testing.T) {
	req := approvedRequest(t, `{"total_amount": 999}`)

	po, err := GeneratePurchaseOrder(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if po.Fields["vendor"] != "Unknown" {
		t.Errorf("vendor default = %v, want Unknown", po.Fields["vendor"])
	}
	if po.Fields["currency"] != "USD" {
		t.Errorf("currency default = %v, want USD", po.Fields["currency"])
	}
	if items, ok := po.Fields["items"].([]any); !ok || len(items) != 0 {
		t.Errorf("items default = %v, want empty list", po.Fields["items"])
	}
}
