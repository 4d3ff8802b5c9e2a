package document

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// ValidationReport status enum constants
const (
	ValidationPending     = "pending"
	ValidationOK          = "validated"
	ValidationDiscrepancy = "discrepancy_found"
	ValidationError       = "error"
)

// Discrepancy names one field whose receipt value disagrees with the purchase order
type Discrepancy struct {
	Field        string `json:"field"`
	POValue      any    `json:"po_value"`
	ReceiptValue any    `json:"receipt_value"`
	Message      string `json:"message"`
}

// ValidationReport is the outcome of reconciling a receipt against a purchase order
type ValidationReport struct {
	Status        string        `json:"status"`
	Matches       []string      `json:"matches"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	Message       string        `json:"message,omitempty"`
}

func errorReport(message string) ValidationReport {
	return ValidationReport{
		Status:        ValidationError,
		Matches:       []string{},
		Discrepancies: []Discrepancy{},
		Message:       message,
	}
}

// CompareConfig exposes the reconciliation policy knobs. The defaults
// intentionally reproduce long-standing behavior: loose substring vendor
// matching and a silent skip of the amount check when either side is
// zero/absent. Change with care; downstream consumers rely on both quirks.
type CompareConfig struct {
	AmountTolerance  float64 // absolute difference treated as equal
	VendorSubstring  bool    // substring match either direction vs strict equality
	SkipZeroAmounts  bool    // skip amount comparison entirely when either side is <= 0
	POVendorKey      string  // field holding the vendor name on the PO side
	ReceiptVendorKey string  // field holding the vendor name on the receipt side
}

func DefaultCompareConfig() CompareConfig {
	return CompareConfig{
		AmountTolerance:  0.01,
		VendorSubstring:  true,
		SkipZeroAmounts:  true,
		POVendorKey:      "vendor",
		ReceiptVendorKey: "seller",
	}
}

// TextSource extracts plain text from a stored attachment
type TextSource interface {
	Extract(ctx context.Context, path string) (string, error)
}

// FieldSource extracts structured fields from document text
type FieldSource interface {
	ExtractFields(ctx context.Context, text, documentType string) map[string]any
}

// Reconciler extracts a submitted receipt and compares it field-by-field
// against the purchase order. Every failure mode produces a structured error
// report; Reconcile never returns an error.
type Reconciler struct {
	text   TextSource
	fields FieldSource
	cfg    CompareConfig
	logger *slog.Logger
}

func NewReconciler(text TextSource, fields FieldSource, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{text: text, fields: fields, cfg: DefaultCompareConfig(), logger: logger}
}

// Reconcile extracts the receipt at receiptPath and compares it against the
// purchase-order fields. The extracted receipt mapping is returned alongside
// the report so both can be persisted.
func (r *Reconciler) Reconcile(ctx context.Context, receiptPath string, poFields map[string]any) (map[string]any, ValidationReport) {
	if len(poFields) == 0 {
		return nil, errorReport("No purchase order data available for comparison")
	}

	text, err := r.text.Extract(ctx, receiptPath)
	if err != nil {
		r.logger.Warn("receipt extraction rejected", "path", receiptPath, "error", err)
		return nil, errorReport("Unsupported file format")
	}
	if strings.TrimSpace(text) == "" {
		r.logger.Warn("receipt yielded no text", "path", receiptPath)
		return nil, errorReport("No text could be extracted from receipt")
	}

	receiptFields := r.fields.ExtractFields(ctx, text, "receipt")
	report := Compare(poFields, receiptFields, r.cfg)

	r.logger.Info("receipt reconciled",
		"path", receiptPath,
		"status", report.Status,
		"matches", len(report.Matches),
		"discrepancies", len(report.Discrepancies),
	)
	return receiptFields, report
}

// Compare runs the field-by-field reconciliation. Pure: no I/O, fully
// deterministic, so policy behavior is testable in isolation.
func Compare(po, receipt map[string]any, cfg CompareConfig) ValidationReport {
	report := ValidationReport{
		Status:        ValidationPending,
		Matches:       []string{},
		Discrepancies: []Discrepancy{},
	}

	// Vendor: compared only when both sides are non-empty
	poVendor := strings.ToLower(asString(po[cfg.POVendorKey]))
	receiptVendor := strings.ToLower(asString(receipt[cfg.ReceiptVendorKey]))
	if poVendor != "" && receiptVendor != "" {
		matched := poVendor == receiptVendor
		if cfg.VendorSubstring {
			matched = strings.Contains(poVendor, receiptVendor) || strings.Contains(receiptVendor, poVendor)
		}
		if matched {
			report.Matches = append(report.Matches, "Vendor name matches")
		} else {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Field:        "vendor",
				POValue:      po[cfg.POVendorKey],
				ReceiptValue: receipt[cfg.ReceiptVendorKey],
				Message:      "Vendor name mismatch",
			})
		}
	}

	// Total amount: skipped silently when either side is zero/absent
	poTotal := asFloat(po["total_amount"])
	receiptTotal := asFloat(receipt["total_amount"])
	if !cfg.SkipZeroAmounts || (poTotal > 0 && receiptTotal > 0) {
		if math.Abs(poTotal-receiptTotal) < cfg.AmountTolerance {
			report.Matches = append(report.Matches, "Total amount matches")
		} else {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Field:        "total_amount",
				POValue:      poTotal,
				ReceiptValue: receiptTotal,
				Message:      fmt.Sprintf("Amount mismatch: PO=%v, Receipt=%v", poTotal, receiptTotal),
			})
		}
	}

	// Items: count comparison only, no per-item matching
	poItems := itemCount(po["items"])
	receiptItems := itemCount(receipt["items"])
	if poItems != receiptItems {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			Field:        "items_count",
			POValue:      poItems,
			ReceiptValue: receiptItems,
			Message:      fmt.Sprintf("Number of items mismatch: PO has %d, Receipt has %d", poItems, receiptItems),
		})
	}

	if len(report.Discrepancies) == 0 {
		report.Status = ValidationOK
		report.Message = "Receipt validated successfully"
	} else {
		report.Status = ValidationDiscrepancy
		report.Message = fmt.Sprintf("Found %d discrepancies", len(report.Discrepancies))
	}
	return report
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func itemCount(v any) int {
	items, ok := v.([]any)
	if !ok {
		return 0
	}
	return len(items)
}
