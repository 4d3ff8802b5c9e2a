package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"backend/internal/repository"
)

// Service is a tiny façade over the request repository that produces XLSX
// bytes for the finance export.
type Service struct {
	requests repository.PurchaseRequestRepository
	logger   *slog.Logger
}

func NewService(requests repository.PurchaseRequestRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{requests: requests, logger: logger}
}

// ExportRequestsXLSX returns an XLSX workbook (as bytes) covering every
// purchase request, newest first. Optional status narrows the rows.
func (s *Service) ExportRequestsXLSX(ctx context.Context, status string) ([]byte, error) {
	start := time.Now()

	recs, err := s.requests.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Purchase Requests"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on ours
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Created",
		"Title",
		"Requested By",
		"Department",
		"Amount",
		"Status",
		"Rejection Reason",
		"Purchase Order",
		"Receipt",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		if status != "" && r.Status != status {
			continue
		}

		creator := ""
		department := ""
		if r.CreatedBy != nil {
			creator = r.CreatedBy.Username
			department = r.CreatedBy.Department
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.CreatedAt.Format("2006-01-02"))
		write(2, r.Title)
		write(3, creator)
		write(4, department)
		write(5, r.Amount.StringFixed(2))
		write(6, r.Status)
		write(7, truncate(r.RejectionReason, 140))
		write(8, r.PurchaseOrderPath)
		write(9, r.ReceiptPath)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 32) // title
	_ = f.SetColWidth(sheet, "C", "D", 18) // creator, department
	_ = f.SetColWidth(sheet, "E", "F", 14) // amount, status
	_ = f.SetColWidth(sheet, "G", "G", 48) // reason
	_ = f.SetColWidth(sheet, "H", "I", 50) // attachment paths

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", row-2,
		"status_filter", status,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// SuggestedFilename names the download after the export date
func SuggestedFilename() string {
	return fmt.Sprintf("purchase_requests_%s.xlsx", time.Now().Format("20060102"))
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
