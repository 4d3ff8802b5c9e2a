package export

import (
	"bytes"
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func seedRequests(t *testing.T) repository.PurchaseRequestRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.PurchaseRequest{}, &model.Approval{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	user := &model.User{
		Username:   "alice",
		Email:      "alice@example.com",
		Password:   "x",
		Role:       model.RoleStaff,
		Department: "Design",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	repo := repository.NewPurchaseRequestRepository(db)
	rows := []*model.PurchaseRequest{
		{Title: "Chairs", Amount: decimal.NewFromInt(500), Status: model.StatusApproved, CreatedByID: user.ID},
		{Title: "Laptops", Amount: decimal.NewFromInt(2400), Status: model.StatusPending, CreatedByID: user.ID},
	}
	for _, r := range rows {
		if err := repo.Create(context.Background(), r); err != nil {
			t.Fatalf("create request: %v", err)
		}
	}
	return repo
}

func TestExportRequestsXLSX(t *testing.T) {
	svc := NewService(seedRequests(t), nil)

	content, err := svc.ExportRequestsXLSX(context.Background(), "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	const sheet = "Purchase Requests"
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2 requests", len(rows))
	}
	if rows[0][1] != "Title" {
		t.Errorf("header = %v", rows[0])
	}

	titles := map[string]bool{}
	for _, row := range rows[1:] {
		titles[row[1]] = true
	}
	if !titles["Chairs"] || !titles["Laptops"] {
		t.Errorf("exported titles = %v", titles)
	}
}

func TestExportRequestsXLSXStatusFilter(t *testing.T) {
	svc := NewService(seedRequests(t), nil)

	content, err := svc.ExportRequestsXLSX(context.Background(), model.StatusApproved)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Purchase Requests")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus the approved request", len(rows))
	}
	if rows[1][1] != "Chairs" {
		t.Errorf("filtered row = %v", rows[1])
	}
}
