package repository

import (
	"context"

	"backend/internal/model"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseRequestRepository defines data access for PurchaseRequest entities
type PurchaseRequestRepository interface {
	Create(ctx context.Context, req *model.PurchaseRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error)
	List(ctx context.Context, vis workflow.Visibility, status string, page, limit int) ([]model.PurchaseRequest, int64, error)
	Update(ctx context.Context, req *model.PurchaseRequest) error
	// FindAll loads every request with relations, newest first. Used by the
	// finance export; listings go through List with pagination.
	FindAll(ctx context.Context) ([]model.PurchaseRequest, error)
	// StatusCounts tallies requests per status
	StatusCounts(ctx context.Context) (map[string]int64, error)
	// ApprovedTotal sums the amount across approved requests
	ApprovedTotal(ctx context.Context) (decimal.Decimal, error)
}

type purchaseRequestRepository struct {
	db *gorm.DB
}

func NewPurchaseRequestRepository(db *gorm.DB) PurchaseRequestRepository {
	return &purchaseRequestRepository{db: db}
}

func (r *purchaseRequestRepository) Create(ctx context.Context, req *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *purchaseRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *purchaseRequestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	if err := GetDB(ctx, r.db).
		Preload("CreatedBy").
		Preload("Approvals").
		Preload("Approvals.Approver").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// scopeVisibility translates the pure workflow predicate into query clauses
func scopeVisibility(db *gorm.DB, vis workflow.Visibility) *gorm.DB {
	switch {
	case vis.All:
		return db
	case vis.CreatorID != nil:
		return db.Where("created_by_id = ?", *vis.CreatorID)
	case vis.ReviewerID != nil:
		return db.Where(
			"status = ? OR id IN (?)",
			model.StatusPending,
			db.Session(&gorm.Session{NewDB: true}).
				Model(&model.Approval{}).
				Select("purchase_request_id").
				Where("approver_id = ?", *vis.ReviewerID),
		)
	default:
		// Unknown role sees nothing
		return db.Where("1 = 0")
	}
}

func (r *purchaseRequestRepository) List(ctx context.Context, vis workflow.Visibility, status string, page, limit int) ([]model.PurchaseRequest, int64, error) {
	var requests []model.PurchaseRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := scopeVisibility(db.Model(&model.PurchaseRequest{}), vis)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := scopeVisibility(db.Model(&model.PurchaseRequest{}), vis).
		Preload("CreatedBy").
		Preload("Approvals.Approver")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *purchaseRequestRepository) Update(ctx context.Context, req *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *purchaseRequestRepository) FindAll(ctx context.Context) ([]model.PurchaseRequest, error) {
	var requests []model.PurchaseRequest
	err := GetDB(ctx, r.db).
		Preload("CreatedBy").
		Preload("Approvals.Approver").
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *purchaseRequestRepository) StatusCounts(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := GetDB(ctx, r.db).
		Model(&model.PurchaseRequest{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{
		model.StatusPending:  0,
		model.StatusApproved: 0,
		model.StatusRejected: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *purchaseRequestRepository) ApprovedTotal(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := GetDB(ctx, r.db).
		Model(&model.PurchaseRequest{}).
		Where("status = ?", model.StatusApproved).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
