package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalRepository defines data access for per-approver decisions
type ApprovalRepository interface {
	// FindOrInit returns the existing (request, approver) row or a fresh
	// unsaved one, so resubmitted decisions overwrite in place.
	FindOrInit(ctx context.Context, requestID, approverID uuid.UUID) (*model.Approval, error)
	Save(ctx context.Context, approval *model.Approval) error
	// ApprovedRoles lists the roles of approvers who recorded approved=true
	// on the given request.
	ApprovedRoles(ctx context.Context, requestID uuid.UUID) ([]string, error)
	ExistsForApprover(ctx context.Context, requestID, approverID uuid.UUID) (bool, error)
	ListByApprover(ctx context.Context, approverID uuid.UUID, page, limit int) ([]model.Approval, int64, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) FindOrInit(ctx context.Context, requestID, approverID uuid.UUID) (*model.Approval, error) {
	var approval model.Approval
	err := GetDB(ctx, r.db).
		First(&approval, "purchase_request_id = ? AND approver_id = ?", requestID, approverID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Approval{PurchaseRequestID: requestID, ApproverID: approverID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) Save(ctx context.Context, approval *model.Approval) error {
	return GetDB(ctx, r.db).Save(approval).Error
}

func (r *approvalRepository) ApprovedRoles(ctx context.Context, requestID uuid.UUID) ([]string, error) {
	var roles []string
	err := GetDB(ctx, r.db).
		Model(&model.Approval{}).
		Joins("JOIN users ON users.id = approvals.approver_id").
		Where("approvals.purchase_request_id = ? AND approvals.approved = ?", requestID, true).
		Distinct().
		Pluck("users.role", &roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *approvalRepository) ExistsForApprover(ctx context.Context, requestID, approverID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.Approval{}).
		Where("purchase_request_id = ? AND approver_id = ?", requestID, approverID).
		Count(&count).Error
	return count > 0, err
}

func (r *approvalRepository) ListByApprover(ctx context.Context, approverID uuid.UUID, page, limit int) ([]model.Approval, int64, error) {
	var approvals []model.Approval
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Approval{}).
		Where("approver_id = ?", approverID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("PurchaseRequest").Preload("Approver").
		Where("approver_id = ?", approverID).
		Order("updated_at DESC").
		Offset(offset).Limit(limit).
		Find(&approvals).Error; err != nil {
		return nil, 0, err
	}

	return approvals, total, nil
}
