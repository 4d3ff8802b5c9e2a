package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"backend/internal/document"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"
	"backend/internal/websocket"
	"backend/internal/workflow"

	"github.com/google/uuid"
)

// DecisionInput carries one approver's verdict on a request
type DecisionInput struct {
	Comments string `json:"comments"`
}

// ApprovalService records approver decisions and drives the resulting status
// transitions: rejection short-circuits immediately, approval finalizes only
// once every required approver level has signed off.
type ApprovalService interface {
	Approve(ctx context.Context, requestID, approverID string, input DecisionInput) (*PurchaseRequestResponse, error)
	Reject(ctx context.Context, requestID, approverID string, input DecisionInput) (*PurchaseRequestResponse, error)
	ListMyDecisions(ctx context.Context, approverID string, page, limit int) ([]ApprovalResponse, int64, error)
}

type approvalService struct {
	requests  repository.PurchaseRequestRepository
	approvals repository.ApprovalRepository
	users     repository.UserRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager

	store  storage.FileStore
	hub    *websocket.Hub
	logger *slog.Logger
}

// NewApprovalService wires the decision-recording service
func NewApprovalService(
	requests repository.PurchaseRequestRepository,
	approvals repository.ApprovalRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	store storage.FileStore,
	hub *websocket.Hub,
	logger *slog.Logger,
) ApprovalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &approvalService{
		requests:  requests,
		approvals: approvals,
		users:     users,
		audit:     audit,
		txManager: txManager,
		store:     store,
		hub:       hub,
		logger:    logger,
	}
}

func (s *approvalService) Approve(ctx context.Context, requestID, approverID string, input DecisionInput) (*PurchaseRequestResponse, error) {
	return s.recordDecision(ctx, requestID, approverID, true, input.Comments)
}

func (s *approvalService) Reject(ctx context.Context, requestID, approverID string, input DecisionInput) (*PurchaseRequestResponse, error) {
	return s.recordDecision(ctx, requestID, approverID, false, input.Comments)
}

// recordDecision upserts the (request, approver) row and applies the workflow
// consequences inside one transaction. A repeat decision by the same approver
// on a still-pending request overwrites the earlier one.
func (s *approvalService) recordDecision(ctx context.Context, requestID, approverID string, approved bool, comments string) (*PurchaseRequestResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return nil, errors.New("request not found")
	}
	apprID, err := uuid.Parse(approverID)
	if err != nil {
		return nil, ErrPermissionDenied
	}

	var (
		request  *model.PurchaseRequest
		newState string
	)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		approver, err := s.users.GetByID(txCtx, apprID)
		if err != nil {
			return ErrPermissionDenied
		}
		if !approver.IsApprover() {
			return ErrPermissionDenied
		}

		request, err = s.requests.FindByID(txCtx, reqID)
		if err != nil {
			return err
		}
		if request.Status != model.StatusPending {
			return ErrNotPending
		}

		approval, err := s.approvals.FindOrInit(txCtx, reqID, apprID)
		if err != nil {
			return err
		}
		now := time.Now()
		approval.Approved = &approved
		approval.Comments = comments
		approval.ApprovedAt = &now
		if err := s.approvals.Save(txCtx, approval); err != nil {
			return err
		}

		action := model.ActionApproveRequest
		if !approved {
			action = model.ActionRejectRequest
		}
		s.recordAudit(txCtx, &apprID, action, request.ID.String(), request.Title, map[string]any{
			"approver_role": approver.Role,
			"comments":      comments,
		})

		if !approved {
			// Single rejection short-circuits the whole request
			next, err := workflow.Transition(request.Status, model.StatusRejected)
			if err != nil {
				return err
			}
			request.Status = next
			request.RejectionReason = comments
			newState = model.StatusRejected
			return s.requests.Update(txCtx, request)
		}

		approvedRoles, err := s.approvals.ApprovedRoles(txCtx, reqID)
		if err != nil {
			return err
		}
		if !workflow.AllLevelsApproved(approvedRoles) {
			// Partial approval: request stays pending
			return nil
		}

		next, err := workflow.Transition(request.Status, model.StatusApproved)
		if err != nil {
			return err
		}
		request.Status = next
		newState = model.StatusApproved

		// PO generation failure must not undo the approval itself
		s.generatePurchaseOrder(txCtx, request)

		return s.requests.Update(txCtx, request)
	})
	if err != nil {
		return nil, err
	}

	switch newState {
	case model.StatusApproved:
		s.hub.BroadcastEvent(websocket.Event{
			Type:      websocket.EventRequestApproved,
			RequestID: request.ID.String(),
			Title:     request.Title,
			Status:    request.Status,
		})
	case model.StatusRejected:
		s.hub.BroadcastEvent(websocket.Event{
			Type:      websocket.EventRequestRejected,
			RequestID: request.ID.String(),
			Title:     request.Title,
			Status:    request.Status,
		})
	}

	full, err := s.requests.FindByIDWithRelations(ctx, reqID)
	if err != nil {
		full = request
	}
	resp := toRequestResponse(full)
	return &resp, nil
}

// generatePurchaseOrder renders and stores the PO for a freshly approved
// request. Failures are logged and recorded, never returned: the approval
// stands even when document generation cannot.
func (s *approvalService) generatePurchaseOrder(ctx context.Context, request *model.PurchaseRequest) {
	po, err := document.GeneratePurchaseOrder(request)
	if err != nil {
		s.logger.Error("purchase order generation failed", "request_id", request.ID, "error", err)
		return
	}

	poPath, err := s.store.Save(storage.CategoryPurchaseOrder, po.Filename, []byte(po.Content))
	if err != nil {
		s.logger.Error("purchase order storage failed", "request_id", request.ID, "error", err)
		return
	}

	request.PurchaseOrderPath = poPath
	if payload, err := json.Marshal(po.Fields); err == nil {
		request.PurchaseOrderData = string(payload)
	}

	s.recordAudit(ctx, nil, model.ActionGeneratePO, request.ID.String(), request.Title, map[string]any{
		"po_number": po.Number,
		"po_path":   poPath,
	})
}

// recordAudit persists an audit row; failures are logged, never propagated
func (s *approvalService) recordAudit(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details map[string]any) {
	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("{}")
	}
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Error("audit write failed", "action", action, "entity_id", entityID, "error", err)
	}
}

func (s *approvalService) ListMyDecisions(ctx context.Context, approverID string, page, limit int) ([]ApprovalResponse, int64, error) {
	apprID, err := uuid.Parse(approverID)
	if err != nil {
		return nil, 0, ErrPermissionDenied
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	approvals, total, err := s.approvals.ListByApprover(ctx, apprID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ApprovalResponse, 0, len(approvals))
	for i := range approvals {
		responses = append(responses, toApprovalResponse(&approvals[i]))
	}
	return responses, total, nil
}
