package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"backend/internal/document"
	"backend/internal/extraction"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"
	"backend/internal/websocket"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs for Request validation
type CreatePurchaseRequestInput struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description"`
	Amount      string `form:"amount" binding:"required"`

	// Proforma attachment, read from the multipart form by the handler
	ProformaFilename string `form:"-"`
	ProformaContent  []byte `form:"-"`
}

type UpdatePurchaseRequestInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// RequestStats aggregates workflow figures for the finance dashboard
type RequestStats struct {
	Total          int64  `json:"total"`
	Pending        int64  `json:"pending"`
	Approved       int64  `json:"approved"`
	Rejected       int64  `json:"rejected"`
	ApprovedAmount string `json:"approved_amount"`
}

// PurchaseRequestService defines the business logic around purchase requests:
// creation with proforma extraction, visibility-scoped reads, pending-only
// edits and post-approval receipt reconciliation.
type PurchaseRequestService interface {
	Create(ctx context.Context, userID string, input CreatePurchaseRequestInput) (*PurchaseRequestResponse, error)
	List(ctx context.Context, userID, role, status string, page, limit int) ([]PurchaseRequestResponse, int64, error)
	Get(ctx context.Context, userID, role, id string) (*PurchaseRequestResponse, error)
	Update(ctx context.Context, userID, id string, input UpdatePurchaseRequestInput) (*PurchaseRequestResponse, error)
	SubmitReceipt(ctx context.Context, userID, id, filename string, content []byte) (*PurchaseRequestResponse, error)
	Stats(ctx context.Context) (*RequestStats, error)
}

type purchaseRequestService struct {
	requests  repository.PurchaseRequestRepository
	approvals repository.ApprovalRepository
	users     repository.UserRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager

	store      storage.FileStore
	pipeline   *extraction.Pipeline
	reconciler *document.Reconciler
	hub        *websocket.Hub
	logger     *slog.Logger
}

// NewPurchaseRequestService wires the request workflow service
func NewPurchaseRequestService(
	requests repository.PurchaseRequestRepository,
	approvals repository.ApprovalRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	store storage.FileStore,
	pipeline *extraction.Pipeline,
	reconciler *document.Reconciler,
	hub *websocket.Hub,
	logger *slog.Logger,
) PurchaseRequestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &purchaseRequestService{
		requests:   requests,
		approvals:  approvals,
		users:      users,
		audit:      audit,
		txManager:  txManager,
		store:      store,
		pipeline:   pipeline,
		reconciler: reconciler,
		hub:        hub,
		logger:     logger,
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, errors.New("invalid amount")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errors.New("amount must be positive")
	}
	return amount, nil
}

// recordAudit persists an audit row; failures are logged, never propagated
func (s *purchaseRequestService) recordAudit(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details map[string]any) {
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

func (s *purchaseRequestService) Create(ctx context.Context, userID string, input CreatePurchaseRequestInput) (*PurchaseRequestResponse, error) {
	creatorID, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrPermissionDenied
	}

	amount, err := parseAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	// The proforma attachment is optional; without one there is nothing to extract
	var proformaPath string
	if len(input.ProformaContent) > 0 {
		proformaPath, err = s.store.Save(storage.CategoryProforma, input.ProformaFilename, input.ProformaContent)
		if err != nil {
			return nil, err
		}
	}

	request := &model.PurchaseRequest{
		Title:        input.Title,
		Description:  input.Description,
		Amount:       amount,
		Status:       model.StatusPending,
		CreatedByID:  creatorID,
		ProformaPath: proformaPath,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, request); err != nil {
			return err
		}
		s.recordAudit(txCtx, &creatorID, model.ActionCreateRequest, request.ID.String(), request.Title, map[string]any{
			"amount": amount.StringFixed(2),
			"status": request.Status,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Extraction is best-effort and happens outside the transaction: its
	// failure modes come back as error mappings and must never undo creation.
	if proformaPath != "" {
		fields := s.pipeline.ExtractDocument(ctx, s.store.Resolve(proformaPath), extraction.DocTypeProforma)
		if payload, err := json.Marshal(fields); err == nil {
			request.ProformaData = string(payload)
			if err := s.requests.Update(ctx, request); err != nil {
				s.logger.Error("persisting proforma data failed", "request_id", request.ID, "error", err)
			}
		}
	}

	s.hub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventRequestCreated,
		RequestID: request.ID.String(),
		Title:     request.Title,
		Status:    request.Status,
	})

	full, err := s.requests.FindByIDWithRelations(ctx, request.ID)
	if err != nil {
		full = request
	}
	resp := toRequestResponse(full)
	return &resp, nil
}

func (s *purchaseRequestService) List(ctx context.Context, userID, role, status string, page, limit int) ([]PurchaseRequestResponse, int64, error) {
	viewerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, ErrPermissionDenied
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	vis := workflow.VisibilityFor(role, viewerID)
	requests, total, err := s.requests.List(ctx, vis, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PurchaseRequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, toRequestResponse(&requests[i]))
	}
	return responses, total, nil
}

func (s *purchaseRequestService) Get(ctx context.Context, userID, role, id string) (*PurchaseRequestResponse, error) {
	viewerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrPermissionDenied
	}
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("request not found")
	}

	request, err := s.requests.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		return nil, err
	}

	vis := workflow.VisibilityFor(role, viewerID)
	decided := false
	if vis.ReviewerID != nil {
		decided, err = s.approvals.ExistsForApprover(ctx, requestID, viewerID)
		if err != nil {
			return nil, err
		}
	}
	if !vis.Allows(request, decided) {
		return nil, ErrPermissionDenied
	}

	resp := toRequestResponse(request)
	return &resp, nil
}

func (s *purchaseRequestService) Update(ctx context.Context, userID, id string, input UpdatePurchaseRequestInput) (*PurchaseRequestResponse, error) {
	editorID, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrPermissionDenied
	}
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("request not found")
	}

	var request *model.PurchaseRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err = s.requests.FindByID(txCtx, requestID)
		if err != nil {
			return err
		}

		if request.CreatedByID != editorID {
			return ErrPermissionDenied
		}
		if request.Status != model.StatusPending {
			return ErrNotPending
		}

		if input.Title != "" {
			request.Title = input.Title
		}
		if input.Description != "" {
			request.Description = input.Description
		}
		if input.Amount != "" {
			amount, err := parseAmount(input.Amount)
			if err != nil {
				return err
			}
			request.Amount = amount
		}

		if err := s.requests.Update(txCtx, request); err != nil {
			return err
		}
		s.recordAudit(txCtx, &editorID, model.ActionUpdateRequest, request.ID.String(), request.Title, map[string]any{
			"amount": request.Amount.StringFixed(2),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toRequestResponse(request)
	return &resp, nil
}

func (s *purchaseRequestService) SubmitReceipt(ctx context.Context, userID, id, filename string, content []byte) (*PurchaseRequestResponse, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrPermissionDenied
	}
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("request not found")
	}
	if len(content) == 0 {
		return nil, errors.New("receipt document is required")
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.CreatedByID != ownerID {
		return nil, ErrPermissionDenied
	}
	if request.Status != model.StatusApproved {
		return nil, ErrNotApproved
	}

	receiptPath, err := s.store.Save(storage.CategoryReceipt, filename, content)
	if err != nil {
		return nil, err
	}

	var poFields map[string]any
	if request.PurchaseOrderData != "" {
		if err := json.Unmarshal([]byte(request.PurchaseOrderData), &poFields); err != nil {
			s.logger.Warn("purchase order data unreadable", "request_id", request.ID, "error", err)
		}
	}

	receiptFields, report := s.reconciler.Reconcile(ctx, s.store.Resolve(receiptPath), poFields)

	request.ReceiptPath = receiptPath
	if receiptFields != nil {
		if payload, err := json.Marshal(receiptFields); err == nil {
			request.ReceiptData = string(payload)
		}
	}
	if payload, err := json.Marshal(report); err == nil {
		request.ReceiptValidation = string(payload)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Update(txCtx, request); err != nil {
			return err
		}
		s.recordAudit(txCtx, &ownerID, model.ActionSubmitReceipt, request.ID.String(), request.Title, map[string]any{
			"receipt_path": receiptPath,
		})
		s.recordAudit(txCtx, &ownerID, model.ActionValidateReceipt, request.ID.String(), request.Title, map[string]any{
			"status":        report.Status,
			"discrepancies": len(report.Discrepancies),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventReceiptValidated,
		RequestID: request.ID.String(),
		Title:     request.Title,
		Status:    report.Status,
	})

	resp := toRequestResponse(request)
	return &resp, nil
}

// Stats aggregates status counts and the approved spend total
func (s *purchaseRequestService) Stats(ctx context.Context) (*RequestStats, error) {
	counts, err := s.requests.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	approvedAmount, err := s.requests.ApprovedTotal(ctx)
	if err != nil {
		return nil, err
	}

	return &RequestStats{
		Total:          counts[model.StatusPending] + counts[model.StatusApproved] + counts[model.StatusRejected],
		Pending:        counts[model.StatusPending],
		Approved:       counts[model.StatusApproved],
		Rejected:       counts[model.StatusRejected],
		ApprovedAmount: approvedAmount.StringFixed(2),
	}, nil
}
