package service

import (
	"context"
	"encoding/json"

	"backend/internal/model"
	"backend/internal/repository"
)

// AuditEntryResponse is the API representation of one audit row
type AuditEntryResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id,omitempty"`
	Username   string          `json:"username,omitempty"`
	Action     string          `json:"action"`
	EntityID   string          `json:"entity_id"`
	EntityName string          `json:"entity_name,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

// AuditService exposes the workflow audit trail to finance
type AuditService interface {
	List(ctx context.Context, action string, page, limit int) ([]AuditEntryResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, action string, page, limit int) ([]AuditEntryResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	entries, total, err := s.repo.List(ctx, action, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]AuditEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, toAuditResponse(&entries[i]))
	}
	return responses, total, nil
}

func toAuditResponse(e *model.AuditLog) AuditEntryResponse {
	resp := AuditEntryResponse{
		ID:         e.ID.String(),
		Action:     e.Action,
		EntityID:   e.EntityID,
		EntityName: e.EntityName,
		CreatedAt:  e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if e.UserID != nil {
		resp.UserID = e.UserID.String()
	}
	if e.User != nil {
		resp.Username = e.User.Username
	}
	if e.Details != "" {
		resp.Details = json.RawMessage(e.Details)
	}
	return resp
}
