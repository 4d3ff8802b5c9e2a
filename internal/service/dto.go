package service

import (
	"encoding/json"
	"time"

	"backend/internal/model"
)

// PurchaseRequestResponse is the API representation of a request, with the
// JSON payload columns exposed as raw objects rather than strings.
type PurchaseRequestResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`

	CreatedBy   string `json:"created_by"`
	CreatorName string `json:"creator_name,omitempty"`

	ProformaPath string          `json:"proforma_path,omitempty"`
	ProformaData json.RawMessage `json:"proforma_data,omitempty"`

	PurchaseOrderPath string          `json:"purchase_order_path,omitempty"`
	PurchaseOrderData json.RawMessage `json:"purchase_order_data,omitempty"`

	ReceiptPath       string          `json:"receipt_path,omitempty"`
	ReceiptData       json.RawMessage `json:"receipt_data,omitempty"`
	ReceiptValidation json.RawMessage `json:"receipt_validation,omitempty"`

	RejectionReason string `json:"rejection_reason,omitempty"`

	Approvals []ApprovalResponse `json:"approvals,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ApprovalResponse is the API representation of one approver's decision
type ApprovalResponse struct {
	ID                string  `json:"id"`
	PurchaseRequestID string  `json:"purchase_request_id"`
	ApproverID        string  `json:"approver_id"`
	ApproverName      string  `json:"approver_name,omitempty"`
	ApproverRole      string  `json:"approver_role,omitempty"`
	Approved          *bool   `json:"approved"`
	Comments          string  `json:"comments"`
	ApprovedAt        *string `json:"approved_at"`
}

func toRequestResponse(r *model.PurchaseRequest) PurchaseRequestResponse {
	resp := PurchaseRequestResponse{
		ID:                r.ID.String(),
		Title:             r.Title,
		Description:       r.Description,
		Amount:            r.Amount.StringFixed(2),
		Status:            r.Status,
		CreatedBy:         r.CreatedByID.String(),
		ProformaPath:      r.ProformaPath,
		PurchaseOrderPath: r.PurchaseOrderPath,
		ReceiptPath:       r.ReceiptPath,
		RejectionReason:   r.RejectionReason,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         r.UpdatedAt.Format(time.RFC3339),
	}

	if r.CreatedBy != nil {
		resp.CreatorName = r.CreatedBy.Username
	}
	if r.ProformaData != "" {
		resp.ProformaData = json.RawMessage(r.ProformaData)
	}
	if r.PurchaseOrderData != "" {
		resp.PurchaseOrderData = json.RawMessage(r.PurchaseOrderData)
	}
	if r.ReceiptData != "" {
		resp.ReceiptData = json.RawMessage(r.ReceiptData)
	}
	if r.ReceiptValidation != "" {
		resp.ReceiptValidation = json.RawMessage(r.ReceiptValidation)
	}

	for i := range r.Approvals {
		resp.Approvals = append(resp.Approvals, toApprovalResponse(&r.Approvals[i]))
	}

	return resp
}

func toApprovalResponse(a *model.Approval) ApprovalResponse {
	resp := ApprovalResponse{
		ID:                a.ID.String(),
		PurchaseRequestID: a.PurchaseRequestID.String(),
		ApproverID:        a.ApproverID.String(),
		Approved:          a.Approved,
		Comments:          a.Comments,
	}
	if a.Approver != nil {
		resp.ApproverName = a.Approver.Username
		resp.ApproverRole = a.Approver.Role
	}
	if a.ApprovedAt != nil {
		s := a.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}
	return resp
}
