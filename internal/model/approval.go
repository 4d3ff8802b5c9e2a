package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Approval is one approver's decision on one purchase request. The composite
// unique index enforces at most one row per (request, approver); re-deciding
// before the request leaves pending overwrites this row in place.
type Approval struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseRequestID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_request_approver" json:"purchase_request_id"`
	PurchaseRequest   *PurchaseRequest `gorm:"foreignKey:PurchaseRequestID" json:"-"`
	ApproverID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_request_approver" json:"approver_id"`
	Approver          *User            `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`

	// nil = pending, true = approved, false = rejected
	Approved   *bool      `json:"approved"`
	Comments   string     `gorm:"type:text" json:"comments"`
	ApprovedAt *time.Time `json:"approved_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Approval) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
