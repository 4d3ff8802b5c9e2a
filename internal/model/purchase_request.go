package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseRequest status enum constants. Both approved and rejected are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// PurchaseRequest is a staff purchase request moving through two-level approval.
// The JSON payload columns hold extracted/generated document data serialized by
// the service layer; attachments live in file storage and are referenced by path.
type PurchaseRequest struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status      string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedByID uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID" json:"creator,omitempty"`

	// Proforma quotation attached at creation
	ProformaPath string `gorm:"type:varchar(512)" json:"proforma_path"`
	ProformaData string `gorm:"type:jsonb" json:"-"` // extracted fields

	// Purchase order produced on full approval
	PurchaseOrderPath string `gorm:"type:varchar(512)" json:"purchase_order_path"`
	PurchaseOrderData string `gorm:"type:jsonb" json:"-"` // generated PO fields

	// Receipt submitted after approval
	ReceiptPath       string `gorm:"type:varchar(512)" json:"receipt_path"`
	ReceiptData       string `gorm:"type:jsonb" json:"-"` // extracted fields
	ReceiptValidation string `gorm:"type:jsonb" json:"-"` // reconciliation report

	RejectionReason string `gorm:"type:text" json:"rejection_reason"`

	Approvals []Approval `gorm:"foreignKey:PurchaseRequestID" json:"approvals,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *PurchaseRequest) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CanBeEditedBy allows edits only by the creator while the request is still pending
func (p *PurchaseRequest) CanBeEditedBy(userID uuid.UUID) bool {
	return p.CreatedByID == userID && p.Status == StatusPending
}
