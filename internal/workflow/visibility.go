package workflow

import (
	"github.com/google/uuid"

	"backend/internal/model"
)

// Visibility describes which purchase requests a viewer may see. It is a plain
// predicate descriptor; the repository translates it into query clauses.
type Visibility struct {
	// All grants unrestricted access (finance)
	All bool
	// CreatorID restricts to requests created by this user (staff)
	CreatorID *uuid.UUID
	// ReviewerID restricts to pending requests plus ones this user has decided (approvers)
	ReviewerID *uuid.UUID
}

// VisibilityFor maps a role and viewer identity to the query predicate:
// staff see only their own requests, approvers see pending requests plus those
// they have already decided, finance sees everything. Unknown roles see nothing.
func VisibilityFor(role string, userID uuid.UUID) Visibility {
	switch role {
	case model.RoleStaff:
		return Visibility{CreatorID: &userID}
	case model.RoleApproverLevel1, model.RoleApproverLevel2:
		return Visibility{ReviewerID: &userID}
	case model.RoleFinance:
		return Visibility{All: true}
	default:
		return Visibility{}
	}
}

// Allows reports whether a single request is visible under this predicate.
// Used for object-level checks where the row is already loaded; decidedByViewer
// must be true when the reviewer has an approval row on the request.
func (v Visibility) Allows(req *model.PurchaseRequest, decidedByViewer bool) bool {
	if v.All {
		return true
	}
	if v.CreatorID != nil {
		return req.CreatedByID == *v.CreatorID
	}
	if v.ReviewerID != nil {
		return req.Status == model.StatusPending || decidedByViewer
	}
	return false
}
