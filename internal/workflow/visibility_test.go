package workflow

import (
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
)

func TestVisibilityFor(t *testing.T) {
	userID := uuid.New()

	t.Run("staff sees own requests only", func(t *testing.T) {
		vis := VisibilityFor(model.RoleStaff, userID)
		if vis.All || vis.CreatorID == nil || vis.ReviewerID != nil {
			t.Fatalf("unexpected predicate: %+v", vis)
		}
		if *vis.CreatorID != userID {
			t.Errorf("CreatorID = %v, want %v", *vis.CreatorID, userID)
		}
	})

	t.Run("approvers get reviewer predicate", func(t *testing.T) {
		for _, role := range []string{model.RoleApproverLevel1, model.RoleApproverLevel2} {
			vis := VisibilityFor(role, userID)
			if vis.All || vis.CreatorID != nil || vis.ReviewerID == nil {
				t.Fatalf("role %s: unexpected predicate: %+v", role, vis)
			}
		}
	})

	t.Run("finance sees everything", func(t *testing.T) {
		vis := VisibilityFor(model.RoleFinance, userID)
		if !vis.All {
			t.Fatalf("unexpected predicate: %+v", vis)
		}
	})

	t.Run("unknown role sees nothing", func(t *testing.T) {
		vis := VisibilityFor("contractor", userID)
		if vis.All || vis.CreatorID != nil || vis.ReviewerID != nil {
			t.Fatalf("unexpected predicate: %+v", vis)
		}
	})
}

func TestVisibilityAllows(t *testing.T) {
	creator := uuid.New()
	reviewer := uuid.New()

	pending := &model.PurchaseRequest{Status: model.StatusPending, CreatedByID: creator}
	approved := &model.PurchaseRequest{Status: model.StatusApproved, CreatedByID: creator}

	t.Run("creator sees own request regardless of status", func(t *testing.T) {
		vis := VisibilityFor(model.RoleStaff, creator)
		if !vis.Allows(pending, false) || !vis.Allows(approved, false) {
			t.Error("creator must see own requests")
		}
	})

	t.Run("other staff sees nothing", func(t *testing.T) {
		vis := VisibilityFor(model.RoleStaff, uuid.New())
		if vis.Allows(pending, false) {
			t.Error("staff must not see other users' requests")
		}
	})

	t.Run("reviewer sees pending and own decisions", func(t *testing.T) {
		vis := VisibilityFor(model.RoleApproverLevel1, reviewer)
		if !vis.Allows(pending, false) {
			t.Error("reviewer must see pending requests")
		}
		if vis.Allows(approved, false) {
			t.Error("reviewer must not see terminal requests they did not decide")
		}
		if !vis.Allows(approved, true) {
			t.Error("reviewer must see terminal requests they decided")
		}
	})

	t.Run("finance sees everything", func(t *testing.T) {
		vis := VisibilityFor(model.RoleFinance, uuid.New())
		if !vis.Allows(pending, false) || !vis.Allows(approved, false) {
			t.Error("finance must see all requests")
		}
	})
}
