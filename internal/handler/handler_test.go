package handler

import (
	"errors"
	"net/http"
	"testing"

	"backend/internal/service"
	"backend/internal/workflow"

	"gorm.io/gorm"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"permission denied", service.ErrPermissionDenied, http.StatusForbidden},
		{"not pending", service.ErrNotPending, http.StatusBadRequest},
		{"not approved", service.ErrNotApproved, http.StatusBadRequest},
		{"invalid transition", &workflow.ErrInvalidTransition{From: "approved", To: "pending"}, http.StatusBadRequest},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"anything else", errors.New("invalid amount"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapServiceError(tt.err); got != tt.want {
				t.Errorf("mapServiceError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
