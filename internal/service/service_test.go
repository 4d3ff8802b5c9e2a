package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"backend/internal/document"
	"backend/internal/extraction"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"
	"backend/internal/websocket"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// fakeRunner replaces the OCR engine with canned output
type fakeRunner struct {
	stdout string
}

func (f fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return []byte(f.stdout), nil, nil
}

// fakeFields satisfies both the extraction and reconciliation field-source
// interfaces with a fixed mapping per document type.
type fakeFields struct {
	byType map[string]map[string]any
}

func (f *fakeFields) ExtractFields(ctx context.Context, text, documentType string) map[string]any {
	src, ok := f.byType[documentType]
	if !ok {
		return map[string]any{"error": "Unknown document type"}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// testEnv bundles the full service stack on an in-memory database
type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	requests repository.PurchaseRequestRepository
	audit    repository.AuditRepository

	userService     UserService
	requestService  PurchaseRequestService
	approvalService ApprovalService
	auditService    AuditService

	fields *fakeFields
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.PurchaseRequest{},
		&model.Approval{},
		&model.AuditLog{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("media storage: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	fields := &fakeFields{byType: map[string]map[string]any{
		extraction.DocTypeProforma: {
			"vendor":       "Acme Corp",
			"total_amount": 500.0,
			"currency":     "USD",
			"items":        []any{map[string]any{"name": "Chair", "quantity": 2.0, "unit_price": 250.0, "total": 500.0}},
		},
		extraction.DocTypeReceipt: {
			"seller":       "Acme",
			"total_amount": 500.0,
			"items":        []any{map[string]any{"name": "Chair"}},
		},
	}}

	text := extraction.NewTextExtractorWithRunner(
		extraction.TextConfig{},
		fakeRunner{stdout: "INVOICE\nAcme Corp\nTotal: 500.00\n"},
		logger,
	)
	pipeline := extraction.NewPipeline(text, fields, logger)
	reconciler := document.NewReconciler(text, fields, logger)

	hub := websocket.NewHub()

	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewPurchaseRequestRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	requestService := NewPurchaseRequestService(
		requestRepo, approvalRepo, userRepo, auditRepo, txManager,
		store, pipeline, reconciler, hub, logger,
	)
	approvalService := NewApprovalService(
		requestRepo, approvalRepo, userRepo, auditRepo, txManager,
		store, hub, logger,
	)

	return &testEnv{
		db:              db,
		users:           userRepo,
		requests:        requestRepo,
		audit:           auditRepo,
		userService:     NewUserService(userRepo),
		requestService:  requestService,
		approvalService: approvalService,
		auditService:    NewAuditService(auditRepo),
		fields:          fields,
	}
}

func (e *testEnv) createUser(t *testing.T, username, role string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		Role:     role,
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func (e *testEnv) createRequest(t *testing.T, creator *model.User) *PurchaseRequestResponse {
	t.Helper()
	resp, err := e.requestService.Create(context.Background(), creator.ID.String(), CreatePurchaseRequestInput{
		Title:            "Office chairs",
		Description:      "Two chairs for the design team",
		Amount:           "500.00",
		ProformaFilename: "proforma.png",
		ProformaContent:  []byte("fake image bytes"),
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return resp
}

func (e *testEnv) loadRequest(t *testing.T, id string) *model.PurchaseRequest {
	t.Helper()
	reqID, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("parse request id: %v", err)
	}
	req, err := e.requests.FindByIDWithRelations(context.Background(), reqID)
	if err != nil {
		t.Fatalf("load request: %v", err)
	}
	return req
}
