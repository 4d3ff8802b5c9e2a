package service

import (
	"context"
	"testing"

	"backend/internal/model"
)

func TestCreateUserValidatesRole(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.userService.CreateUser(context.Background(), CreateUserRequest{
		Username: "eve",
		Email:    "eve@example.com",
		Password: "password123",
		Role:     "superuser",
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}

	for _, role := range model.AllRoles {
		user, err := env.userService.CreateUser(context.Background(), CreateUserRequest{
			Username: "user-" + role,
			Email:    "user-" + role + "@example.com",
			Password: "password123",
			Role:     role,
		})
		if err != nil {
			t.Fatalf("role %s: %v", role, err)
		}
		if user.Role != role {
			t.Errorf("role = %q, want %q", user.Role, role)
		}
	}
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", model.RoleStaff)

	_, err := env.userService.CreateUser(context.Background(), CreateUserRequest{
		Username: "alice",
		Email:    "new-alice@example.com",
		Password: "password123",
		Role:     model.RoleStaff,
	})
	if err == nil || err.Error() != "username already exists" {
		t.Errorf("duplicate username: error = %v", err)
	}

	_, err = env.userService.CreateUser(context.Background(), CreateUserRequest{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "password123",
		Role:     model.RoleStaff,
	})
	if err == nil || err.Error() != "email already exists" {
		t.Errorf("duplicate email: error = %v", err)
	}
}

func TestLoginAndRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", model.RoleStaff)

	tokens, err := env.userService.Login(context.Background(), LoginUserRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tokens.Token == "" || tokens.RefreshToken == "" {
		t.Fatal("expected both access and refresh tokens")
	}

	rotated, err := env.userService.RefreshToken(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh must rotate the token")
	}

	// The consumed token is no longer valid
	if _, err := env.userService.RefreshToken(context.Background(), tokens.RefreshToken); err == nil {
		t.Error("expected error for reused refresh token")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", model.RoleStaff)

	if _, err := env.userService.Login(context.Background(), LoginUserRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	}); err == nil {
		t.Error("expected error for wrong password")
	}
	if _, err := env.userService.Login(context.Background(), LoginUserRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	}); err == nil {
		t.Error("expected error for unknown email")
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", model.RoleStaff)

	tokens, err := env.userService.Login(context.Background(), LoginUserRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := env.userService.Logout(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := env.userService.RefreshToken(context.Background(), tokens.RefreshToken); err == nil {
		t.Error("expected error for revoked refresh token")
	}
}
