package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/config"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

type fakeAuthRepo struct {
	tokens map[string]*ports.RefreshToken
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{tokens: make(map[string]*ports.RefreshToken)}
}

func (r *fakeAuthRepo) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	r.tokens[tokenHash] = &ports.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *fakeAuthRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*ports.RefreshToken, error) {
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return t, nil
}

func (r *fakeAuthRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	if t, ok := r.tokens[tokenHash]; ok {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (r *fakeAuthRepo) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func newAuthService() (*AuthService, *fakeUserRepo, *fakeAuthRepo) {
	users := newFakeUserRepo()
	tokens := newFakeAuthRepo()
	cfg := config.JWTConfig{
		Secret:           "test-secret-at-least-32-characters",
		ExpiresIn:        15 * time.Minute,
		RefreshExpiresIn: 24 * time.Hour,
		Issuer:           "teamflow-test",
	}
	return NewAuthService(users, tokens, cfg, logger.NewNop()), users, tokens
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, ports.SignUpRequest{
		Email:       "dev@example.com",
		Password:    "hunter2hunter2",
		DisplayName: "Dev",
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("SignUp() returned empty tokens")
	}
	if resp.User.PasswordHash != "" {
		t.Error("SignUp() response leaks the password hash")
	}

	// The issued token validates and identifies the user.
	claims, err := svc.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != resp.User.ID.String() {
		t.Errorf("claims user = %q, want %q", claims.UserID, resp.User.ID)
	}

	// Signing in with the right password works, wrong password does not.
	if _, err := svc.SignIn(ctx, ports.SignInRequest{Email: "dev@example.com", Password: "hunter2hunter2"}); err != nil {
		t.Errorf("SignIn() error = %v", err)
	}
	_, err = svc.SignIn(ctx, ports.SignInRequest{Email: "dev@example.com", Password: "wrong"})
	if !errors.Is(err, entities.ErrForbidden) {
		t.Errorf("SignIn(bad password) error = %v, want ErrForbidden", err)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()
	req := ports.SignUpRequest{Email: "dup@example.com", Password: "hunter2hunter2", DisplayName: "Dup"}

	if _, err := svc.SignUp(ctx, req); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	_, err := svc.SignUp(ctx, req)
	if !errors.Is(err, entities.ErrConflict) {
		t.Errorf("second SignUp() error = %v, want ErrConflict", err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, ports.SignUpRequest{Email: "r@example.com", Password: "hunter2hunter2", DisplayName: "R"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	rotated, err := svc.RefreshToken(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if rotated.RefreshToken == resp.RefreshToken {
		t.Error("RefreshToken() did not rotate the refresh token")
	}

	// The old token was revoked by the rotation.
	if _, err := svc.RefreshToken(ctx, resp.RefreshToken); err == nil {
		t.Error("RefreshToken() accepted a revoked token")
	}
}

func TestSignOutRevokesTokens(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, ports.SignUpRequest{Email: "s@example.com", Password: "hunter2hunter2", DisplayName: "S"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if err := svc.SignOut(ctx, resp.User.ID); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if _, err := svc.RefreshToken(ctx, resp.RefreshToken); err == nil {
		t.Error("RefreshToken() accepted a token after sign-out")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthService()
	if _, err := svc.ValidateToken("not-a-jwt"); err == nil {
		t.Error("ValidateToken() accepted garbage")
	}
}
