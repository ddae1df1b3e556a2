package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/orderportal-backend/pkg/auth"
	"github.com/angelmondragon/orderportal-backend/pkg/config"
	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
	"github.com/angelmondragon/orderportal-backend/pkg/security"
)

var jwtCfg = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "orderportal",
	ExpirationMinutes: 30,
}

func TestServiceLoginMintsTokenAndSession(t *testing.T) {
	branch := int64(7)
	user := &models.User{
		ID:           11,
		Email:        "sucursal@example.com",
		PasswordHash: mustHashPassword(t, "sucursal-secret"),
		Role:         enums.UserRoleBranch,
		BranchID:     &branch,
		IsActive:     true,
	}
	now := time.Date(2024, 3, 5, 16, 0, 0, 0, time.UTC)
	svc, sessions, repo := buildTestService(t, user, now)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " Sucursal@Example.com ", Password: "sucursal-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if repo.lookedUp != "sucursal@example.com" {
		t.Fatalf("expected normalized email lookup, got %q", repo.lookedUp)
	}

	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if len(sessions.started) != 1 || sessions.started[0].userID != 11 {
		t.Fatalf("expected one session for user 11, got %+v", sessions.started)
	}
	if resp.TokenType != "Bearer" || !resp.ExpiresAt.Equal(now.Add(30*time.Minute)) {
		t.Fatalf("unexpected token metadata %+v", resp)
	}
	if resp.User.ID != 11 || resp.User.LastLoginAt == nil || !resp.User.LastLoginAt.Equal(now) {
		t.Fatalf("unexpected user payload %+v", resp.User)
	}
}

func TestServiceLoginClaimsCarryIdentity(t *testing.T) {
	user := &models.User{
		ID:           5,
		Email:        "admin@example.com",
		PasswordHash: mustHashPassword(t, "admin-secret"),
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
	svc, sessions, _ := buildTestService(t, user, time.Now())

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "admin-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(jwtCfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != 5 || claims.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID != sessions.started[0].tokenID {
		t.Fatal("session must be keyed by the token id")
	}
}

func TestServiceLoginFailures(t *testing.T) {
	hash := mustHashPassword(t, "right")
	cases := []struct {
		name string
		user *models.User
		err  error
		req  LoginRequest
		code pkgerrors.Code
	}{
		{"blank email", nil, nil, LoginRequest{Password: "x"}, pkgerrors.CodeUnauthorized},
		{"unknown user", nil, gorm.ErrRecordNotFound, LoginRequest{Email: "a@b.c", Password: "x"}, pkgerrors.CodeUnauthorized},
		{"lookup failure", nil, errors.New("db down"), LoginRequest{Email: "a@b.c", Password: "x"}, pkgerrors.CodeInternal},
		{"wrong password", &models.User{ID: 1, PasswordHash: hash, Role: enums.UserRoleCustomer, IsActive: true}, nil, LoginRequest{Email: "a@b.c", Password: "wrong"}, pkgerrors.CodeUnauthorized},
		{"corrupt hash", &models.User{ID: 1, PasswordHash: "plain", Role: enums.UserRoleCustomer, IsActive: true}, nil, LoginRequest{Email: "a@b.c", Password: "right"}, pkgerrors.CodeUnauthorized},
		{"inactive", &models.User{ID: 1, PasswordHash: hash, Role: enums.UserRoleCustomer}, nil, LoginRequest{Email: "a@b.c", Password: "right"}, pkgerrors.CodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, sessions, repo := buildTestService(t, tc.user, time.Now())
			repo.err = tc.err
			_, err := svc.Login(context.Background(), tc.req)
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if len(sessions.started) != 0 {
				t.Fatal("failed logins must not start sessions")
			}
		})
	}
}

func TestServiceLogout(t *testing.T) {
	svc, sessions, _ := buildTestService(t, nil, time.Now())
	ctx := context.Background()

	if err := svc.Logout(ctx, "token-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "token-1" {
		t.Fatalf("expected token-1 revoked, got %v", sessions.revoked)
	}
	if err := svc.Logout(ctx, ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for blank token id, got %v", err)
	}

	sessions.err = errors.New("redis down")
	if err := svc.Logout(ctx, "token-2"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func buildTestService(t *testing.T, user *models.User, now time.Time) (Service, *stubSessionManager, *stubUserRepo) {
	t.Helper()
	repo := &stubUserRepo{user: user}
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      jwtCfg,
		Now:            func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions, repo
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user     *models.User
	err      error
	lookedUp string
	rehashed []string
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.lookedUp = email
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	s.rehashed = append(s.rehashed, hash)
	return nil
}

type startedSession struct {
	tokenID string
	userID  int64
}

type stubSessionManager struct {
	started []startedSession
	revoked []string
	err     error
}

func (s *stubSessionManager) Start(_ context.Context, tokenID string, userID int64) error {
	s.started = append(s.started, startedSession{tokenID: tokenID, userID: userID})
	return s.err
}

func (s *stubSessionManager) Revoke(_ context.Context, tokenID string) error {
	if s.err != nil {
		return s.err
	}
	s.revoked = append(s.revoked, tokenID)
	return nil
}

func TestServiceLoginUpgradesWeakHash(t *testing.T) {
	user := &models.User{
		ID:           3,
		Email:        "cliente@example.com",
		PasswordHash: mustHashPassword(t, "cliente-secret"),
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	repo := &stubUserRepo{user: user}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: &stubSessionManager{},
		JWTConfig:      jwtCfg,
		Password:       config.PasswordConfig{ArgonMemoryKB: 16384, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "cliente-secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(repo.rehashed) != 1 {
		t.Fatalf("expected one rehash, got %d", len(repo.rehashed))
	}
	ok, err := security.VerifyPassword("cliente-secret", repo.rehashed[0])
	if err != nil || !ok {
		t.Fatalf("rehashed password must verify, ok=%v err=%v", ok, err)
	}
	if security.NeedsRehash(repo.rehashed[0], config.PasswordConfig{ArgonMemoryKB: 16384, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}) {
		t.Fatal("new hash should satisfy the configured costs")
	}
}
