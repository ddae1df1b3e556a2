package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/orderportal-backend/pkg/config"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
)

var testCfg = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "orderportal",
	ExpirationMinutes: 30,
}

func TestMintAndParseAccessToken(t *testing.T) {
	now := time.Now().UTC()
	branch := int64(3)

	token, err := MintAccessToken(testCfg, now, AccessTokenPayload{
		UserID:   42,
		Role:     enums.UserRoleBranch,
		BranchID: &branch,
		JTI:      "session-1",
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(testCfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != 42 || claims.Subject != "42" {
		t.Fatalf("unexpected subject %d/%s", claims.UserID, claims.Subject)
	}
	if claims.Role != enums.UserRoleBranch {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.BranchID == nil || *claims.BranchID != branch {
		t.Fatal("branch id not preserved")
	}
	if claims.ID != "session-1" {
		t.Fatalf("unexpected jti %s", claims.ID)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 30*time.Minute {
		t.Fatalf("unexpected ttl %s", got)
	}
}

func TestMintGeneratesJTI(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: 1, Role: enums.UserRoleCustomer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := ParseAccessToken(testCfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestMintValidatesPayload(t *testing.T) {
	if _, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{Role: enums.UserRoleAdmin}); err == nil {
		t.Fatal("expected error for missing user id")
	}
	if _, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: 1, Role: "boss"}); err == nil {
		t.Fatal("expected error for invalid role")
	}
	if _, err := MintAccessToken(config.JWTConfig{Secret: "s", Issuer: "i"}, time.Now(), AccessTokenPayload{UserID: 1, Role: enums.UserRoleAdmin}); err == nil {
		t.Fatal("expected error for zero expiration")
	}
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	expired, err := MintAccessToken(testCfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: 1, Role: enums.UserRoleAdmin})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testCfg, expired); err == nil {
		t.Fatal("expected expired token to fail")
	}

	other := testCfg
	other.Issuer = "someone-else"
	foreign, err := MintAccessToken(other, time.Now(), AccessTokenPayload{UserID: 1, Role: enums.UserRoleAdmin})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testCfg, foreign); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := ParseAccessToken(testCfg, unsigned); err == nil {
		t.Fatal("expected unsigned token to fail")
	}

	if _, err := ParseAccessToken(testCfg, strings.Repeat("x", 10)); err == nil {
		t.Fatal("expected garbage token to fail")
	}
}
