package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/orderportal-backend/pkg/enums"
)

// AccessTokenPayload is what the login flow knows when minting a JWT.
type AccessTokenPayload struct {
	UserID   int64
	Role     enums.UserRole
	BranchID *int64
	JTI      string
}

// AccessTokenClaims is the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   int64          `json:"user_id"`
	Role     enums.UserRole `json:"role"`
	BranchID *int64         `json:"branch_id,omitempty"`
	jwt.RegisteredClaims
}
