package middleware

import (
	"context"

	"github.com/angelmondragon/orderportal-backend/internal/orders"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxBranchID contextKey = "branch_id"
	ctxTokenID  contextKey = "token_id"
)

func UserIDFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	v, ok := ctx.Value(ctxUserID).(int64)
	return v, ok && v > 0
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.UserRole); ok {
		return v
	}
	return ""
}

func BranchIDFromContext(ctx context.Context) *int64 {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxBranchID).(int64); ok {
		return &v
	}
	return nil
}

// TokenIDFromContext returns the jti of the token that authenticated the request.
func TokenIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTokenID).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext builds the principal the order services authorize against.
func ActorFromContext(ctx context.Context) (orders.Actor, bool) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return orders.Actor{}, false
	}
	return orders.Actor{
		UserID:   userID,
		Role:     RoleFromContext(ctx),
		BranchID: BranchIDFromContext(ctx),
	}, true
}

// WithActor injects an authenticated principal. Tests and the auth middleware use it.
func WithActor(ctx context.Context, actor orders.Actor, tokenID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID)
	ctx = context.WithValue(ctx, ctxRole, actor.Role)
	if actor.BranchID != nil {
		ctx = context.WithValue(ctx, ctxBranchID, *actor.BranchID)
	}
	if tokenID != "" {
		ctx = context.WithValue(ctx, ctxTokenID, tokenID)
	}
	return ctx
}
