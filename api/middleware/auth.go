package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/orderportal-backend/api/responses"
	"github.com/angelmondragon/orderportal-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/orderportal-backend/pkg/auth"
	"github.com/angelmondragon/orderportal-backend/pkg/auth/session"
	"github.com/angelmondragon/orderportal-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
	"github.com/angelmondragon/orderportal-backend/pkg/logger"
)

// Auth resolves the bearer token into an orders.Actor. The token must verify
// and its session (keyed by jti) must still exist, so logout takes effect
// before the JWT expires.
func Auth(cfg config.JWTConfig, verifier session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r)
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Token de acceso requerido"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Token inválido o expirado"))
				return
			}

			if verifier != nil {
				live, err := verifier.HasSession(ctx, claims.ID)
				switch {
				case err != nil:
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				case !live:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Sesión expirada"))
					return
				}
			}

			actor := orders.Actor{UserID: claims.UserID, Role: claims.Role, BranchID: claims.BranchID}
			ctx = WithActor(ctx, actor, claims.ID)
			ctx = logg.WithUserID(ctx, actor.UserID)
			ctx = logg.WithField(ctx, "actor_role", string(actor.Role))
			if actor.BranchID != nil {
				ctx = logg.WithField(ctx, "branch_id", *actor.BranchID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credentials of an "Authorization: Bearer" header.
// Other schemes are treated as missing.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
