package auth

import (
	"net/http"

	"github.com/angelmondragon/orderportal-backend/api/middleware"
	"github.com/angelmondragon/orderportal-backend/api/responses"
	"github.com/angelmondragon/orderportal-backend/api/validators"
	"github.com/angelmondragon/orderportal-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
	"github.com/angelmondragon/orderportal-backend/pkg/logger"
)

const tokenHeader = "X-Access-Token"

// Login exchanges credentials for an access token and a server-side session.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil && result.User != nil {
			ctx := logg.WithUserID(r.Context(), result.User.ID)
			logg.Info(ctx, "auth.login")
		}
		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// Logout revokes the session behind the token that authenticated the request.
func Logout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		if err := svc.Logout(r.Context(), middleware.TokenIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
