package settings

import (
	"context"
	"net/http"

	"github.com/angelmondragon/orderportal-backend/api/responses"
	"github.com/angelmondragon/orderportal-backend/api/validators"
	internalsettings "github.com/angelmondragon/orderportal-backend/internal/settings"
	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
	"github.com/angelmondragon/orderportal-backend/pkg/logger"
)

// Rescheduler moves the status job trigger after the cutoff changes.
type Rescheduler interface {
	UpdateTaskSettings(ctx context.Context, cutoff string) error
}

type updateSettingsRequest struct {
	OrderTimeLimit     *string `json:"orderTimeLimit"`
	HomeBannerImageURL *string `json:"homeBannerImageUrl" validate:"omitempty,max=2048"`
}

func Get(svc internalsettings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		view, err := svc.GetSettings(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Update persists the change and, when the cutoff moved, reschedules this
// replica right away. Other replicas converge through the settings sync loop.
func Update(svc internalsettings.Service, scheduler Rescheduler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		var body updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateSettings(r.Context(), internalsettings.Changes{
			OrderTimeLimit:     body.OrderTimeLimit,
			HomeBannerImageURL: body.HomeBannerImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithField(ctx, "order_time_limit", view.OrderTimeLimit)
			logg.Info(ctx, "settings.updated")
		}

		if body.OrderTimeLimit != nil && scheduler != nil {
			if err := scheduler.UpdateTaskSettings(ctx, view.OrderTimeLimit); err != nil && logg != nil {
				logg.Error(ctx, "settings.reschedule_failed", err)
			}
		}

		responses.WriteSuccess(w, view)
	}
}
