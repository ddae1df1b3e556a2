package orders

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderportal-backend/api/middleware"
	"github.com/angelmondragon/orderportal-backend/api/responses"
	"github.com/angelmondragon/orderportal-backend/api/validators"
	internalorders "github.com/angelmondragon/orderportal-backend/internal/orders"
	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
	"github.com/angelmondragon/orderportal-backend/pkg/logger"
	"github.com/angelmondragon/orderportal-backend/pkg/types"
)

type userLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// StatusRunner runs the batch status update on demand.
type StatusRunner interface {
	RunStatusUpdate(ctx context.Context, opts internalorders.StatusUpdateOptions) (*internalorders.StatusUpdateResult, error)
}

type detailRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createOrderRequest struct {
	UserID       int64              `json:"user_id" validate:"required,gt=0"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	Subtotal     *decimal.Decimal   `json:"subtotal"`
	TaxAmount    *decimal.Decimal   `json:"tax_amount"`
	Details      []detailRequest    `json:"details" validate:"dive"`
	DeliveryDate *types.Date        `json:"delivery_date"`
	StatusID     *enums.OrderStatus `json:"status_id"`
	Notes        *string            `json:"notes" validate:"omitempty,max=1000"`
}

type updateOrderRequest struct {
	DeliveryDate *types.Date        `json:"delivery_date"`
	StatusID     *enums.OrderStatus `json:"status_id"`
	InvoiceTotal *decimal.Decimal   `json:"invoice_total"`
	Notes        *string            `json:"notes" validate:"omitempty,max=1000"`
}

type processPendingRequest struct {
	IgnoreTimeLimit    bool `json:"ignoreTimeLimit"`
	IgnoreCreationDate bool `json:"ignoreCreationDate"`
	IgnoreDeliveryDate bool `json:"ignoreDeliveryDate"`
}

func actorOrUnauthorized(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (internalorders.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Token de acceso requerido"))
		return internalorders.Actor{}, false
	}
	return actor, true
}

// Create places an order for an active user the caller may order for.
func Create(svc internalorders.Service, users userLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || users == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, ok := actorOrUnauthorized(w, r, logg)
		if !ok {
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.StatusID != nil && !actor.IsAdmin() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Solo un administrador puede asignar el estado inicial"))
			return
		}

		user, err := users.FindByID(r.Context(), body.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "Usuario no encontrado"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user"))
			return
		}
		if !user.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Usuario inactivo"))
			return
		}
		if !internalorders.CanOrderFor(actor, user) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "No puede crear pedidos para este usuario"))
			return
		}

		input := internalorders.CreateOrderInput{
			UserID:       user.ID,
			BranchID:     user.BranchID,
			TotalAmount:  body.TotalAmount,
			Subtotal:     body.Subtotal,
			TaxAmount:    body.TaxAmount,
			DeliveryDate: body.DeliveryDate,
			Status:       body.StatusID,
			Notes:        body.Notes,
			Details:      make([]internalorders.DetailInput, 0, len(body.Details)),
		}
		for _, d := range body.Details {
			input.Details = append(input.Details, internalorders.DetailInput{
				ProductID: d.ProductID,
				Quantity:  d.Quantity,
				UnitPrice: d.UnitPrice,
			})
		}

		result, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithOrderID(r.Context(), result.OrderID)
			ctx = logg.WithFields(ctx, map[string]any{
				"owner_id":      user.ID,
				"details_count": result.DetailsCount,
				"delivery_date": result.DeliveryDate.String(),
			})
			logg.Info(ctx, "orders.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// DeliveryDate reports the earliest date a new order can be delivered.
func DeliveryDate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		info, err := svc.DeliveryDateInfo(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

// ByDeliveryDate lists orders for ?deliveryDate=YYYY-MM-DD, optionally by ?statusId.
func ByDeliveryDate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, ok := actorOrUnauthorized(w, r, logg)
		if !ok {
			return
		}
		date, err := validators.ParseQueryDate(r, "deliveryDate")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryStatus(r, "statusId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByDeliveryDate(r.Context(), actor, date, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListByUser returns a user's orders to that user or an admin.
func ListByUser(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, ok := actorOrUnauthorized(w, r, logg)
		if !ok {
			return
		}
		userID, err := validators.ParseIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryStatus(r, "statusId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListUserOrders(r.Context(), actor, userID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, ok := actorOrUnauthorized(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetOrder(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Update applies a partial change. Delivery date and status rules live in the engine.
func Update(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, ok := actorOrUnauthorized(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateOrder(r.Context(), internalorders.UpdateOrderInput{
			Actor:        actor,
			OrderID:      orderID,
			DeliveryDate: body.DeliveryDate,
			Status:       body.StatusID,
			InvoiceTotal: body.InvoiceTotal,
			Notes:        body.Notes,
		})
		if err != nil {
			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithOrderID(ctx, orderID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, ok := actorOrUnauthorized(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}
		view, err := svc.CancelOrder(ctx, actor, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(ctx, "orders.cancelled")
		}
		responses.WriteSuccess(w, view)
	}
}

// ProcessPending runs the batch status update immediately. Admin only; the
// router enforces the role. An empty body runs with no overrides.
func ProcessPending(runner StatusRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scheduler unavailable"))
			return
		}

		var body processPendingRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOperation(ctx, "orders.process_pending")
		}
		result, err := runner.RunStatusUpdate(ctx, internalorders.StatusUpdateOptions{
			IgnoreTimeLimit:    body.IgnoreTimeLimit,
			IgnoreCreationDate: body.IgnoreCreationDate,
			IgnoreDeliveryDate: body.IgnoreDeliveryDate,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
