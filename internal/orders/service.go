package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
	"github.com/angelmondragon/orderportal-backend/pkg/types"
)

const defaultCreationLookbackDays = 1

var defaultProductionDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// ServiceParams wires the order engine.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Settings SettingsProvider
	Location *time.Location
	// CreationLookbackDays bounds the production batch to orders created since
	// the start of that many production days ago. Zero means the default of one.
	CreationLookbackDays int
	// ProductionDays are the weekdays the batch runs on. Orders placed on the
	// days in between are carried to the next run. Empty means Monday to Friday.
	ProductionDays []time.Weekday
	Now            func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	settings SettingsProvider
	loc      *time.Location
	lookback int
	prodDays map[time.Weekday]bool
	now      func() time.Time
}

// NewService builds the order engine with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	lookback := params.CreationLookbackDays
	if lookback <= 0 {
		lookback = defaultCreationLookbackDays
	}
	days := params.ProductionDays
	if len(days) == 0 {
		days = defaultProductionDays
	}
	prodDays := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return nil, fmt.Errorf("invalid production day %d", d)
		}
		prodDays[d] = true
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		settings: params.Settings,
		loc:      loc,
		lookback: lookback,
		prodDays: prodDays,
		now:      now,
	}, nil
}

// windowStart returns midnight of the lookback-th production day before today.
// Orders placed after that day's cutoff, or on a day without a run, fall
// inside the window of the next run.
func (s *service) windowStart(today types.Date) time.Time {
	day := today
	for n := 0; n < s.lookback; {
		day = day.AddDays(-1)
		if s.prodDays[day.Time().Weekday()] {
			n++
		}
	}
	return day.In(s.loc)
}

func (s *service) localNow() time.Time {
	return s.now().In(s.loc)
}

// currentCutoff treats a missing or malformed setting as a server misconfiguration.
func (s *service) currentCutoff(ctx context.Context) (string, error) {
	raw, err := s.settings.GetOrderTimeLimit(ctx)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return "", err
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order time limit")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "order time limit not configured")
	}
	if _, err := ParseCutoff(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *service) DeliveryDateInfo(ctx context.Context) (*DeliveryDateInfo, error) {
	cutoff, err := s.currentCutoff(ctx)
	if err != nil {
		return nil, err
	}
	date, err := CalculateDeliveryDate(s.localNow(), cutoff)
	if err != nil {
		return nil, err
	}
	return &DeliveryDateInfo{DeliveryDate: date, OrderTimeLimit: cutoff}, nil
}

// checkDeliveryDate rejects requested dates earlier than the current minimum.
func (s *service) checkDeliveryDate(ctx context.Context, requested types.Date) error {
	cutoff, err := s.currentCutoff(ctx)
	if err != nil {
		return err
	}
	ok, minDate, err := IsDeliveryDateAcceptable(requested, s.localNow(), cutoff)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "La fecha de entrega es anterior a la fecha mínima permitida").
			WithDetails(map[string]any{
				"minDeliveryDate": minDate.String(),
				"orderTimeLimit":  cutoff,
			})
	}
	return nil
}

func validateCreateInput(input CreateOrderInput) error {
	if input.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user_id es requerido")
	}
	if len(input.Details) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "El pedido debe incluir al menos un detalle (no details)")
	}
	if !input.TotalAmount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "total_amount debe ser mayor a cero")
	}
	for i, d := range input.Details {
		if d.ProductID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details[%d].product_id es requerido", i))
		}
		if d.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details[%d].quantity debe ser mayor a cero", i))
		}
		if d.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details[%d].unit_price no puede ser negativo", i))
		}
	}
	if input.Status != nil && !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "status_id inválido")
	}
	return nil
}

func linesSubtotal(details []DetailInput) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range details {
		sum = sum.Add(d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity))))
	}
	return sum
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	var deliveryDate types.Date
	if input.DeliveryDate != nil && !input.DeliveryDate.IsZero() {
		if err := s.checkDeliveryDate(ctx, *input.DeliveryDate); err != nil {
			return nil, err
		}
		deliveryDate = *input.DeliveryDate
	} else {
		info, err := s.DeliveryDateInfo(ctx)
		if err != nil {
			return nil, err
		}
		deliveryDate = info.DeliveryDate
	}

	status := enums.OrderStatusOpen
	if input.Status != nil {
		status = *input.Status
	}

	subtotal := linesSubtotal(input.Details)
	if input.Subtotal != nil {
		subtotal = *input.Subtotal
	}
	tax := decimal.Max(input.TotalAmount.Sub(subtotal), decimal.Zero)
	if input.TaxAmount != nil {
		tax = *input.TaxAmount
	}

	// Stamped from the engine clock so the creation window and the delivery
	// date agree on when the order was placed.
	placedAt := s.now().UTC()
	order := &models.Order{
		CreatedAt:    placedAt,
		UpdatedAt:    placedAt,
		UserID:       input.UserID,
		BranchID:     input.BranchID,
		TotalAmount:  input.TotalAmount,
		Subtotal:     subtotal,
		TaxAmount:    tax,
		DeliveryDate: &deliveryDate,
		StatusID:     status,
		Notes:        input.Notes,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		details := make([]models.OrderDetail, 0, len(input.Details))
		for _, d := range input.Details {
			details = append(details, models.OrderDetail{
				OrderID:   order.ID,
				ProductID: d.ProductID,
				Quantity:  d.Quantity,
				UnitPrice: d.UnitPrice,
			})
		}
		if err := repo.CreateOrderDetails(ctx, details); err != nil {
			return fmt.Errorf("insert order details: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderCreation, err, "Error al crear el pedido")
	}

	return &CreateOrderResult{
		OrderID:      order.ID,
		DetailsCount: len(input.Details),
		DeliveryDate: deliveryDate,
		StatusID:     status,
	}, nil
}

// UpdatePendingOrdersStatus runs both batch buckets in one transaction.
// Expired open orders are cancelled first so they never reach production.
func (s *service) UpdatePendingOrdersStatus(ctx context.Context, cutoff string, opts StatusUpdateOptions) (*StatusUpdateResult, error) {
	c, err := ParseCutoff(strings.TrimSpace(cutoff))
	if err != nil {
		return nil, err
	}

	now := s.localNow()
	today := types.NewDate(now)

	effective := c.LastPassed(now)
	if opts.IgnoreTimeLimit {
		effective = now
	}
	window := CreationWindow{Until: effective}
	if !opts.ignoreCreationWindow() {
		from := s.windowStart(today)
		window.From = &from
	}

	result := &StatusUpdateResult{
		UpdatedIDs:      []int64{},
		CancelledIDs:    []int64{},
		EffectiveCutoff: effective,
		OrderTimeLimit:  c.String(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cancelled, err := repo.CancelExpiredOpenOrders(ctx, today, now)
		if err != nil {
			return fmt.Errorf("cancel expired orders: %w", err)
		}
		updated, err := repo.PromoteOpenOrders(ctx, window, today, now)
		if err != nil {
			return fmt.Errorf("promote open orders: %w", err)
		}
		result.CancelledIDs = sortedIDs(cancelled)
		result.UpdatedIDs = sortedIDs(updated)
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pending orders")
	}

	result.CancelledCount = len(result.CancelledIDs)
	result.UpdatedCount = len(result.UpdatedIDs)
	return result, nil
}

func sortedIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *service) loadOrder(ctx context.Context, repo Repository, actor Actor, orderID int64) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Pedido no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !CanAccessOrder(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "No tiene permisos sobre este pedido")
	}
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, actor Actor, orderID int64) (*OrderView, error) {
	order, err := s.loadOrder(ctx, s.repo, actor, orderID)
	if err != nil {
		return nil, err
	}
	return toView(*order), nil
}

func (s *service) ListUserOrders(ctx context.Context, actor Actor, userID int64, status *enums.OrderStatus) ([]OrderSummary, error) {
	if !CanAccessUser(actor, userID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "No tiene permisos para ver estos pedidos")
	}
	rows, err := s.repo.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user orders")
	}
	return toSummaries(rows), nil
}

// ListByDeliveryDate scopes non-admin callers to their own orders.
func (s *service) ListByDeliveryDate(ctx context.Context, actor Actor, date types.Date, status *enums.OrderStatus) ([]OrderSummary, error) {
	if date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deliveryDate es requerido")
	}
	filter := DeliveryDateFilter{Date: date, Status: status}
	if !actor.IsAdmin() {
		uid := actor.UserID
		filter.UserID = &uid
	}
	rows, err := s.repo.ListByDeliveryDate(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders by delivery date")
	}
	return toSummaries(rows), nil
}

func (s *service) UpdateOrder(ctx context.Context, input UpdateOrderInput) (*OrderView, error) {
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No hay campos para actualizar")
	}
	actor := input.Actor
	if input.InvoiceTotal != nil && !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Solo un administrador puede registrar el total facturado")
	}
	if input.InvoiceTotal != nil && input.InvoiceTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice_total no puede ser negativo")
	}

	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, actor, input.OrderID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && order.StatusID != enums.OrderStatusOpen {
			return pkgerrors.New(pkgerrors.CodeValidation, "Solo se pueden modificar pedidos abiertos")
		}

		updates := map[string]any{}
		if input.DeliveryDate != nil && !input.DeliveryDate.IsZero() &&
			(order.DeliveryDate == nil || !order.DeliveryDate.Equal(*input.DeliveryDate)) {
			if err := s.checkDeliveryDate(ctx, *input.DeliveryDate); err != nil {
				return err
			}
			updates["delivery_date"] = *input.DeliveryDate
		}
		if input.Status != nil && *input.Status != order.StatusID {
			next := *input.Status
			if !actor.IsAdmin() && next != enums.OrderStatusCancelled {
				return pkgerrors.New(pkgerrors.CodeForbidden, "Solo puede cancelar su pedido")
			}
			if !order.StatusID.CanTransitionTo(next) {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("Transición de estado no permitida: %s a %s", order.StatusID, next)).
					WithDetails(map[string]any{"allowed": order.StatusID.NextStatuses()})
			}
			updates["status_id"] = next
		}
		if input.InvoiceTotal != nil {
			updates["invoice_total"] = decimal.NewNullDecimal(*input.InvoiceTotal)
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}

		if len(updates) > 0 {
			if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
			}
		}
		reloaded, err := repo.FindOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		view = toView(*reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// CancelOrder rejects orders whose status has no edge to Cancelled. Non-admins
// may only cancel open orders.
func (s *service) CancelOrder(ctx context.Context, actor Actor, orderID int64) (*OrderView, error) {
	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		if !order.StatusID.CanTransitionTo(enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("El pedido no puede ser cancelado en estado %s", order.StatusID))
		}
		if !actor.IsAdmin() && order.StatusID != enums.OrderStatusOpen {
			return pkgerrors.New(pkgerrors.CodeValidation, "Solo se pueden cancelar pedidos abiertos")
		}

		ok, err := repo.TransitionStatus(ctx, order.ID, order.StatusID, enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "El pedido cambió de estado, intente de nuevo")
		}

		reloaded, err := repo.FindOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		view = toView(*reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
