package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
	"github.com/angelmondragon/orderportal-backend/pkg/types"
)

// DetailInput is one requested line item.
type DetailInput struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateOrderInput carries an already authorized create request.
type CreateOrderInput struct {
	UserID       int64
	BranchID     *int64
	TotalAmount  decimal.Decimal
	Subtotal     *decimal.Decimal
	TaxAmount    *decimal.Decimal
	Details      []DetailInput
	DeliveryDate *types.Date
	Status       *enums.OrderStatus
	Notes        *string
}

type CreateOrderResult struct {
	OrderID      int64             `json:"order_id"`
	DetailsCount int               `json:"details_count"`
	DeliveryDate types.Date        `json:"delivery_date"`
	StatusID     enums.OrderStatus `json:"status_id"`
}

// StatusUpdateOptions are administrative overrides for the batch transition.
// IgnoreDeliveryDate is accepted as an alias of IgnoreCreationDate.
type StatusUpdateOptions struct {
	IgnoreTimeLimit    bool
	IgnoreCreationDate bool
	IgnoreDeliveryDate bool
}

func (o StatusUpdateOptions) ignoreCreationWindow() bool {
	return o.IgnoreCreationDate || o.IgnoreDeliveryDate
}

type StatusUpdateResult struct {
	UpdatedCount    int       `json:"updatedCount"`
	CancelledCount  int       `json:"cancelledCount"`
	UpdatedIDs      []int64   `json:"updatedIds"`
	CancelledIDs    []int64   `json:"cancelledIds"`
	EffectiveCutoff time.Time `json:"effectiveCutoff"`
	OrderTimeLimit  string    `json:"orderTimeLimit"`
}

// CreationWindow bounds the created_at of orders eligible for production.
// A nil From means no lower bound.
type CreationWindow struct {
	From  *time.Time
	Until time.Time
}

// DeliveryDateFilter narrows the by-delivery-date listing.
type DeliveryDateFilter struct {
	Date   types.Date
	Status *enums.OrderStatus
	UserID *int64
}

type DeliveryDateInfo struct {
	DeliveryDate   types.Date `json:"deliveryDate"`
	OrderTimeLimit string     `json:"orderTimeLimit"`
}

// UpdateOrderInput is a partial update. Nil fields are left untouched.
type UpdateOrderInput struct {
	Actor        Actor
	OrderID      int64
	DeliveryDate *types.Date
	Status       *enums.OrderStatus
	InvoiceTotal *decimal.Decimal
	Notes        *string
}

func (in UpdateOrderInput) empty() bool {
	return in.DeliveryDate == nil && in.Status == nil && in.InvoiceTotal == nil && in.Notes == nil
}

type DetailView struct {
	OrderDetailID int64           `json:"order_detail_id"`
	ProductID     int64           `json:"product_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

type OrderSummary struct {
	OrderID      int64               `json:"order_id"`
	UserID       int64               `json:"user_id"`
	BranchID     *int64              `json:"branch_id,omitempty"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	TaxAmount    decimal.Decimal     `json:"tax_amount"`
	InvoiceTotal decimal.NullDecimal `json:"invoice_total"`
	DeliveryDate *types.Date         `json:"delivery_date"`
	StatusID     enums.OrderStatus   `json:"status_id"`
	StatusName   string              `json:"status_name"`
	StatusColor  *string             `json:"status_color,omitempty"`
	Notes        *string             `json:"notes,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type OrderView struct {
	OrderSummary
	Details []DetailView `json:"details"`
}

func toSummary(o models.Order) OrderSummary {
	s := OrderSummary{
		OrderID:      o.ID,
		UserID:       o.UserID,
		BranchID:     o.BranchID,
		TotalAmount:  o.TotalAmount,
		Subtotal:     o.Subtotal,
		TaxAmount:    o.TaxAmount,
		InvoiceTotal: o.InvoiceTotal,
		DeliveryDate: o.DeliveryDate,
		StatusID:     o.StatusID,
		StatusName:   o.StatusName,
		StatusColor:  o.StatusColor,
		Notes:        o.Notes,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	if s.StatusName == "" {
		s.StatusName = o.StatusID.String()
	}
	return s
}

func toView(o models.Order) *OrderView {
	view := &OrderView{OrderSummary: toSummary(o), Details: make([]DetailView, 0, len(o.Details))}
	for _, d := range o.Details {
		view.Details = append(view.Details, DetailView{
			OrderDetailID: d.ID,
			ProductID:     d.ProductID,
			Quantity:      d.Quantity,
			UnitPrice:     d.UnitPrice,
			LineTotal:     d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity))),
		})
	}
	return view
}

func toSummaries(rows []models.Order) []OrderSummary {
	out := make([]OrderSummary, 0, len(rows))
	for _, o := range rows {
		out = append(out, toSummary(o))
	}
	return out
}
