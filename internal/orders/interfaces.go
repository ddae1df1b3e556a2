package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
	"github.com/angelmondragon/orderportal-backend/pkg/types"
	"gorm.io/gorm"
)

// SettingsProvider supplies the admin-configured cutoff ("HH:MM").
type SettingsProvider interface {
	GetOrderTimeLimit(ctx context.Context) (string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Repository defines persistence operations for orders and their details.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderDetails(ctx context.Context, details []models.OrderDetail) error
	FindOrder(ctx context.Context, orderID int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64, status *enums.OrderStatus) ([]models.Order, error)
	ListByDeliveryDate(ctx context.Context, filter DeliveryDateFilter) ([]models.Order, error)
	UpdateOrder(ctx context.Context, orderID int64, updates map[string]any) error
	TransitionStatus(ctx context.Context, orderID int64, from, to enums.OrderStatus) (bool, error)
	CancelExpiredOpenOrders(ctx context.Context, today types.Date, now time.Time) ([]int64, error)
	PromoteOpenOrders(ctx context.Context, window CreationWindow, today types.Date, now time.Time) ([]int64, error)
}

// Service is the order engine used by the HTTP layer and the scheduler.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	UpdatePendingOrdersStatus(ctx context.Context, cutoff string, opts StatusUpdateOptions) (*StatusUpdateResult, error)
	DeliveryDateInfo(ctx context.Context) (*DeliveryDateInfo, error)
	GetOrder(ctx context.Context, actor Actor, orderID int64) (*OrderView, error)
	ListUserOrders(ctx context.Context, actor Actor, userID int64, status *enums.OrderStatus) ([]OrderSummary, error)
	ListByDeliveryDate(ctx context.Context, actor Actor, date types.Date, status *enums.OrderStatus) ([]OrderSummary, error)
	UpdateOrder(ctx context.Context, input UpdateOrderInput) (*OrderView, error)
	CancelOrder(ctx context.Context, actor Actor, orderID int64) (*OrderView, error)
}
