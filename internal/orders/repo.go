package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
	"github.com/angelmondragon/orderportal-backend/pkg/types"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Details").Create(order).Error
}

// withStatus selects orders joined with their status display columns.
func (r *repository) withStatus(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("orders.*, order_status.status_name, order_status.status_color").
		Joins("JOIN order_status ON order_status.status_id = orders.status_id")
}

// CreateOrderDetails inserts every detail in a single multi-row INSERT.
func (r *repository) CreateOrderDetails(ctx context.Context, details []models.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&details).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.withStatus(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_detail_id ASC")
		}).
		Where("orders.order_id = ?", orderID).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64, status *enums.OrderStatus) ([]models.Order, error) {
	q := r.withStatus(ctx).Where("orders.user_id = ?", userID)
	if status != nil {
		q = q.Where("orders.status_id = ?", *status)
	}
	var rows []models.Order
	if err := q.Order("orders.created_at DESC").Order("orders.order_id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByDeliveryDate(ctx context.Context, filter DeliveryDateFilter) ([]models.Order, error) {
	q := r.withStatus(ctx).Where("orders.delivery_date = ?", filter.Date)
	if filter.Status != nil {
		q = q.Where("orders.status_id = ?", *filter.Status)
	}
	if filter.UserID != nil {
		q = q.Where("orders.user_id = ?", *filter.UserID)
	}
	var rows []models.Order
	if err := q.Order("orders.order_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID int64, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}

// TransitionStatus moves an order from one status to another only if it is
// still in from. It reports false when another writer got there first.
func (r *repository) TransitionStatus(ctx context.Context, orderID int64, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ? AND status_id = ?", orderID, from).
		Updates(map[string]any{"status_id": to})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

const cancelExpiredSQL = `
UPDATE orders
SET status_id = ?, updated_at = ?
WHERE status_id = ?
  AND delivery_date IS NOT NULL
  AND delivery_date < ?
RETURNING order_id`

// CancelExpiredOpenOrders cancels every open order whose delivery date is before today.
func (r *repository) CancelExpiredOpenOrders(ctx context.Context, today types.Date, now time.Time) ([]int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).
		Raw(cancelExpiredSQL, enums.OrderStatusCancelled, now.UTC(), enums.OrderStatusOpen, today).
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// PromoteOpenOrders moves open, non-expired orders created inside window to production.
func (r *repository) PromoteOpenOrders(ctx context.Context, window CreationWindow, today types.Date, now time.Time) ([]int64, error) {
	query := `
UPDATE orders
SET status_id = ?, updated_at = ?
WHERE status_id = ?
  AND (delivery_date IS NULL OR delivery_date >= ?)
  AND created_at <= ?`
	args := []any{enums.OrderStatusInProduction, now.UTC(), enums.OrderStatusOpen, today, window.Until.UTC()}
	if window.From != nil {
		query += "\n  AND created_at >= ?"
		args = append(args, window.From.UTC())
	}
	query += "\nRETURNING order_id"

	ids := []int64{}
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
