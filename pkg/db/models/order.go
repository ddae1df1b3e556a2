package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderportal-backend/pkg/enums"
	"github.com/angelmondragon/orderportal-backend/pkg/types"
)

// Order is a customer order placed for a delivery date.
type Order struct {
	ID           int64               `gorm:"column:order_id;primaryKey;autoIncrement"`
	UserID       int64               `gorm:"column:user_id;not null"`
	BranchID     *int64              `gorm:"column:branch_id"`
	TotalAmount  decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Subtotal     decimal.Decimal     `gorm:"column:subtotal;type:numeric(14,2);not null;default:0"`
	TaxAmount    decimal.Decimal     `gorm:"column:tax_amount;type:numeric(14,2);not null;default:0"`
	InvoiceTotal decimal.NullDecimal `gorm:"column:invoice_total;type:numeric(14,2)"`
	DeliveryDate *types.Date         `gorm:"column:delivery_date;type:date"`
	StatusID     enums.OrderStatus   `gorm:"column:status_id;not null;default:1"`
	Notes        *string             `gorm:"column:notes"`
	Details      []OrderDetail       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	// Read-only, filled when the query joins order_status.
	StatusName  string  `gorm:"column:status_name;->"`
	StatusColor *string `gorm:"column:status_color;->"`
}

func (Order) TableName() string { return "orders" }

// OrderDetail is a single product line owned by an order.
type OrderDetail struct {
	ID        int64           `gorm:"column:order_detail_id;primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"column:order_id;not null"`
	ProductID int64           `gorm:"column:product_id;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
}

func (OrderDetail) TableName() string { return "order_details" }
