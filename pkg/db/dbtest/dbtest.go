// Package dbtest opens throwaway sqlite databases carrying the portal schema.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderportal-backend/pkg/db"
	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
)

var schema = []string{
	`CREATE TABLE branches (
  branch_id INTEGER PRIMARY KEY AUTOINCREMENT,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE users (
  user_id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer',
  branch_id INTEGER REFERENCES branches(branch_id),
  is_active BOOLEAN NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE products (
  product_id INTEGER PRIMARY KEY AUTOINCREMENT,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL DEFAULT 0,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE order_status (
  status_id INTEGER PRIMARY KEY,
  status_name TEXT NOT NULL,
  status_color TEXT
);`,
	`INSERT INTO order_status (status_id, status_name, status_color) VALUES
  (1, 'Abierto', '#2563eb'),
  (2, 'En Producción', '#d97706'),
  (3, 'Enviado', '#7c3aed'),
  (4, 'Entregado', '#16a34a'),
  (5, 'Cancelado', '#dc2626'),
  (6, 'Facturado', '#0891b2'),
  (7, 'Cerrado', '#4b5563');`,
	`CREATE TABLE orders (
  order_id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(user_id),
  branch_id INTEGER REFERENCES branches(branch_id),
  total_amount NUMERIC NOT NULL,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  tax_amount NUMERIC NOT NULL DEFAULT 0,
  invoice_total NUMERIC,
  delivery_date DATE,
  status_id INTEGER NOT NULL DEFAULT 1 REFERENCES order_status(status_id),
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE order_details (
  order_detail_id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL REFERENCES products(product_id),
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  unit_price NUMERIC NOT NULL CHECK (unit_price >= 0)
);`,
	`CREATE TABLE admin_settings (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  order_time_limit TEXT NOT NULL,
  home_banner_image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
}

// Open returns a client on a private in-memory database with foreign keys
// enforced. The pool is pinned to one connection so the database lives as
// long as the test.
func Open(t testing.TB) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v\n%s", err, stmt)
		}
	}
	return db.NewFromConn(conn)
}

// SeedUser inserts an active customer unless overridden by mutate.
func SeedUser(t testing.TB, client *db.Client, email string, mutate func(u *models.User)) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		FullName:     email,
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	if mutate != nil {
		mutate(user)
	}
	if err := client.DB().Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	// gorm skips zero-value booleans that carry a default.
	if !user.IsActive {
		if err := client.DB().Model(user).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate user: %v", err)
		}
	}
	return user
}

// SeedBranch inserts a branch.
func SeedBranch(t testing.TB, client *db.Client, code string) *models.Branch {
	t.Helper()
	branch := &models.Branch{Code: code, Name: code, IsActive: true}
	if err := client.DB().Create(branch).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}
	return branch
}

// SeedProduct inserts an active product.
func SeedProduct(t testing.TB, client *db.Client, sku string, price string) *models.Product {
	t.Helper()
	product := &models.Product{SKU: sku, Name: sku, UnitPrice: decimal.RequireFromString(price), IsActive: true}
	if err := client.DB().Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedOrder inserts an order row directly with explicit timestamps.
func SeedOrder(t testing.TB, client *db.Client, order *models.Order, createdAt time.Time) *models.Order {
	t.Helper()
	order.CreatedAt = createdAt.UTC()
	order.UpdatedAt = createdAt.UTC()
	if order.TotalAmount.IsZero() {
		order.TotalAmount = decimal.NewFromInt(100)
	}
	if order.StatusID == 0 {
		order.StatusID = enums.OrderStatusOpen
	}
	if err := client.DB().Omit("Details").Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}
