package settings

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
)

// Repository persists the singleton admin_settings row.
type Repository interface {
	Get(ctx context.Context) (*models.AdminSettings, error)
	EnsureDefault(ctx context.Context, orderTimeLimit string) error
	Upsert(ctx context.Context, changes Changes, defaultTimeLimit string) (*models.AdminSettings, error)
}

// Changes is a partial settings update. A nil field is left as is; an empty
// banner clears it.
type Changes struct {
	OrderTimeLimit     *string
	HomeBannerImageURL *string
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (*models.AdminSettings, error) {
	var row models.AdminSettings
	if err := r.db.WithContext(ctx).Where("id = ?", models.AdminSettingsID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// EnsureDefault inserts the row if it is missing and never overwrites it.
func (r *repository) EnsureDefault(ctx context.Context, orderTimeLimit string) error {
	row := models.AdminSettings{ID: models.AdminSettingsID, OrderTimeLimit: orderTimeLimit}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&row).Error
}

const upsertSQL = `
INSERT INTO admin_settings (id, order_time_limit, home_banner_image_url, created_at, updated_at)
VALUES (?, COALESCE(?, ?), ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  order_time_limit = COALESCE(?, admin_settings.order_time_limit),
  home_banner_image_url = CASE WHEN ? THEN excluded.home_banner_image_url ELSE admin_settings.home_banner_image_url END,
  updated_at = excluded.updated_at
RETURNING id, order_time_limit, home_banner_image_url, created_at, updated_at`

// Upsert applies changes in a single statement so concurrent admins never
// interleave a read-modify-write.
func (r *repository) Upsert(ctx context.Context, changes Changes, defaultTimeLimit string) (*models.AdminSettings, error) {
	var banner any
	if changes.HomeBannerImageURL != nil && *changes.HomeBannerImageURL != "" {
		banner = *changes.HomeBannerImageURL
	}
	var timeLimit any
	if changes.OrderTimeLimit != nil {
		timeLimit = *changes.OrderTimeLimit
	}
	now := time.Now().UTC()

	var row models.AdminSettings
	err := r.db.WithContext(ctx).Raw(upsertSQL,
		models.AdminSettingsID, timeLimit, defaultTimeLimit, banner, now, now,
		timeLimit, changes.HomeBannerImageURL != nil,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
