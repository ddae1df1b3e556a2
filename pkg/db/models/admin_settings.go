package models

import "time"

// AdminSettingsID is the primary key of the only admin_settings row.
const AdminSettingsID = 1

// AdminSettings holds portal-wide settings editable by administrators.
type AdminSettings struct {
	ID                 int       `gorm:"column:id;primaryKey"`
	OrderTimeLimit     string    `gorm:"column:order_time_limit;not null"`
	HomeBannerImageURL *string   `gorm:"column:home_banner_image_url"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AdminSettings) TableName() string { return "admin_settings" }
