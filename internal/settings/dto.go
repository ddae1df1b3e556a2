package settings

import (
	"time"

	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
)

type SettingsView struct {
	OrderTimeLimit     string    `json:"orderTimeLimit"`
	HomeBannerImageURL *string   `json:"homeBannerImageUrl"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toView(row *models.AdminSettings) *SettingsView {
	return &SettingsView{
		OrderTimeLimit:     row.OrderTimeLimit,
		HomeBannerImageURL: row.HomeBannerImageURL,
		UpdatedAt:          row.UpdatedAt,
	}
}
