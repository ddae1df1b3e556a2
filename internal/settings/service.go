package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/orderportal-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
)

const DefaultOrderTimeLimit = "18:00"

// Service reads and updates admin settings. It satisfies orders.SettingsProvider.
type Service interface {
	GetSettings(ctx context.Context) (*SettingsView, error)
	GetOrderTimeLimit(ctx context.Context) (string, error)
	UpdateSettings(ctx context.Context, changes Changes) (*SettingsView, error)
}

type service struct {
	repo             Repository
	defaultTimeLimit string
}

// NewService builds the settings service. An empty default falls back to 18:00.
func NewService(repo Repository, defaultTimeLimit string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if defaultTimeLimit == "" {
		defaultTimeLimit = DefaultOrderTimeLimit
	}
	if _, err := orders.ParseCutoff(defaultTimeLimit); err != nil {
		return nil, fmt.Errorf("default order time limit: %w", err)
	}
	return &service{repo: repo, defaultTimeLimit: defaultTimeLimit}, nil
}

// GetSettings lazily creates the default row on first read.
func (s *service) GetSettings(ctx context.Context) (*SettingsView, error) {
	row, err := s.repo.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.repo.EnsureDefault(ctx, s.defaultTimeLimit); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create default settings")
		}
		row, err = s.repo.Get(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return toView(row), nil
}

func (s *service) GetOrderTimeLimit(ctx context.Context) (string, error) {
	view, err := s.GetSettings(ctx)
	if err != nil {
		return "", err
	}
	return view.OrderTimeLimit, nil
}

func (s *service) UpdateSettings(ctx context.Context, changes Changes) (*SettingsView, error) {
	if changes.OrderTimeLimit == nil && changes.HomeBannerImageURL == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No hay campos para actualizar")
	}
	if changes.OrderTimeLimit != nil {
		trimmed := strings.TrimSpace(*changes.OrderTimeLimit)
		if _, err := orders.ParseCutoff(trimmed); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderTimeLimit debe tener formato HH:MM (24h)")
		}
		changes.OrderTimeLimit = &trimmed
	}
	if changes.HomeBannerImageURL != nil {
		trimmed := strings.TrimSpace(*changes.HomeBannerImageURL)
		if trimmed != "" && !isHTTPURL(trimmed) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "homeBannerImageUrl debe ser una URL http(s)")
		}
		changes.HomeBannerImageURL = &trimmed
	}

	row, err := s.repo.Upsert(ctx, changes, s.defaultTimeLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update settings")
	}
	return toView(row), nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
