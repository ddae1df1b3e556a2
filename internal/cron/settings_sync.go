package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/orderportal-backend/internal/orders"
	"github.com/angelmondragon/orderportal-backend/pkg/logger"
)

const defaultSyncInterval = 5 * time.Minute

type rescheduler interface {
	CurrentCutoff() string
	UpdateTaskSettings(ctx context.Context, cutoff string) error
}

type SettingsSyncParams struct {
	Logger    *logger.Logger
	Settings  orders.SettingsProvider
	Scheduler rescheduler
	Interval  time.Duration
}

// SettingsSync polls the persisted cutoff and reschedules when it drifts
// from the active trigger, so replicas that did not serve an admin update converge.
type SettingsSync struct {
	logg      *logger.Logger
	settings  orders.SettingsProvider
	scheduler rescheduler
	interval  time.Duration
}

func NewSettingsSync(params SettingsSyncParams) (*SettingsSync, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	if params.Scheduler == nil {
		return nil, fmt.Errorf("scheduler required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &SettingsSync{
		logg:      params.Logger,
		settings:  params.Settings,
		scheduler: params.Scheduler,
		interval:  interval,
	}, nil
}

// Run polls until ctx is canceled.
func (s *SettingsSync) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "settings sync stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SyncOnce(ctx); err != nil {
				s.logg.Error(ctx, "settings sync failed", err)
			}
		}
	}
}

// SyncOnce reschedules when the stored cutoff differs from the active one.
func (s *SettingsSync) SyncOnce(ctx context.Context) (bool, error) {
	cutoff, err := s.settings.GetOrderTimeLimit(ctx)
	if err != nil {
		return false, fmt.Errorf("read order time limit: %w", err)
	}
	cutoff = strings.TrimSpace(cutoff)
	if cutoff == s.scheduler.CurrentCutoff() {
		return false, nil
	}
	if err := s.scheduler.UpdateTaskSettings(ctx, cutoff); err != nil {
		return false, err
	}
	s.logg.Info(s.logg.WithField(ctx, "order_time_limit", cutoff), "scheduler resynced with stored settings")
	return true, nil
}
