package cron

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/orderportal-backend/internal/orders"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
	"github.com/angelmondragon/orderportal-backend/pkg/logger"
	"github.com/angelmondragon/orderportal-backend/pkg/metrics"
)

const OrderStatusJobName = "order_status_update"

// StatusUpdater is the part of the order engine the scheduler drives.
type StatusUpdater interface {
	UpdatePendingOrdersStatus(ctx context.Context, cutoff string, opts orders.StatusUpdateOptions) (*orders.StatusUpdateResult, error)
}

type OrderStatusJobParams struct {
	Logger   *logger.Logger
	Engine   StatusUpdater
	Settings orders.SettingsProvider
	Metrics  *metrics.SchedulerMetrics
}

// OrderStatusJob re-reads the cutoff on every run and applies the batch
// status update with it.
type OrderStatusJob struct {
	logg     *logger.Logger
	engine   StatusUpdater
	settings orders.SettingsProvider
	metrics  *metrics.SchedulerMetrics
}

func NewOrderStatusJob(params OrderStatusJobParams) (*OrderStatusJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("order engine required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	return &OrderStatusJob{
		logg:     params.Logger,
		engine:   params.Engine,
		settings: params.Settings,
		metrics:  params.Metrics,
	}, nil
}

func (j *OrderStatusJob) Name() string { return OrderStatusJobName }

func (j *OrderStatusJob) Run(ctx context.Context) error {
	_, err := j.Execute(ctx, orders.StatusUpdateOptions{})
	return err
}

// Execute runs one batch with opts and logs the outcome.
func (j *OrderStatusJob) Execute(ctx context.Context, opts orders.StatusUpdateOptions) (*orders.StatusUpdateResult, error) {
	cutoff, err := j.settings.GetOrderTimeLimit(ctx)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order time limit")
	}
	result, err := j.engine.UpdatePendingOrdersStatus(ctx, strings.TrimSpace(cutoff), opts)
	if err != nil {
		return nil, err
	}

	j.metrics.AddTransitions(statusLabel(enums.OrderStatusInProduction), result.UpdatedCount)
	j.metrics.AddTransitions(statusLabel(enums.OrderStatusCancelled), result.CancelledCount)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"order_time_limit": result.OrderTimeLimit,
		"effective_cutoff": result.EffectiveCutoff,
		"updated_count":    result.UpdatedCount,
		"cancelled_count":  result.CancelledCount,
		"updated_ids":      result.UpdatedIDs,
		"cancelled_ids":    result.CancelledIDs,
	})
	j.logg.Info(logCtx, "pending orders status updated")
	return result, nil
}

func statusLabel(s enums.OrderStatus) string {
	switch s {
	case enums.OrderStatusInProduction:
		return "in_production"
	case enums.OrderStatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status_%d", int(s))
	}
}
