package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/orderportal-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
	"github.com/angelmondragon/orderportal-backend/pkg/logger"
	"github.com/angelmondragon/orderportal-backend/pkg/metrics"
)

const (
	defaultOffset     = 5 * time.Minute
	defaultRunTimeout = 2 * time.Minute
	minutesPerDay     = 24 * 60
)

var ErrSchedulerStopped = errors.New("scheduler stopped")

// SchedulerParams configure the order scheduler.
type SchedulerParams struct {
	Logger   *logger.Logger
	Job      *OrderStatusJob
	Settings orders.SettingsProvider
	Timer    Timer
	// Lock is optional; without it every replica runs the batch.
	Lock       Lock
	Metrics    *metrics.SchedulerMetrics
	Offset     time.Duration
	Weekdays   []time.Weekday
	RunTimeout time.Duration
}

// OrderScheduler keeps exactly one trigger registered for the batch status
// update, placed at cutoff + offset on the configured weekdays.
type OrderScheduler struct {
	logg       *logger.Logger
	job        *OrderStatusJob
	settings   orders.SettingsProvider
	timer      Timer
	lock       Lock
	metrics    *metrics.SchedulerMetrics
	offset     time.Duration
	weekdays   []time.Weekday
	runTimeout time.Duration

	mu      sync.Mutex
	handles []Handle
	cutoff  string
	stopped bool

	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewOrderScheduler(params SchedulerParams) (*OrderScheduler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Job == nil {
		return nil, fmt.Errorf("order status job required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	if params.Timer == nil {
		return nil, fmt.Errorf("timer required")
	}
	offset := params.Offset
	if offset < 0 {
		return nil, fmt.Errorf("scheduler offset must not be negative")
	}
	if offset == 0 {
		offset = defaultOffset
	}
	runTimeout := params.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}
	weekdays := params.Weekdays
	if len(weekdays) == 0 {
		weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	return &OrderScheduler{
		logg:       params.Logger,
		job:        params.Job,
		settings:   params.Settings,
		timer:      params.Timer,
		lock:       params.Lock,
		metrics:    params.Metrics,
		offset:     offset,
		weekdays:   weekdays,
		runTimeout: runTimeout,
		baseCtx:    baseCtx,
		cancel:     cancel,
	}, nil
}

// Initialize schedules the trigger from the persisted cutoff.
func (s *OrderScheduler) Initialize(ctx context.Context) error {
	cutoff, err := s.settings.GetOrderTimeLimit(ctx)
	if err != nil {
		return fmt.Errorf("read order time limit: %w", err)
	}
	return s.UpdateTaskSettings(ctx, cutoff)
}

// UpdateTaskSettings replaces every registered trigger with one for cutoff.
// An invalid cutoff leaves the current schedule untouched.
func (s *OrderScheduler) UpdateTaskSettings(ctx context.Context, cutoff string) error {
	parsed, err := orders.ParseCutoff(strings.TrimSpace(cutoff))
	if err != nil {
		return err
	}
	spec := TriggerSpec(parsed, s.offset, s.weekdays)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSchedulerStopped
	}

	if cancelErr := s.cancelAllLocked(); cancelErr != nil {
		s.logg.Error(ctx, "failed to cancel previous triggers", cancelErr)
	}
	handle, err := s.timer.Schedule(spec, s.trigger)
	if err != nil {
		s.cutoff = ""
		s.metrics.SetActiveTasks(0)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "schedule order status update")
	}
	s.handles = []Handle{handle}
	s.cutoff = parsed.String()
	s.metrics.SetActiveTasks(len(s.handles))

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_time_limit": s.cutoff,
		"cron_spec":        spec,
		"offset":           s.offset.String(),
	})
	s.logg.Info(logCtx, "order status update scheduled")
	return nil
}

// RunStatusUpdate runs one batch synchronously, outside the timer.
func (s *OrderScheduler) RunStatusUpdate(ctx context.Context, opts orders.StatusUpdateOptions) (*orders.StatusUpdateResult, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{"job": s.job.Name(), "trigger": "manual"})
	return s.job.Execute(ctx, opts)
}

// ActiveTasks returns the number of registered triggers.
func (s *OrderScheduler) ActiveTasks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// CurrentCutoff returns the cutoff behind the active trigger, or "" when none.
func (s *OrderScheduler) CurrentCutoff() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cutoff
}

// Stop cancels every trigger and any in-flight scheduled run.
func (s *OrderScheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	err := s.cancelAllLocked()
	s.cutoff = ""
	s.metrics.SetActiveTasks(0)
	s.cancel()
	return err
}

func (s *OrderScheduler) cancelAllLocked() error {
	var err error
	for _, h := range s.handles {
		err = multierr.Append(err, h.Cancel())
	}
	s.handles = nil
	return err
}

// trigger is the timer callback. Failures are logged and counted, never raised.
func (s *OrderScheduler) trigger() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.runTimeout)
	defer cancel()
	ctx = s.logg.WithField(ctx, "trigger", "timer")

	if s.lock != nil {
		release, ok, err := s.lock.Acquire(ctx)
		if err != nil {
			s.logg.Error(ctx, "scheduler lock acquire failed", err)
			s.metrics.IncFailure(s.job.Name())
			return
		}
		if !ok {
			s.logg.Info(ctx, "another replica holds the scheduler lock; skipping run")
			s.metrics.IncSkipped(s.job.Name())
			return
		}
		defer func() {
			if relErr := release(context.Background()); relErr != nil {
				s.logg.Error(ctx, "failed to release scheduler lock", relErr)
			}
		}()
	}
	_ = s.runJob(ctx, s.job)
}

func (s *OrderScheduler) runJob(ctx context.Context, job Job) (err error) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
		duration := time.Since(start)
		s.metrics.ObserveDuration(job.Name(), duration)
		jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
		if err != nil {
			s.logg.Error(jobCtx, "job failed", err)
			s.metrics.IncFailure(job.Name())
			return
		}
		s.logg.Info(jobCtx, "job completed")
		s.metrics.IncSuccess(job.Name())
	}()
	return job.Run(jobCtx)
}

// TriggerSpec renders the 5-field cron expression firing at cutoff + offset.
// When the offset carries the trigger past midnight the weekdays move with it.
func TriggerSpec(cutoff orders.Cutoff, offset time.Duration, days []time.Weekday) string {
	total := cutoff.Hour*60 + cutoff.Minute + int(offset/time.Minute)
	shift := 0
	for total >= minutesPerDay {
		total -= minutesPerDay
		shift++
	}

	dayField := "*"
	if len(days) > 0 && len(days) < 7 {
		seen := map[int]bool{}
		nums := []int{}
		for _, d := range days {
			n := (int(d) + shift) % 7
			if seen[n] {
				continue
			}
			seen[n] = true
			nums = append(nums, n)
		}
		sort.Ints(nums)
		parts := make([]string, len(nums))
		for i, n := range nums {
			parts[i] = strconv.Itoa(n)
		}
		dayField = strings.Join(parts, ",")
	}
	return fmt.Sprintf("%d %d * * %s", total%60, total/60, dayField)
}
