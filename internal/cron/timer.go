package cron

import (
	"context"
	"time"

	robfig "github.com/robfig/cron/v3"

	"github.com/angelmondragon/orderportal-backend/pkg/logger"
)

// Handle is a registered trigger.
type Handle interface {
	Cancel() error
}

// Timer registers callbacks against 5-field cron expressions.
type Timer interface {
	Schedule(spec string, fn func()) (Handle, error)
}

// CronTimer is the production Timer, evaluating expressions in a fixed location.
type CronTimer struct {
	cron *robfig.Cron
}

// NewCronTimer builds and starts a timer in loc. Panics inside callbacks are
// recovered and logged.
func NewCronTimer(loc *time.Location, logg *logger.Logger) *CronTimer {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logg: logg}
	c := robfig.New(
		robfig.WithLocation(loc),
		robfig.WithLogger(cl),
		robfig.WithChain(robfig.Recover(cl)),
	)
	c.Start()
	return &CronTimer{cron: c}
}

func (t *CronTimer) Schedule(spec string, fn func()) (Handle, error) {
	id, err := t.cron.AddFunc(spec, fn)
	if err != nil {
		return nil, err
	}
	return &cronHandle{cron: t.cron, id: id}, nil
}

// Next reports when the entry behind h fires next.
func (t *CronTimer) Next(h Handle) (time.Time, bool) {
	ch, ok := h.(*cronHandle)
	if !ok {
		return time.Time{}, false
	}
	entry := t.cron.Entry(ch.id)
	if !entry.Valid() {
		return time.Time{}, false
	}
	return entry.Next, true
}

// Stop halts the timer and waits for running callbacks or ctx.
func (t *CronTimer) Stop(ctx context.Context) error {
	done := t.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronHandle struct {
	cron *robfig.Cron
	id   robfig.EntryID
}

func (h *cronHandle) Cancel() error {
	h.cron.Remove(h.id)
	return nil
}

// cronLogger adapts the service logger to robfig's logger.
type cronLogger struct {
	logg *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if l.logg == nil {
		return
	}
	l.logg.Debug(l.fields(keysAndValues), "cron: "+msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	if l.logg == nil {
		return
	}
	l.logg.Error(l.fields(keysAndValues), "cron: "+msg, err)
}

func (l cronLogger) fields(kv []any) context.Context {
	fields := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	return l.logg.WithFields(context.Background(), fields)
}
