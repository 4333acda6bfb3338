package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/tray3forse/tasknag/internal/config"
	"github.com/tray3forse/tasknag/internal/reminder"
	"github.com/tray3forse/tasknag/internal/task"
)

// Driver runs periodic evaluation passes over all pending tasks.
type Driver struct {
	repo      task.Repository
	evaluator *reminder.Evaluator
	clock     func() time.Time
}

func NewDriver(repo task.Repository, evaluator *reminder.Evaluator) *Driver {
	return &Driver{
		repo:      repo,
		evaluator: evaluator,
		clock:     time.Now,
	}
}

// WithClock overrides the driver's time source.
func (d *Driver) WithClock(clock func() time.Time) *Driver {
	d.clock = clock
	return d
}

// RunOnce performs a single sweep: fetch pending tasks and evaluate each.
// A failing or panicking task never stops the pass.
func (d *Driver) RunOnce(ctx context.Context) {
	tasks, err := d.repo.ListPending(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "sweep: failed to list pending tasks", "error", err)
		return
	}

	now := d.clock()
	var reminded, notified int
	for _, t := range tasks {
		var catcher panics.Catcher
		catcher.Try(func() {
			switch d.evaluator.EvaluateAndDispatch(ctx, t, now) {
			case reminder.DecisionReminded:
				reminded++
			case reminder.DecisionNotified:
				notified++
			}
		})
		if r := catcher.Recovered(); r != nil {
			slog.ErrorContext(ctx, "sweep: panic while evaluating task", "task_id", t.ID, "panic", r.Value)
		}
	}
	slog.DebugContext(ctx, "sweep pass finished",
		"pending", len(tasks), "reminded", reminded, "notified", notified)
}

// Start schedules recurring sweeps per the reminder configuration and
// blocks until ctx is cancelled.
func (d *Driver) Start(ctx context.Context, scheduler Scheduler, env *config.ReminderEnv) {
	slog.InfoContext(ctx, "sweep driver started",
		"interval", env.SweepInterval, "daily_hour", env.SweepDailyHour)
	if env.SweepDailyHour >= 0 {
		scheduler.RunDailyAt(ctx, env.SweepDailyHour, d.RunOnce)
		return
	}
	scheduler.RunEvery(ctx, env.SweepInterval, d.RunOnce)
}
