package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/tray3forse/tasknag/internal/eventbus"
	"github.com/tray3forse/tasknag/internal/task"
)

// Decision is the outcome of one evaluation pass over one task.
type Decision int

const (
	// DecisionSkip means nothing was sent and nothing changed.
	DecisionSkip Decision = iota
	// DecisionReminded means a best-effort NORMAL/NEAR nag went out.
	// These carry no at-most-once guarantee and repeat every pass.
	DecisionReminded
	// DecisionNotified means this evaluation won the notified flag and
	// dispatched the one overdue bombardment for the task.
	DecisionNotified
)

func (d Decision) String() string {
	switch d {
	case DecisionSkip:
		return "skip"
	case DecisionReminded:
		return "reminded"
	case DecisionNotified:
		return "notified"
	default:
		return "unknown"
	}
}

// Pusher dispatches messages to an owner. Errors are logged by the caller
// and never retried within a pass.
type Pusher interface {
	Push(ctx context.Context, ownerID string, messages []Message) error
}

// NotifiedMarker is the store-side serialization point for the overdue
// bombardment: set notified=true where id matches and notified is still
// false, reporting whether this caller won.
type NotifiedMarker interface {
	MarkNotified(ctx context.Context, id string) (bool, error)
}

// Evaluator decides urgency and dispatches reminder pushes for single
// tasks. It does not know or care whether the per-message command path or
// the periodic sweep invoked it.
type Evaluator struct {
	classifier *Classifier
	selector   *Selector
	pusher     Pusher
	store      NotifiedMarker
	bus        *eventbus.Bus
}

func NewEvaluator(classifier *Classifier, selector *Selector, pusher Pusher, store NotifiedMarker, bus *eventbus.Bus) *Evaluator {
	return &Evaluator{
		classifier: classifier,
		selector:   selector,
		pusher:     pusher,
		store:      store,
		bus:        bus,
	}
}

// Classify exposes the evaluator's tier classification.
func (e *Evaluator) Classify(t *task.Task, now time.Time) Tier {
	return e.classifier.Classify(t, now)
}

// EvaluateAndDispatch classifies the task at now and sends whatever that
// tier calls for.
//
// NORMAL and NEAR nags are re-sent on every pass until the task goes
// overdue or done; duplicates are fine. The overdue bombardment is
// guarded by the conditional notified update, which runs BEFORE the push:
// under concurrent evaluations exactly one caller wins the flag and
// sends. A push failure after a won update is logged and the flag stays
// set — losing that one alert is preferred over ever bombing twice.
func (e *Evaluator) EvaluateAndDispatch(ctx context.Context, t *task.Task, now time.Time) Decision {
	if t.Status == task.StatusDone {
		return DecisionSkip
	}

	tier := e.classifier.Classify(t, now)
	switch tier {
	case TierUndated:
		return DecisionSkip

	case TierNormal, TierNear:
		msgs := e.selector.Pick(tier, t.Description)
		if err := e.pusher.Push(ctx, t.OwnerID, msgs); err != nil {
			slog.ErrorContext(ctx, "reminder push failed", "task_id", t.ID, "tier", tier.String(), "error", err)
			return DecisionSkip
		}
		return DecisionReminded

	case TierOverdue:
		if t.Notified {
			return DecisionSkip
		}
		won, err := e.store.MarkNotified(ctx, t.ID)
		if err != nil {
			// Without a confirmed flag state a push here could double
			// up on retry, so the task is abandoned for this pass.
			slog.ErrorContext(ctx, "failed to update notified flag", "task_id", t.ID, "error", err)
			return DecisionSkip
		}
		if !won {
			return DecisionSkip
		}
		t.Notified = true

		msgs := e.selector.Pick(TierOverdue, t.Description)
		if err := e.pusher.Push(ctx, t.OwnerID, msgs); err != nil {
			slog.ErrorContext(ctx, "bombardment push failed after winning notified flag",
				"task_id", t.ID, "owner_id", t.OwnerID, "error", err)
		}
		if e.bus != nil {
			e.bus.PublishNew(eventbus.EventTaskOverdue, t.ID, t.OwnerID, map[string]string{
				"description": t.Description,
			})
		}
		return DecisionNotified
	}
	return DecisionSkip
}
