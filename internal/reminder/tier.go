package reminder

import (
	"time"

	"github.com/tray3forse/tasknag/internal/task"
)

// Tier is the urgency classification of a task relative to an evaluation
// instant.
type Tier int

const (
	TierUndated Tier = iota
	TierNormal
	TierNear
	TierOverdue
)

func (t Tier) String() string {
	switch t {
	case TierUndated:
		return "undated"
	case TierNormal:
		return "normal"
	case TierNear:
		return "near"
	case TierOverdue:
		return "overdue"
	default:
		return "unknown"
	}
}

// Classifier computes urgency tiers. All deadline arithmetic happens in
// one fixed location so stored date/time strings always mean the same
// instant regardless of server-local time.
type Classifier struct {
	loc        *time.Location
	nearWindow time.Duration
}

func NewClassifier(loc *time.Location, nearWindow time.Duration) *Classifier {
	return &Classifier{
		loc:        loc,
		nearWindow: nearWindow,
	}
}

// Classify returns the task's tier at now. A deadline of exactly now is
// NEAR, not OVERDUE.
func (c *Classifier) Classify(t *task.Task, now time.Time) Tier {
	due, ok := t.DueAt(c.loc)
	if !ok {
		return TierUndated
	}
	remaining := due.Sub(now)
	switch {
	case remaining < 0:
		return TierOverdue
	case remaining <= c.nearWindow:
		return TierNear
	default:
		return TierNormal
	}
}
