package sweep

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tray3forse/tasknag/internal/reminder"
	"github.com/tray3forse/tasknag/internal/task"
)

var jst = time.FixedZone("JST", 9*60*60)

type stubRepo struct {
	task.Repository
	pending []*task.Task
	err     error
}

func (r *stubRepo) ListPending(context.Context) ([]*task.Task, error) {
	return r.pending, r.err
}

func (r *stubRepo) MarkNotified(context.Context, string) (bool, error) {
	return true, nil
}

// panickyPusher blows up for one owner and records everyone else.
type panickyPusher struct {
	mu         sync.Mutex
	panicOwner string
	owners     []string
}

func (p *panickyPusher) Push(_ context.Context, ownerID string, _ []reminder.Message) error {
	if ownerID == p.panicOwner {
		panic("transport bug")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.owners = append(p.owners, ownerID)
	return nil
}

func newTestDriver(repo *stubRepo, pusher *panickyPusher, now time.Time) *Driver {
	classifier := reminder.NewClassifier(jst, 10*time.Minute)
	selector := reminder.NewSelector(rand.New(rand.NewSource(1)))
	evaluator := reminder.NewEvaluator(classifier, selector, pusher, repo, nil)
	return NewDriver(repo, evaluator).WithClock(func() time.Time { return now })
}

func TestDriver_RunOnceIsolatesPanics(t *testing.T) {
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)
	repo := &stubRepo{pending: []*task.Task{
		{ID: "t1", OwnerID: "boom", Description: "a", DueDate: "2025-09-05", DueTime: "12:00", Status: task.StatusPending},
		{ID: "t2", OwnerID: "ok", Description: "b", DueDate: "2025-09-05", DueTime: "12:00", Status: task.StatusPending},
		{ID: "t3", OwnerID: "ok", Description: "c", DueDate: "2025-09-06", DueTime: "12:00", Status: task.StatusPending},
	}}
	pusher := &panickyPusher{panicOwner: "boom"}
	d := newTestDriver(repo, pusher, now)

	require.NotPanics(t, func() { d.RunOnce(context.Background()) })
	assert.Equal(t, []string{"ok", "ok"}, pusher.owners, "tasks after the panicking one still run")
}

func TestDriver_RunOnceListFailure(t *testing.T) {
	repo := &stubRepo{err: errors.New("store unavailable")}
	pusher := &panickyPusher{}
	d := newTestDriver(repo, pusher, time.Now())

	require.NotPanics(t, func() { d.RunOnce(context.Background()) })
	assert.Empty(t, pusher.owners)
}
