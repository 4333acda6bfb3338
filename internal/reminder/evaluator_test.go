package reminder

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tray3forse/tasknag/internal/eventbus"
	"github.com/tray3forse/tasknag/internal/task"
)

type fakePusher struct {
	mu     sync.Mutex
	err    error
	pushes [][]Message
	owners []string
}

func (p *fakePusher) Push(_ context.Context, ownerID string, messages []Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.owners = append(p.owners, ownerID)
	p.pushes = append(p.pushes, messages)
	return nil
}

func (p *fakePusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushes)
}

// fakeMarker grants the notified flag to the first caller per task ID.
type fakeMarker struct {
	err   error
	won   sync.Map
	calls atomic.Int64
}

func (m *fakeMarker) MarkNotified(_ context.Context, id string) (bool, error) {
	m.calls.Add(1)
	if m.err != nil {
		return false, m.err
	}
	_, loaded := m.won.LoadOrStore(id, true)
	return !loaded, nil
}

func newTestEvaluator(pusher *fakePusher, marker *fakeMarker, bus *eventbus.Bus) *Evaluator {
	classifier := NewClassifier(jst, 10*time.Minute)
	selector := NewSelector(rand.New(rand.NewSource(1)))
	return NewEvaluator(classifier, selector, pusher, marker, bus)
}

func pendingTask(dueDate, dueTime string) *task.Task {
	return &task.Task{
		ID:          "01TESTTASK",
		OwnerID:     "owner1",
		Description: "洗濯物を取り込む",
		DueDate:     dueDate,
		DueTime:     dueTime,
		Status:      task.StatusPending,
	}
}

func TestEvaluator_SkipsDoneTask(t *testing.T) {
	pusher := &fakePusher{}
	marker := &fakeMarker{}
	e := newTestEvaluator(pusher, marker, nil)

	tk := pendingTask("2025-08-30", "21:00")
	tk.Status = task.StatusDone
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	assert.Equal(t, DecisionSkip, e.EvaluateAndDispatch(context.Background(), tk, now))
	assert.Zero(t, pusher.count())
	assert.Zero(t, marker.calls.Load())
}

func TestEvaluator_SkipsUndatedTask(t *testing.T) {
	pusher := &fakePusher{}
	e := newTestEvaluator(pusher, &fakeMarker{}, nil)

	tk := pendingTask("2025-08-30", "")
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	assert.Equal(t, DecisionSkip, e.EvaluateAndDispatch(context.Background(), tk, now))
	assert.Zero(t, pusher.count())
}

func TestEvaluator_NormalNagRepeatsEveryPass(t *testing.T) {
	pusher := &fakePusher{}
	e := newTestEvaluator(pusher, &fakeMarker{}, nil)

	tk := pendingTask("2025-09-15", "21:00")
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	for i := 0; i < 3; i++ {
		assert.Equal(t, DecisionReminded, e.EvaluateAndDispatch(context.Background(), tk, now))
	}
	assert.Equal(t, 3, pusher.count())
	assert.False(t, tk.Notified)
}

func TestEvaluator_NearNag(t *testing.T) {
	pusher := &fakePusher{}
	e := newTestEvaluator(pusher, &fakeMarker{}, nil)

	// 07:52 against an 08:00 deadline is inside the near window.
	tk := pendingTask("2025-08-31", "08:00")
	now := time.Date(2025, 8, 31, 7, 52, 0, 0, jst)

	assert.Equal(t, DecisionReminded, e.EvaluateAndDispatch(context.Background(), tk, now))
	require.Equal(t, 1, pusher.count())
	require.Len(t, pusher.pushes[0], 1)
	assert.Contains(t, pusher.pushes[0][0].Body, tk.Description)
}

func TestEvaluator_NagPushFailureIsSwallowed(t *testing.T) {
	pusher := &fakePusher{err: errors.New("channel down")}
	e := newTestEvaluator(pusher, &fakeMarker{}, nil)

	tk := pendingTask("2025-09-15", "21:00")
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	assert.Equal(t, DecisionSkip, e.EvaluateAndDispatch(context.Background(), tk, now))
}

func TestEvaluator_OverdueBombardsOnce(t *testing.T) {
	pusher := &fakePusher{}
	marker := &fakeMarker{}
	bus := eventbus.New()
	_, events := bus.Subscribe(4)
	e := newTestEvaluator(pusher, marker, bus)

	tk := pendingTask("2025-08-30", "21:00")
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	assert.Equal(t, DecisionNotified, e.EvaluateAndDispatch(context.Background(), tk, now))
	assert.True(t, tk.Notified)

	require.Equal(t, 1, pusher.count())
	msgs := pusher.pushes[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, KindText, msgs[0].Kind)
	assert.Equal(t, KindSticker, msgs[1].Kind)
	assert.Equal(t, BombardmentSticker, msgs[1].Sticker)

	select {
	case ev := <-events:
		assert.Equal(t, eventbus.EventTaskOverdue, ev.Type)
		assert.Equal(t, tk.ID, ev.TaskID)
		assert.Equal(t, tk.Description, ev.Metadata["description"])
	default:
		t.Fatal("expected an overdue event on the bus")
	}

	// Second pass over the same (still overdue) task sends nothing.
	assert.Equal(t, DecisionSkip, e.EvaluateAndDispatch(context.Background(), tk, now))
	assert.Equal(t, 1, pusher.count())
}

func TestEvaluator_OverdueSkipsWhenFlagAlreadySet(t *testing.T) {
	pusher := &fakePusher{}
	marker := &fakeMarker{}
	e := newTestEvaluator(pusher, marker, nil)

	tk := pendingTask("2025-08-30", "21:00")
	tk.Notified = true
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	assert.Equal(t, DecisionSkip, e.EvaluateAndDispatch(context.Background(), tk, now))
	assert.Zero(t, pusher.count())
	assert.Zero(t, marker.calls.Load(), "no store round-trip for a known-notified task")
}

func TestEvaluator_OverdueLostRaceSendsNothing(t *testing.T) {
	pusher := &fakePusher{}
	marker := &fakeMarker{}
	marker.won.Store("01TESTTASK", true) // someone else already won
	e := newTestEvaluator(pusher, marker, nil)

	tk := pendingTask("2025-08-30", "21:00")
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	assert.Equal(t, DecisionSkip, e.EvaluateAndDispatch(context.Background(), tk, now))
	assert.Zero(t, pusher.count())
}

func TestEvaluator_OverdueMarkerErrorAbandonsPass(t *testing.T) {
	pusher := &fakePusher{}
	marker := &fakeMarker{err: errors.New("store unavailable")}
	e := newTestEvaluator(pusher, marker, nil)

	tk := pendingTask("2025-08-30", "21:00")
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	assert.Equal(t, DecisionSkip, e.EvaluateAndDispatch(context.Background(), tk, now))
	assert.Zero(t, pusher.count())
	assert.False(t, tk.Notified)
}

func TestEvaluator_PushFailureAfterWinKeepsFlag(t *testing.T) {
	pusher := &fakePusher{err: errors.New("channel down")}
	marker := &fakeMarker{}
	e := newTestEvaluator(pusher, marker, nil)

	tk := pendingTask("2025-08-30", "21:00")
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	// The flag win stands even though the push failed: at most once
	// beats at least once.
	assert.Equal(t, DecisionNotified, e.EvaluateAndDispatch(context.Background(), tk, now))
	assert.True(t, tk.Notified)

	pusher.err = nil
	assert.Equal(t, DecisionSkip, e.EvaluateAndDispatch(context.Background(), tk, now))
	assert.Zero(t, pusher.count())
}

func TestEvaluator_ConcurrentOverdueSingleBombardment(t *testing.T) {
	pusher := &fakePusher{}
	marker := &fakeMarker{}
	e := newTestEvaluator(pusher, marker, nil)

	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	var notified atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each goroutine holds its own snapshot of the task, as the
			// sweep and the deadline check would.
			tk := pendingTask("2025-08-30", "21:00")
			if e.EvaluateAndDispatch(context.Background(), tk, now) == DecisionNotified {
				notified.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), notified.Load())
	assert.Equal(t, 1, pusher.count())
}
