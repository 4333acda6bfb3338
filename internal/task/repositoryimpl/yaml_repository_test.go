package repositoryimpl

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tray3forse/tasknag/internal/task"
	"github.com/tray3forse/tasknag/pkg/cerr"
	"github.com/tray3forse/tasknag/pkg/storage"
)

func newTestRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(store)
}

func newTask(id, ownerID, description string) *task.Task {
	return &task.Task{
		ID:          id,
		OwnerID:     ownerID,
		Description: description,
		Status:      task.StatusPending,
		CreatedAt:   time.Now(),
	}
}

func TestYAMLRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := newTask("t1", "owner1", "洗濯物を取り込む")
	in.DueDate = "2025-08-30"
	in.DueTime = "21:00"
	require.NoError(t, repo.Create(ctx, in))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "owner1", got.OwnerID)
	assert.Equal(t, "洗濯物を取り込む", got.Description)
	assert.Equal(t, "2025-08-30", got.DueDate)
	assert.Equal(t, "21:00", got.DueTime)
	assert.Equal(t, task.StatusPending, got.Status)
	assert.False(t, got.Notified)
}

func TestYAMLRepository_CreateDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTask("t1", "owner1", "a")))
	err := repo.Create(ctx, newTask("t1", "owner1", "a"))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
}

func TestYAMLRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepository_ListByOwnerSortsByDue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	undated := newTask("t1", "owner1", "買い物")
	require.NoError(t, repo.Create(ctx, undated))

	late := newTask("t2", "owner1", "レポート")
	late.DueDate = "2025-09-05"
	late.DueTime = "12:00"
	require.NoError(t, repo.Create(ctx, late))

	early := newTask("t3", "owner1", "洗濯物")
	early.DueDate = "2025-08-30"
	early.DueTime = "21:00"
	require.NoError(t, repo.Create(ctx, early))

	other := newTask("t4", "owner2", "他人のタスク")
	require.NoError(t, repo.Create(ctx, other))

	tasks, err := repo.ListByOwner(ctx, "owner1")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "t3", tasks[0].ID)
	assert.Equal(t, "t2", tasks[1].ID)
	assert.Equal(t, "t1", tasks[2].ID, "undated sorts last")
}

func TestYAMLRepository_ListPendingSkipsDone(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTask("t1", "owner1", "a")))
	done := newTask("t2", "owner2", "b")
	done.Status = task.StatusDone
	require.NoError(t, repo.Create(ctx, done))

	tasks, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
}

func TestYAMLRepository_CompleteExactMatchOnly(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTask("t1", "owner1", "筋トレ")))
	require.NoError(t, repo.Create(ctx, newTask("t2", "owner1", "筋トレする")))

	affected, err := repo.Complete(ctx, "owner1", "筋トレ")
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, got.Status)

	got, err = repo.Get(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, got.Status, "partial match must not complete")
}

func TestYAMLRepository_CompleteIsScopedToOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTask("t1", "owner2", "筋トレ")))

	affected, err := repo.Complete(ctx, "owner1", "筋トレ")
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestYAMLRepository_CompleteAlreadyDone(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTask("t1", "owner1", "筋トレ")))
	affected, err := repo.Complete(ctx, "owner1", "筋トレ")
	require.NoError(t, err)
	require.Equal(t, 1, affected)

	affected, err = repo.Complete(ctx, "owner1", "筋トレ")
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestYAMLRepository_Remove(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTask("t1", "owner1", "筋トレ")))

	affected, err := repo.Remove(ctx, "owner1", "筋トレ")
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	_, err = repo.Get(ctx, "t1")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepository_MarkNotified(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTask("t1", "owner1", "洗濯物")))

	won, err := repo.MarkNotified(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.MarkNotified(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, won, "second attempt must lose")

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, got.Notified)
}

func TestYAMLRepository_MarkNotifiedConcurrentSingleWinner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTask("t1", "owner1", "洗濯物")))

	const attempts = 8
	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := repo.MarkNotified(ctx, "t1")
			assert.NoError(t, err)
			if won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())
}

func TestYAMLRepository_UpdateMissing(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Update(context.Background(), newTask("ghost", "owner1", "a"))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}
