package repositoryimpl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tray3forse/tasknag/internal/task"
	"github.com/tray3forse/tasknag/pkg/cerr"
	"github.com/tray3forse/tasknag/pkg/storage"
)

const tasksPrefix = "tasks"

// YAMLRepository persists one YAML record per task on a storage backend.
// Mutations are serialized by mu so that MarkNotified's read-check-write
// behaves like a conditional row update.
type YAMLRepository struct {
	storage storage.Storage
	mu      sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", tasksPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.storage.Exists(ctx, path(t.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "task already exists", nil)
	}
	return r.write(ctx, t)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	return r.read(ctx, path(id))
}

func (r *YAMLRepository) ListByOwner(ctx context.Context, ownerID string) ([]*task.Task, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	var tasks []*task.Task
	for _, t := range all {
		if t.OwnerID == ownerID {
			tasks = append(tasks, t)
		}
	}
	task.SortByDue(tasks)
	return tasks, nil
}

func (r *YAMLRepository) ListPending(ctx context.Context) ([]*task.Task, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	var tasks []*task.Task
	for _, t := range all {
		if t.Status == task.StatusPending {
			tasks = append(tasks, t)
		}
	}
	task.SortByDue(tasks)
	return tasks, nil
}

func (r *YAMLRepository) Update(ctx context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.storage.Exists(ctx, path(t.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return r.write(ctx, t)
}

func (r *YAMLRepository) Complete(ctx context.Context, ownerID, description string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched, err := r.match(ctx, ownerID, description)
	if err != nil {
		return 0, err
	}
	affected := 0
	for _, t := range matched {
		if t.Status == task.StatusDone {
			continue
		}
		t.Status = task.StatusDone
		if err := r.write(ctx, t); err != nil {
			return affected, err
		}
		affected++
	}
	return affected, nil
}

func (r *YAMLRepository) Remove(ctx context.Context, ownerID, description string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched, err := r.match(ctx, ownerID, description)
	if err != nil {
		return 0, err
	}
	affected := 0
	for _, t := range matched {
		if err := r.storage.Delete(ctx, path(t.ID)); err != nil {
			return affected, cerr.WrapStorageDeleteError("task", err)
		}
		affected++
	}
	return affected, nil
}

func (r *YAMLRepository) MarkNotified(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.read(ctx, path(id))
	if err != nil {
		return false, err
	}
	if t.Notified {
		return false, nil
	}
	t.Notified = true
	if err := r.write(ctx, t); err != nil {
		return false, err
	}
	return true, nil
}

func (r *YAMLRepository) read(ctx context.Context, p string) (*task.Task, error) {
	data, err := r.storage.Read(ctx, p)
	if err != nil {
		return nil, cerr.WrapStorageReadError("task", err)
	}
	var t task.Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal task: %w", err))
	}
	return &t, nil
}

// write assumes mu is held.
func (r *YAMLRepository) write(ctx context.Context, t *task.Task) error {
	t.UpdatedAt = time.Now()
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task: %w", err))
	}
	if err := r.storage.Write(ctx, path(t.ID), data); err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) list(ctx context.Context) ([]*task.Task, error) {
	paths, err := r.storage.List(ctx, tasksPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("tasks", err)
	}
	var tasks []*task.Task
	for _, p := range paths {
		t, err := r.read(ctx, p)
		if err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// match assumes mu is held.
func (r *YAMLRepository) match(ctx context.Context, ownerID, description string) ([]*task.Task, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	var matched []*task.Task
	for _, t := range all {
		if t.OwnerID == ownerID && t.Description == description {
			matched = append(matched, t)
		}
	}
	return matched, nil
}
