package task

import "context"

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	// ListByOwner returns the owner's tasks ascending by due, undated last.
	ListByOwner(ctx context.Context, ownerID string) ([]*Task, error)
	// ListPending returns every pending task across owners (sweep feed).
	ListPending(ctx context.Context) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	// Complete flips matching pending tasks to done. Matching is exact
	// description equality scoped to the owner. Returns the affected count.
	Complete(ctx context.Context, ownerID, description string) (int, error)
	// Remove deletes matching tasks with the same matching rule as
	// Complete. Returns the affected count.
	Remove(ctx context.Context, ownerID, description string) (int, error)
	// MarkNotified sets notified=true if and only if it is still false.
	// The winner (won=true) is the single caller allowed to dispatch the
	// overdue bombardment; every other concurrent caller observes
	// won=false.
	MarkNotified(ctx context.Context, id string) (won bool, err error)
}
