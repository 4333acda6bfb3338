package task

import (
	"sort"
	"strings"
	"time"

	"github.com/tray3forse/tasknag/pkg/cerr"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

const (
	// MaxDescriptionLength caps free-text task content at creation time.
	MaxDescriptionLength = 200

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Task struct {
	ID          string    `yaml:"id"`
	OwnerID     string    `yaml:"owner_id"`
	Description string    `yaml:"description"`
	DueDate     string    `yaml:"due_date,omitempty"`
	DueTime     string    `yaml:"due_time,omitempty"`
	Status      Status    `yaml:"status"`
	Notified    bool      `yaml:"notified"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// Dated reports whether both a due date and a due time are present.
// Tasks missing either carry no deadline and are never nagged about.
func (t *Task) Dated() bool {
	return t.DueDate != "" && t.DueTime != ""
}

// DueAt resolves the stored due date/time strings in loc. ok is false for
// undated tasks and for strings that fail to parse.
func (t *Task) DueAt(loc *time.Location) (time.Time, bool) {
	if !t.Dated() {
		return time.Time{}, false
	}
	due, err := time.ParseInLocation(DateLayout+" "+TimeLayout, t.DueDate+" "+t.DueTime, loc)
	if err != nil {
		return time.Time{}, false
	}
	return due, true
}

// ValidateDescription enforces the creation-time rules on task content.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return cerr.NewError(cerr.InvalidArgument, "task description must not be empty", nil)
	}
	if len([]rune(description)) > MaxDescriptionLength {
		return cerr.NewError(cerr.InvalidArgument, "task description is too long", nil)
	}
	return nil
}

// ValidateDue checks optional due date/time strings. Empty strings are
// valid (undated task).
func ValidateDue(dueDate, dueTime string) error {
	if dueDate != "" {
		if _, err := time.Parse(DateLayout, dueDate); err != nil {
			return cerr.NewError(cerr.InvalidArgument, "due date must be formatted as 2006-01-02", err)
		}
	}
	if dueTime != "" {
		if _, err := time.Parse(TimeLayout, dueTime); err != nil {
			return cerr.NewError(cerr.InvalidArgument, "due time must be formatted as 15:04", err)
		}
	}
	return nil
}

// SortByDue orders tasks ascending by due date then time, undated tasks
// last, creation time as the tie breaker.
func SortByDue(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Dated() != b.Dated() {
			return a.Dated()
		}
		if a.DueDate != b.DueDate {
			return a.DueDate < b.DueDate
		}
		if a.DueTime != b.DueTime {
			return a.DueTime < b.DueTime
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
