package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tray3forse/tasknag/internal/task"
)

var jst = time.FixedZone("JST", 9*60*60)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(jst, 10*time.Minute)
	now := time.Date(2025, 8, 30, 21, 5, 0, 0, jst)

	tests := []struct {
		name    string
		dueDate string
		dueTime string
		want    Tier
	}{
		{name: "no deadline at all", want: TierUndated},
		{name: "date without time", dueDate: "2025-08-30", want: TierUndated},
		{name: "time without date", dueTime: "21:00", want: TierUndated},
		{name: "malformed date", dueDate: "August 30", dueTime: "21:00", want: TierUndated},
		{name: "five minutes past due", dueDate: "2025-08-30", dueTime: "21:00", want: TierOverdue},
		{name: "due exactly now", dueDate: "2025-08-30", dueTime: "21:05", want: TierNear},
		{name: "due at window edge", dueDate: "2025-08-30", dueTime: "21:15", want: TierNear},
		{name: "due just past window", dueDate: "2025-08-30", dueTime: "21:16", want: TierNormal},
		{name: "due tomorrow", dueDate: "2025-08-31", dueTime: "09:00", want: TierNormal},
		{name: "overdue by a day", dueDate: "2025-08-29", dueTime: "21:05", want: TierOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := &task.Task{DueDate: tt.dueDate, DueTime: tt.dueTime}
			assert.Equal(t, tt.want, c.Classify(tk, now))
		})
	}
}

func TestClassifier_LocationMatters(t *testing.T) {
	// 21:00 JST is noon UTC; the same stored strings must classify
	// against the configured zone, not the host's.
	c := NewClassifier(jst, 10*time.Minute)
	tk := &task.Task{DueDate: "2025-08-30", DueTime: "21:00"}

	nowUTC := time.Date(2025, 8, 30, 12, 5, 0, 0, time.UTC)
	assert.Equal(t, TierOverdue, c.Classify(tk, nowUTC))
}
