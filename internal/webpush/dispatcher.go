package webpush

import (
	"context"
	"log/slog"

	"github.com/tray3forse/tasknag/internal/eventbus"
)

// Dispatcher mirrors overdue bombardments onto the browser push channel:
// it subscribes to the event bus and forwards task-overdue events to the
// owner's web-push subscriptions.
type Dispatcher struct {
	eventBus *eventbus.Bus
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		sender:   sender,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.InfoContext(ctx, "web push dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "web push dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type == eventbus.EventTaskOverdue {
				d.handleTaskOverdue(ctx, event)
			}
		}
	}
}

func (d *Dispatcher) handleTaskOverdue(ctx context.Context, event *eventbus.Event) {
	body := "タスクの締切が過ぎています！"
	if desc := event.Metadata["description"]; desc != "" {
		body = "💣 「" + desc + "」の締切が過ぎています！"
	}
	d.sender.SendToOwner(ctx, event.OwnerID, &NotificationPayload{
		Title: "⏰ タスクの時間です",
		Body:  body,
		Tag:   event.TaskID,
	})
}
