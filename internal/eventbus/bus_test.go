package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := New()
	_, ch := b.Subscribe(4)

	b.PublishNew(EventTaskOverdue, "t1", "owner1", map[string]string{"description": "洗濯物"})

	select {
	case ev := <-ch:
		assert.Equal(t, EventTaskOverdue, ev.Type)
		assert.Equal(t, "t1", ev.TaskID)
		assert.Equal(t, "owner1", ev.OwnerID)
		assert.Equal(t, "洗濯物", ev.Metadata["description"])
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.CreatedAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	b := New()
	_, ch1 := b.Subscribe(1)
	_, ch2 := b.Subscribe(1)

	b.PublishNew(EventTaskCreated, "t1", "owner1", nil)

	for _, ch := range []<-chan *Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, EventTaskCreated, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBus_DropsWhenBufferFull(t *testing.T) {
	b := New()
	_, ch := b.Subscribe(1)

	// Publish must never block, even with a full subscriber buffer.
	done := make(chan struct{})
	go func() {
		b.PublishNew(EventTaskCreated, "t1", "owner1", nil)
		b.PublishNew(EventTaskCreated, "t2", "owner1", nil)
		b.PublishNew(EventTaskCreated, "t3", "owner1", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	ev := <-ch
	assert.Equal(t, "t1", ev.TaskID)
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("expected dropped events, got %s", ev.TaskID)
		}
	default:
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()
	id, ch := b.Subscribe(1)

	b.Unsubscribe(id)

	_, ok := <-ch
	require.False(t, ok, "channel must be closed on unsubscribe")

	// Publishing after unsubscribe must not panic.
	b.PublishNew(EventTaskCompleted, "t1", "owner1", nil)
}
