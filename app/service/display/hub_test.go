package display

import (
	"courtchat/app/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFansOutInOrder(t *testing.T) {
	hub := NewHub()

	first, unsubscribeFirst := hub.Subscribe(8)
	second, unsubscribeSecond := hub.Subscribe(8)
	defer unsubscribeSecond()

	msg := model.Message{Role: model.RoleAssistant, Name: "Matilda", Content: "Hi"}
	hub.StreamStart()
	hub.StreamMessage(msg)
	hub.MessageReceive(msg, true)
	hub.ActionsReceive([]model.ActionResponse{})

	for _, ch := range []<-chan Event{first, second} {
		var types []EventType
		for range 4 {
			types = append(types, (<-ch).Type)
		}
		assert.Equal(t, []EventType{EventStreamStart, EventStreamMessage, EventMessageReceive, EventActionsReceive}, types)
	}

	unsubscribeFirst()
	unsubscribeFirst()

	_, ok := <-first
	assert.False(t, ok)
}

func TestHubDropsStreamDeltasForSlowSubscriber(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()

	msg := model.Message{Role: model.RoleAssistant, Name: "Matilda", Content: "Hi"}
	hub.StreamMessage(msg)
	hub.StreamMessage(msg)

	require.Len(t, ch, 1)
}

func TestHubWaitsForSlowSubscriberOnFinalEvents(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()

	hub.StreamStart()

	go func() {
		time.Sleep(20 * time.Millisecond)
		<-ch
	}()

	hub.MessageReceive(model.Message{Role: model.RoleAssistant, Name: "Matilda", Content: "Farewell."}, false)

	event := <-ch
	assert.Equal(t, EventMessageReceive, event.Type)
	assert.Equal(t, "Farewell.", event.Message.Content)
}

func TestHubGivesUpOnStuckSubscriber(t *testing.T) {
	hub := NewHub()
	hub.deliverTimeout = 10 * time.Millisecond

	ch, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()

	hub.StreamStart()
	hub.ActionsReceive([]model.ActionResponse{})

	require.Len(t, ch, 1)
	assert.Equal(t, EventStreamStart, (<-ch).Type)
}

func TestHubShutdownClosesSubscribers(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(1)
	require.NoError(t, hub.Shutdown())

	_, ok := <-ch
	assert.False(t, ok)

	unsubscribe()

	late, _ := hub.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
}
