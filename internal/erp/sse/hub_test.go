package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBroadcastDeliversToAllClients(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := &Client{ID: "a", UserID: "u1", Events: make(chan Event, 1)}
	b := &Client{ID: "b", UserID: "u2", Events: make(chan Event, 1)}
	h.Register(a)
	h.Register(b)
	require.Equal(t, 2, h.ClientCount())

	h.Publish(EventStageUpdate, map[string]string{"stage_id": "s1"})

	for _, c := range []*Client{a, b} {
		ev := <-c.Events
		assert.Equal(t, EventStageUpdate, ev.EventType)
		var payload map[string]string
		require.NoError(t, json.Unmarshal([]byte(ev.Data), &payload))
		assert.Equal(t, "s1", payload["stage_id"])
	}
}

func TestBroadcastSkipsFullBuffer(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := &Client{ID: "a", Events: make(chan Event, 1)}
	h.Register(c)

	h.Broadcast(Event{EventType: "one"})
	h.Broadcast(Event{EventType: "two"})

	assert.Equal(t, "one", (<-c.Events).EventType)
	assert.Len(t, c.Events, 0)
}

func TestUnregisterClosesChannel(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := &Client{ID: "a", Events: make(chan Event, 1)}
	h.Register(c)
	h.Unregister("a")
	h.Unregister("a")

	_, ok := <-c.Events
	assert.False(t, ok)
	assert.Equal(t, 0, h.ClientCount())
}

func TestNotifyStageAssignedOnlyReachesAssignee(t *testing.T) {
	a := &Client{ID: "assign-a", UserID: "u1", Events: make(chan Event, 1)}
	b := &Client{ID: "assign-b", UserID: "u2", Events: make(chan Event, 1)}
	GlobalHub.Register(a)
	GlobalHub.Register(b)
	defer GlobalHub.Unregister(a.ID)
	defer GlobalHub.Unregister(b.ID)

	NotifyStageAssigned("u1", "p1", "s1", "Assembly")

	ev := <-a.Events
	assert.Equal(t, EventStageAssigned, ev.EventType)
	assert.Contains(t, ev.Data, "Assembly")
	assert.Len(t, b.Events, 0)
}

func TestBroadcastRespectsTopics(t *testing.T) {
	h := NewHub(zap.NewNop())
	stock := &Client{ID: "stock", Topics: map[string]bool{EventWarehouseUpdate: true}, Events: make(chan Event, 2)}
	all := &Client{ID: "all", Events: make(chan Event, 2)}
	h.Register(stock)
	h.Register(all)

	h.Publish(EventDealUpdate, map[string]string{"deal_id": "d1"})
	h.Publish(EventWarehouseUpdate, map[string]string{"item_id": "w1"})

	require.Len(t, stock.Events, 1)
	assert.Equal(t, EventWarehouseUpdate, (<-stock.Events).EventType)
	assert.Len(t, all.Events, 2)
}

func TestIsKnownEvent(t *testing.T) {
	assert.True(t, IsKnownEvent(EventShipmentUpdate))
	assert.False(t, IsKnownEvent("task_update"))
}
