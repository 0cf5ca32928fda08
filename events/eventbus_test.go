package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainlog/types"
)

func TestSubscribePublishUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	id, ch := bus.Subscribe()

	assert.True(t, bus.HasSubscriber(id))
	assert.Equal(t, 1, bus.GetTotalSubscriptions())

	block := &types.Block{BlockNumber: 1, BlockHash: "abc"}
	bus.Publish(NewBlockAdded("room-1", block))

	event := <-ch
	assert.Equal(t, EventBlockAdded, event.Type())
	assert.Equal(t, "room-1", event.ChainID())
	assert.False(t, event.Timestamp().IsZero())

	added, ok := event.(*BlockAdded)
	require.True(t, ok)
	assert.Equal(t, uint64(1), added.Block().BlockNumber)

	assert.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.HasSubscriber(id))
	_, open := <-ch
	assert.False(t, open, "unsubscribe closes the channel")

	assert.False(t, bus.Unsubscribe(id), "second unsubscribe is a no-op")
}

func TestPublishFansOut(t *testing.T) {
	bus := NewEventBus()
	_, ch1 := bus.Subscribe()
	_, ch2 := bus.Subscribe()

	bus.Publish(NewSyncCompleted("room-1", "peer-b", 5))

	for _, ch := range []chan ChainEvent{ch1, ch2} {
		event := <-ch
		sync, ok := event.(*SyncCompleted)
		require.True(t, ok)
		assert.Equal(t, "peer-b", sync.PeerID())
		assert.Equal(t, 5, sync.Blocks())
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := NewEventBus()
	_, ch := bus.Subscribe()

	// overflow the buffer; the extra events are dropped, not deadlocked on
	for i := 0; i < cap(ch)+10; i++ {
		bus.Publish(NewBlocksImported("room-1", i, 0, uint64(i)))
	}
	assert.Len(t, ch, cap(ch))

	first := <-ch
	imported, ok := first.(*BlocksImported)
	require.True(t, ok)
	assert.Equal(t, 0, imported.Accepted())
}

func TestEventAccessors(t *testing.T) {
	gap := NewGapDetected("room-1", []types.GapRange{{Start: 4, End: 6}})
	assert.Equal(t, EventGapDetected, gap.Type())
	require.Len(t, gap.Gaps(), 1)
	assert.Equal(t, uint64(3), gap.Gaps()[0].Size())

	fork := NewForkResolved("room-1", 7, "winner", "loser")
	assert.Equal(t, EventForkResolved, fork.Type())
	assert.Equal(t, uint64(7), fork.BlockNumber())
	assert.Equal(t, "winner", fork.WinnerHash())
	assert.Equal(t, "loser", fork.LoserHash())
}
