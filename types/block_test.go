package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGenesis(t *testing.T) {
	assert.True(t, (&Block{BlockNumber: 0, PreviousHash: ""}).IsGenesis())
	assert.False(t, (&Block{BlockNumber: 1, PreviousHash: ""}).IsGenesis())
	assert.False(t, (&Block{BlockNumber: 0, PreviousHash: "abc"}).IsGenesis())
}

func TestHasConfirmation(t *testing.T) {
	b := &Block{ConfirmedBy: []string{"peer-a", "peer-b"}}
	assert.True(t, b.HasConfirmation("peer-a"))
	assert.False(t, b.HasConfirmation("peer-c"))
	assert.False(t, (&Block{}).HasConfirmation("peer-a"))
}

func TestCloneIsDeep(t *testing.T) {
	original := &Block{
		BlockNumber: 3,
		Data:        json.RawMessage(`{"text":"hello"}`),
		BlockHash:   "abc",
		ConfirmedBy: []string{"peer-a"},
	}

	cp := original.Clone()
	require.Equal(t, original, cp)

	cp.Data[2] = 'X'
	cp.ConfirmedBy[0] = "peer-z"
	cp.BlockHash = "changed"

	assert.Equal(t, json.RawMessage(`{"text":"hello"}`), original.Data)
	assert.Equal(t, []string{"peer-a"}, original.ConfirmedBy)
	assert.Equal(t, "abc", original.BlockHash)
}

func TestBlockJSONFieldNames(t *testing.T) {
	b := &Block{BlockNumber: 7, PreviousHash: "prev", BlockHash: "hash", CreatedAt: 123}
	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Contains(t, m, "block_number")
	assert.Contains(t, m, "previous_hash")
	assert.Contains(t, m, "block_hash")
	assert.Contains(t, m, "created_at")
	assert.NotContains(t, m, "confirmed_by", "empty confirmations are omitted")
}

func TestGapRangeSize(t *testing.T) {
	assert.Equal(t, uint64(3), GapRange{Start: 4, End: 6}.Size())
	assert.Equal(t, uint64(1), GapRange{Start: 9, End: 9}.Size())
}
