package peersync

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainlog/chain"
	"chainlog/integrity"
	"chainlog/store"
	"chainlog/types"
)

// Full sync round between two in-process chain managers: a node that fell
// behind catches up to a peer through paginated sync responses and ends
// with the identical chain.
func TestSyncRoundCatchesUpLaggingNode(t *testing.T) {
	const chainID = "room-e2e"
	key, err := integrity.DeriveChainKey([]byte("e2e-secret"), chainID)
	require.NoError(t, err)

	newNode := func(selfID string) *chain.Manager {
		mgr := chain.NewManager(chain.ManagerConfig{
			ChainID:    chainID,
			SelfID:     selfID,
			SigningKey: key,
		}, store.NewMemoryAdapter(), nil)
		require.NoError(t, mgr.Initialize())
		return mgr
	}

	nodeA := newNode("peer-a")
	defer nodeA.Destroy()
	nodeB := newNode("peer-b")
	defer nodeB.Destroy()

	// peer-b authored blocks 1..10; peer-a received only the first 5
	for i := 1; i <= 10; i++ {
		_, err := nodeB.AddBlock(json.RawMessage(fmt.Sprintf(`{"text":"msg %d"}`, i)))
		require.NoError(t, err)
	}
	firstFive := nodeB.GetBlocksAfter(0)[:5]
	res, err := nodeA.ImportBlocks(firstFive)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 5)
	require.Equal(t, uint64(5), nodeA.GetChainState().LatestBlock)

	tracker := NewPeerTracker()
	tracker.UpdatePeer(types.PeerInfo{
		PeerID:     "peer-b",
		BlockRange: types.BlockRange{Start: 0, End: nodeB.GetChainState().LatestBlock},
	})

	sm := NewSyncManager(&Config{
		MinSyncInterval: time.Millisecond,
		Timeout:         time.Second,
		BatchSize:       2, // force pagination
		MaxErrorLog:     5,
	})

	target := tracker.FindBestSyncPeer(nodeA.GetChainState().LatestBlock)
	require.NotNil(t, target)
	require.Equal(t, "peer-b", target.PeerID)

	require.True(t, sm.CanSync())
	require.NoError(t, sm.StartSync(target.PeerID))

	rounds := 0
	for {
		local := nodeA.GetChainState()
		req := NewSyncRequest(chainID, "peer-a", local.LatestBlock, local.LastSync)
		resp, err := BuildResponse(req, nodeB, "peer-b", sm.cfg.BatchSize)
		require.NoError(t, err)
		require.True(t, VerifySyncResponse(resp))

		if len(resp.Blocks) == 0 {
			break
		}
		imported, err := nodeA.ImportBlocks(resp.Blocks)
		require.NoError(t, err)
		assert.Empty(t, imported.Rejected)
		sm.RecordBlocksReceived(len(imported.Accepted))

		rounds++
		require.Less(t, rounds, 20, "sync must terminate")
		if !resp.HasMore {
			break
		}
	}
	sm.CompleteSync()

	assert.Equal(t, 5, sm.BlocksReceived())
	assert.GreaterOrEqual(t, rounds, 3, "batch size 2 over 5 missing blocks needs several rounds")

	stateA := nodeA.GetChainState()
	stateB := nodeB.GetChainState()
	assert.Equal(t, uint64(10), stateA.LatestBlock)
	assert.Equal(t, stateB.LatestHash, stateA.LatestHash)
	assert.Empty(t, stateA.Gaps)

	blocksA := nodeA.GetAllBlocks()
	blocksB := nodeB.GetAllBlocks()
	require.Equal(t, len(blocksB), len(blocksA))
	for i := range blocksA {
		assert.Equal(t, blocksB[i].BlockHash, blocksA[i].BlockHash)
	}
}
