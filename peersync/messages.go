package peersync

import (
	"sort"

	"github.com/google/uuid"

	"chainlog/integrity"
	"chainlog/types"
	"chainlog/utils"
)

// NewSyncRequest declares what the requester already holds. The responder
// must cut by LastBlockNumber; LastTimestamp is human-readable context
// only and never trusted for ordering.
func NewSyncRequest(chainID, requesterID string, lastBlockNumber uint64, lastTimestamp int64) *types.SyncRequest {
	return &types.SyncRequest{
		Type:            types.MsgTypeSyncRequest,
		ChainID:         chainID,
		LastBlockNumber: lastBlockNumber,
		LastTimestamp:   lastTimestamp,
		RequesterID:     requesterID,
		RequestID:       uuid.Must(uuid.NewV7()).String(),
	}
}

// NewSyncResponse bundles a batch of blocks, oldest first, with a Merkle
// batch hash over their block hashes. A batch larger than batchSize is
// truncated and HasMore forced on, so large deficits are pulled in
// bounded increments.
func NewSyncResponse(chainID, responderID string, blocks []*types.Block, hasMore bool, batchSize int) (*types.SyncResponse, error) {
	ordered := make([]*types.Block, len(blocks))
	copy(ordered, blocks)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].BlockNumber < ordered[j].BlockNumber
	})

	if batchSize > 0 && len(ordered) > batchSize {
		ordered = ordered[:batchSize]
		hasMore = true
	}

	hashes := make([]string, len(ordered))
	for i, b := range ordered {
		hashes[i] = b.BlockHash
	}
	batchHash, err := integrity.CalculateMerkleRoot(hashes)
	if err != nil {
		return nil, err
	}

	resp := &types.SyncResponse{
		Type:        types.MsgTypeSyncResponse,
		ChainID:     chainID,
		Blocks:      ordered,
		BatchHash:   batchHash,
		HasMore:     hasMore,
		ResponderID: responderID,
	}
	if len(ordered) > 0 {
		resp.FromBlock = ordered[0].BlockNumber
		resp.ToBlock = ordered[len(ordered)-1].BlockNumber
	}
	return resp, nil
}

// VerifySyncResponse recomputes the Merkle root over the received blocks
// and compares it to the carried batch hash. Cheap to fail fast on,
// independent from the per-block checks the chain manager runs.
func VerifySyncResponse(resp *types.SyncResponse) bool {
	if resp == nil || resp.Type != types.MsgTypeSyncResponse {
		return false
	}
	hashes := make([]string, len(resp.Blocks))
	for i, b := range resp.Blocks {
		if b == nil {
			return false
		}
		hashes[i] = b.BlockHash
	}
	return integrity.VerifyMerkleRoot(hashes, resp.BatchHash)
}

// CalculateNeededBlocks returns the next bounded window to request, or
// nil when the peer has nothing new.
func CalculateNeededBlocks(localLatest, peerLatest uint64, batchSize int) *types.BlockRange {
	if peerLatest <= localLatest || batchSize <= 0 {
		return nil
	}
	start := localLatest + 1
	end := peerLatest
	if max := start + uint64(batchSize) - 1; end > max {
		end = max
	}
	return &types.BlockRange{Start: start, End: end}
}

// BlockSource is the slice of the chain manager a responder needs.
type BlockSource interface {
	GetBlocksAfter(n uint64) []*types.Block
}

// BuildResponse answers a sync request from a local block source.
func BuildResponse(req *types.SyncRequest, source BlockSource, responderID string, batchSize int) (*types.SyncResponse, error) {
	available := source.GetBlocksAfter(req.LastBlockNumber)
	hasMore := batchSize > 0 && len(available) > batchSize
	resp, err := NewSyncResponse(req.ChainID, responderID, available, hasMore, batchSize)
	if err != nil {
		return nil, err
	}
	resp.RequestID = req.RequestID
	return resp, nil
}

// NewPeerInfoMsg wraps this node's own holdings for gossip to peers.
func NewPeerInfoMsg(peer types.PeerInfo) *types.PeerInfoMsg {
	peer.LastSeen = utils.NowMillis()
	return &types.PeerInfoMsg{Type: types.MsgTypePeerInfo, Peer: peer}
}

// NewChunkRequest asks a peer for one full chunk plus its blocks.
func NewChunkRequest(chainID string, chunkID uint64, requesterID string) *types.ChunkRequest {
	return &types.ChunkRequest{
		Type:        types.MsgTypeChunkRequest,
		ChainID:     chainID,
		ChunkID:     chunkID,
		RequesterID: requesterID,
	}
}

// NewChunkResponse carries one chunk summary with its blocks.
func NewChunkResponse(chainID string, chunk *types.Chunk, blocks []*types.Block, responderID string) *types.ChunkResponse {
	return &types.ChunkResponse{
		Type:        types.MsgTypeChunkResponse,
		ChainID:     chainID,
		Chunk:       chunk,
		Blocks:      blocks,
		ResponderID: responderID,
	}
}

// VerifyChunkResponse checks the carried blocks against the chunk's
// Merkle root before anything is imported.
func VerifyChunkResponse(resp *types.ChunkResponse) bool {
	if resp == nil || resp.Type != types.MsgTypeChunkResponse || resp.Chunk == nil {
		return false
	}
	hashes := make([]string, len(resp.Blocks))
	for i, b := range resp.Blocks {
		if b == nil {
			return false
		}
		hashes[i] = b.BlockHash
	}
	return integrity.VerifyMerkleRoot(hashes, resp.Chunk.MerkleRoot)
}
