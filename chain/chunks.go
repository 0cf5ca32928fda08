package chain

import (
	"fmt"

	"chainlog/integrity"
	"chainlog/logx"
	"chainlog/types"
	"chainlog/utils"
)

// refreshChunk recomputes the Merkle summary of one chunk from the blocks
// currently held in its fixed range. Caller holds the write lock. Chunk
// summaries are derived data; a failed persist is logged and the summary
// stays usable in memory.
func (m *Manager) refreshChunk(chunkID uint64) {
	start := chunkID * m.chunkSize
	end := start + m.chunkSize - 1

	var hashes []string
	for n := start; n <= end; n++ {
		if b, ok := m.blocks[n]; ok {
			hashes = append(hashes, b.BlockHash)
		}
	}

	root, err := integrity.CalculateMerkleRoot(hashes)
	if err != nil {
		logx.Error("CHAIN", fmt.Sprintf("Chunk %d of chain %s has an undecodable block hash: %v", chunkID, m.chainID, err))
		return
	}

	chunk := &types.Chunk{
		ChunkID:     chunkID,
		ChainID:     m.chainID,
		StartBlock:  start,
		EndBlock:    end,
		BlockCount:  len(hashes),
		MerkleRoot:  root,
		LastUpdated: utils.NowMillis(),
	}
	if prev, ok := m.chunks[chunkID]; ok {
		chunk.ReplicatedOn = prev.ReplicatedOn
	}
	m.chunks[chunkID] = chunk

	if err := m.adapter.StoreChunk(m.chainID, chunk); err != nil {
		logx.Warn("CHAIN", fmt.Sprintf("Failed to persist chunk %d of chain %s: %v", chunkID, m.chainID, err))
	}
}

// MarkChunkReplicated records that a peer holds the full chunk, after a
// chunk exchange verified it.
func (m *Manager) MarkChunkReplicated(chunkID uint64, peerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(); err != nil {
		return err
	}
	chunk, ok := m.chunks[chunkID]
	if !ok {
		return fmt.Errorf("chunk %d not found on chain %s", chunkID, m.chainID)
	}
	for _, id := range chunk.ReplicatedOn {
		if id == peerID {
			return nil
		}
	}
	chunk.ReplicatedOn = append(chunk.ReplicatedOn, peerID)
	if err := m.adapter.StoreChunk(m.chainID, chunk); err != nil {
		logx.Warn("CHAIN", fmt.Sprintf("Failed to persist chunk %d of chain %s: %v", chunkID, m.chainID, err))
	}
	return nil
}
