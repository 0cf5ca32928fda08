package store

import (
	"sort"
	"sync"

	"chainlog/types"
)

// MemoryAdapter keeps everything in process memory. Used for tests and
// ephemeral rooms that never outlive the session.
type MemoryAdapter struct {
	mu     sync.RWMutex
	blocks map[string]map[uint64]*types.Block
	chunks map[string]map[uint64]*types.Chunk
	closed bool
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		blocks: make(map[string]map[uint64]*types.Block),
		chunks: make(map[string]map[uint64]*types.Chunk),
	}
}

func (m *MemoryAdapter) Initialize() error {
	return nil
}

func (m *MemoryAdapter) StoreBlock(chainID string, block *types.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return wrapStorage("store block", errClosed)
	}
	chain, ok := m.blocks[chainID]
	if !ok {
		chain = make(map[uint64]*types.Block)
		m.blocks[chainID] = chain
	}
	chain[block.BlockNumber] = block.Clone()
	return nil
}

func (m *MemoryAdapter) GetBlocksAfter(chainID string, blockNumber uint64) ([]*types.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Block
	for n, b := range m.blocks[chainID] {
		if n > blockNumber {
			out = append(out, b.Clone())
		}
	}
	sortBlocks(out)
	return out, nil
}

func (m *MemoryAdapter) GetAllBlocks(chainID string) ([]*types.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Block, 0, len(m.blocks[chainID]))
	for _, b := range m.blocks[chainID] {
		out = append(out, b.Clone())
	}
	sortBlocks(out)
	return out, nil
}

func (m *MemoryAdapter) GetChunks(chainID string) ([]*types.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Chunk, 0, len(m.chunks[chainID]))
	for _, c := range m.chunks[chainID] {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkID < out[j].ChunkID })
	return out, nil
}

func (m *MemoryAdapter) StoreChunk(chainID string, chunk *types.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return wrapStorage("store chunk", errClosed)
	}
	chain, ok := m.chunks[chainID]
	if !ok {
		chain = make(map[uint64]*types.Chunk)
		m.chunks[chainID] = chain
	}
	cp := *chunk
	chain[chunk.ChunkID] = &cp
	return nil
}

func (m *MemoryAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func sortBlocks(blocks []*types.Block) {
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].BlockNumber < blocks[j].BlockNumber
	})
}
