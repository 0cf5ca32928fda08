package chain

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"chainlog/config"
	"chainlog/events"
	"chainlog/integrity"
	"chainlog/jsonx"
	"chainlog/logx"
	"chainlog/monitoring"
	"chainlog/store"
	"chainlog/types"
	"chainlog/utils"
)

// Status is the manager lifecycle: uninitialized -> ready -> destroyed.
type Status int

const (
	StatusUninitialized Status = iota
	StatusReady
	StatusDestroyed
)

// ManagerConfig parameterizes one chain manager.
type ManagerConfig struct {
	ChainID    string
	SelfID     string
	SigningKey []byte
	ChunkSize  uint64 // 0 means config.ChunkSize
}

// Manager owns one chain's state: it appends locally authored blocks,
// imports externally received ones after validation, and answers
// queries. All mutating operations are serialized by an internal mutex;
// queries read a consistent snapshot and never observe a half-applied
// import.
type Manager struct {
	mu sync.RWMutex

	chainID    string
	selfID     string
	signingKey []byte
	chunkSize  uint64

	adapter store.Adapter
	bus     *events.EventBus // optional

	status  Status
	blocks  map[uint64]*types.Block
	byHash  map[string]uint64
	chunks  map[uint64]*types.Chunk
	pending map[uint64][]*types.Block // blocks whose predecessor has not arrived yet
	state   types.ChainState
}

// NewManager constructs a manager over the given storage adapter. The bus
// may be nil when no one consumes events.
func NewManager(cfg ManagerConfig, adapter store.Adapter, bus *events.EventBus) *Manager {
	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = config.ChunkSize
	}
	return &Manager{
		chainID:    cfg.ChainID,
		selfID:     cfg.SelfID,
		signingKey: cfg.SigningKey,
		chunkSize:  chunkSize,
		adapter:    adapter,
		bus:        bus,
		blocks:     make(map[uint64]*types.Block),
		byHash:     make(map[string]uint64),
		chunks:     make(map[uint64]*types.Chunk),
		pending:    make(map[uint64][]*types.Block),
		state:      types.ChainState{ChainID: cfg.ChainID},
	}
}

// genesisPayload is the payload of a locally created genesis block. It
// depends only on the chain id, so every member of a room derives the
// identical genesis and chains converge from block zero.
type genesisPayload struct {
	ChainID string `json:"chain_id"`
}

// Initialize loads existing chain state from the adapter, or creates the
// genesis block when the chain is empty. Must be called exactly once
// before any other operation.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case StatusReady:
		return fmt.Errorf("chain %s already initialized", m.chainID)
	case StatusDestroyed:
		return ErrDestroyed
	}

	if err := m.adapter.Initialize(); err != nil {
		return err
	}

	blocks, err := m.adapter.GetAllBlocks(m.chainID)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		m.blocks[b.BlockNumber] = b
		m.byHash[b.BlockHash] = b.BlockNumber
	}

	chunks, err := m.adapter.GetChunks(m.chainID)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		m.chunks[c.ChunkID] = c
	}

	if len(m.blocks) == 0 {
		if err := m.createGenesis(); err != nil {
			return err
		}
	}

	m.recomputeState()
	m.status = StatusReady
	logx.Info("CHAIN", fmt.Sprintf("Chain %s ready | latest=%d gaps=%d chunks=%d",
		m.chainID, m.state.LatestBlock, len(m.state.Gaps), m.state.TotalChunks))
	return nil
}

func (m *Manager) createGenesis() error {
	if len(m.signingKey) == 0 {
		return &ConfigurationError{Reason: "no signing key configured for chain " + m.chainID}
	}

	data, err := jsonx.Marshal(genesisPayload{ChainID: m.chainID})
	if err != nil {
		return err
	}

	// CreatedAt is fixed at zero: the genesis must hash identically on
	// every member of the room.
	genesis := &types.Block{
		BlockNumber:  0,
		PreviousHash: "",
		ChunkID:      0,
		Data:         data,
		CreatedAt:    0,
	}
	integrity.SignBlock(genesis, m.signingKey)
	genesis.BlockHash = integrity.GenerateBlockHash(genesis)

	if err := m.adapter.StoreBlock(m.chainID, genesis); err != nil {
		return err
	}
	m.blocks[0] = genesis
	m.byHash[genesis.BlockHash] = 0
	m.refreshChunk(0)
	logx.Info("CHAIN", fmt.Sprintf("Created genesis for chain %s: %s", m.chainID, genesis.BlockHash))
	return nil
}

// AddBlock constructs, signs and persists the next locally authored
// block. On storage failure no in-memory state is retained; the block
// was not appended.
func (m *Manager) AddBlock(data json.RawMessage) (*types.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(); err != nil {
		return nil, err
	}
	if len(m.signingKey) == 0 {
		return nil, &ConfigurationError{Reason: "no signing key configured for chain " + m.chainID}
	}

	next := m.state.LatestBlock + 1
	block := &types.Block{
		BlockNumber:  next,
		PreviousHash: m.state.LatestHash,
		ChunkID:      next / m.chunkSize,
		Data:         data,
		CreatedAt:    utils.NowMillis(),
	}
	integrity.SignBlock(block, m.signingKey)
	block.BlockHash = integrity.GenerateBlockHash(block)

	if err := m.adapter.StoreBlock(m.chainID, block); err != nil {
		return nil, err
	}

	m.blocks[next] = block
	m.byHash[block.BlockHash] = next
	m.refreshChunk(block.ChunkID)
	m.recomputeState()

	monitoring.IncreaseBlocksAppended()
	monitoring.SetChainHeight(m.chainID, next)
	if m.bus != nil {
		m.bus.Publish(events.NewBlockAdded(m.chainID, block.Clone()))
	}
	return block.Clone(), nil
}

// ConfirmBlock records that peerID echoed receipt of the block with the
// given hash. Idempotent; purely advisory for integrity scoring.
func (m *Manager) ConfirmBlock(blockHash, peerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(); err != nil {
		return err
	}
	number, ok := m.byHash[blockHash]
	if !ok {
		return fmt.Errorf("block %s not found on chain %s", blockHash, m.chainID)
	}
	block := m.blocks[number]
	if block.HasConfirmation(peerID) {
		return nil
	}
	updated := block.Clone()
	updated.ConfirmedBy = append(updated.ConfirmedBy, peerID)
	if err := m.adapter.StoreBlock(m.chainID, updated); err != nil {
		return err
	}
	m.blocks[number] = updated
	return nil
}

// GetBlocksAfter returns blocks with numbers strictly greater than n, in
// ascending order.
func (m *Manager) GetBlocksAfter(n uint64) []*types.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Block
	for number, b := range m.blocks {
		if number > n {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockNumber < out[j].BlockNumber })
	return out
}

// GetAllBlocks returns every held block in ascending order, at most one
// per block number.
func (m *Manager) GetAllBlocks() []*types.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.Block, 0, len(m.blocks))
	for _, b := range m.blocks {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockNumber < out[j].BlockNumber })
	return out
}

// GetLatestBlock returns the highest-numbered held block, or nil before
// initialization created one.
func (m *Manager) GetLatestBlock() *types.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blocks[m.state.LatestBlock]
	if !ok {
		return nil
	}
	return b.Clone()
}

// GetChunks returns the chunk summaries in ascending chunk order.
func (m *Manager) GetChunks() []*types.Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.Chunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkID < out[j].ChunkID })
	return out
}

// GetChainState returns a snapshot of the derived chain state.
func (m *Manager) GetChainState() types.ChainState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotState()
}

// GetIntegrityInfo derives the display snapshot against the given peer
// count. Recomputed per call; peer counts change continuously.
func (m *Manager) GetIntegrityInfo(totalPeerCount int) *types.IntegrityInfo {
	m.mu.RLock()
	snap := m.snapshotState()
	m.mu.RUnlock()

	snap.PeerCount = totalPeerCount
	return integrity.BuildIntegrityInfo(&snap, totalPeerCount)
}

// Destroy releases the storage adapter. All further calls fail.
func (m *Manager) Destroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == StatusDestroyed {
		return nil
	}
	m.status = StatusDestroyed
	return m.adapter.Close()
}

func (m *Manager) ensureReady() error {
	switch m.status {
	case StatusReady:
		return nil
	case StatusDestroyed:
		return ErrDestroyed
	default:
		return ErrNotReady
	}
}

func (m *Manager) snapshotState() types.ChainState {
	snap := m.state
	snap.Gaps = make([]types.GapRange, len(m.state.Gaps))
	copy(snap.Gaps, m.state.Gaps)
	return snap
}

// recomputeState rebuilds the derived summary from the block set. Caller
// holds the write lock.
func (m *Manager) recomputeState() {
	held := make([]uint64, 0, len(m.blocks))
	var latest uint64
	for n := range m.blocks {
		held = append(held, n)
		if n > latest {
			latest = n
		}
	}

	m.state.LatestBlock = latest
	if b, ok := m.blocks[latest]; ok {
		m.state.LatestHash = b.BlockHash
	}
	if g, ok := m.blocks[0]; ok {
		m.state.GenesisHash = g.BlockHash
	}
	if len(held) == 0 {
		m.state.Gaps = nil
	} else {
		m.state.Gaps = integrity.DetectGaps(held, latest)
	}
	m.state.TotalChunks = len(m.chunks)
}
