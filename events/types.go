package events

import (
	"time"

	"chainlog/types"
)

// EventType is an enum-like string type for chain events
type EventType string

const (
	EventBlockAdded     EventType = "BlockAdded"
	EventBlocksImported EventType = "BlocksImported"
	EventGapDetected    EventType = "GapDetected"
	EventForkResolved   EventType = "ForkResolved"
	EventSyncCompleted  EventType = "SyncCompleted"
)

// ChainEvent represents any event that occurs on a chain
type ChainEvent interface {
	Type() EventType
	Timestamp() time.Time
	ChainID() string
}

// BlockAdded event when a locally authored block is appended
type BlockAdded struct {
	chainID   string
	block     *types.Block
	timestamp time.Time
}

func NewBlockAdded(chainID string, block *types.Block) *BlockAdded {
	return &BlockAdded{chainID: chainID, block: block, timestamp: time.Now()}
}

func (e *BlockAdded) Type() EventType      { return EventBlockAdded }
func (e *BlockAdded) Timestamp() time.Time { return e.timestamp }
func (e *BlockAdded) ChainID() string      { return e.chainID }
func (e *BlockAdded) Block() *types.Block  { return e.block }

// BlocksImported event when an import batch finishes
type BlocksImported struct {
	chainID     string
	accepted    int
	rejected    int
	latestBlock uint64
	timestamp   time.Time
}

func NewBlocksImported(chainID string, accepted, rejected int, latestBlock uint64) *BlocksImported {
	return &BlocksImported{
		chainID:     chainID,
		accepted:    accepted,
		rejected:    rejected,
		latestBlock: latestBlock,
		timestamp:   time.Now(),
	}
}

func (e *BlocksImported) Type() EventType      { return EventBlocksImported }
func (e *BlocksImported) Timestamp() time.Time { return e.timestamp }
func (e *BlocksImported) ChainID() string      { return e.chainID }
func (e *BlocksImported) Accepted() int        { return e.accepted }
func (e *BlocksImported) Rejected() int        { return e.rejected }
func (e *BlocksImported) LatestBlock() uint64  { return e.latestBlock }

// GapDetected event when recomputed gaps are non-empty
type GapDetected struct {
	chainID   string
	gaps      []types.GapRange
	timestamp time.Time
}

func NewGapDetected(chainID string, gaps []types.GapRange) *GapDetected {
	return &GapDetected{chainID: chainID, gaps: gaps, timestamp: time.Now()}
}

func (e *GapDetected) Type() EventType        { return EventGapDetected }
func (e *GapDetected) Timestamp() time.Time   { return e.timestamp }
func (e *GapDetected) ChainID() string        { return e.chainID }
func (e *GapDetected) Gaps() []types.GapRange { return e.gaps }

// ForkResolved event when a duplicate block number was tie-broken
type ForkResolved struct {
	chainID     string
	blockNumber uint64
	winnerHash  string
	loserHash   string
	timestamp   time.Time
}

func NewForkResolved(chainID string, blockNumber uint64, winnerHash, loserHash string) *ForkResolved {
	return &ForkResolved{
		chainID:     chainID,
		blockNumber: blockNumber,
		winnerHash:  winnerHash,
		loserHash:   loserHash,
		timestamp:   time.Now(),
	}
}

func (e *ForkResolved) Type() EventType      { return EventForkResolved }
func (e *ForkResolved) Timestamp() time.Time { return e.timestamp }
func (e *ForkResolved) ChainID() string      { return e.chainID }
func (e *ForkResolved) BlockNumber() uint64  { return e.blockNumber }
func (e *ForkResolved) WinnerHash() string   { return e.winnerHash }
func (e *ForkResolved) LoserHash() string    { return e.loserHash }

// SyncCompleted event when one sync round finishes
type SyncCompleted struct {
	chainID   string
	peerID    string
	blocks    int
	timestamp time.Time
}

func NewSyncCompleted(chainID, peerID string, blocks int) *SyncCompleted {
	return &SyncCompleted{chainID: chainID, peerID: peerID, blocks: blocks, timestamp: time.Now()}
}

func (e *SyncCompleted) Type() EventType      { return EventSyncCompleted }
func (e *SyncCompleted) Timestamp() time.Time { return e.timestamp }
func (e *SyncCompleted) ChainID() string      { return e.chainID }
func (e *SyncCompleted) PeerID() string       { return e.peerID }
func (e *SyncCompleted) Blocks() int          { return e.blocks }
