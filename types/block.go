package types

import "encoding/json"

// Block is one signed, hash-linked entry in a chain. Data is an opaque
// payload (the room layer encrypts it before it reaches this core).
type Block struct {
	BlockNumber  uint64          `json:"block_number"`
	PreviousHash string          `json:"previous_hash"` // empty only for the genesis block
	ChunkID      uint64          `json:"chunk_id"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    int64           `json:"created_at"` // unix milliseconds, author clock
	BlockHash    string          `json:"block_hash"`
	Signature    string          `json:"signature"`
	ConfirmedBy  []string        `json:"confirmed_by,omitempty"`
}

func (b *Block) IsGenesis() bool {
	return b.BlockNumber == 0 && b.PreviousHash == ""
}

// HasConfirmation reports whether peerID already echoed receipt of this block.
func (b *Block) HasConfirmation(peerID string) bool {
	for _, id := range b.ConfirmedBy {
		if id == peerID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand blocks across goroutines
// without sharing the ConfirmedBy slice.
func (b *Block) Clone() *Block {
	cp := *b
	if b.Data != nil {
		cp.Data = make(json.RawMessage, len(b.Data))
		copy(cp.Data, b.Data)
	}
	if b.ConfirmedBy != nil {
		cp.ConfirmedBy = make([]string, len(b.ConfirmedBy))
		copy(cp.ConfirmedBy, b.ConfirmedBy)
	}
	return &cp
}

// Chunk is a fixed-size contiguous range of blocks summarized by a Merkle
// root for cheap integrity comparison between peers.
type Chunk struct {
	ChunkID      uint64   `json:"chunk_id"`
	ChainID      string   `json:"chain_id"`
	StartBlock   uint64   `json:"start_block"`
	EndBlock     uint64   `json:"end_block"`
	BlockCount   int      `json:"block_count"`
	MerkleRoot   string   `json:"merkle_root"`
	LastUpdated  int64    `json:"last_updated"`
	ReplicatedOn []string `json:"replicated_on,omitempty"`
}
