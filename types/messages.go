package types

// Wire message type tags. Messages are JSON-serializable and carried over
// whatever channel the room layer provides.
const (
	MsgTypeSyncRequest   = "sync_request"
	MsgTypeSyncResponse  = "sync_response"
	MsgTypePeerInfo      = "peer_info"
	MsgTypeChunkRequest  = "chunk_request"
	MsgTypeChunkResponse = "chunk_response"
)

// SyncRequest declares what the requester already holds. The responder
// trusts LastBlockNumber as the cut point; LastTimestamp is context only.
type SyncRequest struct {
	Type            string `json:"type"`
	ChainID         string `json:"chain_id"`
	LastBlockNumber uint64 `json:"last_block_number"`
	LastTimestamp   int64  `json:"last_timestamp"`
	RequesterID     string `json:"requester_id"`
	RequestID       string `json:"request_id"`
}

// SyncResponse carries one bounded batch, oldest first. BatchHash is the
// Merkle root over the batch's block hashes and must be checked before
// the blocks are handed to the chain manager.
type SyncResponse struct {
	Type        string   `json:"type"`
	ChainID     string   `json:"chain_id"`
	Blocks      []*Block `json:"blocks"`
	BatchHash   string   `json:"batch_hash"`
	FromBlock   uint64   `json:"from_block"`
	ToBlock     uint64   `json:"to_block"`
	HasMore     bool     `json:"has_more"`
	ResponderID string   `json:"responder_id"`
	RequestID   string   `json:"request_id,omitempty"`
}

type PeerInfoMsg struct {
	Type string   `json:"type"`
	Peer PeerInfo `json:"peer"`
}

type ChunkRequest struct {
	Type        string `json:"type"`
	ChainID     string `json:"chain_id"`
	ChunkID     uint64 `json:"chunk_id"`
	RequesterID string `json:"requester_id"`
}

type ChunkResponse struct {
	Type        string   `json:"type"`
	ChainID     string   `json:"chain_id"`
	Chunk       *Chunk   `json:"chunk"`
	Blocks      []*Block `json:"blocks"`
	ResponderID string   `json:"responder_id"`
}
