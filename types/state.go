package types

// GapReason classifies why a range is believed to be missing. Reasons are
// user-facing explanation only and never feed correctness logic.
type GapReason string

const (
	GapReasonPeerOffline       GapReason = "peer_offline"
	GapReasonNetworkPartition  GapReason = "network_partition"
	GapReasonLateJoin          GapReason = "late_join"
	GapReasonStorageCorruption GapReason = "storage_corruption"
	GapReasonSyncTimeout       GapReason = "sync_timeout"
	GapReasonUnknown           GapReason = "unknown"
)

// GapRange is a maximal contiguous run of block numbers known to exist but
// not locally present.
type GapRange struct {
	Start      uint64      `json:"start"`
	End        uint64      `json:"end"`
	Reasons    []GapReason `json:"reasons"`
	DetectedAt int64       `json:"detected_at"`
}

func (g GapRange) Size() uint64 {
	return g.End - g.Start + 1
}

// ChainState is the manager's derived summary over the block set. It is
// recomputed, never persisted as ground truth.
type ChainState struct {
	ChainID     string     `json:"chain_id"`
	LatestBlock uint64     `json:"latest_block"`
	TotalChunks int        `json:"total_chunks"`
	LatestHash  string     `json:"latest_hash"`
	GenesisHash string     `json:"genesis_hash"`
	Gaps        []GapRange `json:"gaps"`
	PeerCount   int        `json:"peer_count"`
	LastSync    int64      `json:"last_sync"`
}

// IntegrityStatus buckets the numeric score for display.
type IntegrityStatus string

const (
	IntegrityExcellent IntegrityStatus = "excellent"
	IntegrityGood      IntegrityStatus = "good"
	IntegrityFair      IntegrityStatus = "fair"
	IntegrityPoor      IntegrityStatus = "poor"
	IntegrityCritical  IntegrityStatus = "critical"
)

// IntegrityInfo is a display-only snapshot derived from ChainState.
type IntegrityInfo struct {
	Score       int             `json:"score"`
	Status      IntegrityStatus `json:"status"`
	Description string          `json:"description"`
	PeerCount   int             `json:"peer_count"`
	TotalBlocks uint64          `json:"total_blocks"`
	Gaps        []GapRange      `json:"gaps"`
	Chunks      int             `json:"chunks"`
}

// BlockRange is an inclusive window of block numbers.
type BlockRange struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// PeerInfo is the local belief about what a peer holds. It is a lower
// bound, never authoritative until an actual sync verifies it.
type PeerInfo struct {
	PeerID          string     `json:"peer_id"`
	DisplayName     string     `json:"display_name"`
	BlockRange      BlockRange `json:"block_range"`
	CompleteChunks  []uint64   `json:"complete_chunks,omitempty"`
	LastSeen        int64      `json:"last_seen"`
	Online          bool       `json:"online"`
	StorageLocation string     `json:"storage_location,omitempty"`
}
