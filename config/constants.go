package config

import "time"

const (
	// ChunkSize is the fixed number of consecutive blocks grouped into one
	// Merkle-summarized chunk. Chunk boundaries are derived from block
	// numbers, so every peer computes the same grouping.
	ChunkSize uint64 = 64

	// BatchSize bounds the number of blocks carried in one sync response.
	BatchSize = 50

	// MinSyncInterval is the backpressure floor between sync rounds.
	MinSyncInterval = 5 * time.Second

	// SyncTimeout is how long one sync exchange may run before it is
	// treated as failed and its partial batch discarded.
	SyncTimeout = 30 * time.Second

	// TargetReplication is the peer replication count at which the
	// integrity score stops rewarding additional copies.
	TargetReplication = 3

	// MaxSyncErrorLog caps the sync manager's retained error history.
	MaxSyncErrorLog = 20
)
