package store

import (
	"fmt"

	"chainlog/types"
)

// Adapter abstracts the persistence backend the chain manager delegates
// all block and chunk reads/writes to. Implementations must make each
// write all-or-nothing; the manager never retries partially-failed
// writes itself.
type Adapter interface {
	Initialize() error
	StoreBlock(chainID string, block *types.Block) error
	GetBlocksAfter(chainID string, blockNumber uint64) ([]*types.Block, error)
	GetAllBlocks(chainID string) ([]*types.Block, error)
	GetChunks(chainID string) ([]*types.Chunk, error)
	StoreChunk(chainID string, chunk *types.Chunk) error
	Close() error
}

// StorageError wraps a backend failure. The failed operation is fatal to
// the call, not to the chain's in-memory state.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
