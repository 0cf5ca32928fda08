package store

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"chainlog/jsonx"
	"chainlog/types"
)

const (
	prefixBlocks = "blocks:"
	prefixChunks = "chunks:"

	numberKeySize = 8
)

var errClosed = errors.New("adapter closed")

// LevelDBAdapter persists blocks and chunks into LevelDB.
// Key layout:
// - blocks:<chainID>:<block number uint64 BE> = json(types.Block)
// - chunks:<chainID>:<chunk id uint64 BE> = json(types.Chunk)
type LevelDBAdapter struct {
	mu  sync.RWMutex
	dir string
	db  *leveldb.DB
}

// NewLevelDBAdapter opens (or creates) a LevelDB database at dir.
func NewLevelDBAdapter(dir string) (*LevelDBAdapter, error) {
	if dir == "" {
		return nil, wrapStorage("open", errors.New("directory path cannot be empty"))
	}
	db, err := leveldb.OpenFile(filepath.Clean(dir), nil)
	if err != nil {
		return nil, wrapStorage("open "+dir, err)
	}
	return &LevelDBAdapter{dir: dir, db: db}, nil
}

func (s *LevelDBAdapter) Initialize() error {
	return nil
}

func numberKey(prefix, chainID string, n uint64) []byte {
	key := make([]byte, 0, len(prefix)+len(chainID)+1+numberKeySize)
	key = append(key, prefix...)
	key = append(key, chainID...)
	key = append(key, ':')
	num := make([]byte, numberKeySize)
	binary.BigEndian.PutUint64(num, n)
	return append(key, num...)
}

func chainPrefix(prefix, chainID string) []byte {
	return []byte(prefix + chainID + ":")
}

func (s *LevelDBAdapter) getDB() (*leveldb.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errClosed
	}
	return s.db, nil
}

func (s *LevelDBAdapter) StoreBlock(chainID string, block *types.Block) error {
	db, err := s.getDB()
	if err != nil {
		return wrapStorage("store block", err)
	}
	val, err := jsonx.Marshal(block)
	if err != nil {
		return wrapStorage("encode block", err)
	}
	if err := db.Put(numberKey(prefixBlocks, chainID, block.BlockNumber), val, nil); err != nil {
		return wrapStorage("store block", err)
	}
	return nil
}

func (s *LevelDBAdapter) GetBlocksAfter(chainID string, blockNumber uint64) ([]*types.Block, error) {
	blocks, err := s.GetAllBlocks(chainID)
	if err != nil {
		return nil, err
	}
	out := blocks[:0]
	for _, b := range blocks {
		if b.BlockNumber > blockNumber {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *LevelDBAdapter) GetAllBlocks(chainID string) ([]*types.Block, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, wrapStorage("read blocks", err)
	}
	iter := db.NewIterator(util.BytesPrefix(chainPrefix(prefixBlocks, chainID)), nil)
	defer iter.Release()

	var out []*types.Block
	for iter.Next() {
		var b types.Block
		if err := jsonx.Unmarshal(iter.Value(), &b); err != nil {
			return nil, wrapStorage("decode block", err)
		}
		out = append(out, &b)
	}
	if err := iter.Error(); err != nil {
		return nil, wrapStorage("read blocks", err)
	}
	// big-endian keys iterate in block-number order already
	return out, nil
}

func (s *LevelDBAdapter) GetChunks(chainID string) ([]*types.Chunk, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, wrapStorage("read chunks", err)
	}
	iter := db.NewIterator(util.BytesPrefix(chainPrefix(prefixChunks, chainID)), nil)
	defer iter.Release()

	var out []*types.Chunk
	for iter.Next() {
		var c types.Chunk
		if err := jsonx.Unmarshal(iter.Value(), &c); err != nil {
			return nil, wrapStorage("decode chunk", err)
		}
		out = append(out, &c)
	}
	if err := iter.Error(); err != nil {
		return nil, wrapStorage("read chunks", err)
	}
	return out, nil
}

func (s *LevelDBAdapter) StoreChunk(chainID string, chunk *types.Chunk) error {
	db, err := s.getDB()
	if err != nil {
		return wrapStorage("store chunk", err)
	}
	val, err := jsonx.Marshal(chunk)
	if err != nil {
		return wrapStorage("encode chunk", err)
	}
	if err := db.Put(numberKey(prefixChunks, chainID, chunk.ChunkID), val, nil); err != nil {
		return wrapStorage("store chunk", err)
	}
	return nil
}

func (s *LevelDBAdapter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
