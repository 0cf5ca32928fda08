package store

import (
	"encoding/binary"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"chainlog/jsonx"
	"chainlog/types"
)

// BoltAdapter persists into a single bbolt file with one bucket pair per
// chain. Bolt gives a real transaction per write, which satisfies the
// all-or-nothing contract without any extra bookkeeping.
type BoltAdapter struct {
	path string
	db   *bolt.DB
}

func NewBoltAdapter(path string) (*BoltAdapter, error) {
	if path == "" {
		return nil, wrapStorage("open", errors.New("database path cannot be empty"))
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, wrapStorage("open "+path, err)
	}
	return &BoltAdapter{path: path, db: db}, nil
}

func (s *BoltAdapter) Initialize() error {
	return nil
}

func blockBucket(chainID string) []byte {
	return []byte("blocks|" + chainID)
}

func chunkBucket(chainID string) []byte {
	return []byte("chunks|" + chainID)
}

func uint64Key(n uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, n)
	return key
}

func (s *BoltAdapter) StoreBlock(chainID string, block *types.Block) error {
	val, err := jsonx.Marshal(block)
	if err != nil {
		return wrapStorage("encode block", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(blockBucket(chainID))
		if err != nil {
			return err
		}
		return bucket.Put(uint64Key(block.BlockNumber), val)
	})
	return wrapStorage("store block", errors.Wrapf(err, "chain %s block %d", chainID, block.BlockNumber))
}

func (s *BoltAdapter) GetBlocksAfter(chainID string, blockNumber uint64) ([]*types.Block, error) {
	var out []*types.Block
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(blockBucket(chainID))
		if bucket == nil {
			return nil
		}
		cursor := bucket.Cursor()
		for k, v := cursor.Seek(uint64Key(blockNumber + 1)); k != nil; k, v = cursor.Next() {
			var b types.Block
			if err := jsonx.Unmarshal(v, &b); err != nil {
				return err
			}
			out = append(out, &b)
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage("read blocks", err)
	}
	return out, nil
}

func (s *BoltAdapter) GetAllBlocks(chainID string) ([]*types.Block, error) {
	var out []*types.Block
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(blockBucket(chainID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var b types.Block
			if err := jsonx.Unmarshal(v, &b); err != nil {
				return err
			}
			out = append(out, &b)
			return nil
		})
	})
	if err != nil {
		return nil, wrapStorage("read blocks", err)
	}
	return out, nil
}

func (s *BoltAdapter) GetChunks(chainID string) ([]*types.Chunk, error) {
	var out []*types.Chunk
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(chunkBucket(chainID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var c types.Chunk
			if err := jsonx.Unmarshal(v, &c); err != nil {
				return err
			}
			out = append(out, &c)
			return nil
		})
	})
	if err != nil {
		return nil, wrapStorage("read chunks", err)
	}
	return out, nil
}

func (s *BoltAdapter) StoreChunk(chainID string, chunk *types.Chunk) error {
	val, err := jsonx.Marshal(chunk)
	if err != nil {
		return wrapStorage("encode chunk", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(chunkBucket(chainID))
		if err != nil {
			return err
		}
		return bucket.Put(uint64Key(chunk.ChunkID), val)
	})
	return wrapStorage("store chunk", err)
}

func (s *BoltAdapter) Close() error {
	return s.db.Close()
}
