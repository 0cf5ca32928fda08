package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainlog/types"
)

func storeTestBlock(number uint64) *types.Block {
	return &types.Block{
		BlockNumber:  number,
		PreviousHash: fmt.Sprintf("prev-%d", number),
		ChunkID:      number / 64,
		Data:         json.RawMessage(fmt.Sprintf(`{"text":"msg %d"}`, number)),
		CreatedAt:    int64(1000 + number),
		BlockHash:    fmt.Sprintf("hash-%d", number),
		Signature:    "sig",
		ConfirmedBy:  []string{"peer-x"},
	}
}

// exerciseAdapter runs the storage contract shared by every backend.
func exerciseAdapter(t *testing.T, adapter Adapter) {
	t.Helper()
	const chainID = "room-1"
	require.NoError(t, adapter.Initialize())

	blocks, err := adapter.GetAllBlocks(chainID)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	// store out of order; reads must come back sorted
	for _, n := range []uint64{3, 0, 2, 1} {
		require.NoError(t, adapter.StoreBlock(chainID, storeTestBlock(n)))
	}

	blocks, err = adapter.GetAllBlocks(chainID)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	for i, b := range blocks {
		assert.Equal(t, uint64(i), b.BlockNumber)
		assert.Equal(t, fmt.Sprintf("hash-%d", i), b.BlockHash)
		assert.JSONEq(t, fmt.Sprintf(`{"text":"msg %d"}`, i), string(b.Data))
		assert.Equal(t, []string{"peer-x"}, b.ConfirmedBy)
	}

	after, err := adapter.GetBlocksAfter(chainID, 1)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, uint64(2), after[0].BlockNumber)
	assert.Equal(t, uint64(3), after[1].BlockNumber)

	after, err = adapter.GetBlocksAfter(chainID, 10)
	require.NoError(t, err)
	assert.Empty(t, after)

	// storing the same number again overwrites
	updated := storeTestBlock(2)
	updated.ConfirmedBy = []string{"peer-x", "peer-y"}
	require.NoError(t, adapter.StoreBlock(chainID, updated))
	blocks, err = adapter.GetAllBlocks(chainID)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	assert.Equal(t, []string{"peer-x", "peer-y"}, blocks[2].ConfirmedBy)

	// chains are isolated
	other, err := adapter.GetAllBlocks("room-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	chunk := &types.Chunk{
		ChunkID:     0,
		ChainID:     chainID,
		StartBlock:  0,
		EndBlock:    63,
		BlockCount:  4,
		MerkleRoot:  "roothash",
		LastUpdated: 2000,
	}
	require.NoError(t, adapter.StoreChunk(chainID, chunk))
	chunk2 := &types.Chunk{ChunkID: 1, ChainID: chainID, StartBlock: 64, EndBlock: 127}
	require.NoError(t, adapter.StoreChunk(chainID, chunk2))

	chunks, err := adapter.GetChunks(chainID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, uint64(0), chunks[0].ChunkID)
	assert.Equal(t, "roothash", chunks[0].MerkleRoot)
	assert.Equal(t, 4, chunks[0].BlockCount)
	assert.Equal(t, uint64(1), chunks[1].ChunkID)
}

func TestMemoryAdapter(t *testing.T) {
	exerciseAdapter(t, NewMemoryAdapter())
}

func TestMemoryAdapterClose(t *testing.T) {
	adapter := NewMemoryAdapter()
	require.NoError(t, adapter.StoreBlock("room-1", storeTestBlock(0)))
	require.NoError(t, adapter.Close())

	err := adapter.StoreBlock("room-1", storeTestBlock(1))
	require.Error(t, err)
	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestMemoryAdapterReturnsCopies(t *testing.T) {
	adapter := NewMemoryAdapter()
	require.NoError(t, adapter.StoreBlock("room-1", storeTestBlock(0)))

	first, err := adapter.GetAllBlocks("room-1")
	require.NoError(t, err)
	first[0].BlockHash = "mutated"

	second, err := adapter.GetAllBlocks("room-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-0", second[0].BlockHash)
}

func TestLevelDBAdapter(t *testing.T) {
	adapter, err := NewLevelDBAdapter(filepath.Join(t.TempDir(), "chains"))
	require.NoError(t, err)
	defer adapter.Close()
	exerciseAdapter(t, adapter)
}

func TestLevelDBAdapterPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chains")

	adapter, err := NewLevelDBAdapter(dir)
	require.NoError(t, err)
	require.NoError(t, adapter.StoreBlock("room-1", storeTestBlock(0)))
	require.NoError(t, adapter.StoreBlock("room-1", storeTestBlock(1)))
	require.NoError(t, adapter.Close())

	reopened, err := NewLevelDBAdapter(dir)
	require.NoError(t, err)
	defer reopened.Close()

	blocks, err := reopened.GetAllBlocks("room-1")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "hash-1", blocks[1].BlockHash)
}

func TestLevelDBAdapterClosed(t *testing.T) {
	adapter, err := NewLevelDBAdapter(filepath.Join(t.TempDir(), "chains"))
	require.NoError(t, err)
	require.NoError(t, adapter.Close())
	require.NoError(t, adapter.Close()) // idempotent

	storeErr := adapter.StoreBlock("room-1", storeTestBlock(0))
	require.Error(t, storeErr)
	var storageErr *StorageError
	assert.ErrorAs(t, storeErr, &storageErr)

	_, readErr := adapter.GetAllBlocks("room-1")
	assert.Error(t, readErr)
}

func TestLevelDBAdapterEmptyDir(t *testing.T) {
	_, err := NewLevelDBAdapter("")
	assert.Error(t, err)
}

func TestBoltAdapter(t *testing.T) {
	adapter, err := NewBoltAdapter(filepath.Join(t.TempDir(), "chains.db"))
	require.NoError(t, err)
	defer adapter.Close()
	exerciseAdapter(t, adapter)
}

func TestBoltAdapterPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.db")

	adapter, err := NewBoltAdapter(path)
	require.NoError(t, err)
	require.NoError(t, adapter.StoreBlock("room-1", storeTestBlock(0)))
	require.NoError(t, adapter.Close())

	reopened, err := NewBoltAdapter(path)
	require.NoError(t, err)
	defer reopened.Close()

	blocks, err := reopened.GetAllBlocks("room-1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "hash-0", blocks[0].BlockHash)
}

func TestBoltAdapterEmptyPath(t *testing.T) {
	_, err := NewBoltAdapter("")
	assert.Error(t, err)
}

func TestStorageErrorWrapping(t *testing.T) {
	assert.NoError(t, wrapStorage("op", nil))

	err := wrapStorage("store block", errClosed)
	require.Error(t, err)
	assert.ErrorIs(t, err, errClosed)
	assert.Contains(t, err.Error(), "store block")
}
