package integrity

import (
	"encoding/json"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainlog/types"
)

func testBlock() *types.Block {
	return &types.Block{
		BlockNumber:  7,
		PreviousHash: "aa11",
		ChunkID:      0,
		Data:         json.RawMessage(`{"text":"hello"}`),
		CreatedAt:    1700000000000,
	}
}

func TestGenerateBlockHashDeterministic(t *testing.T) {
	b := testBlock()
	first := GenerateBlockHash(b)
	second := GenerateBlockHash(b)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestGenerateBlockHashChangesWithEveryField(t *testing.T) {
	base := GenerateBlockHash(testBlock())

	mutations := map[string]func(*types.Block){
		"block_number":  func(b *types.Block) { b.BlockNumber = 8 },
		"previous_hash": func(b *types.Block) { b.PreviousHash = "bb22" },
		"chunk_id":      func(b *types.Block) { b.ChunkID = 1 },
		"data":          func(b *types.Block) { b.Data = json.RawMessage(`{"text":"hellp"}`) },
		"created_at":    func(b *types.Block) { b.CreatedAt = 1700000000001 },
	}
	for name, mutate := range mutations {
		b := testBlock()
		mutate(b)
		assert.NotEqual(t, base, GenerateBlockHash(b), "mutating %s must change the hash", name)
	}
}

func TestBlockSignatureRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	b := testBlock()
	SignBlock(b, key)

	assert.True(t, VerifyBlockSignature(b, key))

	tampered := *b
	tampered.Data = json.RawMessage(`{"text":"evil"}`)
	assert.False(t, VerifyBlockSignature(&tampered, key))

	otherKey := []byte("fedcba9876543210fedcba9876543210")
	assert.False(t, VerifyBlockSignature(b, otherKey))
}

func TestGenerateSignatureRoundTrip(t *testing.T) {
	key := []byte("room-secret")
	payload := map[string]interface{}{"a": 1, "b": "two"}

	sig, err := GenerateSignature(payload, key)
	require.NoError(t, err)
	assert.True(t, VerifySignature(payload, sig, key))

	payload["a"] = 2
	assert.False(t, VerifySignature(payload, sig, key))
	assert.False(t, VerifySignature(payload, "zz-not-hex", key))
}

func TestCanonicalizeIgnoresKeyOrder(t *testing.T) {
	first, err := Canonicalize(map[string]interface{}{"alpha": 1, "beta": []int{1, 2}, "gamma": nil})
	require.NoError(t, err)
	second, err := Canonicalize(map[string]interface{}{"gamma": nil, "alpha": 1, "beta": []int{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestCanonicalizeFuzzedValuesAreStable(t *testing.T) {
	type payload struct {
		Author string            `json:"author"`
		Seq    uint32            `json:"seq"`
		Tags   []string          `json:"tags"`
		Meta   map[string]string `json:"meta"`
	}

	fuzzer := fuzz.New().NilChance(0.1).NumElements(0, 8)
	for i := 0; i < 100; i++ {
		var p payload
		fuzzer.Fuzz(&p)

		first, err := GenerateHash(p)
		require.NoError(t, err)
		second, err := GenerateHash(p)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestDeriveChainKey(t *testing.T) {
	secret := []byte("shared-room-secret")

	keyA, err := DeriveChainKey(secret, "room-a")
	require.NoError(t, err)
	keyB, err := DeriveChainKey(secret, "room-b")
	require.NoError(t, err)

	assert.Len(t, keyA, 32)
	assert.NotEqual(t, keyA, keyB)

	again, err := DeriveChainKey(secret, "room-a")
	require.NoError(t, err)
	assert.Equal(t, keyA, again)

	_, err = DeriveChainKey(nil, "room-a")
	assert.Error(t, err)
}
