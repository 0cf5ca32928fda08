package integrity

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"chainlog/types"
)

// SignableBytes builds the block's canonical content: an order-sensitive
// concatenation of block number, previous hash, content hash of the
// payload, created-at and chunk id. Both the block hash and the block
// signature are computed over these bytes, so reordering any field
// changes both.
func SignableBytes(b *types.Block) []byte {
	buf := make([]byte, 0, 8+len(b.PreviousHash)+sha256.Size+8+8)
	num := make([]byte, 8)

	binary.BigEndian.PutUint64(num, b.BlockNumber)
	buf = append(buf, num...)

	buf = append(buf, []byte(b.PreviousHash)...)

	dataHash := sha256.Sum256(b.Data)
	buf = append(buf, dataHash[:]...)

	binary.BigEndian.PutUint64(num, uint64(b.CreatedAt))
	buf = append(buf, num...)

	binary.BigEndian.PutUint64(num, b.ChunkID)
	buf = append(buf, num...)

	return buf
}

// GenerateBlockHash computes the block's identifying hash from its fields.
func GenerateBlockHash(b *types.Block) string {
	sum := sha256.Sum256(SignableBytes(b))
	return hex.EncodeToString(sum[:])
}

// VerifyBlockHash recomputes the block hash and compares it to the
// carried one.
func VerifyBlockHash(b *types.Block) bool {
	return b.BlockHash == GenerateBlockHash(b)
}

// SignBlock stamps the block's HMAC signature in place.
func SignBlock(b *types.Block, key []byte) {
	b.Signature = SignBytes(SignableBytes(b), key)
}

// VerifyBlockSignature checks the block's HMAC against the chain key.
func VerifyBlockSignature(b *types.Block, key []byte) bool {
	return VerifyBytes(SignableBytes(b), b.Signature, key)
}
