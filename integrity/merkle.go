package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CalculateMerkleRoot builds a binary Merkle tree over an ordered list of
// hex-encoded hashes. An odd node count duplicates the last node, the
// standard padding rule; both sides of any integrity comparison must use
// it. An empty list yields the empty root.
func CalculateMerkleRoot(hashes []string) (string, error) {
	if len(hashes) == 0 {
		return "", nil
	}

	level := make([][]byte, len(hashes))
	for i, h := range hashes {
		decoded, err := hex.DecodeString(h)
		if err != nil {
			return "", fmt.Errorf("merkle: hash %d is not valid hex: %w", i, err)
		}
		level[i] = decoded
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			combined := sha256.New()
			combined.Write(level[i])
			combined.Write(level[i+1])
			next = append(next, combined.Sum(nil))
		}
		level = next
	}

	return hex.EncodeToString(level[0]), nil
}

// VerifyMerkleRoot recomputes the root and compares.
func VerifyMerkleRoot(hashes []string, expectedRoot string) bool {
	root, err := CalculateMerkleRoot(hashes)
	if err != nil {
		return false
	}
	return root == expectedRoot
}
