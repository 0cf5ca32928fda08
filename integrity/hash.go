package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// GenerateHash computes the SHA-256 content hash of v over its canonical
// serialization, hex encoded.
func GenerateHash(v interface{}) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// GenerateSignature computes an HMAC-SHA256 over the canonical
// serialization of v, keyed by the chain's signing key.
func GenerateSignature(v interface{}, key []byte) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return SignBytes(canonical, key), nil
}

// VerifySignature recomputes the HMAC and compares in constant time.
// Any canonicalization failure verifies as false.
func VerifySignature(v interface{}, signature string, key []byte) bool {
	canonical, err := Canonicalize(v)
	if err != nil {
		return false
	}
	return VerifyBytes(canonical, signature, key)
}

// SignBytes computes a hex-encoded HMAC-SHA256 over raw bytes.
func SignBytes(data []byte, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyBytes checks a hex-encoded HMAC-SHA256 over raw bytes.
func VerifyBytes(data []byte, signature string, key []byte) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return hmac.Equal(mac.Sum(nil), expected)
}

// DeriveChainKey derives the per-chain HMAC signing key from the shared
// room secret via HKDF-SHA256, bound to the chain id. Two chains in the
// same room never sign with the same key.
func DeriveChainKey(secret []byte, chainID string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("empty room secret")
	}
	reader := hkdf.New(sha256.New, secret, nil, []byte("chainlog/v1/"+chainID))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive chain key: %w", err)
	}
	return key, nil
}
