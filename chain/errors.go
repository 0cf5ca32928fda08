package chain

import (
	"errors"

	"chainlog/types"
)

// ViolationKind classifies why an imported block was rejected. Per-block
// violations are collected into the import result, never returned as
// errors; a batch with bad blocks still accepts the good ones.
type ViolationKind string

const (
	ViolationIntegrity    ViolationKind = "integrity_violation"
	ViolationAuthenticity ViolationKind = "authenticity_violation"
	ViolationFork         ViolationKind = "fork_conflict"
)

// Rejection records one rejected block and why.
type Rejection struct {
	Block  *types.Block
	Kind   ViolationKind
	Detail string
}

var (
	ErrNotReady  = errors.New("chain manager is not initialized")
	ErrDestroyed = errors.New("chain manager is destroyed")
)

// ConfigurationError means the manager cannot proceed at all, e.g. no
// signing key was configured.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}
