package integrity

import (
	"fmt"
	"math"

	"chainlog/config"
	"chainlog/types"
)

const (
	completenessWeight = 70.0
	replicationWeight  = 30.0
)

// CalculateIntegrityScore maps a chain state and peer replication count to
// a 0-100 score. The score is monotonic in both inputs: it falls as gap
// coverage grows and as replication shrinks, saturating at 0 and 100.
func CalculateIntegrityScore(state *types.ChainState, peerCount int) int {
	expected := float64(state.LatestBlock + 1)
	missing := float64(MissingBlockCount(state.Gaps))
	completeness := 1.0 - missing/expected
	if completeness < 0 {
		completeness = 0
	}

	if peerCount < 0 {
		peerCount = 0
	}
	replication := float64(peerCount) / float64(config.TargetReplication)
	if replication > 1 {
		replication = 1
	}

	score := int(math.Round(completenessWeight*completeness + replicationWeight*replication))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// StatusForScore buckets a score for display.
func StatusForScore(score int) types.IntegrityStatus {
	switch {
	case score >= 90:
		return types.IntegrityExcellent
	case score >= 70:
		return types.IntegrityGood
	case score >= 50:
		return types.IntegrityFair
	case score >= 25:
		return types.IntegrityPoor
	default:
		return types.IntegrityCritical
	}
}

// BuildIntegrityInfo derives the display snapshot for the given state.
// Callers recompute it per request since peer counts change continuously.
func BuildIntegrityInfo(state *types.ChainState, peerCount int) *types.IntegrityInfo {
	score := CalculateIntegrityScore(state, peerCount)
	status := StatusForScore(score)

	missing := MissingBlockCount(state.Gaps)
	description := "Complete history"
	if missing > 0 {
		description = fmt.Sprintf("%d of %d blocks missing across %d gap(s)",
			missing, state.LatestBlock+1, len(state.Gaps))
	}
	if peerCount == 0 {
		description += "; no peers replicating"
	}

	return &types.IntegrityInfo{
		Score:       score,
		Status:      status,
		Description: description,
		PeerCount:   peerCount,
		TotalBlocks: state.LatestBlock + 1,
		Gaps:        state.Gaps,
		Chunks:      state.TotalChunks,
	}
}
