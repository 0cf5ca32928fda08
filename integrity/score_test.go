package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chainlog/config"
	"chainlog/types"
)

func stateWithGaps(latest uint64, gaps []types.GapRange) *types.ChainState {
	return &types.ChainState{ChainID: "room", LatestBlock: latest, Gaps: gaps}
}

func TestScoreFullChainFullReplication(t *testing.T) {
	score := CalculateIntegrityScore(stateWithGaps(99, nil), config.TargetReplication)
	assert.Equal(t, 100, score)
}

func TestScoreDecreasesWithGapCoverage(t *testing.T) {
	small := stateWithGaps(99, []types.GapRange{{Start: 10, End: 14}})
	large := stateWithGaps(99, []types.GapRange{{Start: 10, End: 59}})

	fullScore := CalculateIntegrityScore(stateWithGaps(99, nil), 2)
	smallScore := CalculateIntegrityScore(small, 2)
	largeScore := CalculateIntegrityScore(large, 2)

	assert.Greater(t, fullScore, smallScore)
	assert.Greater(t, smallScore, largeScore)
}

func TestScoreDecreasesWithFewerPeers(t *testing.T) {
	state := stateWithGaps(99, nil)

	prev := CalculateIntegrityScore(state, config.TargetReplication)
	for peers := config.TargetReplication - 1; peers >= 0; peers-- {
		score := CalculateIntegrityScore(state, peers)
		assert.Less(t, score, prev, "peers=%d", peers)
		prev = score
	}
}

func TestScoreSaturates(t *testing.T) {
	// replication beyond the target earns nothing extra
	state := stateWithGaps(99, nil)
	assert.Equal(t,
		CalculateIntegrityScore(state, config.TargetReplication),
		CalculateIntegrityScore(state, config.TargetReplication*10))

	// everything missing, nobody replicating
	empty := stateWithGaps(99, []types.GapRange{{Start: 0, End: 99}})
	assert.Equal(t, 0, CalculateIntegrityScore(empty, 0))
}

func TestStatusForScore(t *testing.T) {
	assert.Equal(t, types.IntegrityExcellent, StatusForScore(95))
	assert.Equal(t, types.IntegrityGood, StatusForScore(75))
	assert.Equal(t, types.IntegrityFair, StatusForScore(55))
	assert.Equal(t, types.IntegrityPoor, StatusForScore(30))
	assert.Equal(t, types.IntegrityCritical, StatusForScore(10))
}

func TestBuildIntegrityInfo(t *testing.T) {
	state := stateWithGaps(9, []types.GapRange{{Start: 4, End: 6}})
	info := BuildIntegrityInfo(state, 2)

	assert.Equal(t, uint64(10), info.TotalBlocks)
	assert.Equal(t, 2, info.PeerCount)
	assert.Len(t, info.Gaps, 1)
	assert.Contains(t, info.Description, "3 of 10 blocks missing")
	assert.Equal(t, StatusForScore(info.Score), info.Status)
}
