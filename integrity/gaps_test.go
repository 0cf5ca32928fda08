package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainlog/types"
)

func TestDetectGapsSpansAndBreaks(t *testing.T) {
	gaps := DetectGaps([]uint64{1, 2, 3, 7, 8, 10}, 10)

	require.Len(t, gaps, 2)
	assert.Equal(t, uint64(4), gaps[0].Start)
	assert.Equal(t, uint64(6), gaps[0].End)
	assert.Equal(t, uint64(9), gaps[1].Start)
	assert.Equal(t, uint64(9), gaps[1].End)
}

func TestDetectGapsContiguous(t *testing.T) {
	assert.Empty(t, DetectGaps([]uint64{0, 1, 2, 3}, 3))
}

func TestDetectGapsTrailingRange(t *testing.T) {
	gaps := DetectGaps([]uint64{0, 1}, 5)
	require.Len(t, gaps, 1)
	assert.Equal(t, uint64(2), gaps[0].Start)
	assert.Equal(t, uint64(5), gaps[0].End)
}

func TestDetectGapsUnsortedWithDuplicates(t *testing.T) {
	gaps := DetectGaps([]uint64{8, 1, 3, 1, 2, 7, 10, 3}, 10)
	require.Len(t, gaps, 2)
	assert.Equal(t, uint64(4), gaps[0].Start)
	assert.Equal(t, uint64(6), gaps[0].End)
	assert.Equal(t, uint64(9), gaps[1].Start)
	assert.Equal(t, uint64(9), gaps[1].End)
}

func TestDetectGapsNothingHeld(t *testing.T) {
	gaps := DetectGaps(nil, 4)
	require.Len(t, gaps, 1)
	assert.Equal(t, uint64(0), gaps[0].Start)
	assert.Equal(t, uint64(4), gaps[0].End)
	assert.Equal(t, []types.GapReason{types.GapReasonUnknown}, gaps[0].Reasons)
}

func TestMissingBlockCount(t *testing.T) {
	gaps := DetectGaps([]uint64{1, 2, 3, 7, 8, 10}, 10)
	assert.Equal(t, uint64(4), MissingBlockCount(gaps))
}
