package integrity

import (
	"sort"

	"chainlog/types"
	"chainlog/utils"
)

// DetectGaps walks the held block numbers from the lowest held number up
// to expectedLatest and reports every maximal contiguous missing run as
// one GapRange. Breaks separated by a present block are never merged.
// With nothing held, the whole range [0, expectedLatest] is one gap.
func DetectGaps(held []uint64, expectedLatest uint64) []types.GapRange {
	now := utils.NowMillis()

	if len(held) == 0 {
		return []types.GapRange{newGap(0, expectedLatest, now)}
	}

	numbers := make([]uint64, len(held))
	copy(numbers, held)
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	var gaps []types.GapRange
	prev := numbers[0]
	for _, n := range numbers[1:] {
		if n == prev || n == prev+1 {
			prev = n
			continue
		}
		gaps = append(gaps, newGap(prev+1, n-1, now))
		prev = n
	}
	if expectedLatest > prev {
		gaps = append(gaps, newGap(prev+1, expectedLatest, now))
	}
	return gaps
}

func newGap(start, end uint64, detectedAt int64) types.GapRange {
	return types.GapRange{
		Start:      start,
		End:        end,
		Reasons:    []types.GapReason{types.GapReasonUnknown},
		DetectedAt: detectedAt,
	}
}

// MissingBlockCount sums the sizes of the given gaps.
func MissingBlockCount(gaps []types.GapRange) uint64 {
	var total uint64
	for _, g := range gaps {
		total += g.Size()
	}
	return total
}
