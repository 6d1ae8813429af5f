package consensusrules

import (
	"math/big"

	"archivalnode/powtarget"
)

// ExpectedDifficulty computes expected_difficulty(height) per the retarget
// algorithm. The caller determines whether height is an adjustment
// boundary and supplies the ancestor data the formula needs:
//
//   - lastNBits: nbits of block_at(height-1), used directly off-boundary
//     and as the base target to scale on-boundary.
//   - firstTimestamp, lastTimestamp: timestamps of block_at(height-interval)
//     and block_at(height-1), used only on-boundary.
//
// The function is pure: it never reads or mutates chain state itself.
func ExpectedDifficulty(height uint64, params Params, lastNBits uint32, firstTimestamp, lastTimestamp uint32) uint32 {
	if params.AdjustmentInterval == 0 || height%params.AdjustmentInterval != 0 {
		return lastNBits
	}

	// Both spans are scaled by 4 so the expected/4 clamp floor below is
	// exact; the ratio actual/expected is unchanged.
	actual := 4 * (int64(lastTimestamp) - int64(firstTimestamp))
	expected := 4 * int64(params.AdjustmentInterval) * int64(params.TargetBlockTimeSec)

	lower := expected / 4
	upper := expected * 4
	if actual < lower {
		actual = lower
	}
	if actual > upper {
		actual = upper
	}

	oldTarget := powtarget.TargetFromCompact(lastNBits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(actual))
	newTarget.Div(newTarget, big.NewInt(expected))

	maxTarget := powtarget.TargetFromCompact(params.MaxTargetNBits)
	if newTarget.Cmp(maxTarget) > 0 {
		newTarget = maxTarget
	}

	return powtarget.CompactFromTarget(newTarget)
}
