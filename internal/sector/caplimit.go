package sector

import (
	"fmt"

	"github.com/iwvelando/sector-clearing/pkg/constants"
	"github.com/iwvelando/sector-clearing/pkg/mathutil"
)

// CapacityLimitResult describes one capacity-limit resolution.
type CapacityLimitResult struct {
	// Iterations is the number of redistribution rounds applied.
	Iterations int
	// CapLimited is true if any subsector was found above its ceiling.
	CapLimited bool
	// OverLimit is the share above ceilings at the last check.
	OverLimit float64
	// FixedShares is the share held by fixed-output subsectors, which
	// redistribution never touches.
	FixedShares float64
}

type capLimitState struct {
	overLimit   float64
	notLimited  float64
	fixedShares float64
	limited     bool
}

// ResolveCapacityLimits moves share held above each subsector's capacity
// ceiling onto the subsectors still below theirs, in proportion to their
// current shares.
//
// With notLimited the sum of shares below ceiling and overLimit the excess,
// scaling the unlimited shares by 1 + overLimit/notLimited keeps the total
// unchanged. Raising those shares can push another subsector over its own
// ceiling, so the check repeats. Each round pins at least one subsector, so
// the number of rounds is bounded by the number of subsectors.
//
// Shares must already be normalized. On error the best-effort allocation is
// left in place.
func ResolveCapacityLimits(subsectors []Subsector, period int) (CapacityLimitResult, error) {
	var result CapacityLimitResult
	for {
		state := measureCapLimits(subsectors, period)
		result.OverLimit = state.overLimit
		result.FixedShares = state.fixedShares
		if !state.limited {
			return result, nil
		}
		result.CapLimited = true

		if result.Iterations >= len(subsectors) {
			return result, fmt.Errorf("%w after %d iterations: %.6g of share over limit",
				ErrCapacityNotResolved, result.Iterations, state.overLimit)
		}
		if state.notLimited <= 0 {
			return result, fmt.Errorf("%w: %.6g of share over limit and no subsector below its limit",
				ErrCapacityInfeasible, state.overLimit)
		}

		multiplier := 1 + state.overLimit/state.notLimited
		for _, sub := range subsectors {
			if sub.FixedShare(period) > 0 {
				continue
			}
			sub.LimitShares(multiplier, period)
		}
		result.Iterations++
	}
}

// capLimitCeiling is the effective share ceiling of sub. Once a subsector
// has been limited its current share is its ceiling; the transform depends
// on the share and must only be applied once.
func capLimitCeiling(sub Subsector, period int) float64 {
	share := sub.Share(period)
	if sub.CapLimitStatus(period) {
		return share
	}
	return mathutil.CapLimitTransform(sub.CapacityLimit(period), share)
}

func measureCapLimits(subsectors []Subsector, period int) capLimitState {
	var state capLimitState
	for _, sub := range subsectors {
		share := sub.Share(period)
		ceiling := capLimitCeiling(sub, period)

		if share-ceiling > constants.SmallNumber {
			state.limited = true
			state.overLimit += share - ceiling
		}

		if sub.FixedShare(period) > 0 {
			state.fixedShares += sub.FixedShare(period)
			continue
		}
		if share < ceiling {
			state.notLimited += share
		}
	}
	return state
}
