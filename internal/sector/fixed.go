package sector

import (
	"fmt"

	"go.uber.org/zap"
)

// FixedOutputResult describes one fixed-output adjustment.
type FixedOutputResult struct {
	// TotalFixedOutput is the fixed output after scaling; never above demand.
	TotalFixedOutput float64
	// VariableShares is the share sum of subsectors without fixed output
	// before adjustment.
	VariableShares float64
	// VariableSharesNew is the share left for those subsectors.
	VariableSharesNew float64
	// ShareRatio is VariableSharesNew / VariableShares, or zero.
	ShareRatio float64
	// Scaled is true if fixed output exceeded demand and was scaled down.
	Scaled bool
}

// AdjustForFixedOutput makes subsector shares consistent with fixed output
// for the given non-negative market demand. Fixed output above demand is
// scaled down to demand. Subsectors without fixed output share what is left
// in proportion to their current shares.
//
// ErrFatalArithmetic is returned if there is fixed output but no demand to
// express it as a share of.
func AdjustForFixedOutput(subsectors []Subsector, marketDemand float64, period int) (FixedOutputResult, error) {
	var result FixedOutputResult

	total := 0.0
	for _, sub := range subsectors {
		sub.ResetFixedOutput(period)
		fixed := sub.FixedOutput(period)
		sub.SetFixedShare(period, 0)

		if fixed == 0 {
			result.VariableShares += sub.Share(period)
		} else if marketDemand > 0 {
			share := fixed / marketDemand
			if share > 1 {
				share = 1
			}
			sub.SetFixedShare(period, share)
		}
		total += fixed
	}

	if total > 0 && marketDemand <= 0 {
		return result, fmt.Errorf("%w: fixed output %.6g, demand %.6g", ErrFatalArithmetic, total, marketDemand)
	}

	if total > marketDemand {
		for _, sub := range subsectors {
			sub.ScaleFixedOutput(marketDemand/total, period)
		}
		total = marketDemand
		result.Scaled = true
	}
	result.TotalFixedOutput = total

	if total <= 0 {
		return result, nil
	}

	result.VariableSharesNew = 1 - total/marketDemand
	if result.VariableShares > 0 {
		result.ShareRatio = result.VariableSharesNew / result.VariableShares
	}

	// A zero ratio is intended: it clears every variable share.
	for _, sub := range subsectors {
		sub.AdjShares(marketDemand, result.ShareRatio, total, period)
	}
	return result, nil
}

func (s *Sector) adjustForFixedOutput(marketDemand float64, period int) error {
	result, err := AdjustForFixedOutput(s.subsectors, marketDemand, period)
	if err != nil {
		s.logger.Error("cannot adjust shares for fixed output",
			s.fields("sector.adjustForFixedOutput", period, zap.Error(err))...,
		)
		return fmt.Errorf("sector %s in %s period %d: %w", s.name, s.regionName, period, err)
	}
	if result.Scaled {
		s.metrics.RecordFixedOutputScaled()
		s.logger.Debug("fixed output exceeded demand and was scaled down",
			s.fields("sector.adjustForFixedOutput", period,
				zap.Float64("demand", marketDemand),
				zap.Float64("totalFixedOutput", result.TotalFixedOutput),
			)...,
		)
	}
	s.advance(period, StageFixedOutputAdjusted)
	return nil
}
