package sector

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/sector-clearing/internal/metrics"
	"github.com/iwvelando/sector-clearing/pkg/constants"
	"github.com/iwvelando/sector-clearing/pkg/mathutil"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// CalcShare computes normalized subsector shares for period.
//
// Subsectors without fixed output share whatever is left after fixed output
// is accounted for: their raw shares are scaled to sum to 1-fixedSum. Fixed
// subsectors are reset to their fixed share, scaled down proportionally when
// fixed shares alone exceed one. When fixed shares take the whole market the
// variable shares are set to exactly zero. Capacity limits are resolved last.
func (s *Sector) CalcShare(period int, econ Economy) error {
	if err := s.require(period, StageShareWeightsNormalized, "CalcShare"); err != nil {
		return err
	}

	sum := 0.0
	fixedSum := 0.0
	for i, sub := range s.subsectors {
		sub.CalcShare(period, econ)
		// Reset here, LimitShares sets it again if the subsector is still limited.
		sub.SetCapLimitStatus(period, false)

		if isFixed(sub, period) {
			fixedSum += s.fixedShare(i, period)
			continue
		}
		sum += sub.Share(period)
	}

	scaleFixedShare := 1.0
	if fixedSum > 1 {
		scaleFixedShare = 1 / fixedSum
		fixedSum = 1
	}

	variableFactor := 0.0
	if fixedSum < 1 && sum > constants.TinyNumber {
		variableFactor = (1 - fixedSum) / sum
	}

	for i, sub := range s.subsectors {
		if !isFixed(sub, period) {
			sub.NormShare(variableFactor, period)
			continue
		}
		fixedShare := s.fixedShare(i, period) * scaleFixedShare
		currentShare := sub.FixedShare(period)
		if currentShare > 0 {
			sub.ScaleFixedOutput(fixedShare/currentShare, period)
		}
		sub.SetShareToFixedValue(period)
	}
	s.reset(period, StageSharesComputed)

	if s.capLimitsPresent[period] {
		s.adjustSharesCapLimit(period)
	}
	s.advance(period, StageCapacityLimitsResolved)

	if s.opts.DebugChecking {
		if err := s.checkShareSum(period); err != nil {
			s.metrics.RecordConsistencyWarning(metrics.WarningShareSum)
			s.logger.Error("shares do not sum to one",
				s.fields("sector.CalcShare", period,
					zap.Error(err),
					zap.Float64s("shares", s.Shares(period)),
				)...,
			)
		}
	}
	s.advance(period, StageSharesValidated)
	return nil
}

func isFixed(sub Subsector, period int) bool {
	return sub.FixedOutput(period) > 0
}

// fixedShare returns the fixed share of the subsector at index. When the
// market already carries a demand for this good the share implied by that
// demand is used instead of the lagged value stored on the subsector.
func (s *Sector) fixedShare(index, period int) float64 {
	if index < 0 || index >= len(s.subsectors) {
		s.metrics.RecordConsistencyWarning(metrics.WarningIllegalSubsector)
		s.logger.Error("illegal subsector number",
			s.fields("sector.fixedShare", period,
				zap.Int("index", index),
				zap.Error(ErrIllegalSubsector),
			)...,
		)
		return 0
	}

	sub := s.subsectors[index]
	share := sub.FixedShare(period)
	if share > 0 {
		if demand := s.Demand(period); demand > 0 {
			share = sub.FixedOutput(period) / demand
		}
	}
	return share
}

// adjustSharesCapLimit runs the capacity-limit resolver and reports, but
// does not propagate, infeasibility.
func (s *Sector) adjustSharesCapLimit(period int) {
	result, err := ResolveCapacityLimits(s.subsectors, period)
	s.metrics.RecordCapacityLimitIterations(result.Iterations)
	if err == nil {
		return
	}

	kind := metrics.InfeasibleNotConverged
	if errors.Is(err, ErrCapacityInfeasible) {
		kind = metrics.InfeasibleNoSlack
	}
	s.metrics.RecordInfeasibility(kind)
	s.logger.Error("capacity limits could not be satisfied",
		s.fields("sector.adjustSharesCapLimit", period,
			zap.Error(err),
			zap.Int("iterations", result.Iterations),
			zap.Float64("overLimit", result.OverLimit),
			zap.Float64s("shares", s.Shares(period)),
		)...,
	)
}

// checkShareSum verifies the partition-of-unity invariant.
func (s *Sector) checkShareSum(period int) error {
	if len(s.subsectors) == 0 {
		return nil
	}
	shares := s.Shares(period)
	for i, share := range shares {
		if !mathutil.IsValidNumber(share) {
			return fmt.Errorf("%w: share of subsector %s (%d) is %v", ErrShareSum, s.subsectors[i].Name(), i, share)
		}
	}
	sum := floats.Sum(shares)
	if math.Abs(sum-1) > constants.SmallNumber {
		return fmt.Errorf("%w: sum = %.12g", ErrShareSum, sum)
	}
	return nil
}

// CalcPrice computes the share-weighted price and CO2 emissions factor and
// publishes the factor to the market when the market exists.
func (s *Sector) CalcPrice(period int) error {
	if err := s.require(period, StageSharesComputed, "CalcPrice"); err != nil {
		return err
	}

	n := len(s.subsectors)
	shares := make([]float64, n)
	prices := make([]float64, n)
	co2 := make([]float64, n)
	for i, sub := range s.subsectors {
		shares[i] = sub.Share(period)
		prices[i] = sub.Price(period)
		co2[i] = sub.CO2EmFactor(period)
	}
	if n > 0 {
		s.price[period] = floats.Dot(shares, prices)
		s.co2EmFactor[period] = floats.Dot(shares, co2)
	} else {
		s.price[period] = 0
		s.co2EmFactor[period] = 0
	}

	if s.marketplace.MarketExists(s.name, s.market, period) {
		s.marketplace.SetMarketInfo(s.name, s.market, period, constants.MarketInfoCO2EmFactor, s.co2EmFactor[period])
	}
	s.advance(period, StagePriceComputed)
	return nil
}

// CalcFinalSupplyPrice computes shares and price, then sets the price of the
// good in the market.
func (s *Sector) CalcFinalSupplyPrice(econ Economy, period int) error {
	if err := s.CalcShare(period, econ); err != nil {
		return err
	}
	if err := s.CalcPrice(period); err != nil {
		return err
	}
	s.marketplace.SetPrice(s.name, s.market, s.price[period], period)
	return nil
}
