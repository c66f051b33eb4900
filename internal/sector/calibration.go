package sector

import (
	"math"

	"github.com/iwvelando/sector-clearing/internal/metrics"
	"github.com/iwvelando/sector-clearing/pkg/mathutil"
	"go.uber.org/zap"
)

// IsAllCalibrated compares calibrated plus fixed output with actual output
// for period. It is only meaningful when calibration is active and period
// is after the base period; otherwise it returns true.
//
// The check fails when calibrated plus fixed output exceeds output by more
// than tolerance, or when every output is fixed or calibrated and the
// relative difference exceeds tolerance. With verbose set a warning is
// logged carrying the difference.
func (s *Sector) IsAllCalibrated(period int, tolerance float64, verbose bool) bool {
	if period <= 0 || !s.opts.CalibrationActive || s.checkPeriod(period) != nil {
		return true
	}

	calOutputs := s.CalOutput(period)
	if calOutputs <= 0 {
		return true
	}
	totalFixed := calOutputs + s.FixedOutput(period)
	diff := totalFixed - s.output[period]
	diffFraction := diff / calOutputs

	if diff <= tolerance && !(math.Abs(diffFraction) > tolerance && s.OutputsAllFixed(period)) {
		return true
	}

	s.metrics.RecordConsistencyWarning(metrics.WarningCalibration)
	if verbose {
		fields := s.fields("sector.IsAllCalibrated", period,
			zap.Error(ErrCalibrationMismatch),
			zap.Float64("calAndFixed", totalFixed),
			zap.Float64("output", s.output[period]),
			zap.Float64("diff", diff),
			zap.Float64("diffPercent", mathutil.CalculatePercentage(diff, calOutputs)),
		)
		if ce := s.logger.Check(zap.DebugLevel, "calibration detail"); ce != nil {
			for _, sub := range s.subsectors {
				fields = append(fields,
					zap.Float64(sub.Name()+".calAndFixed", sub.CalOutput(period)+sub.FixedOutput(period)),
					zap.Float64(sub.Name()+".output", sub.Output(period)),
				)
			}
		}
		s.logger.Warn("sector output does not match calibrated and fixed values", fields...)
	}
	return false
}

// CalibrateSector adjusts calibrated subsectors so that their output
// approaches their calibration targets given the current market demand.
func (s *Sector) CalibrateSector(period int) error {
	if err := s.require(period, StageShareWeightsNormalized, "CalibrateSector"); err != nil {
		return err
	}
	totalFixed := s.FixedOutput(period)
	demand := s.Demand(period)
	totalCal := s.CalOutput(period)
	allFixed := s.OutputsAllFixed(period)

	for _, sub := range s.subsectors {
		if sub.CalibrationStatus(period) {
			sub.AdjustForCalibration(demand, totalFixed, totalCal, allFixed, period)
		}
	}
	return nil
}

// CalOutput returns total calibrated output across subsectors.
func (s *Sector) CalOutput(period int) float64 {
	total := 0.0
	for _, sub := range s.subsectors {
		total += sub.CalOutput(period)
	}
	return total
}

// OutputsAllFixed reports whether every subsector's output is fixed,
// calibrated, or zero because its share weight is zero.
func (s *Sector) OutputsAllFixed(period int) bool {
	if period < 0 {
		return false
	}
	for _, sub := range s.subsectors {
		if !sub.OutputsAllFixed(period) {
			return false
		}
	}
	return true
}

// InputsAllFixed reports whether every subsector's input is fixed.
func (s *Sector) InputsAllFixed(period int) bool {
	if period < 0 {
		return false
	}
	for _, sub := range s.subsectors {
		if !sub.InputsAllFixed(period) {
			return false
		}
	}
	return true
}
