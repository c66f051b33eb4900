package sector

import (
	"fmt"
	"math"

	"github.com/iwvelando/sector-clearing/internal/metrics"
	"github.com/iwvelando/sector-clearing/pkg/constants"
	"go.uber.org/zap"
)

// Supply reads the sector's part of the market demand for its good and
// shares it out to the subsectors, adjusting shares for fixed output first.
//
// A negative demand is reported and treated as zero. Only a fatal
// arithmetic condition is returned as an error.
func (s *Sector) Supply(period int, econ Economy) error {
	if err := s.require(period, StageSharesComputed, "Supply"); err != nil {
		return err
	}

	demand := s.Demand(period)
	negative := demand < 0
	if negative {
		s.metrics.RecordConsistencyWarning(metrics.WarningNegativeDemand)
		s.logger.Error("demand value < 0",
			s.fields("sector.Supply", period, zap.Float64("demand", demand))...,
		)
		demand = 0
	}

	if s.anyFixedCapacity[period] && !negative {
		if err := s.adjustForFixedOutput(demand, period); err != nil {
			return err
		}
	}

	for _, sub := range s.subsectors {
		sub.SetOutput(demand, period, econ)
	}
	supply := s.sumOutput(period)
	s.advance(period, StageSupplyEmitted)

	if s.opts.DebugChecking {
		if err := checkSupply(supply, demand, period); err != nil {
			s.metrics.RecordConsistencyWarning(metrics.WarningSupplyDemand)
			s.logger.Warn("demand and derived supply are not equal",
				s.fields("sector.Supply", period, zap.Error(err))...,
			)
		}
	}
	return nil
}

// checkSupply compares derived supply against demand. A demand of exactly
// the bootstrap value means the solver has not set one yet.
func checkSupply(supply, demand float64, period int) error {
	if period == 0 || demand == constants.BootstrapDemand {
		return nil
	}
	if diff := math.Abs(supply - demand); diff > constants.SupplyDemandTolerance {
		return fmt.Errorf("%w by %.6g (supply %.6g, demand %.6g)", ErrSupplyMismatch, diff, supply, demand)
	}
	return nil
}
