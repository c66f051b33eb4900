package config

import (
	"fmt"

	"github.com/iwvelando/sector-clearing/internal/subsector"
)

// ToSubsectorConfig converts the configuration of one subsector into the
// form consumed by subsector.New.
func (s *Subsector) ToSubsectorConfig() (subsector.Config, error) {
	kind, err := subsector.ParseKind(s.Kind)
	if err != nil {
		return subsector.Config{}, fmt.Errorf("subsector %s: %w", s.Name, err)
	}
	return subsector.Config{
		Name:              s.Name,
		Fuel:              s.Fuel,
		Kind:              kind,
		LogitExponent:     s.LogitExponent,
		IncomeElasticity:  s.IncomeElasticity,
		Efficiency:        s.Efficiency,
		ShareWeights:      copyValues(s.ShareWeights),
		Prices:            copyValues(s.Prices),
		CO2EmFactors:      copyValues(s.CO2EmFactors),
		CapacityLimits:    copyValues(s.CapacityLimits),
		FixedOutputs:      copyValues(s.FixedOutputs),
		CalibratedOutputs: copyValues(s.CalibratedOutputs),
	}, nil
}

func copyValues(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out
}
