// Package subsector provides the logit share competitor that sectors
// allocate demand across.
package subsector

import (
	"fmt"
	"math"

	"github.com/iwvelando/sector-clearing/internal/sector"
	"github.com/iwvelando/sector-clearing/pkg/constants"
	"github.com/iwvelando/sector-clearing/pkg/mathutil"
	"go.uber.org/zap"
)

// Config holds the per-period inputs of one subsector. Per-period slices
// shorter than the model horizon carry their last value forward; share
// weights are carried forward period to period by InitCalc instead, so that
// calibration adjustments persist.
type Config struct {
	Name             string
	Fuel             string
	Kind             Kind
	LogitExponent    float64
	IncomeElasticity float64
	// Efficiency converts output to input. Zero means 1.
	Efficiency float64

	ShareWeights      []float64
	Prices            []float64
	CO2EmFactors      []float64
	CapacityLimits    []float64
	FixedOutputs      []float64
	CalibratedOutputs []float64
}

// Subsector is the reference implementation of sector.Subsector.
type Subsector struct {
	name             string
	fuel             string
	kind             Kind
	logitExponent    float64
	incomeElasticity float64
	efficiency       float64
	logger           *zap.Logger

	shareWeight     []float64
	shareWeightSet  []bool
	price           []float64
	co2EmFactor     []float64
	capacityLimit   []float64
	baseFixedOutput []float64
	calOutput       []float64
	calSet          []bool

	share          []float64
	fixedOutput    []float64
	fixedShare     []float64
	capLimitStatus []bool
	output         []float64
	input          []float64
	lastDemand     float64
}

var _ sector.Subsector = (*Subsector)(nil)

// New builds a subsector sized for periods. logger may be nil.
func New(logger *zap.Logger, cfg Config, periods int) (*Subsector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("subsector name cannot be empty")
	}
	if periods <= 0 {
		return nil, fmt.Errorf("subsector %s: number of periods must be positive, got %d", cfg.Name, periods)
	}
	if cfg.Kind == KindFixed && len(cfg.FixedOutputs) == 0 {
		return nil, fmt.Errorf("subsector %s: fixed subsector requires fixed outputs", cfg.Name)
	}
	efficiency := cfg.Efficiency
	if efficiency == 0 {
		efficiency = 1
	}
	if efficiency < 0 || !mathutil.IsValidNumber(efficiency) {
		return nil, fmt.Errorf("subsector %s: efficiency must be positive, got %v", cfg.Name, cfg.Efficiency)
	}

	s := &Subsector{
		name:             cfg.Name,
		fuel:             cfg.Fuel,
		kind:             cfg.Kind,
		logitExponent:    cfg.LogitExponent,
		incomeElasticity: cfg.IncomeElasticity,
		efficiency:       efficiency,
		logger:           logger,
		shareWeight:      make([]float64, periods),
		shareWeightSet:   make([]bool, periods),
		price:            expand(cfg.Prices, periods, 0),
		co2EmFactor:      expand(cfg.CO2EmFactors, periods, 0),
		capacityLimit:    expand(cfg.CapacityLimits, periods, constants.DefaultCapacityLimit),
		baseFixedOutput:  expand(cfg.FixedOutputs, periods, 0),
		calOutput:        make([]float64, periods),
		calSet:           make([]bool, periods),
		share:            make([]float64, periods),
		fixedOutput:      make([]float64, periods),
		fixedShare:       make([]float64, periods),
		capLimitStatus:   make([]bool, periods),
		output:           make([]float64, periods),
		input:            make([]float64, periods),
	}

	if cfg.Kind == KindStandard {
		if len(cfg.ShareWeights) == 0 {
			s.shareWeight[0] = 1
			s.shareWeightSet[0] = true
		}
		for p := 0; p < len(cfg.ShareWeights) && p < periods; p++ {
			s.shareWeight[p] = cfg.ShareWeights[p]
			s.shareWeightSet[p] = true
		}
	}
	for p := 0; p < len(cfg.CalibratedOutputs) && p < periods; p++ {
		if cfg.CalibratedOutputs[p] >= 0 {
			s.calOutput[p] = cfg.CalibratedOutputs[p]
			s.calSet[p] = true
		}
	}
	for p := range s.capacityLimit {
		if s.capacityLimit[p] < 0 || s.capacityLimit[p] > 1 {
			return nil, fmt.Errorf("subsector %s: capacity limit %v in period %d outside [0, 1]", cfg.Name, s.capacityLimit[p], p)
		}
	}
	copy(s.fixedOutput, s.baseFixedOutput)
	return s, nil
}

// expand sizes values to periods, carrying the last value forward. An empty
// slice is filled with def.
func expand(values []float64, periods int, def float64) []float64 {
	out := make([]float64, periods)
	last := def
	for p := range out {
		if p < len(values) {
			last = values[p]
		}
		out[p] = last
	}
	return out
}

func (s *Subsector) Name() string { return s.name }
func (s *Subsector) Fuel() string { return s.fuel }
func (s *Subsector) Kind() Kind   { return s.kind }

// InitCalc resets per-period state. Share weights not configured for period
// are carried forward from the previous period.
func (s *Subsector) InitCalc(period int) {
	if period > 0 && !s.shareWeightSet[period] {
		s.shareWeight[period] = s.shareWeight[period-1]
	}
	s.fixedOutput[period] = s.baseFixedOutput[period]
	s.fixedShare[period] = 0
	if s.fixedOutput[period] > 0 && s.lastDemand > 0 {
		s.fixedShare[period] = math.Min(1, s.fixedOutput[period]/s.lastDemand)
	}
	s.capLimitStatus[period] = false
}

// CalcShare sets the unnormalized logit share for period.
func (s *Subsector) CalcShare(period int, econ sector.Economy) {
	if s.kind == KindFixed {
		s.share[period] = 0
		return
	}

	priceTerm := 1.0
	if price := s.price[period]; price > 0 {
		priceTerm = math.Pow(price, s.logitExponent)
	} else if s.logitExponent != 0 {
		s.logger.Debug("nonpositive price, ignoring price term",
			zap.String("op", "subsector.CalcShare"),
			zap.String("subsector", s.name),
			zap.Int("period", period),
			zap.Float64("price", price),
		)
	}

	share := s.shareWeight[period] * priceTerm * s.gdpTerm(period, econ)
	if !mathutil.IsValidNumber(share) {
		s.logger.Warn("share is not valid, using zero",
			zap.String("op", "subsector.CalcShare"),
			zap.String("subsector", s.name),
			zap.Int("period", period),
			zap.Float64("share", share),
		)
		share = 0
	}
	s.share[period] = share
}

func (s *Subsector) gdpTerm(period int, econ sector.Economy) float64 {
	if econ == nil || s.incomeElasticity == 0 {
		return 1
	}
	base := econ.GDP(0)
	current := econ.GDP(period)
	if base <= 0 || current <= 0 {
		return 1
	}
	return math.Pow(current/base, s.incomeElasticity)
}

func (s *Subsector) Share(period int) float64 { return s.share[period] }

// NormShare multiplies the share by factor.
func (s *Subsector) NormShare(factor float64, period int) {
	s.share[period] *= factor
}

func (s *Subsector) FixedOutput(period int) float64 { return s.fixedOutput[period] }

// ResetFixedOutput restores fixed output to its configured value.
func (s *Subsector) ResetFixedOutput(period int) {
	s.fixedOutput[period] = s.baseFixedOutput[period]
}

// ScaleFixedOutput scales fixed output and fixed share together.
func (s *Subsector) ScaleFixedOutput(factor float64, period int) {
	s.fixedOutput[period] *= factor
	s.fixedShare[period] *= factor
}

func (s *Subsector) FixedShare(period int) float64 { return s.fixedShare[period] }

func (s *Subsector) SetFixedShare(period int, share float64) {
	s.fixedShare[period] = share
}

func (s *Subsector) SetShareToFixedValue(period int) {
	s.share[period] = s.fixedShare[period]
}

// AdjShares makes the share consistent with fixed output. Fixed subsectors
// take the share their output implies; the rest are scaled by shareRatio.
func (s *Subsector) AdjShares(demand, shareRatio, totalFixedOutput float64, period int) {
	if totalFixedOutput <= 0 {
		return
	}
	if s.fixedOutput[period] > 0 {
		if demand > 0 {
			s.fixedShare[period] = s.fixedOutput[period] / demand
			s.share[period] = s.fixedShare[period]
		}
		return
	}
	if demand > 0 {
		s.share[period] *= shareRatio
	}
}

func (s *Subsector) CapacityLimit(period int) float64 { return s.capacityLimit[period] }
func (s *Subsector) CapLimitStatus(period int) bool   { return s.capLimitStatus[period] }

func (s *Subsector) SetCapLimitStatus(period int, limited bool) {
	s.capLimitStatus[period] = limited
}

// LimitShares pins the share at its capacity ceiling if it is above it,
// otherwise scales it by multiplier. Limited subsectors and subsectors
// holding a fixed share are left alone.
func (s *Subsector) LimitShares(multiplier float64, period int) {
	if s.capLimitStatus[period] {
		return
	}
	share := s.share[period]
	ceiling := mathutil.CapLimitTransform(s.capacityLimit[period], share)
	if share-ceiling > constants.SmallNumber {
		s.share[period] = ceiling
		s.capLimitStatus[period] = true
		return
	}
	if s.fixedShare[period] == 0 {
		s.share[period] = share * multiplier
	}
}

// SetOutput sets output from the share of demand and derives input.
func (s *Subsector) SetOutput(demand float64, period int, _ sector.Economy) {
	s.lastDemand = demand
	s.output[period] = s.share[period] * demand
	s.input[period] = s.output[period] / s.efficiency
}

func (s *Subsector) Output(period int) float64      { return s.output[period] }
func (s *Subsector) Input(period int) float64       { return s.input[period] }
func (s *Subsector) Price(period int) float64       { return s.price[period] }
func (s *Subsector) CO2EmFactor(period int) float64 { return s.co2EmFactor[period] }
func (s *Subsector) ShareWeight(period int) float64 { return s.shareWeight[period] }

func (s *Subsector) ScaleShareWeight(factor float64, period int) {
	s.shareWeight[period] *= factor
}

// CalOutput returns the calibrated output for period, or zero if the
// subsector is not calibrated then.
func (s *Subsector) CalOutput(period int) float64 {
	if !s.calSet[period] {
		return 0
	}
	return s.calOutput[period]
}

func (s *Subsector) CalibrationStatus(period int) bool { return s.calSet[period] }

// OutputsAllFixed reports whether output is determined without competing:
// calibrated, fixed, or zero by share weight.
func (s *Subsector) OutputsAllFixed(period int) bool {
	if period < 0 {
		return false
	}
	return s.calSet[period] || s.baseFixedOutput[period] > 0 || s.kind == KindFixed || s.shareWeight[period] == 0
}

// InputsAllFixed follows OutputsAllFixed since input is output over a
// constant efficiency.
func (s *Subsector) InputsAllFixed(period int) bool {
	return s.OutputsAllFixed(period)
}

// AdjustForCalibration rescales the share weight so the next share
// calculation moves output toward the calibrated value. When every output
// in the sector is fixed or calibrated, calibrated values are scaled to fill
// the demand left after fixed output.
func (s *Subsector) AdjustForCalibration(demand, totalFixedOutput, totalCalOutput float64, allFixed bool, period int) {
	if !s.calSet[period] || s.kind == KindFixed || demand <= 0 {
		return
	}
	target := s.calOutput[period]
	if allFixed && totalCalOutput > 0 {
		available := math.Max(0, demand-totalFixedOutput)
		target *= available / totalCalOutput
	}

	current := s.share[period] * demand
	if current < constants.TinyNumber {
		s.logger.Debug("no current output to calibrate against",
			zap.String("op", "subsector.AdjustForCalibration"),
			zap.String("subsector", s.name),
			zap.Int("period", period),
		)
		return
	}
	s.shareWeight[period] *= target / current
}
