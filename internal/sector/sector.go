// Package sector clears one good's market within a region: it apportions the
// region's demand across competing subsectors while honoring fixed output,
// capacity limits and calibration, and keeps shares a partition of unity.
package sector

import (
	"fmt"

	"github.com/iwvelando/sector-clearing/internal/metrics"
	"github.com/iwvelando/sector-clearing/pkg/constants"
	"github.com/iwvelando/sector-clearing/pkg/mathutil"
	"go.uber.org/zap"
)

// Options are the run-wide toggles captured when the sector is built.
type Options struct {
	// DebugChecking enables the share-sum and supply/demand cross-checks.
	DebugChecking bool
	// CalibrationActive enables share-weight normalization and the
	// calibration checker.
	CalibrationActive bool
}

// Config identifies a sector and sizes its per-period state.
type Config struct {
	Name    string
	Region  string
	Market  string // defaults to Region
	Periods int
	Options Options
	// DemandShares is the fraction of the market's demand this sector serves
	// in each period. Periods past the end, or a nil slice, serve it all.
	DemandShares []float64
}

// Sector coordinates the per-period share calculation and supply pass for
// one good in one region.
type Sector struct {
	name       string
	regionName string
	market     string
	periods    int
	opts       Options

	demandShares []float64

	subsectors  []Subsector
	marketplace Marketplace
	logger      *zap.Logger
	metrics     *metrics.Metrics

	price            []float64
	input            []float64
	output           []float64
	co2EmFactor      []float64
	anyFixedCapacity []bool
	capLimitsPresent []bool
	stages           []Stage
}

// New builds a sector owning subsectors in the given order. logger and m may
// be nil.
func New(logger *zap.Logger, cfg Config, subsectors []Subsector, marketplace Marketplace, m *metrics.Metrics) (*Sector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("sector name cannot be empty")
	}
	if cfg.Periods <= 0 {
		return nil, fmt.Errorf("sector %s: number of periods must be positive, got %d", cfg.Name, cfg.Periods)
	}
	if marketplace == nil {
		return nil, fmt.Errorf("sector %s: marketplace cannot be nil", cfg.Name)
	}
	for i, sub := range subsectors {
		if sub == nil {
			return nil, fmt.Errorf("sector %s: subsector %d is nil", cfg.Name, i)
		}
	}

	market := cfg.Market
	if market == "" {
		logger.Info("no market name set, defaulting to regional market",
			zap.String("op", "sector.New"),
			zap.String("sector", cfg.Name),
			zap.String("region", cfg.Region),
		)
		market = cfg.Region
	}

	owned := make([]Subsector, len(subsectors))
	copy(owned, subsectors)

	demandShares := make([]float64, cfg.Periods)
	for p := range demandShares {
		demandShares[p] = 1
		if p < len(cfg.DemandShares) {
			share := cfg.DemandShares[p]
			if share < 0 || share > 1 || !mathutil.IsValidNumber(share) {
				return nil, fmt.Errorf("sector %s: demand share for period %d must be in [0, 1], got %v", cfg.Name, p, share)
			}
			demandShares[p] = share
		}
	}

	return &Sector{
		name:             cfg.Name,
		regionName:       cfg.Region,
		market:           market,
		periods:          cfg.Periods,
		opts:             cfg.Options,
		demandShares:     demandShares,
		subsectors:       owned,
		marketplace:      marketplace,
		logger:           logger,
		metrics:          m,
		price:            make([]float64, cfg.Periods),
		input:            make([]float64, cfg.Periods),
		output:           make([]float64, cfg.Periods),
		co2EmFactor:      make([]float64, cfg.Periods),
		anyFixedCapacity: make([]bool, cfg.Periods),
		capLimitsPresent: make([]bool, cfg.Periods),
		stages:           make([]Stage, cfg.Periods),
	}, nil
}

func (s *Sector) Name() string   { return s.name }
func (s *Sector) Region() string { return s.regionName }
func (s *Sector) Market() string { return s.market }
func (s *Sector) Periods() int   { return s.periods }

// Subsectors returns the subsectors in input order.
func (s *Sector) Subsectors() []Subsector {
	out := make([]Subsector, len(s.subsectors))
	copy(out, s.subsectors)
	return out
}

// Stage returns the last completed stage for period.
func (s *Sector) Stage(period int) Stage {
	if s.checkPeriod(period) != nil {
		return StageNone
	}
	return s.stages[period]
}

// InitCalc prepares the sector for a new period. Share weights are
// normalized before the subsectors initialize so that the normalized
// weights are the ones carried forward.
func (s *Sector) InitCalc(period int) error {
	if err := s.checkPeriod(period); err != nil {
		return err
	}
	if period > 0 && s.stages[period-1] == StageNone {
		return fmt.Errorf("%w: sector %s (%s) period %d initialized before period %d",
			ErrStageOrder, s.name, s.regionName, period, period-1)
	}

	s.normalizeShareWeights(period)

	for _, sub := range s.subsectors {
		sub.InitCalc(period)
	}

	s.anyFixedCapacity[period] = s.FixedOutput(period) > 0
	s.capLimitsPresent[period] = s.CapacityLimitsPresent(period)
	s.reset(period, StageShareWeightsNormalized)
	return nil
}

// normalizeShareWeights rescales the previous period's share weights so they
// sum to the number of subsectors with a nonzero weight. It only applies
// when calibration is active and the previous period was entirely fixed or
// calibrated.
func (s *Sector) normalizeShareWeights(period int) {
	if period == 0 || !s.opts.CalibrationActive {
		return
	}
	if !s.InputsAllFixed(period-1) || s.CalOutput(period-1) <= 0 {
		return
	}

	total := 0.0
	nonZero := 0
	for _, sub := range s.subsectors {
		w := sub.ShareWeight(period - 1)
		total += w
		if w > 0 {
			nonZero++
		}
	}

	if total < constants.TinyNumber {
		s.metrics.RecordConsistencyWarning(metrics.WarningShareWeights)
		s.logger.Error("share weights sum to zero",
			s.fields("sector.normalizeShareWeights", period-1, zap.Float64("shareWeightTotal", total))...,
		)
		return
	}

	factor := float64(nonZero) / total
	for _, sub := range s.subsectors {
		sub.ScaleShareWeight(factor, period-1)
	}
	s.logger.Debug("share weights normalized",
		s.fields("sector.normalizeShareWeights", period-1, zap.Float64("factor", factor))...,
	)
}

// Demand returns the part of the market demand this sector serves in period.
func (s *Sector) Demand(period int) float64 {
	if s.checkPeriod(period) != nil {
		return 0
	}
	return s.marketplace.Demand(s.name, s.market, period) * s.demandShares[period]
}

// SetFinalSupply sums subsector output and adds it to the market supply.
func (s *Sector) SetFinalSupply(period int) error {
	if err := s.require(period, StageSupplyEmitted, "SetFinalSupply"); err != nil {
		return err
	}
	s.marketplace.AddToSupply(s.name, s.market, s.sumOutput(period), period)
	return nil
}

// sumOutput recomputes total output from the subsectors. Non-finite
// subsector outputs are reported and left out of the total.
func (s *Sector) sumOutput(period int) float64 {
	total := 0.0
	for i, sub := range s.subsectors {
		out := sub.Output(period)
		if !mathutil.IsValidNumber(out) {
			s.metrics.RecordConsistencyWarning(metrics.WarningInvalidOutput)
			s.logger.Error("subsector output is not valid",
				s.fields("sector.sumOutput", period,
					zap.Int("index", i),
					zap.String("subsector", sub.Name()),
					zap.Float64("output", out),
				)...,
			)
			continue
		}
		total += out
	}
	s.output[period] = total
	return total
}

// Output returns the sector output recorded for period.
func (s *Sector) Output(period int) float64 {
	if s.checkPeriod(period) != nil {
		return 0
	}
	return s.output[period]
}

// Price returns the share-weighted sector price computed for period.
func (s *Sector) Price(period int) float64 {
	if s.checkPeriod(period) != nil {
		return 0
	}
	return s.price[period]
}

// CO2EmFactor returns the share-weighted CO2 emissions factor for period.
func (s *Sector) CO2EmFactor(period int) float64 {
	if s.checkPeriod(period) != nil {
		return 0
	}
	return s.co2EmFactor[period]
}

// Input sums and returns subsector input for period.
func (s *Sector) Input(period int) float64 {
	if s.checkPeriod(period) != nil {
		return 0
	}
	total := 0.0
	for _, sub := range s.subsectors {
		total += sub.Input(period)
	}
	s.input[period] = total
	return total
}

// FuelConsumption returns subsector input keyed by fuel for period.
func (s *Sector) FuelConsumption(period int) map[string]float64 {
	consumption := make(map[string]float64)
	if s.checkPeriod(period) != nil {
		return consumption
	}
	for _, sub := range s.subsectors {
		consumption[sub.Fuel()] += sub.Input(period)
	}
	return consumption
}

// Shares returns the current normalized subsector shares in input order.
func (s *Sector) Shares(period int) []float64 {
	shares := make([]float64, len(s.subsectors))
	if s.checkPeriod(period) != nil {
		return shares
	}
	for i, sub := range s.subsectors {
		shares[i] = sub.Share(period)
	}
	return shares
}

// FixedOutput returns total fixed output across subsectors.
func (s *Sector) FixedOutput(period int) float64 {
	total := 0.0
	for _, sub := range s.subsectors {
		total += sub.FixedOutput(period)
	}
	return total
}

// CapacityLimitsPresent reports whether any subsector has a limit below one.
func (s *Sector) CapacityLimitsPresent(period int) bool {
	if period < 0 {
		return false
	}
	for _, sub := range s.subsectors {
		if sub.CapacityLimit(period) != constants.DefaultCapacityLimit {
			return true
		}
	}
	return false
}

func (s *Sector) fields(op string, period int, extra ...zap.Field) []zap.Field {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("sector", s.name),
		zap.String("region", s.regionName),
		zap.Int("period", period),
	}
	return append(fields, extra...)
}
