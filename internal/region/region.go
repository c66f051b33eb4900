// Package region groups the sectors of one region and runs them through a
// model period in order.
package region

import (
	"fmt"

	"github.com/iwvelando/sector-clearing/internal/sector"
	"go.uber.org/zap"
)

// GDP is a per-period GDP series. Periods past the end carry the last value
// forward and an empty series is flat at one.
type GDP []float64

// GDP implements sector.Economy.
func (g GDP) GDP(period int) float64 {
	if len(g) == 0 || period < 0 {
		return 1
	}
	if period >= len(g) {
		return g[len(g)-1]
	}
	return g[period]
}

// Region owns its sectors in input order.
type Region struct {
	name    string
	economy sector.Economy
	sectors []*sector.Sector
	logger  *zap.Logger
}

// New returns a region. economy may be nil, in which case GDP is flat.
func New(logger *zap.Logger, name string, economy sector.Economy, sectors []*sector.Sector) (*Region, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if name == "" {
		return nil, fmt.Errorf("region name cannot be empty")
	}
	if economy == nil {
		economy = GDP(nil)
	}
	for i, sec := range sectors {
		if sec == nil {
			return nil, fmt.Errorf("region %s: sector %d is nil", name, i)
		}
	}
	owned := make([]*sector.Sector, len(sectors))
	copy(owned, sectors)
	return &Region{name: name, economy: economy, sectors: owned, logger: logger}, nil
}

func (r *Region) Name() string { return r.name }

// Sectors returns the region's sectors in input order.
func (r *Region) Sectors() []*sector.Sector {
	out := make([]*sector.Sector, len(r.sectors))
	copy(out, r.sectors)
	return out
}

// Economy returns the economic drivers passed to every sector.
func (r *Region) Economy() sector.Economy { return r.economy }

// InitCalc prepares every sector for period.
func (r *Region) InitCalc(period int) error {
	for _, sec := range r.sectors {
		if err := sec.InitCalc(period); err != nil {
			return fmt.Errorf("region %s: %w", r.name, err)
		}
	}
	return nil
}

// Clear runs one supply pass for period: each sector computes shares and
// price, supplies demand and adds its output to the market.
func (r *Region) Clear(period int) error {
	for _, sec := range r.sectors {
		if err := sec.CalcFinalSupplyPrice(r.economy, period); err != nil {
			return fmt.Errorf("region %s: %w", r.name, err)
		}
		if err := sec.Supply(period, r.economy); err != nil {
			return fmt.Errorf("region %s: %w", r.name, err)
		}
		if err := sec.SetFinalSupply(period); err != nil {
			return fmt.Errorf("region %s: %w", r.name, err)
		}
	}
	r.logger.Debug("region cleared",
		zap.String("op", "region.Clear"),
		zap.String("region", r.name),
		zap.Int("period", period),
	)
	return nil
}

// Calibrate adjusts calibrated subsectors in every sector.
func (r *Region) Calibrate(period int) error {
	for _, sec := range r.sectors {
		if err := sec.CalibrateSector(period); err != nil {
			return fmt.Errorf("region %s: %w", r.name, err)
		}
	}
	return nil
}

// IsAllCalibrated reports whether every sector meets its calibration
// targets for period. Every sector is checked so all mismatches are logged.
func (r *Region) IsAllCalibrated(period int, tolerance float64, verbose bool) bool {
	calibrated := true
	for _, sec := range r.sectors {
		if !sec.IsAllCalibrated(period, tolerance, verbose) {
			calibrated = false
		}
	}
	return calibrated
}
