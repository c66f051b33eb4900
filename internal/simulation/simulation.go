// Package simulation builds the regions, sectors and marketplace described
// by a configuration and runs them forward through every model period.
package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/iwvelando/sector-clearing/internal/config"
	"github.com/iwvelando/sector-clearing/internal/marketplace"
	"github.com/iwvelando/sector-clearing/internal/metrics"
	"github.com/iwvelando/sector-clearing/internal/region"
	"github.com/iwvelando/sector-clearing/internal/sector"
	"github.com/iwvelando/sector-clearing/internal/subsector"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tune a run without changing the model.
type Options struct {
	// Metrics receives solver metrics. Nil disables them.
	Metrics *metrics.Metrics
	// VerboseCalibration logs every calibration mismatch in detail.
	VerboseCalibration bool
}

// SubsectorResult is one subsector's state at the end of a period.
type SubsectorResult struct {
	Name        string  `json:"name"`
	Fuel        string  `json:"fuel"`
	Share       float64 `json:"share"`
	Output      float64 `json:"output"`
	Input       float64 `json:"input"`
	FixedOutput float64 `json:"fixedOutput"`
	CapLimited  bool    `json:"capLimited"`
}

// Result is one sector's state at the end of a period.
type Result struct {
	Region       string            `json:"region"`
	Sector       string            `json:"sector"`
	Market       string            `json:"market"`
	Period       int               `json:"period"`
	Year         int               `json:"year"`
	Demand       float64           `json:"demand"`
	MarketDemand float64           `json:"marketDemand"`
	Output       float64           `json:"output"`
	Price        float64           `json:"price"`
	CO2EmFactor  float64           `json:"co2EmFactor"`
	Calibrated   bool              `json:"calibrated"`
	Subsectors   []SubsectorResult `json:"subsectors"`
}

// World is a built model ready to run.
type World struct {
	conf        config.Configuration
	regions     []*region.Region
	marketplace *marketplace.Marketplace
	logger      *zap.Logger
	metrics     *metrics.Metrics
	// shared lists the sectors of markets served by more than one region.
	shared map[marketplace.Key][]*sector.Sector
}

// Build validates conf and constructs the world it describes.
func Build(logger *zap.Logger, conf config.Configuration, m *metrics.Metrics) (*World, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conf.Normalize()
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn(warning, zap.String("op", "simulation.Build"))
	}

	periods := conf.Model.Periods
	mp, err := marketplace.New(logger, periods)
	if err != nil {
		return nil, err
	}

	opts := sector.Options{
		DebugChecking:     conf.Model.DebugChecking,
		CalibrationActive: conf.Model.CalibrationActive,
	}

	// Regions naming the same market add their demand together. Each sector
	// then serves its own region's part of the total.
	totals := make(map[marketplace.Key][]float64)
	for _, rc := range conf.Regions {
		for _, sc := range rc.Sectors {
			key := marketplace.Key{Good: sc.Name, Market: sc.Market}
			if totals[key] == nil {
				totals[key] = make([]float64, periods)
			}
			for p := 0; p < periods; p++ {
				totals[key][p] += config.Value(sc.Demand, p)
			}
		}
	}

	w := &World{
		conf:        conf,
		marketplace: mp,
		logger:      logger,
		metrics:     m,
		shared:      make(map[marketplace.Key][]*sector.Sector),
	}
	members := make(map[marketplace.Key][]*sector.Sector)
	for _, rc := range conf.Regions {
		sectors := make([]*sector.Sector, 0, len(rc.Sectors))
		for _, sc := range rc.Sectors {
			subs := make([]sector.Subsector, 0, len(sc.Subsectors))
			for i := range sc.Subsectors {
				subCfg, err := sc.Subsectors[i].ToSubsectorConfig()
				if err != nil {
					return nil, fmt.Errorf("region %s sector %s: %w", rc.Name, sc.Name, err)
				}
				sub, err := subsector.New(logger, subCfg, periods)
				if err != nil {
					return nil, fmt.Errorf("region %s sector %s: %w", rc.Name, sc.Name, err)
				}
				subs = append(subs, sub)
			}

			key := marketplace.Key{Good: sc.Name, Market: sc.Market}
			sec, err := sector.New(logger, sector.Config{
				Name:         sc.Name,
				Region:       rc.Name,
				Market:       sc.Market,
				Periods:      periods,
				Options:      opts,
				DemandShares: demandShares(sc.Demand, totals[key]),
			}, subs, mp, m)
			if err != nil {
				return nil, err
			}
			sectors = append(sectors, sec)
			members[key] = append(members[key], sec)

			if !mp.MarketExists(sc.Name, sc.Market, 0) {
				mp.CreateMarket(sc.Name, sc.Market)
				for p := 0; p < periods; p++ {
					mp.SetDemand(sc.Name, sc.Market, totals[key][p], p)
				}
			}
		}

		r, err := region.New(logger, rc.Name, region.GDP(rc.GDP), sectors)
		if err != nil {
			return nil, err
		}
		w.regions = append(w.regions, r)
	}

	for key, secs := range members {
		if len(secs) > 1 {
			w.shared[key] = secs
		}
	}
	return w, nil
}

// demandShares returns the fraction of total demand that regional demand
// makes up in each period. A market with no demand keeps a share of one,
// which still serves nothing.
func demandShares(regional, total []float64) []float64 {
	shares := make([]float64, len(total))
	for p := range total {
		switch {
		case total[p] > 0:
			shares[p] = config.Value(regional, p) / total[p]
			if shares[p] < 0 {
				shares[p] = 0
			} else if shares[p] > 1 {
				shares[p] = 1
			}
		default:
			shares[p] = 1
		}
	}
	return shares
}

// Marketplace returns the world's marketplace.
func (w *World) Marketplace() *marketplace.Marketplace { return w.marketplace }

// Regions returns the world's regions in input order.
func (w *World) Regions() []*region.Region {
	out := make([]*region.Region, len(w.regions))
	copy(out, w.regions)
	return out
}

// Run clears every period in order and returns one Result per sector and
// period. Regions within a period are cleared concurrently. A fatal error in
// any region stops the run.
func (w *World) Run(ctx context.Context, opts Options) ([]Result, error) {
	var results []Result
	for period := 0; period < w.conf.Model.Periods; period++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		start := time.Now()
		if err := w.runPeriod(ctx, period); err != nil {
			return results, fmt.Errorf("period %d: %w", period, err)
		}
		w.metrics.ObservePeriod(time.Since(start))

		results = append(results, w.collect(period, opts.VerboseCalibration)...)
	}
	return results, nil
}

func (w *World) runPeriod(ctx context.Context, period int) error {
	for iteration := 0; iteration < w.conf.Model.SolverIterations; iteration++ {
		w.marketplace.ClearSupply(period)

		g, gctx := errgroup.WithContext(ctx)
		for _, r := range w.regions {
			r := r
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if iteration == 0 {
					if err := r.InitCalc(period); err != nil {
						return err
					}
				} else if w.conf.Model.CalibrationActive {
					if err := r.Calibrate(period); err != nil {
						return err
					}
				}
				return r.Clear(period)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		w.settleSharedPrices(period)
	}

	for _, key := range w.marketplace.Keys() {
		w.logger.Debug("market cleared",
			zap.String("op", "simulation.runPeriod"),
			zap.String("market", key.String()),
			zap.Int("period", period),
			zap.Float64("demand", w.marketplace.Demand(key.Good, key.Market, period)),
			zap.Float64("supply", w.marketplace.Supply(key.Good, key.Market, period)),
			zap.Float64("price", w.marketplace.Price(key.Good, key.Market, period)),
		)
	}
	return nil
}

// settleSharedPrices replaces the price each region last wrote to a shared
// market with the output-weighted average of the sector prices serving it.
func (w *World) settleSharedPrices(period int) {
	for key, secs := range w.shared {
		weighted, total := 0.0, 0.0
		for _, sec := range secs {
			weighted += sec.Price(period) * sec.Output(period)
			total += sec.Output(period)
		}
		if total <= 0 {
			continue
		}
		w.marketplace.SetPrice(key.Good, key.Market, weighted/total, period)
	}
}

func (w *World) collect(period int, verbose bool) []Result {
	var results []Result
	for _, r := range w.regions {
		for _, sec := range r.Sectors() {
			result := Result{
				Region:       r.Name(),
				Sector:       sec.Name(),
				Market:       sec.Market(),
				Period:       period,
				Year:         w.conf.Model.Year(period),
				Demand:       sec.Demand(period),
				MarketDemand: w.marketplace.Demand(sec.Name(), sec.Market(), period),
				Output:       sec.Output(period),
				Price:        sec.Price(period),
				CO2EmFactor:  sec.CO2EmFactor(period),
				Calibrated:   sec.IsAllCalibrated(period, w.conf.Model.CalibrationTolerance, verbose),
			}
			for _, sub := range sec.Subsectors() {
				result.Subsectors = append(result.Subsectors, SubsectorResult{
					Name:        sub.Name(),
					Fuel:        sub.Fuel(),
					Share:       sub.Share(period),
					Output:      sub.Output(period),
					Input:       sub.Input(period),
					FixedOutput: sub.FixedOutput(period),
					CapLimited:  sub.CapLimitStatus(period),
				})
			}
			results = append(results, result)
		}
	}
	return results
}

// Run builds the world described by conf and runs it.
func Run(ctx context.Context, logger *zap.Logger, conf config.Configuration, opts Options) ([]Result, error) {
	w, err := Build(logger, conf, opts.Metrics)
	if err != nil {
		return nil, err
	}
	return w.Run(ctx, opts)
}
