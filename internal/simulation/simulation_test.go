package simulation

import (
	"context"
	"errors"
	"testing"

	"github.com/iwvelando/sector-clearing/internal/config"
	"github.com/iwvelando/sector-clearing/internal/metrics"
	"github.com/iwvelando/sector-clearing/internal/sector"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() config.Configuration {
	return config.Configuration{
		Model: config.Model{
			Periods:          3,
			StartYear:        2000,
			TimeStep:         5,
			DebugChecking:    true,
			SolverIterations: 2,
		},
		Regions: []config.Region{
			{
				Name: "usa",
				GDP:  []float64{100, 110, 120},
				Sectors: []config.Sector{{
					Name:   "electricity",
					Demand: []float64{100, 120},
					Subsectors: []config.Subsector{
						{Name: "hydro", Kind: "fixed", Fuel: "water", FixedOutputs: []float64{30}},
						{Name: "coal", Fuel: "coal", ShareWeights: []float64{1}, Prices: []float64{2}, LogitExponent: -2, CO2EmFactors: []float64{1}},
						{Name: "gas", Fuel: "gas", ShareWeights: []float64{1}, Prices: []float64{2}, LogitExponent: -2, IncomeElasticity: 1, CapacityLimits: []float64{0.5}},
					},
				}},
			},
			{
				Name: "china",
				Sectors: []config.Sector{
					{
						Name:   "electricity",
						Demand: []float64{50},
						Subsectors: []config.Subsector{
							{Name: "coal", ShareWeights: []float64{3}},
							{Name: "nuclear", ShareWeights: []float64{1}},
						},
					},
					{
						Name:       "oil",
						Demand:     []float64{5},
						Subsectors: []config.Subsector{{Name: "crude"}},
					},
				},
			},
		},
	}
}

func TestRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	results, err := Run(context.Background(), zap.NewNop(), testConfig(), Options{Metrics: metrics.New(reg)})
	require.NoError(t, err)
	require.Len(t, results, 9)

	expectedDemand := map[string][]float64{
		"usa/electricity":   {100, 120, 120},
		"china/electricity": {50, 50, 50},
		"china/oil":         {5, 5, 5},
	}
	for _, result := range results {
		key := result.Region + "/" + result.Sector
		want := expectedDemand[key][result.Period]
		assert.Equal(t, 2000+5*result.Period, result.Year)
		assert.InDelta(t, want, result.Demand, 1e-9, key)
		assert.InDelta(t, want, result.Output, 1e-6, key)
		assert.Equal(t, result.Region, result.Market)
		assert.True(t, result.Calibrated)

		shareSum := 0.0
		outputSum := 0.0
		for _, sub := range result.Subsectors {
			shareSum += sub.Share
			outputSum += sub.Output
		}
		assert.InDelta(t, 1, shareSum, 1e-9, key)
		assert.InDelta(t, result.Output, outputSum, 1e-9, key)
	}

	usa := results[0]
	require.Equal(t, "usa", usa.Region)
	assert.InDelta(t, 30, usa.Subsectors[0].FixedOutput, 1e-9)
	assert.InDelta(t, 30, usa.Subsectors[0].Output, 1e-9)
	assert.InDelta(t, 0.35, usa.Subsectors[2].Share, 1e-9, "gas below its limit keeps its logit share")
	assert.False(t, usa.Subsectors[2].CapLimited)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRunSharedMarket(t *testing.T) {
	conf := config.Configuration{
		Model: config.Model{Periods: 1},
		Regions: []config.Region{
			{Name: "east", Sectors: []config.Sector{{Name: "gas", Market: "world", Demand: []float64{10}, Subsectors: []config.Subsector{{Name: "well"}}}}},
			{Name: "west", Sectors: []config.Sector{{Name: "gas", Market: "world", Demand: []float64{15}, Subsectors: []config.Subsector{{Name: "well"}}}}},
		},
	}
	w, err := Build(nil, conf, nil)
	require.NoError(t, err)
	assert.Equal(t, 25.0, w.Marketplace().Demand("gas", "world", 0))
	assert.Len(t, w.Regions(), 2)

	results, err := w.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	want := map[string]float64{"east": 10, "west": 15}
	for _, result := range results {
		assert.Equal(t, "world", result.Market)
		assert.InDelta(t, want[result.Region], result.Demand, 1e-9, result.Region)
		assert.InDelta(t, 25, result.MarketDemand, 1e-9, result.Region)
		assert.InDelta(t, want[result.Region], result.Output, 1e-9, result.Region)
	}
	assert.InDelta(t, 25, w.Marketplace().Supply("gas", "world", 0), 1e-9)
}

func TestRunSharedMarketPrice(t *testing.T) {
	conf := config.Configuration{
		Model: config.Model{Periods: 1},
		Regions: []config.Region{
			{Name: "east", Sectors: []config.Sector{{Name: "gas", Market: "world", Demand: []float64{10}, Subsectors: []config.Subsector{{Name: "well", Prices: []float64{2}}}}}},
			{Name: "west", Sectors: []config.Sector{{Name: "gas", Market: "world", Demand: []float64{30}, Subsectors: []config.Subsector{{Name: "well", Prices: []float64{4}}}}}},
		},
	}
	w, err := Build(nil, conf, nil)
	require.NoError(t, err)
	results, err := w.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	weighted := 0.0
	for _, result := range results {
		weighted += result.Price * result.Output
	}
	assert.InDelta(t, weighted/40, w.Marketplace().Price("gas", "world", 0), 1e-9)
}

func TestDemandShares(t *testing.T) {
	assert.Equal(t, []float64{0.4, 1, 1}, demandShares([]float64{4, 5}, []float64{10, 5, 0}))
	assert.Equal(t, []float64{0}, demandShares([]float64{-1}, []float64{10}))
}

func TestRunCalibration(t *testing.T) {
	conf := config.Configuration{
		Model: config.Model{Periods: 2, CalibrationActive: true, SolverIterations: 25},
		Regions: []config.Region{{
			Name: "usa",
			Sectors: []config.Sector{{
				Name:   "electricity",
				Demand: []float64{40},
				Subsectors: []config.Subsector{
					{Name: "coal", ShareWeights: []float64{1}, CalibratedOutputs: []float64{-1, 10}},
					{Name: "gas", ShareWeights: []float64{1}},
				},
			}},
		}},
	}
	results, err := Run(context.Background(), nil, conf, Options{VerboseCalibration: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 20, results[0].Subsectors[0].Output, 1e-9)
	assert.InDelta(t, 10, results[1].Subsectors[0].Output, 1e-6)
	assert.InDelta(t, 40, results[1].Output, 1e-9)
}

func TestRunFatalArithmetic(t *testing.T) {
	conf := config.Configuration{
		Model: config.Model{Periods: 1},
		Regions: []config.Region{{
			Name: "usa",
			Sectors: []config.Sector{{
				Name:       "electricity",
				Demand:     []float64{0},
				Subsectors: []config.Subsector{{Name: "hydro", Kind: "fixed", FixedOutputs: []float64{5}}},
			}},
		}},
	}
	_, err := Run(context.Background(), nil, conf, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sector.ErrFatalArithmetic))
}

func TestRunInvalidConfiguration(t *testing.T) {
	_, err := Run(context.Background(), nil, config.Configuration{}, Options{})
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := Run(ctx, nil, testConfig(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
