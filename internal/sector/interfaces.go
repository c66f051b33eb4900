package sector

// Economy exposes the macroeconomic drivers a subsector may use when it
// computes its raw share.
type Economy interface {
	GDP(period int) float64
}

// Marketplace is the supply/demand/price registry the sector clears against.
// Goods are identified by sector name and markets by market (region) name.
type Marketplace interface {
	Demand(good, market string, period int) float64
	SetPrice(good, market string, price float64, period int)
	AddToSupply(good, market string, quantity float64, period int)
	SetMarketInfo(good, market string, period int, key string, value float64)
	MarketExists(good, market string, period int) bool
}

// Subsector is a competitor within a sector. The sector drives it through
// the per-period pass in a fixed order: InitCalc, CalcShare, NormShare and
// SetShareToFixedValue, LimitShares, then the fixed-output methods and
// SetOutput. Implementations are owned by exactly one Sector.
type Subsector interface {
	Name() string
	Fuel() string

	InitCalc(period int)
	CalcShare(period int, econ Economy)
	Share(period int) float64
	NormShare(factor float64, period int)

	FixedOutput(period int) float64
	ResetFixedOutput(period int)
	ScaleFixedOutput(factor float64, period int)
	FixedShare(period int) float64
	SetFixedShare(period int, share float64)
	SetShareToFixedValue(period int)
	AdjShares(demand, shareRatio, totalFixedOutput float64, period int)

	CapacityLimit(period int) float64
	CapLimitStatus(period int) bool
	SetCapLimitStatus(period int, limited bool)
	LimitShares(multiplier float64, period int)

	SetOutput(demand float64, period int, econ Economy)
	Output(period int) float64
	Input(period int) float64
	Price(period int) float64
	CO2EmFactor(period int) float64

	ShareWeight(period int) float64
	ScaleShareWeight(factor float64, period int)
	CalOutput(period int) float64
	CalibrationStatus(period int) bool
	OutputsAllFixed(period int) bool
	InputsAllFixed(period int) bool
	AdjustForCalibration(demand, totalFixedOutput, totalCalOutput float64, allFixed bool, period int)
}
