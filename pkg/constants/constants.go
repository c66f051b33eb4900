// Package constants provides shared constants for the sector-clearing application.
package constants

import "time"

// Numerical tolerances shared by the share-allocation core.
const (
	// SmallNumber is the tolerance used for share sums and capacity-limit
	// comparisons.
	SmallNumber = 1e-10

	// TinyNumber is the threshold below which a share or weight sum is
	// treated as zero.
	TinyNumber = 1e-12

	// SupplyDemandTolerance is the absolute tolerance for the debug
	// supply/demand cross-check.
	SupplyDemandTolerance = 0.01

	// BootstrapDemand is the placeholder demand a market carries before the
	// solver has set a real value.
	BootstrapDemand = 1.0

	// DefaultCapacityLimit means the subsector is not capacity limited.
	DefaultCapacityLimit = 1.0

	// DefaultCalibrationTolerance is used when the configuration omits one.
	DefaultCalibrationTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Capacity-limit transform parameters.
const (
	CapLimitTransformMultiplier = 1.4
	CapLimitTransformExponent   = 4.0
)

// Market info keys.
const (
	// MarketInfoCO2EmFactor is the key the sector uses to publish its
	// share-weighted CO2 emissions factor.
	MarketInfoCO2EmFactor = "CO2EmFactor"
)

// Model defaults
const (
	// DefaultSolverIterations is the number of supply passes per period.
	DefaultSolverIterations = 5

	// DefaultTimeStep is the number of years between periods.
	DefaultTimeStep = 15

	// DefaultStartYear is the calendar year of period 0.
	DefaultStartYear = 1975
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON writes results as a JSON array
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "model.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML models (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultMetricsPath is where Prometheus metrics are served
	DefaultMetricsPath = "/metrics"

	// DefaultRunTimeout bounds one model run requested over HTTP
	DefaultRunTimeout = 30 * time.Second
)
