// Package config defines the data structures related to configuration and
// includes functions for loading, normalizing and validating the model file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/sector-clearing/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for a sector-clearing run.
type Configuration struct {
	Model   Model
	Regions []Region
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// Model holds the run-wide parameters.
type Model struct {
	Name                 string
	Periods              int
	StartYear            int
	TimeStep             int // years per period
	DebugChecking        bool
	CalibrationActive    bool
	CalibrationTolerance float64
	SolverIterations     int
}

// Region is one geographic region and the sectors it clears.
type Region struct {
	Name    string
	GDP     []float64
	Sectors []Sector
}

// Sector is the market for one good within a region. Demand is given per
// period; a shorter list carries its last value forward.
type Sector struct {
	Name       string
	Market     string
	Demand     []float64
	Subsectors []Subsector
}

// Subsector is one competitor within a sector. A negative calibrated
// output marks a period as uncalibrated.
type Subsector struct {
	Name              string
	Kind              string
	Fuel              string
	LogitExponent     float64
	IncomeElasticity  float64
	Efficiency        float64
	ShareWeights      []float64
	Prices            []float64
	CO2EmFactors      []float64
	CapacityLimits    []float64
	FixedOutputs      []float64
	CalibratedOutputs []float64
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r,
// as uploaded to the HTTP server.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.Normalize()
	return &configuration, nil
}

// Normalize fills defaults for unset model parameters.
func (c *Configuration) Normalize() {
	if c.Model.StartYear == 0 {
		c.Model.StartYear = constants.DefaultStartYear
	}
	if c.Model.TimeStep <= 0 {
		c.Model.TimeStep = constants.DefaultTimeStep
	}
	if c.Model.SolverIterations <= 0 {
		c.Model.SolverIterations = constants.DefaultSolverIterations
	}
	if c.Model.CalibrationTolerance <= 0 {
		c.Model.CalibrationTolerance = constants.DefaultCalibrationTolerance
	}
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	for i := range c.Regions {
		for j := range c.Regions[i].Sectors {
			if strings.TrimSpace(c.Regions[i].Sectors[j].Market) == "" {
				c.Regions[i].Sectors[j].Market = c.Regions[i].Name
			}
		}
	}
}

// Year returns the calendar year of period.
func (m Model) Year(period int) int {
	return m.StartYear + period*m.TimeStep
}

// Value returns values[period], carrying the last value forward. An empty
// list yields zero.
func Value(values []float64, period int) float64 {
	if len(values) == 0 || period < 0 {
		return 0
	}
	if period >= len(values) {
		return values[len(values)-1]
	}
	return values[period]
}
