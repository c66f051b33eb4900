package config

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/iwvelando/sector-clearing/internal/subsector"
)

// Validate returns every structural problem in the configuration that would
// prevent a run.
func (c *Configuration) Validate() error {
	var result *multierror.Error

	if c.Model.Periods <= 0 {
		result = multierror.Append(result, fmt.Errorf("model periods must be positive, got %d", c.Model.Periods))
	}
	if len(c.Regions) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one region is required"))
	}

	regions := make(map[string]bool)
	for _, region := range c.Regions {
		if region.Name == "" {
			result = multierror.Append(result, fmt.Errorf("region name cannot be empty"))
			continue
		}
		if regions[region.Name] {
			result = multierror.Append(result, fmt.Errorf("region %q is defined more than once", region.Name))
		}
		regions[region.Name] = true

		sectors := make(map[string]bool)
		for _, sec := range region.Sectors {
			where := fmt.Sprintf("region %q sector %q", region.Name, sec.Name)
			if sec.Name == "" {
				result = multierror.Append(result, fmt.Errorf("region %q: sector name cannot be empty", region.Name))
				continue
			}
			if sectors[sec.Name] {
				result = multierror.Append(result, fmt.Errorf("%s is defined more than once", where))
			}
			sectors[sec.Name] = true

			for p, d := range sec.Demand {
				if math.IsNaN(d) || math.IsInf(d, 0) {
					result = multierror.Append(result, fmt.Errorf("%s: demand in period %d is not a number", where, p))
				}
			}
			for _, sub := range sec.Subsectors {
				if err := sub.validate(where); err != nil {
					result = multierror.Append(result, err)
				}
			}
		}
	}

	return result.ErrorOrNil()
}

func (s Subsector) validate(where string) error {
	var result *multierror.Error
	if s.Name == "" {
		return fmt.Errorf("%s: subsector name cannot be empty", where)
	}
	where = fmt.Sprintf("%s subsector %q", where, s.Name)

	kind, err := subsector.ParseKind(s.Kind)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w", where, err))
	}
	if kind == subsector.KindFixed && len(s.FixedOutputs) == 0 {
		result = multierror.Append(result, fmt.Errorf("%s: fixed subsector requires fixedOutputs", where))
	}
	if s.Efficiency < 0 {
		result = multierror.Append(result, fmt.Errorf("%s: efficiency must not be negative", where))
	}
	for p, limit := range s.CapacityLimits {
		if limit < 0 || limit > 1 {
			result = multierror.Append(result, fmt.Errorf("%s: capacity limit %v in period %d outside [0, 1]", where, limit, p))
		}
	}
	for p, out := range s.FixedOutputs {
		if out < 0 {
			result = multierror.Append(result, fmt.Errorf("%s: fixed output %v in period %d is negative", where, out, p))
		}
	}
	for p, w := range s.ShareWeights {
		if w < 0 {
			result = multierror.Append(result, fmt.Errorf("%s: share weight %v in period %d is negative", where, w, p))
		}
	}
	return result.ErrorOrNil()
}

// ValidateConfiguration performs general validation of the configuration
// and returns warnings for settings that are legal but probably unintended.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	periods := c.Model.Periods

	for _, region := range c.Regions {
		if len(region.Sectors) == 0 {
			warnings = append(warnings, fmt.Sprintf("region %q has no sectors", region.Name))
		}
		if len(region.GDP) > periods {
			warnings = append(warnings, fmt.Sprintf("region %q lists GDP for %d periods but the model has %d", region.Name, len(region.GDP), periods))
		}
		for _, sec := range region.Sectors {
			where := fmt.Sprintf("region %q sector %q", region.Name, sec.Name)
			if len(sec.Subsectors) == 0 {
				warnings = append(warnings, fmt.Sprintf("%s has no subsectors and will supply nothing", where))
			}
			if len(sec.Demand) == 0 {
				warnings = append(warnings, fmt.Sprintf("%s has no demand", where))
			}
			for p, d := range sec.Demand {
				if d < 0 {
					warnings = append(warnings, fmt.Sprintf("%s: demand in period %d is negative and will be treated as zero", where, p))
				}
			}
			for _, sub := range sec.Subsectors {
				if sub.IncomeElasticity != 0 && len(region.GDP) == 0 {
					warnings = append(warnings, fmt.Sprintf("%s subsector %q has an income elasticity but the region has no GDP", where, sub.Name))
				}
				if len(sub.CalibratedOutputs) > 0 && !c.Model.CalibrationActive {
					warnings = append(warnings, fmt.Sprintf("%s subsector %q has calibrated outputs but calibration is not active", where, sub.Name))
				}
				if len(sub.ShareWeights) > periods || len(sub.Prices) > periods {
					warnings = append(warnings, fmt.Sprintf("%s subsector %q lists more periods than the model has", where, sub.Name))
				}
			}
		}
	}
	return warnings
}
