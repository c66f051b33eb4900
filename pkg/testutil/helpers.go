// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/sector-clearing/internal/simulation"
)

// FindResult finds the result for a region's sector in period.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(results []simulation.Result, region, sector string, period int) *simulation.Result {
	for i := range results {
		r := &results[i]
		if r.Region == region && r.Sector == sector && r.Period == period {
			return r
		}
	}
	return nil
}

// FindSubsector finds a subsector by name within a result.
func FindSubsector(result *simulation.Result, name string) *simulation.SubsectorResult {
	if result == nil {
		return nil
	}
	for i := range result.Subsectors {
		if result.Subsectors[i].Name == name {
			return &result.Subsectors[i]
		}
	}
	return nil
}
