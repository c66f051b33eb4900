// Package output provides utilities for formatting and displaying clearing
// results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/sector-clearing/internal/simulation"
	"github.com/iwvelando/sector-clearing/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable table,
// one block per region and sector.
func PrettyFormat(w io.Writer, results []simulation.Result) {
	p := message.NewPrinter(language.English)
	var current string
	for _, result := range results {
		key := result.Region + "/" + result.Sector
		if key != current {
			if current != "" {
				fmt.Fprintf(w, "\n")
			}
			current = key
			fmt.Fprintf(w, "--- Results for sector %s in region %s (market %s) ---\n", result.Sector, result.Region, result.Market)
			fmt.Fprintf(w, "Year | Demand | Output | Price | CO2 Factor | Subsector Shares\n")
			fmt.Fprintf(w, "____ | ______ | ______ | _____ | __________ | ________________\n")
		}
		_, _ = p.Fprintf(w, "%s | %.2f | %.2f | %.4f | %.4f | %s%s\n",
			strconv.Itoa(result.Year), result.Demand, result.Output, result.Price, result.CO2EmFactor,
			shareSummary(p, result.Subsectors), calibrationNote(result))
	}
}

func shareSummary(p *message.Printer, subs []simulation.SubsectorResult) string {
	summary := ""
	for i, sub := range subs {
		if i > 0 {
			summary += ", "
		}
		summary += p.Sprintf("%s %.1f%%", sub.Name, sub.Share*100)
		if sub.CapLimited {
			summary += " (capped)"
		}
	}
	return summary
}

func calibrationNote(result simulation.Result) string {
	if result.Calibrated {
		return ""
	}
	return " | not calibrated"
}

// CsvHeader is the header row written by CsvFormat.
var CsvHeader = []string{
	"region", "sector", "market", "year", "period",
	"subsector", "fuel", "share", "output", "input", "fixed output",
	"sector price", "sector co2 factor", "calibrated",
}

// CsvFormat writes one comma-separated row per subsector and period.
func CsvFormat(w io.Writer, results []simulation.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CsvHeader); err != nil {
		return err
	}
	for _, result := range results {
		for _, sub := range result.Subsectors {
			row := []string{
				result.Region,
				result.Sector,
				result.Market,
				strconv.Itoa(result.Year),
				strconv.Itoa(result.Period),
				sub.Name,
				sub.Fuel,
				formatFloat(sub.Share),
				formatFloat(sub.Output),
				formatFloat(sub.Input),
				formatFloat(sub.FixedOutput),
				formatFloat(result.Price),
				formatFloat(result.CO2EmFactor),
				strconv.FormatBool(result.Calibrated),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// JSONFormat writes results as an indented JSON array.
func JSONFormat(w io.Writer, results []simulation.Result) error {
	if results == nil {
		results = []simulation.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// Write renders results in the named format.
func Write(w io.Writer, format string, results []simulation.Result) error {
	switch format {
	case constants.OutputFormatPretty:
		PrettyFormat(w, results)
		return nil
	case constants.OutputFormatCSV:
		return CsvFormat(w, results)
	case constants.OutputFormatJSON:
		return JSONFormat(w, results)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
