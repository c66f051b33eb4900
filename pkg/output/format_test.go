package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/iwvelando/sector-clearing/internal/simulation"
)

func sampleResults() []simulation.Result {
	return []simulation.Result{
		{
			Region: "usa", Sector: "electricity", Market: "usa", Period: 0, Year: 2005,
			Demand: 12345.5, Output: 12345.5, Price: 2.5, CO2EmFactor: 0.7, Calibrated: true,
			Subsectors: []simulation.SubsectorResult{
				{Name: "coal", Fuel: "coal", Share: 0.6, Output: 7407.3, Input: 7407.3},
				{Name: "wind", Fuel: "wind", Share: 0.4, Output: 4938.2, Input: 4938.2, CapLimited: true},
			},
		},
		{
			Region: "usa", Sector: "electricity", Market: "usa", Period: 1, Year: 2010,
			Demand: 100, Output: 100, Price: 2.6, Calibrated: false,
			Subsectors: []simulation.SubsectorResult{
				{Name: "coal", Fuel: "coal", Share: 1, Output: 100, Input: 100},
			},
		},
		{
			Region: "china", Sector: "oil", Market: "china", Period: 0, Year: 2005,
			Demand: 5, Output: 5, Price: 1, Calibrated: true,
			Subsectors: []simulation.SubsectorResult{
				{Name: "crude", Share: 1, Output: 5, Input: 5},
			},
		},
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, sampleResults())
	output := buf.String()

	expected := []string{
		"--- Results for sector electricity in region usa (market usa) ---",
		"Year | Demand | Output | Price | CO2 Factor | Subsector Shares",
		"2005 | 12,345.50 | 12,345.50 | 2.5000 | 0.7000 | coal 60.0%, wind 40.0% (capped)",
		"2010 | 100.00 | 100.00 | 2.6000 | 0.0000 | coal 100.0% | not calibrated",
		"--- Results for sector oil in region china (market china) ---",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat output missing %q:\n%s", want, output)
		}
	}
	if strings.Count(output, "--- Results") != 2 {
		t.Errorf("expected 2 blocks:\n%s", output)
	}
}

func TestPrettyFormatEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleResults()); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected header and 4 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(CsvHeader, ",") {
		t.Errorf("unexpected header %v", records[0])
	}
	wind := records[2]
	if wind[5] != "wind" || wind[7] != "0.400000" || wind[3] != "2005" || wind[13] != "true" {
		t.Errorf("unexpected wind row %v", wind)
	}
	if records[3][13] != "false" {
		t.Errorf("expected calibrated=false, got %v", records[3])
	}
}

func TestWrite(t *testing.T) {
	for _, format := range []string{"pretty", "csv", "json"} {
		var buf bytes.Buffer
		if err := Write(&buf, format, sampleResults()); err != nil {
			t.Errorf("Write(%s) error = %v", format, err)
		}
		if !strings.Contains(buf.String(), "electricity") {
			t.Errorf("Write(%s) output missing sector name", format)
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, "xml", nil); err == nil {
		t.Errorf("expected error for unsupported format")
	}

	buf.Reset()
	if err := JSONFormat(&buf, nil); err != nil || strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("JSONFormat(nil) = %q, %v", buf.String(), err)
	}
}
