package mathutil

import (
	"math"
	"testing"

	"github.com/iwvelando/sector-clearing/pkg/constants"
)

func TestIsZero(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected bool
	}{
		{"Exactly zero", 0.0, true},
		{"Below tolerance", 1e-12, true},
		{"Negative below tolerance", -1e-12, true},
		{"Above tolerance", 1e-6, false},
		{"Large negative", -100.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsZero(tt.input)
			if result != tt.expected {
				t.Errorf("IsZero(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsValidNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected bool
	}{
		{"Finite", 1.5, true},
		{"Zero", 0.0, true},
		{"NaN", math.NaN(), false},
		{"Positive infinity", math.Inf(1), false},
		{"Negative infinity", math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidNumber(tt.input); got != tt.expected {
				t.Errorf("IsValidNumber(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		val1      float64
		val2      float64
		tolerance float64
		expected  bool
	}{
		{"Exactly equal", 1.0, 1.0, 0.1, true},
		{"Within tolerance", 1.0, 1.05, 0.1, true},
		{"Outside tolerance", 1.0, 1.15, 0.1, false},
		{"Zero tolerance exact match", 1.0, 1.0, 0.0, true},
		{"Zero tolerance no match", 1.0, 1.001, 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WithinTolerance(tt.val1, tt.val2, tt.tolerance)
			if result != tt.expected {
				t.Errorf("WithinTolerance(%v, %v, %v) = %v, expected %v",
					tt.val1, tt.val2, tt.tolerance, result, tt.expected)
			}
		})
	}
}

func TestCalculatePercentage(t *testing.T) {
	if got := CalculatePercentage(5, 100); math.Abs(got-5) > 1e-12 {
		t.Errorf("CalculatePercentage(5, 100) = %v, expected 5", got)
	}
	if got := CalculatePercentage(5, 0); got != 0 {
		t.Errorf("CalculatePercentage(5, 0) = %v, expected 0", got)
	}
}

func TestCapLimitTransform(t *testing.T) {
	above := math.Exp(math.Pow(1.4*0.6/0.4, 4))
	tests := []struct {
		name     string
		capLimit float64
		share    float64
		expected float64
	}{
		{"Unlimited is untouched", 1.0, 0.7, 1.0},
		{"Zero limit", 0.0, 0.3, 0.0},
		{"Share well above limit approaches limit", 0.4, 0.6, 0.6/above + 0.4*(above-1)/above},
		{"Share well below limit is kept", 0.5, 0.01, 0.01/math.Exp(math.Pow(0.028, 4)) + 0.5*(1-1/math.Exp(math.Pow(0.028, 4)))},
		{"Huge ratio saturates at limit", 0.01, 1.0, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CapLimitTransform(tt.capLimit, tt.share)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CapLimitTransform(%v, %v) = %v, expected %v", tt.capLimit, tt.share, got, tt.expected)
			}
		})
	}

	if got := CapLimitTransform(0.4, 0.6); math.Abs(got-0.4) > 1e-8 {
		t.Errorf("CapLimitTransform(0.4, 0.6) = %v, expected close to 0.4", got)
	}
}

func TestCapLimitTransformBetweenShareAndLimit(t *testing.T) {
	for _, capLimit := range []float64{0.05, 0.2, 0.5, 0.9} {
		for share := 0.01; share <= 1.0; share += 0.01 {
			got := CapLimitTransform(capLimit, share)
			if share < capLimit && got < share-constants.SmallNumber {
				t.Fatalf("CapLimitTransform(%v, %v) = %v cuts a share below its limit", capLimit, share, got)
			}
			lo, hi := math.Min(share, capLimit), math.Max(share, capLimit)
			if got < lo-constants.SmallNumber || got > hi+constants.SmallNumber {
				t.Fatalf("CapLimitTransform(%v, %v) = %v outside [%v, %v]", capLimit, share, got, lo, hi)
			}
		}
	}
}

func TestCapLimitTransformBelowLimit(t *testing.T) {
	tests := []struct {
		capLimit float64
		share    float64
	}{
		{0.5, 0.2},
		{0.9, 0.1},
		{0.4, 0.39},
		{0.9, 0.5},
	}
	for _, tt := range tests {
		if got := CapLimitTransform(tt.capLimit, tt.share); got < tt.share {
			t.Errorf("share %v below limit %v treated as over ceiling %v", tt.share, tt.capLimit, got)
		}
	}
}
