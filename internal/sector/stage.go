package sector

import "fmt"

// Stage is the last completed step of a sector's per-period pass. Stages
// are ordered as they run: the fixed-output adjustment happens inside
// Supply, after shares are validated and the price is computed.
type Stage int

const (
	StageNone Stage = iota
	StageShareWeightsNormalized
	StageSharesComputed
	StageCapacityLimitsResolved
	StageSharesValidated
	StagePriceComputed
	StageFixedOutputAdjusted
	StageSupplyEmitted
)

var stageNames = map[Stage]string{
	StageNone:                   "none",
	StageShareWeightsNormalized: "share-weights-normalized",
	StageSharesComputed:         "shares-computed",
	StageCapacityLimitsResolved: "capacity-limits-resolved",
	StageSharesValidated:        "shares-validated",
	StagePriceComputed:          "price-computed",
	StageFixedOutputAdjusted:    "fixed-output-adjusted",
	StageSupplyEmitted:          "supply-emitted",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// require checks that period is in range and has reached at least want.
func (s *Sector) require(period int, want Stage, op string) error {
	if err := s.checkPeriod(period); err != nil {
		return err
	}
	if got := s.stages[period]; got < want {
		return fmt.Errorf("%w: %s in sector %s (%s) period %d requires %s, have %s",
			ErrStageOrder, op, s.name, s.regionName, period, want, got)
	}
	return nil
}

// advance moves the period forward to stage; it never moves it back.
func (s *Sector) advance(period int, stage Stage) {
	if stage > s.stages[period] {
		s.stages[period] = stage
	}
}

// reset sets the period's stage outright. Used when a new pass starts.
func (s *Sector) reset(period int, stage Stage) {
	s.stages[period] = stage
}

func (s *Sector) checkPeriod(period int) error {
	if period < 0 || period >= s.periods {
		return fmt.Errorf("%w: period %d outside [0, %d) in sector %s", ErrPeriodOutOfRange, period, s.periods, s.name)
	}
	return nil
}
