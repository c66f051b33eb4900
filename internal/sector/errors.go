package sector

import "errors"

var (
	// ErrFatalArithmetic is returned when clearing would divide by a zero
	// demand. The run must stop.
	ErrFatalArithmetic = errors.New("fatal arithmetic: fixed output with zero market demand")

	// ErrCapacityInfeasible means over-limit share remains but no subsector
	// has room to absorb it.
	ErrCapacityInfeasible = errors.New("insufficient capacity to meet demand")

	// ErrCapacityNotResolved means the redistribution budget ran out while
	// some subsector was still above its ceiling.
	ErrCapacityNotResolved = errors.New("capacity limit not resolved")

	// ErrShareSum means shares do not form a partition of unity.
	ErrShareSum = errors.New("shares do not sum to one")

	// ErrCalibrationMismatch means calibrated plus fixed output differs from
	// actual output beyond tolerance.
	ErrCalibrationMismatch = errors.New("calibrated and fixed output do not match output")

	// ErrSupplyMismatch means derived supply differs from demand.
	ErrSupplyMismatch = errors.New("demand and derived supply are not equal")

	// ErrIllegalSubsector is reported for an out-of-range subsector index.
	ErrIllegalSubsector = errors.New("illegal subsector index")

	// ErrStageOrder is returned when a per-period operation is invoked before
	// the stage it depends on has completed.
	ErrStageOrder = errors.New("sector operation called out of order")

	// ErrPeriodOutOfRange is returned for a period outside the model horizon.
	ErrPeriodOutOfRange = errors.New("period out of range")
)
