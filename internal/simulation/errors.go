package simulation

import "errors"

// Domain errors for the simulation package. All of them reject an operation
// start synchronously; nothing after acceptance surfaces as an error.
var (
	// ErrValveNotFound is returned when a referenced valve id does not
	// resolve to a valve.
	ErrValveNotFound = errors.New("simulation: valve not found")

	// ErrCheckValve is returned when actuating a check valve, which cannot
	// be operated manually.
	ErrCheckValve = errors.New("simulation: check valve cannot be actuated")

	// ErrInvalidValveState is returned for an unknown target valve state.
	ErrInvalidValveState = errors.New("simulation: invalid valve state")

	// ErrTankNotFound is returned when a referenced tank id does not
	// resolve to a tank.
	ErrTankNotFound = errors.New("simulation: tank not found")

	// ErrPipeNotFound is returned when the referenced pipe id does not
	// resolve to a pipe.
	ErrPipeNotFound = errors.New("simulation: pipe not found")

	// ErrValveNotOpen is returned when a prerequisite valve is not open at
	// start time.
	ErrValveNotOpen = errors.New("simulation: prerequisite valve not open")

	// ErrNonPositiveRate is returned for a transfer rate <= 0.
	ErrNonPositiveRate = errors.New("simulation: transfer rate must be positive")

	// ErrMissingCriterion is returned when neither duration nor target
	// volume is supplied.
	ErrMissingCriterion = errors.New("simulation: duration or target volume required")

	// ErrAmbiguousCriterion is returned when both duration and target
	// volume are supplied.
	ErrAmbiguousCriterion = errors.New("simulation: duration and target volume are mutually exclusive")
)
