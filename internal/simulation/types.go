package simulation

import (
	"time"

	"github.com/Dicommunitas/terminal-3d-core/internal/entity"
)

// OperationType discriminates the operation variants.
type OperationType string

// OperationType constants.
const (
	OpSetValveState   OperationType = "set_valve_state"
	OpTransferProduct OperationType = "transfer_product"
)

// OperationStatus is the lifecycle state of an operation. Running is the
// only non-terminal status; there are no transitions out of the terminal
// states.
type OperationStatus string

// OperationStatus constants.
const (
	StatusRunning   OperationStatus = "running"
	StatusCompleted OperationStatus = "completed"
	StatusFailed    OperationStatus = "failed"
	StatusCancelled OperationStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s OperationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// SetValveStateParams describes a valve actuation request.
type SetValveStateParams struct {
	ValveID  string
	NewState entity.ValveState
}

// TransferProductParams describes a tank-to-tank transfer request. Exactly
// one of Duration and TargetVolume selects the termination criterion.
type TransferProductParams struct {
	SourceTankID string
	DestTankID   string
	PipeID       string
	ValveIDs     []string

	// TransferRate is the nominal flow in volume units per second.
	TransferRate float64

	Duration     time.Duration
	TargetVolume float64
}

// Operation is a point-in-time view of one operation, carried both by the
// in-flight ledger and by every status broadcast.
type Operation struct {
	ID     string
	Type   OperationType
	Status OperationStatus

	// Progress is in [0,1] per the operation's termination criterion.
	Progress float64

	// Transferred is the cumulative volume moved; transfers only.
	Transferred float64

	// Equipment touched by the operation.
	ValveID      string
	SourceTankID string
	DestTankID   string
	PipeID       string

	StartedAt time.Time
	// EndedAt is zero while the operation is running.
	EndedAt time.Time

	// Error describes a failure; empty unless Status is StatusFailed.
	Error string
}
