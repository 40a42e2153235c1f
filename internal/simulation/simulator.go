package simulation

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dicommunitas/terminal-3d-core/internal/entity"
	"github.com/Dicommunitas/terminal-3d-core/internal/events"
)

// Logger defines the logging interface used by the simulation package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config tunes the simulator's timing.
type Config struct {
	// TickInterval is the transfer tick cadence.
	TickInterval time.Duration

	// SettleDelayMin/Max bound the randomized valve actuation delay.
	SettleDelayMin time.Duration
	SettleDelayMax time.Duration
}

// withDefaults fills unset fields with production defaults.
func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.SettleDelayMin <= 0 {
		c.SettleDelayMin = 500 * time.Millisecond
	}
	if c.SettleDelayMax < c.SettleDelayMin {
		c.SettleDelayMax = c.SettleDelayMin
	}
	return c
}

// runningOp is a ledger entry for one in-flight operation.
type runningOp struct {
	Operation

	task    *Task
	params  TransferProductParams
	elapsed time.Duration
}

// Simulator drives time-extended equipment mutations against the store.
//
// Start calls validate synchronously and reject with an error instead of an
// operation id; after acceptance every outcome, including failure, is
// reported solely through the status channel. The ledger holds only
// non-terminal operations: an entry is evicted the moment its operation
// turns terminal, so GetOperationStatus returns nothing for a finished
// operation and callers must watch the status channel for outcomes.
//
// All mutations run on the scheduler's executor goroutine, so no two ticks
// ever interleave. Cancellation is cooperative: a tick already executing
// runs to completion before the cancel is honored.
type Simulator struct {
	store  *entity.Store
	sched  *Scheduler
	bus    *events.Bus
	logger Logger
	cfg    Config

	mu  sync.RWMutex
	ops map[string]*runningOp
}

// NewSimulator creates a simulator over the given store, scheduler and
// status bus.
func NewSimulator(store *entity.Store, sched *Scheduler, bus *events.Bus, cfg Config) *Simulator {
	return &Simulator{
		store:  store,
		sched:  sched,
		bus:    bus,
		logger: noopLogger{},
		cfg:    cfg.withDefaults(),
		ops:    make(map[string]*runningOp),
	}
}

// SetLogger sets the logger for the simulator.
func (s *Simulator) SetLogger(logger Logger) {
	s.logger = logger
}

// StartSetValveState begins a valve actuation. The state write lands after
// a randomized settle delay; a valve vanishing in the meantime fails the
// operation instead of erroring.
func (s *Simulator) StartSetValveState(p SetValveStateParams) (string, error) {
	v, ok := s.store.GetByID(p.ValveID)
	if !ok || v.Kind != entity.KindValve || v.Valve == nil {
		return "", fmt.Errorf("%w: %s", ErrValveNotFound, p.ValveID)
	}
	if v.Valve.ValveType == entity.ValveTypeCheck {
		return "", fmt.Errorf("%w: %s", ErrCheckValve, p.ValveID)
	}
	if !validValveState(p.NewState) {
		return "", fmt.Errorf("%w: %q", ErrInvalidValveState, p.NewState)
	}

	id := "op-" + uuid.NewString()[:16]
	op := &runningOp{Operation: Operation{
		ID:        id,
		Type:      OpSetValveState,
		Status:    StatusRunning,
		ValveID:   p.ValveID,
		StartedAt: time.Now(),
	}}

	s.mu.Lock()
	s.ops[id] = op
	s.mu.Unlock()
	s.publish(op.Operation)

	delay := s.settleDelay()
	s.logger.Debug("valve actuation started", "operation", id, "valve", p.ValveID, "state", p.NewState, "settle", delay)

	s.mu.Lock()
	// An immediate cancel may have evicted the entry already.
	if _, live := s.ops[id]; live {
		op.task = s.sched.ScheduleOnce(delay, func() { s.settleValve(id, p.NewState) })
	}
	s.mu.Unlock()
	return id, nil
}

// settleValve lands the state write once the actuation delay has elapsed.
func (s *Simulator) settleValve(id string, state entity.ValveState) {
	s.mu.Lock()
	op, ok := s.ops[id]
	if !ok {
		s.mu.Unlock()
		return
	}

	var snap Operation
	v, found := s.store.GetByID(op.ValveID)
	switch {
	case !found || v.Kind != entity.KindValve || v.Valve == nil:
		snap = s.finishLocked(op, StatusFailed, "valve removed during actuation")
	default:
		v.Valve.State = state
		if err := s.store.Upsert(v); err != nil {
			snap = s.finishLocked(op, StatusFailed, err.Error())
		} else {
			op.Progress = 1
			snap = s.finishLocked(op, StatusCompleted, "")
		}
	}
	s.mu.Unlock()
	s.publish(snap)
}

// StartTransferProduct begins a tank-to-tank transfer driven by
// fixed-cadence ticks.
func (s *Simulator) StartTransferProduct(p TransferProductParams) (string, error) {
	if p.TransferRate <= 0 {
		return "", ErrNonPositiveRate
	}
	if p.Duration <= 0 && p.TargetVolume <= 0 {
		return "", ErrMissingCriterion
	}
	if p.Duration > 0 && p.TargetVolume > 0 {
		return "", ErrAmbiguousCriterion
	}
	if err := s.requireTank(p.SourceTankID); err != nil {
		return "", err
	}
	if err := s.requireTank(p.DestTankID); err != nil {
		return "", err
	}
	pipe, ok := s.store.GetByID(p.PipeID)
	if !ok || pipe.Kind != entity.KindPipe || pipe.Pipe == nil {
		return "", fmt.Errorf("%w: %s", ErrPipeNotFound, p.PipeID)
	}
	for _, vid := range p.ValveIDs {
		v, found := s.store.GetByID(vid)
		if !found || v.Kind != entity.KindValve || v.Valve == nil {
			return "", fmt.Errorf("%w: %s", ErrValveNotFound, vid)
		}
		if v.Valve.State != entity.ValveStateOpen {
			return "", fmt.Errorf("%w: %s", ErrValveNotOpen, vid)
		}
	}

	id := "op-" + uuid.NewString()[:16]
	params := p
	params.ValveIDs = append([]string(nil), p.ValveIDs...)
	op := &runningOp{
		Operation: Operation{
			ID:           id,
			Type:         OpTransferProduct,
			Status:       StatusRunning,
			SourceTankID: p.SourceTankID,
			DestTankID:   p.DestTankID,
			PipeID:       p.PipeID,
			StartedAt:    time.Now(),
		},
		params: params,
	}

	s.mu.Lock()
	s.ops[id] = op
	s.mu.Unlock()
	s.publish(op.Operation)

	s.logger.Debug("transfer started", "operation", id,
		"source", p.SourceTankID, "dest", p.DestTankID, "rate", p.TransferRate)

	s.mu.Lock()
	if _, live := s.ops[id]; live {
		op.task = s.sched.ScheduleInterval(s.cfg.TickInterval, func() { s.transferTick(id) })
	}
	s.mu.Unlock()
	return id, nil
}

// transferTick advances one transfer by one tick: re-check valves, clamp
// the tick's volume, apply it to both tanks and the pipe flow, then decide
// whether the termination criterion is met.
func (s *Simulator) transferTick(id string) {
	s.mu.Lock()
	op, ok := s.ops[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	op.elapsed += s.cfg.TickInterval

	// A valve closing mid-flight fails the transfer; it is never ignored.
	for _, vid := range op.params.ValveIDs {
		v, found := s.store.GetByID(vid)
		if !found || v.Kind != entity.KindValve || v.Valve == nil || v.Valve.State != entity.ValveStateOpen {
			s.zeroPipeFlow(op.PipeID)
			snap := s.finishLocked(op, StatusFailed, "prerequisite valve no longer open: "+vid)
			s.mu.Unlock()
			s.publish(snap)
			return
		}
	}

	src, okSrc := s.store.GetByID(op.SourceTankID)
	dst, okDst := s.store.GetByID(op.DestTankID)
	pipe, okPipe := s.store.GetByID(op.PipeID)
	if !okSrc || src.Tank == nil || !okDst || dst.Tank == nil || !okPipe || pipe.Pipe == nil {
		s.zeroPipeFlow(op.PipeID)
		snap := s.finishLocked(op, StatusFailed, "equipment removed during transfer")
		s.mu.Unlock()
		s.publish(snap)
		return
	}

	tickSeconds := s.cfg.TickInterval.Seconds()
	delta := op.params.TransferRate * tickSeconds
	if op.params.TargetVolume > 0 {
		if remaining := op.params.TargetVolume - op.Transferred; delta > remaining {
			delta = remaining
		}
	}
	if avail := src.Tank.AvailableVolume(); delta > avail {
		delta = avail
	}
	if headroom := dst.Tank.Headroom(); delta > headroom {
		delta = headroom
	}
	if delta < 0 {
		delta = 0
	}

	if delta > 0 {
		src.Tank.Level -= delta / src.Tank.Capacity
		if src.Tank.Level < 0 {
			src.Tank.Level = 0
		}
		dst.Tank.Level += delta / dst.Tank.Capacity
		if dst.Tank.Level > 1 {
			dst.Tank.Level = 1
		}
		pipe.Pipe.FlowRate = delta / tickSeconds
		if err := s.upsertAll(src, dst, pipe); err != nil {
			snap := s.finishLocked(op, StatusFailed, err.Error())
			s.mu.Unlock()
			s.publish(snap)
			return
		}
		op.Transferred += delta
	}

	if op.params.Duration > 0 {
		op.Progress = min(1, op.elapsed.Seconds()/op.params.Duration.Seconds())
	} else {
		op.Progress = min(1, op.Transferred/op.params.TargetVolume)
	}

	done := false
	switch {
	case op.params.Duration > 0 && op.elapsed >= op.params.Duration:
		done = true
	case op.params.TargetVolume > 0 && op.Transferred >= op.params.TargetVolume-1e-9:
		done = true
	case delta == 0:
		// Source exhausted or destination full before the criterion.
		done = true
	case src.Tank.Level <= 0 || dst.Tank.Level >= 1:
		done = true
	}

	if done {
		s.zeroPipeFlow(op.PipeID)
		snap := s.finishLocked(op, StatusCompleted, "")
		s.mu.Unlock()
		s.publish(snap)
		return
	}

	snap := op.Operation
	s.mu.Unlock()
	s.publish(snap)
}

// CancelOperation cancels a running operation. It returns false for unknown
// or already-terminal ids; terminal entries have been evicted, so repeated
// cancels are idempotent no-ops.
func (s *Simulator) CancelOperation(id string) bool {
	s.mu.Lock()
	op, ok := s.ops[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if op.Type == OpTransferProduct {
		s.zeroPipeFlow(op.PipeID)
	}
	snap := s.finishLocked(op, StatusCancelled, "")
	s.mu.Unlock()

	s.publish(snap)
	s.logger.Debug("operation cancelled", "operation", id)
	return true
}

// GetOperationStatus returns the current view of a running operation.
// Terminal operations are never found.
func (s *Simulator) GetOperationStatus(id string) (Operation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, ok := s.ops[id]
	if !ok {
		return Operation{}, false
	}
	return op.Operation, true
}

// GetActiveOperations returns a view of every running operation.
func (s *Simulator) GetActiveOperations() []Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Operation, 0, len(s.ops))
	for _, op := range s.ops {
		out = append(out, op.Operation)
	}
	return out
}

// Subscribe registers a handler for every status broadcast. Delivery is
// synchronous on the mutating goroutine; handlers must not block.
func (s *Simulator) Subscribe(fn func(Operation)) *events.Subscription {
	return s.bus.Subscribe(events.TopicOperationStatus, func(ev events.Event) {
		if op, ok := ev.Payload.(Operation); ok {
			fn(op)
		}
	})
}

// finishLocked turns an operation terminal: it stops the timer, evicts the
// ledger entry and returns the final snapshot for broadcast. The entry is
// gone before the final event is delivered, so status reads from within a
// handler already see the operation as finished. Caller holds s.mu.
func (s *Simulator) finishLocked(op *runningOp, status OperationStatus, errMsg string) Operation {
	if op.task != nil {
		op.task.Cancel()
	}
	op.Status = status
	op.Error = errMsg
	op.EndedAt = time.Now()
	delete(s.ops, op.ID)
	return op.Operation
}

// zeroPipeFlow resets a pipe's flow attribute on any terminal transition.
func (s *Simulator) zeroPipeFlow(pipeID string) {
	pipe, ok := s.store.GetByID(pipeID)
	if !ok || pipe.Pipe == nil {
		return
	}
	pipe.Pipe.FlowRate = 0
	if err := s.store.Upsert(pipe); err != nil {
		s.logger.Warn("failed to reset pipe flow", "pipe", pipeID, "error", err)
	}
}

func (s *Simulator) upsertAll(records ...*entity.Equipment) error {
	for _, r := range records {
		if err := s.store.Upsert(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) requireTank(id string) error {
	e, ok := s.store.GetByID(id)
	if !ok || e.Kind != entity.KindTank || e.Tank == nil {
		return fmt.Errorf("%w: %s", ErrTankNotFound, id)
	}
	return nil
}

// settleDelay draws a random actuation delay from the configured bounds.
func (s *Simulator) settleDelay() time.Duration {
	lo, hi := s.cfg.SettleDelayMin, s.cfg.SettleDelayMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)))
}

func (s *Simulator) publish(op Operation) {
	s.bus.Publish(events.TopicOperationStatus, op)
}

func validValveState(state entity.ValveState) bool {
	for _, v := range entity.AllValveStates() {
		if v == state {
			return true
		}
	}
	return false
}
