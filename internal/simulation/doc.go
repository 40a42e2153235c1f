// Package simulation drives interruptible, time-extended equipment
// mutations against the entity store.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────┐
//	│                      Simulator                       │
//	│                                                      │
//	│  StartSetValveState ──► settle timer ──► state write │
//	│  StartTransferProduct ─► tick loop ────► tank/pipe   │
//	│  CancelOperation ──────► cooperative stop            │
//	└──────────┬──────────────────┬───────────────┬────────┘
//	           │ ScheduleOnce/    │ Upsert/GetByID│ Publish
//	           │ ScheduleInterval ▼               ▼
//	           ▼            entity.Store      events.Bus
//	      Scheduler (single executor goroutine)
//
// # Execution Model
//
// All timer callbacks, operation ticks and jitter pulses alike, execute
// serially on the Scheduler's one executor goroutine. A callback runs to
// completion before the next one starts, so store mutations from two
// operations can interleave only at tick granularity, never within a tick.
//
// # Operation Lifecycle
//
// Validation happens synchronously at Start; a rejected start returns an
// error and allocates no operation id. Accepted operations run through
// running into exactly one of completed, failed or cancelled, each of which
// is terminal. The in-flight ledger holds only non-terminal entries: the
// terminal transition evicts the entry and emits the final broadcast, so
// outcomes are observable only on the status channel.
//
// # Usage
//
//	sched := simulation.NewScheduler()
//	go sched.Run(ctx)
//
//	sim := simulation.NewSimulator(store, sched, bus, simulation.Config{})
//	sub := sim.Subscribe(func(op simulation.Operation) { ... })
//	defer sub.Unsubscribe()
//
//	id, err := sim.StartTransferProduct(simulation.TransferProductParams{
//	    SourceTankID: "T1", DestTankID: "T2", PipeID: "P1",
//	    ValveIDs: []string{"V1"}, TransferRate: 100, Duration: 5 * time.Second,
//	})
package simulation
