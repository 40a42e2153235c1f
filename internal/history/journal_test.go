package history

import (
	"context"
	"testing"
	"time"

	"github.com/Dicommunitas/terminal-3d-core/internal/entity"
	"github.com/Dicommunitas/terminal-3d-core/internal/events"
	"github.com/Dicommunitas/terminal-3d-core/internal/simulation"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(Config{})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndQueryEquipmentHistory(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	tank := entity.Equipment{
		ID:   "T1",
		Kind: entity.KindTank,
		Tank: &entity.TankAttrs{Level: 0.5, Capacity: 1000},
	}
	if err := j.RecordEquipmentChange(ctx, tank, SourceManual); err != nil {
		t.Fatalf("record: %v", err)
	}
	tank.Tank.Level = 0.4
	if err := j.RecordEquipmentChange(ctx, tank, SourceOperation); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := j.EquipmentHistory(ctx, "T1", 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Source != SourceOperation || entries[0].State.Tank.Level != 0.4 {
		t.Fatalf("newest entry = %+v", entries[0])
	}
	if entries[1].State.Tank.Level != 0.5 {
		t.Fatalf("oldest entry level = %v", entries[1].State.Tank.Level)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Fatal("entry timestamp not set")
	}

	other, err := j.EquipmentHistory(ctx, "T2", 0)
	if err != nil {
		t.Fatalf("query other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("unrelated id returned %d entries", len(other))
	}
}

func TestRecordEquipmentChangeRequiresID(t *testing.T) {
	j := openJournal(t)

	if err := j.RecordEquipmentChange(context.Background(), entity.Equipment{}, ""); err == nil {
		t.Fatal("expected error for empty equipment id")
	}
}

func TestRecordAndQueryOperations(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	ops := []simulation.Operation{
		{ID: "op-1", Type: simulation.OpTransferProduct, Status: simulation.StatusCompleted, Progress: 1, Transferred: 500},
		{ID: "op-2", Type: simulation.OpSetValveState, Status: simulation.StatusFailed, Error: "valve removed"},
	}
	for _, op := range ops {
		if err := j.RecordOperation(ctx, op); err != nil {
			t.Fatalf("record %s: %v", op.ID, err)
		}
	}

	byID, err := j.OperationHistory(ctx, "op-1", 0)
	if err != nil {
		t.Fatalf("query op-1: %v", err)
	}
	if len(byID) != 1 || byID[0].Transferred != 500 || byID[0].Status != string(simulation.StatusCompleted) {
		t.Fatalf("op-1 entries = %+v", byID)
	}

	recent, err := j.RecentOperations(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d recent entries, want 2", len(recent))
	}
}

func TestPruneRemovesNothingFresh(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	if err := j.RecordOperation(ctx, simulation.Operation{ID: "op-1", Type: simulation.OpSetValveState, Status: simulation.StatusCompleted}); err != nil {
		t.Fatalf("record: %v", err)
	}

	deleted, err := j.Prune(ctx, time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("pruned %d fresh entries", deleted)
	}

	if _, err := j.Prune(ctx, 0); err == nil {
		t.Fatal("expected error for non-positive retention")
	}
}

func TestAttachJournalsTerminalOperationsOnly(t *testing.T) {
	j := openJournal(t)
	bus := events.NewBus()

	subs := j.Attach(bus)
	defer func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()

	bus.Publish(events.TopicOperationStatus, simulation.Operation{
		ID: "op-1", Type: simulation.OpTransferProduct, Status: simulation.StatusRunning,
	})
	bus.Publish(events.TopicOperationStatus, simulation.Operation{
		ID: "op-1", Type: simulation.OpTransferProduct, Status: simulation.StatusCancelled,
	})
	bus.Publish(events.TopicEquipmentChange, entity.Equipment{
		ID: "T1", Kind: entity.KindTank, Tank: &entity.TankAttrs{Level: 0.5},
	})

	ctx := context.Background()
	ops, err := j.OperationHistory(ctx, "op-1", 0)
	if err != nil {
		t.Fatalf("query ops: %v", err)
	}
	if len(ops) != 1 || ops[0].Status != string(simulation.StatusCancelled) {
		t.Fatalf("journalled ops = %+v", ops)
	}

	eq, err := j.EquipmentHistory(ctx, "T1", 0)
	if err != nil {
		t.Fatalf("query equipment: %v", err)
	}
	if len(eq) != 1 || eq[0].Source != SourceJitter {
		t.Fatalf("journalled equipment = %+v", eq)
	}
}
