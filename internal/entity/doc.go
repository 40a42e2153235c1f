// Package entity provides the Entity Store for Terminal 3D Core.
//
// The Entity Store is the canonical catalogue of all equipment and annotation
// records in a terminal scene. It manages record lifecycle, keeps derived
// secondary indices consistent with the primary table, and provides the query
// operations the filter engine and operation simulator are built on.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────────────┐
//	│                           Entity Store                             │
//	│                                                                    │
//	│  ┌────────────────┐   ┌──────────────────┐   ┌─────────────────┐   │
//	│  │     Store      │   │     Indices      │   │     Loader      │   │
//	│  │   (store.go)   │──▶│   (store.go)     │   │  (loader.go)    │   │
//	│  │                │   │                  │   │                 │   │
//	│  │ • Upsert/Delete│   │ • byKind         │   │ • bucket→kind   │   │
//	│  │ • Deep copies  │   │ • byParent       │   │ • x/y/z coerce  │   │
//	│  │ • Thread safety│   │ • byCategory     │   │ • routing       │   │
//	│  └────────────────┘   │ • byTarget (ann.)│   └─────────────────┘   │
//	│                       └──────────────────┘                         │
//	└────────────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Equipment: a typed equipment record (tank, pipe, valve, loading area)
//   - Annotation: a world-anchored note, in an independent id space
//   - EquipmentKind: the variant discriminator
//   - Store: the indexed table both live mutators and pure readers share
//
// # Index Consistency
//
// An id is present in an index bucket iff the stored record's corresponding
// field currently equals that bucket's key. Upsert diffs old vs new values of
// each indexed field and reconciles membership inside one critical section;
// Delete removes the record and every membership atomically. Buckets are
// ordered, duplicate-free id lists; removing the last id deletes the bucket.
//
// # Usage
//
//	store := entity.NewStore()
//	store.SetLogger(log)
//
//	err := store.Upsert(&entity.Equipment{
//	    ID:   "tank-001",
//	    Kind: entity.KindTank,
//	    Name: "Crude Tank 1",
//	    Tank: &entity.TankAttrs{Level: 0.5, Capacity: 1000},
//	})
//
//	tanks := store.GetByType(entity.KindTank)
package entity
