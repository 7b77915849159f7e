package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"villagelife/internal/app/ports"
	"villagelife/internal/domain/event"
)

func TestSaveRepo_OptimisticVersion(t *testing.T) {
	store := NewStore()
	repo := NewSaveRepo(store)
	ctx := context.Background()

	if _, err := repo.GetBySlot(ctx, "main"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.SaveWithVersion(ctx, ports.SaveRecord{Slot: "main", Version: 1, State: []byte(`{}`)}, 3); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected conflict on missing slot with version, got %v", err)
	}
	if err := repo.SaveWithVersion(ctx, ports.SaveRecord{Slot: "main", Version: 1, State: []byte(`{}`)}, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SaveWithVersion(ctx, ports.SaveRecord{Slot: "main", Version: 2}, 0); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected conflict on stale version, got %v", err)
	}
	if err := repo.SaveWithVersion(ctx, ports.SaveRecord{Slot: "main", Version: 2, State: []byte(`{"a":1}`)}, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	rec, err := repo.GetBySlot(ctx, "main")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Version != 2 || string(rec.State) != `{"a":1}` {
		t.Fatalf("unexpected record: %+v", rec)
	}

	store.SeedSave(ports.SaveRecord{Slot: "alt", Version: 7})
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Slot != "alt" || list[1].State != nil {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestEventRepo_ListsNewestFirst(t *testing.T) {
	store := NewStore()
	repo := NewEventRepo(store)
	tx := NewTxManager(store)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		return repo.Append(ctx, "main", []event.DomainEvent{
			{Type: event.DayStarted, OccurredAt: base},
			{Type: event.WeatherChanged, OccurredAt: base.Add(time.Minute)},
			{Type: event.TaskCompleted, OccurredAt: base.Add(2 * time.Minute)},
		})
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := repo.ListBySlot(ctx, "main", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Type != event.TaskCompleted || got[1].Type != event.WeatherChanged {
		t.Fatalf("unexpected order: %+v", got)
	}
	if _, err := repo.ListBySlot(ctx, "other", 0); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
