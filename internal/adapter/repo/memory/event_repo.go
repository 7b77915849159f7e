package memory

import (
	"context"

	"villagelife/internal/app/ports"
	"villagelife/internal/domain/event"
)

type EventRepo struct {
	store *Store
}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func (r EventRepo) Append(_ context.Context, slot string, events []event.DomainEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events[slot] = append(r.store.events[slot], events...)
	return nil
}

// ListBySlot returns the newest events first, matching the gorm repo.
func (r EventRepo) ListBySlot(_ context.Context, slot string, limit int) ([]event.DomainEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	all := r.store.events[slot]
	if len(all) == 0 {
		return nil, ports.ErrNotFound
	}
	out := make([]event.DomainEvent, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
