package memory

import (
	"context"
	"sort"

	"villagelife/internal/app/ports"
)

type SaveRepo struct {
	store *Store
}

func NewSaveRepo(store *Store) SaveRepo {
	return SaveRepo{store: store}
}

func (r SaveRepo) GetBySlot(_ context.Context, slot string) (ports.SaveRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.saves[slot]
	if !ok {
		return ports.SaveRecord{}, ports.ErrNotFound
	}
	rec.State = append([]byte(nil), rec.State...)
	return rec, nil
}

func (r SaveRepo) SaveWithVersion(_ context.Context, record ports.SaveRecord, expectedVersion int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	record.State = append([]byte(nil), record.State...)
	current, ok := r.store.saves[record.Slot]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrConflict
		}
		r.store.saves[record.Slot] = record
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrConflict
	}
	r.store.saves[record.Slot] = record
	return nil
}

// List returns every slot without its state payload, ordered by slot.
func (r SaveRepo) List(_ context.Context) ([]ports.SaveRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]ports.SaveRecord, 0, len(r.store.saves))
	for _, rec := range r.store.saves {
		rec.State = nil
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}
