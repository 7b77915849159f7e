package ports

import (
	"context"
	"time"

	"villagelife/internal/domain/event"
)

// SaveRecord is one stored revision of a save slot.
type SaveRecord struct {
	Slot      string
	Revision  string
	Version   int64
	GameDate  string
	Ticks     uint64
	State     []byte
	UpdatedAt time.Time
}

type SaveRepository interface {
	GetBySlot(ctx context.Context, slot string) (SaveRecord, error)
	SaveWithVersion(ctx context.Context, record SaveRecord, expectedVersion int64) error
	List(ctx context.Context) ([]SaveRecord, error)
}

type EventRepository interface {
	Append(ctx context.Context, slot string, events []event.DomainEvent) error
	ListBySlot(ctx context.Context, slot string, limit int) ([]event.DomainEvent, error)
}
