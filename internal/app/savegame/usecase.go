package savegame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"villagelife/internal/app/ports"
	"villagelife/internal/app/session"
	"villagelife/internal/app/shared/suggest"
	"villagelife/internal/domain/event"
	"villagelife/internal/domain/village"
)

var ErrInvalidRequest = errors.New("invalid save request")

type UseCase struct {
	TxManager ports.TxManager
	Saves     ports.SaveRepository
	Events    ports.EventRepository
	Session   *session.Session
	Metrics   ports.SimulationMetrics
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

func (u UseCase) slot(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return u.Session.Slot()
	}
	return s
}

// Save writes the game state as the next version of the slot and flushes
// pending events in the same transaction. A concurrent writer yields
// ports.ErrConflict.
func (u UseCase) Save(ctx context.Context, req SaveRequest) (SaveResponse, error) {
	if u.Session == nil || u.Saves == nil || u.TxManager == nil {
		return SaveResponse{}, ErrInvalidRequest
	}
	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	newID := u.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	slot := u.slot(req.Slot)
	revision := newID()

	var record ports.SaveRecord
	err := u.Session.Do(func(g *village.Game) error {
		b, err := g.MarshalState()
		if err != nil {
			return err
		}
		snap := g.Snapshot()
		record = ports.SaveRecord{
			Slot:      slot,
			Revision:  revision,
			GameDate:  snap.Formatted,
			Ticks:     g.Clock().Ticks(),
			State:     b,
			UpdatedAt: nowFn().UTC(),
		}
		g.Bus().Emit(event.TopicGameState, event.StateSaved, snap.Instant, map[string]any{
			"slot":     slot,
			"revision": revision,
		})
		return nil
	})
	if err != nil {
		return SaveResponse{}, fmt.Errorf("encode state: %w", err)
	}

	expected, err := u.currentVersion(ctx, slot)
	if err != nil {
		return SaveResponse{}, err
	}
	record.Version = expected + 1
	events := u.Session.Drain()

	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := u.Saves.SaveWithVersion(txCtx, record, expected); err != nil {
			return err
		}
		if u.Events != nil && len(events) > 0 {
			return u.Events.Append(txCtx, slot, events)
		}
		return nil
	})
	if err != nil {
		if u.Metrics != nil {
			if errors.Is(err, ports.ErrConflict) {
				u.Metrics.RecordConflict()
			} else {
				u.Metrics.RecordFailure()
			}
		}
		if u.Logger != nil {
			u.Logger.Error("save failed", "slot", slot, "expected_version", expected, "err", err)
		}
		return SaveResponse{}, err
	}
	if slot == u.Session.Slot() {
		u.Session.SetVersion(record.Version)
	}
	return SaveResponse{
		Slot:     slot,
		Revision: revision,
		Version:  record.Version,
		GameDate: record.GameDate,
		Events:   len(events),
	}, nil
}

// currentVersion is the version this session last saw for its own slot;
// other slots are read from the repository.
func (u UseCase) currentVersion(ctx context.Context, slot string) (int64, error) {
	if slot == u.Session.Slot() && u.Session.Version() > 0 {
		return u.Session.Version(), nil
	}
	rec, err := u.Saves.GetBySlot(ctx, slot)
	if errors.Is(err, ports.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Version, nil
}

// Load restores the slot into the running game. Corrupt entries are
// skipped and reported; the rest of the save still applies.
func (u UseCase) Load(ctx context.Context, req LoadRequest) (LoadResponse, error) {
	if u.Session == nil || u.Saves == nil {
		return LoadResponse{}, ErrInvalidRequest
	}
	slot := u.slot(req.Slot)
	rec, err := u.Saves.GetBySlot(ctx, slot)
	if err != nil {
		return LoadResponse{}, err
	}

	var out LoadResponse
	err = u.Session.Do(func(g *village.Game) error {
		ids := map[string][]string{"task template": g.Catalog().TemplateIDs()}
		chains := g.Catalog().Chains()
		for _, ch := range chains {
			ids["task chain"] = append(ids["task chain"], ch.ID)
		}
		for _, li := range g.LoadJSON(rec.State) {
			out.Issues = append(out.Issues, Issue{
				Section:    li.Section,
				Key:        li.Key,
				Message:    li.Err.Error(),
				Suggestion: suggest.ForError(li.Err, ids),
			})
		}
		out.GameDate = g.Snapshot().Formatted
		return nil
	})
	if err != nil {
		return LoadResponse{}, err
	}
	if slot == u.Session.Slot() {
		u.Session.SetVersion(rec.Version)
	}
	out.Slot, out.Revision, out.Version = slot, rec.Revision, rec.Version
	if u.Logger != nil {
		for _, is := range out.Issues {
			u.Logger.Warn("skipped saved entry",
				"slot", slot,
				"section", is.Section,
				"key", is.Key,
				"err", is.Message,
				"suggestion", is.Suggestion,
			)
		}
		u.Logger.Info("save loaded", "slot", slot, "revision", rec.Revision, "issues", len(out.Issues))
	}
	return out, nil
}

func (u UseCase) List(ctx context.Context) ([]SlotSummary, error) {
	if u.Saves == nil {
		return nil, ErrInvalidRequest
	}
	recs, err := u.Saves.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SlotSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, SlotSummary{
			Slot:      r.Slot,
			Revision:  r.Revision,
			Version:   r.Version,
			GameDate:  r.GameDate,
			Ticks:     r.Ticks,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}
