package replay

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"villagelife/internal/app/ports"
	"villagelife/internal/domain/event"
)

var ErrInvalidRequest = errors.New("invalid replay request")

type UseCase struct {
	Events ports.EventRepository
}

// Execute filters the slot's event log before applying the limit and
// summarizes the result in occurrence order.
func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.Slot = strings.TrimSpace(req.Slot)
	if req.Slot == "" || req.Limit < 0 || u.Events == nil {
		return Response{}, ErrInvalidRequest
	}
	filtering := req.Topic != "" || len(req.Types) > 0 || req.OccurredFrom > 0 || req.OccurredTo > 0
	fetch := req.Limit
	if filtering {
		fetch = 0
	}
	events, err := u.Events.ListBySlot(ctx, req.Slot, fetch)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return Response{Summary: Summary{ResourceNet: map[string]float64{}}}, nil
		}
		return Response{}, err
	}
	events = filterByTimeWindow(events, req.OccurredFrom, req.OccurredTo)
	events = filterByKind(events, req.Topic, req.Types)
	if req.Limit > 0 && len(events) > req.Limit {
		events = events[:req.Limit]
	}
	return Response{Events: events, Summary: reconstruct(events)}, nil
}

func filterByTimeWindow(events []event.DomainEvent, from, to int64) []event.DomainEvent {
	if from <= 0 && to <= 0 {
		return events
	}
	out := make([]event.DomainEvent, 0, len(events))
	for _, evt := range events {
		ts := evt.OccurredAt.Unix()
		if from > 0 && ts < from {
			continue
		}
		if to > 0 && ts > to {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func filterByKind(events []event.DomainEvent, topic string, types []string) []event.DomainEvent {
	if topic == "" && len(types) == 0 {
		return events
	}
	out := make([]event.DomainEvent, 0, len(events))
	for _, evt := range events {
		if topic != "" && string(evt.Topic) != topic {
			continue
		}
		if len(types) > 0 && !slices.Contains(types, evt.Type) {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func reconstruct(events []event.DomainEvent) Summary {
	ordered := append([]event.DomainEvent(nil), events...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OccurredAt.Before(ordered[j].OccurredAt) })

	s := Summary{ResourceNet: map[string]float64{}}
	for _, evt := range ordered {
		id, _ := evt.Payload["task_id"].(string)
		switch evt.Type {
		case event.TaskStarted:
			s.TasksStarted = append(s.TasksStarted, id)
		case event.TaskCompleted:
			s.TasksCompleted = append(s.TasksCompleted, id)
		case event.TaskFailed:
			s.TasksFailed = append(s.TasksFailed, id)
		case event.ChainCompleted:
			if chain, ok := evt.Payload["chain_id"].(string); ok {
				s.ChainsCompleted = append(s.ChainsCompleted, chain)
			}
		case event.ResourceAdded:
			if t, ok := evt.Payload["type"].(string); ok {
				s.ResourceNet[t] += num(evt.Payload["quantity"])
			}
		case event.ResourceRemoved:
			if t, ok := evt.Payload["type"].(string); ok {
				s.ResourceNet[t] -= num(evt.Payload["quantity"])
			}
		case event.WeatherChanged:
			s.LastWeather, _ = evt.Payload["weather"].(string)
		case event.SeasonChanged:
			s.LastSeason, _ = evt.Payload["season"].(string)
		case event.DayStarted:
			s.DaysStarted++
		case event.StateLoaded:
			s.Loads++
		case event.StateSaved:
			s.Saves++
		}
	}
	return s
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		if t, ok := v.(time.Time); ok {
			return float64(t.Unix())
		}
		return 0
	}
}
