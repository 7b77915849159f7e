package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"villagelife/internal/app/ports"
	"villagelife/internal/domain/event"
)

func TestUseCase_ReconstructsSummaryFromEvents(t *testing.T) {
	// newest first, as the repositories return them
	repo := fakeRepo{events: []event.DomainEvent{
		{Topic: event.TopicTask, Type: event.ChainCompleted, OccurredAt: time.Unix(40, 0), Payload: map[string]any{"chain_id": "village_establishment_1"}},
		{Topic: event.TopicTask, Type: event.TaskCompleted, OccurredAt: time.Unix(30, 0), Payload: map[string]any{"task_id": "clear_land"}},
		{Topic: event.TopicResource, Type: event.ResourceRemoved, OccurredAt: time.Unix(20, 0), Payload: map[string]any{"type": "WOOD", "quantity": 30.0}},
		{Topic: event.TopicWeather, Type: event.WeatherChanged, OccurredAt: time.Unix(15, 0), Payload: map[string]any{"weather": "RAINY"}},
		{Topic: event.TopicResource, Type: event.ResourceAdded, OccurredAt: time.Unix(10, 0), Payload: map[string]any{"type": "WOOD", "quantity": 50.0}},
		{Topic: event.TopicTask, Type: event.TaskStarted, OccurredAt: time.Unix(5, 0), Payload: map[string]any{"task_id": "clear_land"}},
	}}

	uc := UseCase{Events: repo}
	out, err := uc.Execute(context.Background(), Request{Slot: "main", Limit: 10})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out.Events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(out.Events))
	}
	if got := out.Summary.ResourceNet["WOOD"]; got != 20 {
		t.Fatalf("expected net wood 20, got %v", got)
	}
	if len(out.Summary.TasksCompleted) != 1 || out.Summary.TasksCompleted[0] != "clear_land" {
		t.Fatalf("unexpected completed tasks: %v", out.Summary.TasksCompleted)
	}
	if len(out.Summary.ChainsCompleted) != 1 || out.Summary.LastWeather != "RAINY" {
		t.Fatalf("unexpected summary: %+v", out.Summary)
	}
}

func TestUseCase_AppliesFiltersBeforeLimit(t *testing.T) {
	repo := fakeRepo{events: []event.DomainEvent{
		{Topic: event.TopicTime, Type: event.DayStarted, OccurredAt: time.Unix(300, 0)},
		{Topic: event.TopicTask, Type: event.TaskCompleted, OccurredAt: time.Unix(200, 0), Payload: map[string]any{"task_id": "b"}},
		{Topic: event.TopicTime, Type: event.DayStarted, OccurredAt: time.Unix(150, 0)},
		{Topic: event.TopicTask, Type: event.TaskCompleted, OccurredAt: time.Unix(100, 0), Payload: map[string]any{"task_id": "a"}},
	}}
	uc := UseCase{Events: repo}
	out, err := uc.Execute(context.Background(), Request{Slot: "main", Limit: 1, Topic: string(event.TopicTask)})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out.Events) != 1 || out.Events[0].Payload["task_id"] != "b" {
		t.Fatalf("expected newest task event only, got %+v", out.Events)
	}

	windowed, err := uc.Execute(context.Background(), Request{Slot: "main", OccurredFrom: 120, OccurredTo: 250, Types: []string{event.DayStarted}})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if windowed.Summary.DaysStarted != 1 {
		t.Fatalf("expected one day in window, got %d", windowed.Summary.DaysStarted)
	}
}

func TestUseCase_EmptyLogIsNotAnError(t *testing.T) {
	uc := UseCase{Events: fakeRepo{err: ports.ErrNotFound}}
	out, err := uc.Execute(context.Background(), Request{Slot: "main"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out.Events) != 0 {
		t.Fatalf("expected no events")
	}
	if _, err := uc.Execute(context.Background(), Request{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

type fakeRepo struct {
	events []event.DomainEvent
	err    error
}

func (r fakeRepo) Append(_ context.Context, _ string, _ []event.DomainEvent) error {
	return nil
}

func (r fakeRepo) ListBySlot(_ context.Context, _ string, limit int) ([]event.DomainEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	if limit > 0 && len(r.events) > limit {
		return r.events[:limit], nil
	}
	return r.events, nil
}
