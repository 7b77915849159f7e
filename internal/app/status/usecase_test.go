package status

import (
	"context"
	"errors"
	"testing"

	"villagelife/internal/app/ports"
	"villagelife/internal/app/session"
	"villagelife/internal/domain/task"
	"villagelife/internal/domain/village"
)

type statusCharacters struct {
	char ports.Character
	err  error
}

func (s statusCharacters) Character(context.Context) (ports.Character, error) {
	return s.char, s.err
}

func newSession() *session.Session {
	catalog, _ := task.NewCatalog(nil, nil)
	return session.New(village.New(catalog, village.Config{Seed: 9}), "slot-s")
}

func TestUseCase_IncludesWorldTimeInfo(t *testing.T) {
	uc := UseCase{Session: newSession()}
	resp, err := uc.Execute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if resp.Slot != "slot-s" {
		t.Fatalf("expected slot-s, got %s", resp.Slot)
	}
	if resp.Status.World.TimeOfDay != "dawn" {
		t.Fatalf("expected dawn, got %s", resp.Status.World.TimeOfDay)
	}
	if resp.NextPhaseIn != 120 {
		t.Fatalf("expected next phase in 120 minutes, got %d", resp.NextPhaseIn)
	}
	if resp.WorldTime != 6*3600 {
		t.Fatalf("expected world time 21600, got %d", resp.WorldTime)
	}
	if resp.Character != nil {
		t.Fatalf("expected no character unless requested")
	}
}

func TestUseCase_IncludesCharacterWhenAsked(t *testing.T) {
	uc := UseCase{Session: newSession(), Characters: statusCharacters{char: ports.Character{Name: "Ada", VillageLevel: 2}}}
	resp, err := uc.Execute(context.Background(), Request{IncludeCharacter: true})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if resp.Character == nil || resp.Character.Name != "Ada" {
		t.Fatalf("expected character Ada, got %+v", resp.Character)
	}
}

func TestUseCase_RejectsMissingSession(t *testing.T) {
	uc := UseCase{}
	if _, err := uc.Execute(context.Background(), Request{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestUseCase_PropagatesCharacterError(t *testing.T) {
	wantErr := errors.New("character store down")
	uc := UseCase{Session: newSession(), Characters: statusCharacters{err: wantErr}}
	if _, err := uc.Execute(context.Background(), Request{IncludeCharacter: true}); !errors.Is(err, wantErr) {
		t.Fatalf("expected character error %v, got %v", wantErr, err)
	}
}
