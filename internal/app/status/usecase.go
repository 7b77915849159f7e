package status

import (
	"context"
	"errors"

	"villagelife/internal/app/ports"
	"villagelife/internal/app/session"
	"villagelife/internal/domain/village"
	"villagelife/internal/domain/world"
)

var ErrInvalidRequest = errors.New("invalid status request")

type UseCase struct {
	Session    *session.Session
	Characters ports.CharacterProvider
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if u.Session == nil {
		return Response{}, ErrInvalidRequest
	}
	out := Response{Slot: u.Session.Slot()}
	err := u.Session.Do(func(g *village.Game) error {
		out.Status = g.Status()
		out.Interpolated = g.InterpolatedState()
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	out.WorldTime = int64(out.Status.World.Instant.Sub(world.Epoch).Seconds())
	out.NextPhaseIn = world.MinutesToNextPhase(out.Status.World.Date)
	if req.IncludeCharacter && u.Characters != nil {
		c, err := u.Characters.Character(ctx)
		if err != nil {
			return Response{}, err
		}
		out.Character = &c
	}
	return out, nil
}
