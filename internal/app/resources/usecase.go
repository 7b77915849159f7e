package resources

import (
	"context"
	"errors"
	"fmt"
	"math"

	"villagelife/internal/app/session"
	"villagelife/internal/app/shared/suggest"
	"villagelife/internal/domain/resource"
	"villagelife/internal/domain/village"
)

var ErrInvalidRequest = errors.New("invalid resource request")

type UseCase struct {
	Session *session.Session
}

func parseType(name string) (resource.Type, error) {
	t, err := resource.ParseType(name)
	if err == nil {
		return t, nil
	}
	if hint := suggest.ForError(err, nil); hint != "" {
		return "", fmt.Errorf("%w: %w, did you mean %q?", ErrInvalidRequest, err, hint)
	}
	return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}

func (u UseCase) List(ctx context.Context) (ListResponse, error) {
	if u.Session == nil {
		return ListResponse{}, ErrInvalidRequest
	}
	var out ListResponse
	err := u.Session.Do(func(g *village.Game) error {
		out.Storage = g.StorageInfo()
		return nil
	})
	if err != nil {
		return ListResponse{}, err
	}
	return out, nil
}

// Add deposits a stack. An omitted quality means 1; an explicit one must
// lie in [0,1].
func (u UseCase) Add(ctx context.Context, req Request) (AddResponse, error) {
	if u.Session == nil || !(req.Quantity > 0) || math.IsInf(req.Quantity, 1) {
		return AddResponse{}, ErrInvalidRequest
	}
	t, err := parseType(req.Type)
	if err != nil {
		return AddResponse{}, err
	}
	quality := 1.0
	if req.Quality != nil {
		quality = *req.Quality
		if !(quality >= 0 && quality <= 1) {
			return AddResponse{}, fmt.Errorf("%w: quality %v out of range 0..1", ErrInvalidRequest, quality)
		}
	}
	var out AddResponse
	err = u.Session.Do(func(g *village.Game) error {
		out.Added = g.AddResource(t, req.Quantity, quality)
		out.Storage = g.StorageInfo()
		return nil
	})
	if err != nil {
		return AddResponse{}, err
	}
	return out, nil
}

func (u UseCase) Remove(ctx context.Context, req Request) (RemoveResponse, error) {
	if u.Session == nil || req.Quantity <= 0 {
		return RemoveResponse{}, ErrInvalidRequest
	}
	t, err := parseType(req.Type)
	if err != nil {
		return RemoveResponse{}, err
	}
	var out RemoveResponse
	err = u.Session.Do(func(g *village.Game) error {
		out.Removed, out.Quantity, out.Quality = g.RemoveResource(t, req.Quantity)
		return nil
	})
	if err != nil {
		return RemoveResponse{}, err
	}
	return out, nil
}
