package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"villagelife/internal/app/ports"
	"villagelife/internal/app/session"
	"villagelife/internal/app/shared/suggest"
	"villagelife/internal/domain/village"
)

var ErrInvalidRequest = errors.New("invalid task request")

// UnknownTaskError is returned for ids the catalog does not define.
type UnknownTaskError struct {
	ID         string
	Suggestion string
}

func (e *UnknownTaskError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("unknown task %q", e.ID)
	}
	return fmt.Sprintf("unknown task %q, did you mean %q?", e.ID, e.Suggestion)
}

func (e *UnknownTaskError) Unwrap() error { return ports.ErrNotFound }

type UseCase struct {
	Session    *session.Session
	Characters ports.CharacterProvider
	Metrics    ports.SimulationMetrics
	Logger     *slog.Logger
}

func (u UseCase) profile(ctx context.Context) (ports.Character, village.Profile, error) {
	if u.Characters == nil {
		return ports.Character{}, village.Profile{}, nil
	}
	c, err := u.Characters.Character(ctx)
	if err != nil {
		return ports.Character{}, village.Profile{}, err
	}
	return c, c.Profile(), nil
}

func known(g *village.Game, id string) error {
	if _, ok := g.Catalog().Template(id); ok {
		return nil
	}
	return &UnknownTaskError{ID: id, Suggestion: suggest.Best(id, g.Catalog().TemplateIDs())}
}

func (u UseCase) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	if u.Session == nil {
		return ListResponse{}, ErrInvalidRequest
	}
	_, p, err := u.profile(ctx)
	if err != nil {
		return ListResponse{}, err
	}
	var out ListResponse
	err = u.Session.Do(func(g *village.Game) error {
		for _, a := range g.AvailableTasks(p) {
			if a.Ready || req.IncludeLocked {
				out.Available = append(out.Available, a)
			}
		}
		out.Active = g.ActiveTasks()
		out.Completed = g.CompletedTasks()
		out.Failed = g.FailedTasks()
		out.CompletedChains = g.CompletedChains()
		return nil
	})
	if err != nil {
		return ListResponse{}, err
	}
	return out, nil
}

func (u UseCase) Start(ctx context.Context, req Request) (StartResponse, error) {
	req.TaskID = strings.TrimSpace(req.TaskID)
	if u.Session == nil || req.TaskID == "" {
		return StartResponse{}, ErrInvalidRequest
	}
	_, p, err := u.profile(ctx)
	if err != nil {
		return StartResponse{}, err
	}
	var out StartResponse
	err = u.Session.Do(func(g *village.Game) error {
		if err := known(g, req.TaskID); err != nil {
			return err
		}
		t, ok, reason := g.StartTask(req.TaskID, p)
		out.Started, out.Reason = ok, reason
		if ok {
			out.Task = &t
		}
		return nil
	})
	if err != nil {
		return StartResponse{}, err
	}
	if u.Metrics != nil {
		if out.Started {
			u.Metrics.RecordTaskStarted(string(out.Task.Type))
		} else {
			u.Metrics.RecordTaskRejected()
		}
	}
	if !out.Started && u.Logger != nil {
		u.Logger.Info("task start rejected", "task_id", req.TaskID, "reason", out.Reason)
	}
	return out, nil
}

func (u UseCase) Fail(ctx context.Context, req Request) (TaskResponse, error) {
	req.TaskID = strings.TrimSpace(req.TaskID)
	if u.Session == nil || req.TaskID == "" {
		return TaskResponse{}, ErrInvalidRequest
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "failed by request"
	}
	var out TaskResponse
	err := u.Session.Do(func(g *village.Game) error {
		if err := known(g, req.TaskID); err != nil {
			return err
		}
		t, err := g.FailTask(req.TaskID, reason)
		out.Task = t
		return err
	})
	return out, err
}

func (u UseCase) Cancel(ctx context.Context, req Request) (TaskResponse, error) {
	req.TaskID = strings.TrimSpace(req.TaskID)
	if u.Session == nil || req.TaskID == "" {
		return TaskResponse{}, ErrInvalidRequest
	}
	var out TaskResponse
	err := u.Session.Do(func(g *village.Game) error {
		if err := known(g, req.TaskID); err != nil {
			return err
		}
		t, err := g.CancelTask(req.TaskID)
		out.Task = t
		return err
	})
	return out, err
}

// Claim deposits resource rewards in the village store. Skill, reputation
// and experience rewards reach the character only when the provider can
// receive them.
func (u UseCase) Claim(ctx context.Context, req Request) (ClaimResponse, error) {
	req.TaskID = strings.TrimSpace(req.TaskID)
	if u.Session == nil || req.TaskID == "" {
		return ClaimResponse{}, ErrInvalidRequest
	}
	char, _, err := u.profile(ctx)
	if err != nil {
		return ClaimResponse{}, err
	}
	var out ClaimResponse
	err = u.Session.Do(func(g *village.Game) error {
		if err := known(g, req.TaskID); err != nil {
			return err
		}
		rewards, ok, err := g.ClaimRewards(req.TaskID, char.Skills)
		out.Claimed, out.Rewards = ok, rewards
		return err
	})
	if err != nil || !out.Claimed {
		return out, err
	}
	if receiver, ok := u.Characters.(ports.RewardReceiver); ok {
		updated, err := receiver.ApplyRewards(ctx, out.Rewards)
		if err != nil {
			return out, err
		}
		out.Character = &updated
	}
	return out, nil
}
