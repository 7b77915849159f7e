package tick

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"villagelife/internal/app/ports"
	"villagelife/internal/app/session"
	"villagelife/internal/domain/village"
)

var ErrInvalidRequest = errors.New("invalid tick request")

const DefaultMaxSteps = 15

// UseCase drives the simulation from the wall clock. Each call consumes
// every step already accumulated, up to MaxSteps, and appends the events
// they produced to the slot's event log.
type UseCase struct {
	Session  *session.Session
	Events   ports.EventRepository
	Metrics  ports.SimulationMetrics
	Logger   *slog.Logger
	Now      func() time.Time
	MaxSteps int
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if u.Session == nil || req.AdvanceMinutes < 0 {
		return Response{}, ErrInvalidRequest
	}
	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	maxSteps := u.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	var out Response
	err := u.Session.Do(func(g *village.Game) error {
		collect := func(res village.TickResult) {
			if !res.Advanced {
				return
			}
			out.Ticks++
			out.WeatherChanged = out.WeatherChanged || res.WeatherChanged
			for _, t := range res.Completed {
				out.CompletedTasks = append(out.CompletedTasks, t.ID)
			}
			out.CompletedChains = append(out.CompletedChains, res.Chains...)
		}
		if req.AdvanceMinutes > 0 {
			collect(g.Advance(req.AdvanceMinutes))
		} else {
			now := nowFn()
			collect(g.Update(now))
			for i := 1; i < maxSteps && g.Pending(); i++ {
				collect(g.Update(now))
			}
		}
		out.Snapshot = g.Snapshot()
		return nil
	})
	if err != nil {
		return Response{}, err
	}

	if u.Metrics != nil {
		if out.Ticks > 0 {
			u.Metrics.RecordTicks(out.Ticks)
		}
		if n := len(out.CompletedTasks); n > 0 {
			u.Metrics.RecordTaskCompleted(n)
		}
	}

	events := u.Session.Drain()
	out.Events = len(events)
	if len(events) > 0 && u.Events != nil {
		if err := u.Events.Append(ctx, u.Session.Slot(), events); err != nil {
			if u.Metrics != nil {
				u.Metrics.RecordFailure()
			}
			return out, err
		}
	}
	if u.Logger != nil && (len(out.CompletedTasks) > 0 || len(out.CompletedChains) > 0) {
		u.Logger.Info("tasks completed",
			"tasks", out.CompletedTasks,
			"chains", out.CompletedChains,
			"date", out.Snapshot.Formatted,
		)
	}
	return out, nil
}
