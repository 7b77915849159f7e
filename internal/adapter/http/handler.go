package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"villagelife/internal/app/ports"
	"villagelife/internal/app/replay"
	"villagelife/internal/app/resources"
	"villagelife/internal/app/savegame"
	"villagelife/internal/app/status"
	"villagelife/internal/app/tasks"
	"villagelife/internal/app/tick"
	"villagelife/internal/domain/issue"
	"villagelife/internal/domain/task"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type Handler struct {
	StatusUC    status.UseCase
	TasksUC     tasks.UseCase
	ResourcesUC resources.UseCase
	TickUC      tick.UseCase
	SaveUC      savegame.UseCase
	ReplayUC    replay.UseCase
	KPI         kpiSnapshotProvider
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	game := s.Group("/api/game")
	game.GET("/status", h.status)
	game.GET("/tasks", h.listTasks)
	game.POST("/tasks/start", h.startTask)
	game.POST("/tasks/fail", h.failTask)
	game.POST("/tasks/cancel", h.cancelTask)
	game.POST("/tasks/claim", h.claimTask)
	game.GET("/resources", h.listResources)
	game.POST("/resources/add", h.addResource)
	game.POST("/resources/remove", h.removeResource)
	game.POST("/advance", h.advance)
	game.GET("/saves", h.listSaves)
	game.POST("/save", h.save)
	game.POST("/load", h.load)
	game.GET("/events", h.events)

	s.GET("/ops/kpi", h.kpi)
}

func (h Handler) status(c context.Context, ctx *app.RequestContext) {
	resp, err := h.StatusUC.Execute(c, status.Request{
		IncludeCharacter: queryBool(ctx, "character"),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) listTasks(c context.Context, ctx *app.RequestContext) {
	resp, err := h.TasksUC.List(c, tasks.ListRequest{IncludeLocked: queryBool(ctx, "include_locked")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) startTask(c context.Context, ctx *app.RequestContext) {
	var body tasks.Request
	if !bindJSON(ctx, &body) {
		return
	}
	resp, err := h.TasksUC.Start(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if !resp.Started {
		ctx.JSON(consts.StatusConflict, map[string]any{
			"started": false,
			"reason":  resp.Reason,
			"error": map[string]string{
				"code":    "task_not_startable",
				"message": resp.Reason,
			},
		})
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) failTask(c context.Context, ctx *app.RequestContext) {
	var body tasks.Request
	if !bindJSON(ctx, &body) {
		return
	}
	resp, err := h.TasksUC.Fail(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) cancelTask(c context.Context, ctx *app.RequestContext) {
	var body tasks.Request
	if !bindJSON(ctx, &body) {
		return
	}
	resp, err := h.TasksUC.Cancel(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) claimTask(c context.Context, ctx *app.RequestContext) {
	var body tasks.Request
	if !bindJSON(ctx, &body) {
		return
	}
	resp, err := h.TasksUC.Claim(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) listResources(c context.Context, ctx *app.RequestContext) {
	resp, err := h.ResourcesUC.List(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) addResource(c context.Context, ctx *app.RequestContext) {
	var body resources.Request
	if !bindJSON(ctx, &body) {
		return
	}
	resp, err := h.ResourcesUC.Add(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) removeResource(c context.Context, ctx *app.RequestContext) {
	var body resources.Request
	if !bindJSON(ctx, &body) {
		return
	}
	resp, err := h.ResourcesUC.Remove(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) advance(c context.Context, ctx *app.RequestContext) {
	var body tick.Request
	if !bindJSON(ctx, &body) {
		return
	}
	if body.AdvanceMinutes <= 0 {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "advance_minutes must be positive")
		return
	}
	resp, err := h.TickUC.Execute(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) listSaves(c context.Context, ctx *app.RequestContext) {
	resp, err := h.SaveUC.List(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"slots": resp})
}

func (h Handler) save(c context.Context, ctx *app.RequestContext) {
	var body savegame.SaveRequest
	if !bindJSON(ctx, &body) {
		return
	}
	resp, err := h.SaveUC.Save(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) load(c context.Context, ctx *app.RequestContext) {
	var body savegame.LoadRequest
	if !bindJSON(ctx, &body) {
		return
	}
	resp, err := h.SaveUC.Load(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) events(c context.Context, ctx *app.RequestContext) {
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	occurredFrom, _ := strconv.ParseInt(string(ctx.Query("occurred_from")), 10, 64)
	occurredTo, _ := strconv.ParseInt(string(ctx.Query("occurred_to")), 10, 64)
	var types []string
	for _, t := range strings.Split(string(ctx.Query("types")), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	slot := strings.TrimSpace(string(ctx.Query("slot")))
	if slot == "" && h.SaveUC.Session != nil {
		slot = h.SaveUC.Session.Slot()
	}
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		Slot:         slot,
		Limit:        limit,
		Topic:        string(ctx.Query("topic")),
		Types:        types,
		OccurredFrom: occurredFrom,
		OccurredTo:   occurredTo,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func queryBool(ctx *app.RequestContext, key string) bool {
	b, _ := strconv.ParseBool(string(ctx.Query(key)))
	return b
}

// bindJSON writes the 400 itself and reports false on malformed bodies.
func bindJSON(ctx *app.RequestContext, out any) bool {
	if err := decodeJSON(ctx, out); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return false
	}
	return true
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	var unknownTask *tasks.UnknownTaskError
	switch {
	case errors.As(err, &unknownTask):
		writeErrorDetails(ctx, consts.StatusNotFound, "unknown_task", err.Error(), map[string]any{
			"task_id":    unknownTask.ID,
			"suggestion": unknownTask.Suggestion,
		})
	case errors.Is(err, issue.ErrUnknownName):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_name", err.Error())
	case errors.Is(err, tasks.ErrInvalidRequest),
		errors.Is(err, resources.ErrInvalidRequest),
		errors.Is(err, tick.ErrInvalidRequest),
		errors.Is(err, status.ErrInvalidRequest),
		errors.Is(err, savegame.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, task.ErrTaskNotActive):
		writeErrorBody(ctx, consts.StatusConflict, "task_not_active", err.Error())
	case errors.Is(err, task.ErrTaskNotCompleted):
		writeErrorBody(ctx, consts.StatusConflict, "task_not_completed", err.Error())
	case errors.Is(err, task.ErrInvalidTransition):
		writeErrorBody(ctx, consts.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeErrorDetails(ctx *app.RequestContext, status int, code, message string, details map[string]any) {
	ctx.JSON(status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
