package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	metricsinmem "villagelife/internal/adapter/metrics/inmemory"
	"villagelife/internal/adapter/repo/memory"
	"villagelife/internal/app/ports"
	"villagelife/internal/app/replay"
	"villagelife/internal/app/resources"
	"villagelife/internal/app/savegame"
	"villagelife/internal/app/session"
	"villagelife/internal/app/status"
	"villagelife/internal/app/tasks"
	"villagelife/internal/app/tick"
	"villagelife/internal/domain/resource"
	"villagelife/internal/domain/task"
	"villagelife/internal/domain/village"
	"villagelife/internal/domain/world"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type fakeCharacters struct {
	char ports.Character
}

func (f fakeCharacters) Character(context.Context) (ports.Character, error) {
	return f.char, nil
}

func newHandler(t *testing.T) Handler {
	t.Helper()
	catalog, issues := task.NewCatalog([]task.Template{
		{
			ID:              "scout_location",
			Name:            "Scout Location",
			Type:            task.TypeExploration,
			BaseDuration:    30 * time.Minute,
			ResourceRewards: []task.ResourceReward{task.Reward(resource.Herbs, 2)},
		},
		{
			ID:                "forage_berries",
			Name:              "Forage Berries",
			Type:              task.TypeGathering,
			BaseDuration:      time.Hour,
			SkillRequirements: map[string]float64{"foraging": 10},
		},
	}, nil)
	if len(issues) != 0 {
		t.Fatalf("unexpected catalog issues: %v", issues)
	}
	skies := map[world.Season][]world.WeightedWeather{}
	for _, s := range world.Seasons() {
		skies[s] = []world.WeightedWeather{{Type: world.WeatherClear, Weight: 1}}
	}
	sess := session.New(village.New(catalog, village.Config{Seed: 1, WeatherPatterns: skies, IgnoreWeather: true}), "main")
	t.Cleanup(sess.Close)

	store := memory.NewStore()
	events := memory.NewEventRepo(store)
	kpi := metricsinmem.NewRecorder()
	chars := fakeCharacters{char: ports.Character{Name: "Ada", VillageLevel: 1}}
	return Handler{
		StatusUC:    status.UseCase{Session: sess, Characters: chars},
		TasksUC:     tasks.UseCase{Session: sess, Characters: chars, Metrics: kpi},
		ResourcesUC: resources.UseCase{Session: sess},
		TickUC:      tick.UseCase{Session: sess, Events: events, Metrics: kpi},
		SaveUC: savegame.UseCase{
			TxManager: memory.NewTxManager(store),
			Saves:     memory.NewSaveRepo(store),
			Events:    events,
			Session:   sess,
			Metrics:   kpi,
		},
		ReplayUC: replay.UseCase{Events: events},
		KPI:      kpi,
	}
}

func post(body string) *app.RequestContext {
	ctx := &app.RequestContext{}
	ctx.Request.Header.SetMethod(consts.MethodPost)
	ctx.Request.SetBody([]byte(body))
	return ctx
}

func decodeBody(t *testing.T, ctx *app.RequestContext) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("unmarshal response: %v (%s)", err, ctx.Response.Body())
	}
	return body
}

func errorCode(t *testing.T, ctx *app.RequestContext) string {
	t.Helper()
	errObj, _ := decodeBody(t, ctx)["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestStartTask_OK(t *testing.T) {
	h := newHandler(t)
	ctx := post(`{"task_id":"scout_location"}`)

	h.startTask(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", got, want, ctx.Response.Body())
	}
	if got := decodeBody(t, ctx)["started"]; got != true {
		t.Fatalf("started mismatch: got=%v want=true", got)
	}
}

func TestStartTask_RejectionIsConflict(t *testing.T) {
	h := newHandler(t)
	ctx := post(`{"task_id":"forage_berries"}`)

	h.startTask(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusConflict; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	body := decodeBody(t, ctx)
	if got, want := body["reason"], "Skill foraging too low: need 10.0, have 0.0"; got != want {
		t.Fatalf("reason mismatch: got=%q want=%q", got, want)
	}
	if got, want := errorCode(t, ctx), "task_not_startable"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}
}

func TestStartTask_UnknownTaskSuggests(t *testing.T) {
	h := newHandler(t)
	ctx := post(`{"task_id":"scout_locaton"}`)

	h.startTask(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusNotFound; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	errObj, _ := decodeBody(t, ctx)["error"].(map[string]any)
	details, _ := errObj["details"].(map[string]any)
	if got, want := details["suggestion"], "scout_location"; got != want {
		t.Fatalf("suggestion mismatch: got=%v want=%v", got, want)
	}
}

func TestStartTask_InvalidJSON(t *testing.T) {
	h := newHandler(t)
	ctx := post(`{"task_id":`)

	h.startTask(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusBadRequest; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	if got, want := errorCode(t, ctx), "invalid_json"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}
}

func TestFailTask_NotActiveIsConflict(t *testing.T) {
	h := newHandler(t)
	ctx := post(`{"task_id":"scout_location","reason":"storm"}`)

	h.failTask(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusConflict; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	if got, want := errorCode(t, ctx), "task_not_active"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}
}

func TestAddResource_UnknownType(t *testing.T) {
	h := newHandler(t)
	ctx := post(`{"type":"stne","quantity":3}`)

	h.addResource(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusBadRequest; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	if got, want := errorCode(t, ctx), "unknown_name"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}
}

func TestAdvance_RequiresPositiveMinutes(t *testing.T) {
	h := newHandler(t)
	ctx := post(`{"advance_minutes":0}`)

	h.advance(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusBadRequest; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
}

func TestAdvanceSaveThenEvents(t *testing.T) {
	h := newHandler(t)
	bg := context.Background()

	h.startTask(bg, post(`{"task_id":"scout_location"}`))
	adv := post(`{"advance_minutes":30}`)
	h.advance(bg, adv)
	if got, want := adv.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("advance status mismatch: got=%d want=%d body=%s", got, want, adv.Response.Body())
	}
	completed, _ := decodeBody(t, adv)["completed_tasks"].([]any)
	if len(completed) != 1 || completed[0] != "scout_location" {
		t.Fatalf("completed mismatch: got=%v", completed)
	}

	sv := post(`{}`)
	h.save(bg, sv)
	if got, want := sv.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("save status mismatch: got=%d want=%d body=%s", got, want, sv.Response.Body())
	}
	if got, want := decodeBody(t, sv)["version"], float64(1); got != want {
		t.Fatalf("version mismatch: got=%v want=%v", got, want)
	}

	ev := &app.RequestContext{}
	ev.Request.SetRequestURI("/api/game/events?topic=task&limit=10")
	h.events(bg, ev)
	if got, want := ev.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("events status mismatch: got=%d want=%d body=%s", got, want, ev.Response.Body())
	}
	summary, _ := decodeBody(t, ev)["summary"].(map[string]any)
	started, _ := summary["tasks_started"].([]any)
	done, _ := summary["tasks_completed"].([]any)
	if len(started) != 1 || len(done) != 1 {
		t.Fatalf("summary mismatch: %v", summary)
	}
}

func TestStatus_IncludesCharacter(t *testing.T) {
	h := newHandler(t)
	ctx := &app.RequestContext{}
	ctx.Request.SetRequestURI("/api/game/status?character=true")

	h.status(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	body := decodeBody(t, ctx)
	char, _ := body["character"].(map[string]any)
	if got, want := char["name"], "Ada"; got != want {
		t.Fatalf("character mismatch: got=%v want=%v", got, want)
	}
	if got, want := body["slot"], "main"; got != want {
		t.Fatalf("slot mismatch: got=%v want=%v", got, want)
	}
}

func TestWriteError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("claim: %w", task.ErrTaskNotCompleted), consts.StatusConflict, "task_not_completed"},
		{task.ErrInvalidTransition, consts.StatusConflict, "invalid_transition"},
		{ports.ErrNotFound, consts.StatusNotFound, "not_found"},
		{fmt.Errorf("save: %w", ports.ErrConflict), consts.StatusConflict, "conflict"},
		{savegame.ErrInvalidRequest, consts.StatusBadRequest, "bad_request"},
		{errors.New("boom"), consts.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		ctx := &app.RequestContext{}
		writeError(ctx, tc.err)
		if got := ctx.Response.StatusCode(); got != tc.status {
			t.Fatalf("%v: status mismatch: got=%d want=%d", tc.err, got, tc.status)
		}
		if got := errorCode(t, ctx); got != tc.code {
			t.Fatalf("%v: code mismatch: got=%q want=%q", tc.err, got, tc.code)
		}
	}
}

func TestKPI_NotConfigured(t *testing.T) {
	ctx := &app.RequestContext{}
	Handler{}.kpi(context.Background(), ctx)
	if got, want := ctx.Response.StatusCode(), consts.StatusNotFound; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
}
