// Package village is the simulation facade. A Game exclusively owns the
// resource store, clock, weather engine and task manager and runs them one
// fixed tick at a time.
package village

import (
	"fmt"
	"math"
	"strings"
	"time"

	"villagelife/internal/domain/event"
	"villagelife/internal/domain/modifier"
	"villagelife/internal/domain/resource"
	"villagelife/internal/domain/task"
	"villagelife/internal/domain/world"
)

type Config struct {
	Clock           world.ClockConfig
	StorageCapacity float64
	Seed            int64
	WeatherPatterns map[world.Season][]world.WeightedWeather
	// IgnoreWeather disables the weather task_speed modifier on progress.
	IgnoreWeather bool

	// Optional collaborators. Nil values are replaced with fresh instances.
	Bus         *event.Bus
	Registry    *modifier.Registry
	WeatherRand world.Rand
	RewardRand  task.Rand
}

// Profile is the character and village data task checks read. It is
// supplied by the caller on every query.
type Profile struct {
	Skills       map[string]float64 `json:"skills"`
	VillageLevel int                `json:"village_level"`
	Reputation   float64            `json:"reputation"`
	Buildings    map[string]bool    `json:"buildings"`
}

type Game struct {
	clock     *world.Clock
	weather   *world.WeatherEngine
	store     *resource.Store
	tasks     *task.Manager
	bus       *event.Bus
	modifiers *modifier.Registry
	rewardRng task.Rand

	weatherTasks bool
	global       []modifier.Modifier

	prev    world.Snapshot
	current world.Snapshot
}

func New(catalog *task.Catalog, cfg Config) *Game {
	if cfg.Bus == nil {
		cfg.Bus = event.NewBus()
	}
	if cfg.Registry == nil {
		cfg.Registry = modifier.NewRegistry()
	}
	if cfg.WeatherRand == nil {
		cfg.WeatherRand = world.NewRand(cfg.Seed, "weather")
	}
	if cfg.RewardRand == nil {
		cfg.RewardRand = world.NewRand(cfg.Seed, "rewards")
	}
	if cfg.StorageCapacity <= 0 {
		cfg.StorageCapacity = resource.DefaultCapacity
	}
	g := &Game{
		clock:        world.NewClock(cfg.Clock),
		weather:      world.NewWeatherEngine(cfg.WeatherRand, cfg.WeatherPatterns),
		store:        resource.NewStore(cfg.StorageCapacity),
		tasks:        task.NewManager(catalog),
		bus:          cfg.Bus,
		modifiers:    cfg.Registry,
		rewardRng:    cfg.RewardRand,
		weatherTasks: !cfg.IgnoreWeather,
	}
	g.weather.Update(g.clock.Now(), g.clock.Season())
	g.current = world.Capture(g.clock, g.weather)
	g.prev = g.current
	return g
}

func (g *Game) Bus() *event.Bus { return g.bus }
func (g *Game) Registry() *modifier.Registry { return g.modifiers }
func (g *Game) Clock() *world.Clock { return g.clock }
func (g *Game) Weather() *world.WeatherEngine { return g.weather }
func (g *Game) Catalog() *task.Catalog { return g.tasks.Catalog() }

// TickResult describes what one fixed tick changed.
type TickResult struct {
	Advanced       bool
	Elapsed        time.Duration
	Snapshot       world.Snapshot
	WeatherChanged bool
	Completed      []task.Task
	Chains         []string
}

// Update feeds the wall clock. When a fixed step is due the whole world
// advances by one tick; otherwise nothing changes.
func (g *Game) Update(wallNow time.Time) TickResult {
	before := g.clock.Date()
	if !g.clock.Update(wallNow) {
		return TickResult{Snapshot: g.current}
	}
	return g.tick(before)
}

// Pending reports whether another tick is already due.
func (g *Game) Pending() bool { return g.clock.Pending() }

// Advance moves game time directly and runs one tick over that span.
func (g *Game) Advance(minutes int) TickResult {
	if minutes <= 0 {
		return TickResult{Snapshot: g.current}
	}
	before := g.clock.Date()
	g.clock.AdvanceMinutes(minutes)
	return g.tick(before)
}

func (g *Game) tick(before world.GameDate) TickResult {
	now := g.clock.Now()
	season := g.clock.Season()
	res := TickResult{Advanced: true, Elapsed: g.clock.LastAdvance()}

	g.publishDateChanges(before, g.clock.Date(), now)
	if g.weather.Update(now, season) {
		res.WeatherChanged = true
		w, _ := g.weather.Current()
		g.bus.Emit(event.TopicWeather, event.WeatherChanged, now, map[string]any{
			"weather":   string(w.Type),
			"intensity": w.Intensity,
			"until":     w.EndTime(),
		})
	}

	snap := world.Capture(g.clock, g.weather)
	g.prev, g.current = g.current, snap
	res.Snapshot = snap

	g.store.Update(res.Elapsed, g.clock.SeasonEffects().Map())

	out := g.tasks.UpdateTasks(res.Elapsed, task.Environment{
		Now:       snap.Instant,
		Season:    string(snap.Season()),
		Weather:   string(snap.Weather),
		Modifiers: g.taskModifiers(snap),
	})
	for _, t := range out.Completed {
		g.bus.Emit(event.TopicTask, event.TaskCompleted, now, map[string]any{"task_id": t.ID, "chain_id": t.ChainID})
	}
	for _, id := range out.Chains {
		g.bus.Emit(event.TopicTask, event.ChainCompleted, now, map[string]any{"chain_id": id})
	}
	res.Completed = out.Completed
	res.Chains = out.Chains
	return res
}

func (g *Game) publishDateChanges(before, after world.GameDate, now time.Time) {
	if before.Year == after.Year && before.Season == after.Season && before.Day == after.Day {
		return
	}
	g.bus.Emit(event.TopicTime, event.DayStarted, now, map[string]any{"date": after.Format()})
	if before.Season != after.Season || before.Year != after.Year {
		g.bus.Emit(event.TopicTime, event.SeasonChanged, now, map[string]any{
			"season": string(after.Season),
			"year":   after.Year,
		})
	}
}

// taskModifiers are the environment modifiers applied to progress: the
// weather task speed plus every global modifier. Custom kinds are folded
// through the registry into one multiplier.
func (g *Game) taskModifiers(snap world.Snapshot) []modifier.Modifier {
	mods := make([]modifier.Modifier, 0, len(g.global)+2)
	if g.weatherTasks {
		mods = append(mods, modifier.Weather(string(snap.Weather), snap.Effects.TaskSpeed))
	}
	var custom []modifier.Modifier
	for _, m := range g.global {
		switch m.Kind {
		case modifier.KindMultiply:
			mods = append(mods, m)
		case modifier.KindWeather:
			if m.Weather == "" || strings.EqualFold(m.Weather, string(snap.Weather)) {
				mods = append(mods, m)
			}
		case modifier.KindTime:
			if m.Phase == "" || strings.EqualFold(m.Phase, snap.TimeOfDay) {
				mods = append(mods, m)
			}
		default:
			custom = append(custom, m)
		}
	}
	if len(custom) > 0 {
		v, _ := g.modifiers.ApplyAll(1, custom)
		mods = append(mods, modifier.Multiply(math.Max(0, v)))
	}
	return mods
}

// AddModifier registers a modifier applied to every task's progress. The
// kind must be built in or registered.
func (g *Game) AddModifier(m modifier.Modifier) error {
	if !g.modifiers.Known(m.Kind) {
		return fmt.Errorf("%w: %s", modifier.ErrUnknownKind, m.Kind)
	}
	g.global = append(g.global, m)
	return nil
}

func (g *Game) ClearModifiers() { g.global = nil }

func (g *Game) Modifiers() []modifier.Modifier {
	return append([]modifier.Modifier(nil), g.global...)
}

// Snapshot is the world as of the last tick.
func (g *Game) Snapshot() world.Snapshot { return g.current }

func (g *Game) conditions(p Profile) task.Conditions {
	snap := g.current
	return task.Conditions{
		Now:          snap.Instant,
		Resources:    g.store.Snapshot(),
		Skills:       p.Skills,
		Season:       string(snap.Season()),
		Weather:      string(snap.Weather),
		VillageLevel: p.VillageLevel,
		Reputation:   p.Reputation,
		Buildings:    p.Buildings,
	}
}

func (g *Game) AvailableTasks(p Profile) []task.Availability {
	return g.tasks.AvailableTasks(g.conditions(p))
}

// StartTask starts a task and removes its consumed resources from the
// store. A rejected start leaves everything unchanged.
func (g *Game) StartTask(id string, p Profile) (task.Task, bool, string) {
	c := g.conditions(p)
	t, ok, reason := g.tasks.StartTask(id, c)
	if !ok {
		return task.Task{}, false, reason
	}
	for _, r := range t.RequiredResources {
		if !r.Consumed {
			continue
		}
		if removed, qty, _ := g.store.Remove(r.Type, r.Quantity); removed {
			g.bus.Emit(event.TopicResource, event.ResourceRemoved, c.Now, map[string]any{
				"type": string(r.Type), "quantity": qty, "task_id": id,
			})
		}
	}
	g.bus.Emit(event.TopicTask, event.TaskStarted, c.Now, map[string]any{"task_id": id, "chain_id": t.ChainID})
	return t, true, reason
}

func (g *Game) FailTask(id, reason string) (task.Task, error) {
	t, err := g.tasks.FailTask(id, reason)
	if err != nil {
		return task.Task{}, err
	}
	g.bus.Emit(event.TopicTask, event.TaskFailed, g.current.Instant, map[string]any{"task_id": id, "reason": reason})
	return t, nil
}

// CancelTask abandons an active task. Consumed resources are not returned.
func (g *Game) CancelTask(id string) (task.Task, error) {
	t, err := g.tasks.CancelTask(id)
	if err != nil {
		return task.Task{}, err
	}
	g.bus.Emit(event.TopicTask, event.TaskCancelled, g.current.Instant, map[string]any{"task_id": id})
	return t, nil
}

// ClaimRewards claims a completed task and deposits its resource rewards.
// Skill, reputation and experience rewards are returned for the caller's
// character store.
func (g *Game) ClaimRewards(id string, skills map[string]float64) (task.Rewards, bool, error) {
	rewards, ok, err := g.tasks.ClaimTaskRewards(id, skills, g.rewardRng)
	if err != nil || !ok {
		return rewards, ok, err
	}
	for _, st := range rewards.Resources {
		g.AddResource(st.Type, st.Quantity, st.Quality)
	}
	g.bus.Emit(event.TopicTask, event.TaskRewardsClaimed, g.current.Instant, map[string]any{
		"task_id":     id,
		"reputation":  rewards.Reputation,
		"village_exp": rewards.VillageExp,
	})
	return rewards, true, nil
}

// AddResource stores a stack. Capacity is advisory: the add succeeds and an
// over-capacity event is published.
func (g *Game) AddResource(t resource.Type, quantity, quality float64) bool {
	if !g.store.Add(t, quantity, quality) {
		return false
	}
	now := g.current.Instant
	g.bus.Emit(event.TopicResource, event.ResourceAdded, now, map[string]any{
		"type": string(t), "quantity": quantity, "quality": quality,
	})
	if g.store.OverCapacity() {
		g.bus.Emit(event.TopicResource, event.ResourceOverCapacity, now, map[string]any{
			"capacity":     g.store.Capacity(),
			"total_weight": g.store.TotalWeight(),
		})
	}
	return true
}

func (g *Game) RemoveResource(t resource.Type, quantity float64) (bool, float64, float64) {
	ok, qty, quality := g.store.Remove(t, quantity)
	if ok {
		g.bus.Emit(event.TopicResource, event.ResourceRemoved, g.current.Instant, map[string]any{
			"type": string(t), "quantity": qty,
		})
	}
	return ok, qty, quality
}

func (g *Game) Resource(t resource.Type) (resource.Info, bool) { return g.store.Info(t) }

func (g *Game) StorageInfo() resource.StorageInfo { return g.store.StorageInfo() }

func (g *Game) Task(id string) (task.Task, bool) { return g.tasks.Task(id) }

func (g *Game) ActiveTasks() []task.Task { return g.tasks.ActiveTasks() }
func (g *Game) CompletedTasks() []task.Task { return g.tasks.CompletedTasks() }
func (g *Game) FailedTasks() []task.Task { return g.tasks.FailedTasks() }

func (g *Game) CompletedChains() []string { return g.tasks.Chains().CompletedChains() }

// Status is the read model a UI polls.
type Status struct {
	World           world.Snapshot       `json:"world"`
	Ticks           uint64               `json:"ticks"`
	Weather         string               `json:"weather"`
	NextWeather     string               `json:"next_weather,omitempty"`
	Storage         resource.StorageInfo `json:"storage"`
	ActiveTasks     []task.Task          `json:"active_tasks"`
	CompletedTasks  int                  `json:"completed_tasks"`
	FailedTasks     int                  `json:"failed_tasks"`
	CompletedChains []string             `json:"completed_chains"`
}

func (g *Game) Status() Status {
	name, label := g.weather.Describe()
	out := Status{
		World:           g.current,
		Ticks:           g.clock.Ticks(),
		Weather:         fmt.Sprintf("%s (%s)", name, label),
		Storage:         g.store.StorageInfo(),
		ActiveTasks:     g.tasks.ActiveTasks(),
		CompletedTasks:  len(g.tasks.CompletedTasks()),
		FailedTasks:     len(g.tasks.FailedTasks()),
		CompletedChains: g.CompletedChains(),
	}
	if next, ok := g.weather.Next(); ok {
		out.NextWeather = string(next.Type)
	}
	return out
}

// Interpolated blends the previous and current tick for rendering.
type Interpolated struct {
	Alpha          float64 `json:"alpha"`
	DayProgress    float64 `json:"day_progress"`
	SeasonProgress float64 `json:"season_progress"`
	YearProgress   float64 `json:"year_progress"`
	Transition     float64 `json:"transition_progress"`
	TaskSpeed      float64 `json:"task_speed"`
}

func lerp(a, b, alpha float64) float64 { return a + (b-a)*alpha }

// lerpWrap interpolates a [0,1) cyclic value the short way forward.
func lerpWrap(a, b, alpha float64) float64 {
	if b < a {
		b++
	}
	v := lerp(a, b, alpha)
	return v - math.Floor(v)
}

func (g *Game) InterpolatedState() Interpolated {
	a := g.clock.Alpha()
	p, c := g.prev, g.current
	return Interpolated{
		Alpha:          a,
		DayProgress:    lerpWrap(p.DayProgress, c.DayProgress, a),
		SeasonProgress: lerpWrap(p.SeasonProgress, c.SeasonProgress, a),
		YearProgress:   lerpWrap(p.YearProgress, c.YearProgress, a),
		Transition:     lerp(p.Transition, c.Transition, a),
		TaskSpeed:      lerp(p.Effects.TaskSpeed, c.Effects.TaskSpeed, a),
	}
}
