package village

import (
	"encoding/json"
	"errors"
	"fmt"

	"villagelife/internal/domain/event"
	"villagelife/internal/domain/issue"
	"villagelife/internal/domain/resource"
	"villagelife/internal/domain/task"
	"villagelife/internal/domain/world"
)

var errMissingSection = errors.New("section missing")

// LoadIssue is one saved entry that could not be restored.
type LoadIssue = issue.Entry

// State is the persisted logical state of a Game.
type State struct {
	Time      world.ClockState         `json:"time"`
	Weather   world.WeatherEngineState `json:"weather"`
	Resources resource.State           `json:"resources"`
	Tasks     task.ManagerState        `json:"tasks"`
}

func (g *Game) State() (State, error) {
	tasks, err := g.tasks.State()
	if err != nil {
		return State{}, fmt.Errorf("task state: %w", err)
	}
	resources, err := g.store.State()
	if err != nil {
		return State{}, fmt.Errorf("resource state: %w", err)
	}
	return State{
		Time:      g.clock.State(),
		Weather:   g.weather.State(),
		Resources: resources,
		Tasks:     tasks,
	}, nil
}

// MarshalState encodes the current state as JSON.
func (g *Game) MarshalState() ([]byte, error) {
	st, err := g.State()
	if err != nil {
		return nil, err
	}
	return json.Marshal(st)
}

// DecodeState decodes every section on its own so a malformed section is
// reported without losing the others.
func DecodeState(b []byte) (State, []LoadIssue) {
	var issues issue.List
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(b, &sections); err != nil {
		issues.Add("state", "", err)
		return State{}, issues
	}
	var out State
	decode := func(name string, dst any) {
		raw, ok := sections[name]
		if !ok || string(raw) == "null" {
			issues.Add(name, "", errMissingSection)
			return
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			issues.Add(name, "", err)
		}
	}
	decode("time", &out.Time)
	decode("weather", &out.Weather)
	decode("resources", &out.Resources)
	decode("tasks", &out.Tasks)
	return out, issues
}

// LoadState restores every subsystem. Bad entries are skipped and
// returned; the rest of the state still loads.
func (g *Game) LoadState(st State) []LoadIssue {
	var issues issue.List
	if st.Time.GameDate.SeasonName != "" {
		issues = append(issues, g.clock.Restore(st.Time)...)
	}
	issues = append(issues, g.weather.Restore(st.Weather)...)
	issues = append(issues, g.store.Restore(st.Resources)...)
	issues = append(issues, g.tasks.Restore(st.Tasks)...)

	g.weather.Update(g.clock.Now(), g.clock.Season())
	g.current = world.Capture(g.clock, g.weather)
	g.prev = g.current
	g.bus.Emit(event.TopicGameState, event.StateLoaded, g.current.Instant, map[string]any{"issues": len(issues)})
	return issues
}

// LoadJSON decodes and restores in one step.
func (g *Game) LoadJSON(b []byte) []LoadIssue {
	st, decodeIssues := DecodeState(b)
	return append(decodeIssues, g.LoadState(st)...)
}
