package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"villagelife/internal/domain/issue"
)

var (
	ErrTaskNotActive    = errors.New("task is not active")
	ErrTaskNotCompleted = errors.New("task is not completed")
)

const (
	ReasonAlreadyActive = "Task already in progress"
	ReasonNotAvailable  = "Task not found or not available"
)

// Availability is one entry of the available task listing.
type Availability struct {
	Task   Task   `json:"task"`
	Ready  bool   `json:"ready"`
	Reason string `json:"reason"`
}

// Outcome is what one UpdateTasks call changed.
type Outcome struct {
	Completed []Task
	Chains    []string
}

// Manager owns the active, completed and failed task collections. All
// inputs arrive by value; it holds no reference into other subsystems.
type Manager struct {
	catalog   *Catalog
	chains    *ChainEngine
	active    map[string]Task
	completed map[string]Task
	failed    map[string]Task
}

func NewManager(catalog *Catalog) *Manager {
	return &Manager{
		catalog:   catalog,
		chains:    NewChainEngine(catalog),
		active:    map[string]Task{},
		completed: map[string]Task{},
		failed:    map[string]Task{},
	}
}

func (m *Manager) Catalog() *Catalog { return m.catalog }

func (m *Manager) Chains() *ChainEngine { return m.chains }

func (c Conditions) chainQuery() ChainQuery {
	return ChainQuery{
		Now:          c.Now,
		VillageLevel: c.VillageLevel,
		Reputation:   c.Reputation,
		Season:       c.Season,
		Weather:      c.Weather,
	}
}

// UpdateTasks advances every active task by elapsed game time. Completed
// tasks move to the completed collection, and a chain is marked complete
// once every one of its tasks finished in the current run.
func (m *Manager) UpdateTasks(elapsed time.Duration, env Environment) Outcome {
	var out Outcome
	for _, id := range sortedTaskIDs(m.active) {
		t := m.active[id]
		if !t.UpdateProgress(elapsed, env) {
			m.active[id] = t
			continue
		}
		delete(m.active, id)
		m.completed[id] = t
		out.Completed = append(out.Completed, t.Clone())

		ch, ok := m.chainOf(t)
		if !ok || !m.chainDone(ch) {
			continue
		}
		if err := m.chains.MarkChainCompleted(ch.ID, env.Now); err == nil {
			out.Chains = append(out.Chains, ch.ID)
		}
	}
	return out
}

func (m *Manager) chainOf(t Task) (Chain, bool) {
	if t.ChainID != "" {
		if ch, ok := m.catalog.Chain(t.ChainID); ok {
			return ch, true
		}
	}
	return m.catalog.ChainForTask(t.ID)
}

// doneInRun reports whether a chain task has been completed since the
// chain's last completion.
func (m *Manager) doneInRun(ch Chain, id string) bool {
	t, ok := m.completed[id]
	if !ok {
		return false
	}
	last, had := m.chains.LastCompleted(ch.ID)
	if !had {
		return true
	}
	return t.CompletedAt != nil && t.CompletedAt.After(last)
}

func (m *Manager) chainDone(ch Chain) bool {
	for _, id := range ch.Tasks {
		if !m.doneInRun(ch, id) {
			return false
		}
	}
	return len(ch.Tasks) > 0
}

type candidate struct {
	template Template
	task     Task
}

// candidates lists the tasks that could be started under c: the first
// unfinished position of every available chain plus standalone templates
// that are neither active nor completed.
func (m *Manager) candidates(c Conditions) []candidate {
	out := []candidate{}
	inChain := map[string]bool{}
	q := c.chainQuery()
	for _, ch := range m.catalog.Chains() {
		for _, id := range ch.Tasks {
			inChain[id] = true
		}
		if ok, _ := m.chains.ChainAvailable(ch, q); !ok {
			continue
		}
		for _, id := range ch.Tasks {
			if m.doneInRun(ch, id) {
				continue
			}
			if _, busy := m.active[id]; busy {
				break
			}
			tmpl, ok := m.catalog.Template(id)
			if !ok {
				break
			}
			scaled := ScaleTemplate(tmpl, c.VillageLevel)
			t := GenerateTask(scaled)
			if t.ChainID == "" {
				t.ChainID = ch.ID
			}
			out = append(out, candidate{template: scaled, task: t})
			break
		}
	}
	for _, tmpl := range m.catalog.Templates() {
		if inChain[tmpl.ID] {
			continue
		}
		if _, busy := m.active[tmpl.ID]; busy {
			continue
		}
		if _, done := m.completed[tmpl.ID]; done {
			continue
		}
		scaled := ScaleTemplate(tmpl, c.VillageLevel)
		out = append(out, candidate{template: scaled, task: GenerateTask(scaled)})
	}
	return out
}

func (m *Manager) withCompleted(c Conditions) Conditions {
	if c.CompletedTasks != nil {
		return c
	}
	c.CompletedTasks = m.CompletedIDs()
	return c
}

// AvailableTasks evaluates every candidate against c. Blocked hidden
// templates are left out; everything else carries its ready or blocked
// reason.
func (m *Manager) AvailableTasks(c Conditions) []Availability {
	c = m.withCompleted(c)
	out := []Availability{}
	for _, cand := range m.candidates(c) {
		ok, reason := cand.task.CanStart(c)
		if ok {
			out = append(out, Availability{Task: cand.task, Ready: true, Reason: ReadyReason})
			continue
		}
		if cand.template.IsHidden {
			continue
		}
		out = append(out, Availability{Task: cand.task, Reason: reason})
	}
	return out
}

// StartTask generates the task through the same candidate rules as
// AvailableTasks and starts it when every condition holds. A rejection is a
// validation result, not an error.
func (m *Manager) StartTask(id string, c Conditions) (Task, bool, string) {
	if _, busy := m.active[id]; busy {
		return Task{}, false, ReasonAlreadyActive
	}
	c = m.withCompleted(c)
	for _, cand := range m.candidates(c) {
		if cand.task.ID != id {
			continue
		}
		t := cand.task
		if ok, reason := t.CanStart(c); !ok {
			return Task{}, false, reason
		}
		if err := t.Start(c.Now); err != nil {
			return Task{}, false, err.Error()
		}
		m.active[id] = t
		return t.Clone(), true, ReadyReason
	}
	return Task{}, false, ReasonNotAvailable
}

func (m *Manager) FailTask(id, reason string) (Task, error) {
	t, ok := m.active[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotActive, id)
	}
	if err := t.Fail(reason); err != nil {
		return Task{}, err
	}
	delete(m.active, id)
	m.failed[id] = t
	return t.Clone(), nil
}

// CancelTask drops an active task. It can be offered again afterwards.
func (m *Manager) CancelTask(id string) (Task, error) {
	t, ok := m.active[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotActive, id)
	}
	if err := t.Cancel(); err != nil {
		return Task{}, err
	}
	delete(m.active, id)
	return t.Clone(), nil
}

// ClaimTaskRewards claims a completed task's rewards once. The second
// claim reports false.
func (m *Manager) ClaimTaskRewards(id string, skills map[string]float64, rng Rand) (Rewards, bool, error) {
	t, ok := m.completed[id]
	if !ok {
		return Rewards{}, false, fmt.Errorf("%w: %s", ErrTaskNotCompleted, id)
	}
	rewards, claimed := t.ClaimRewards(skills, rng)
	m.completed[id] = t
	return rewards, claimed, nil
}

func (m *Manager) Task(id string) (Task, bool) {
	for _, coll := range []map[string]Task{m.active, m.completed, m.failed} {
		if t, ok := coll[id]; ok {
			return t.Clone(), true
		}
	}
	return Task{}, false
}

func (m *Manager) ActiveTasks() []Task { return sortedTasks(m.active) }
func (m *Manager) CompletedTasks() []Task { return sortedTasks(m.completed) }
func (m *Manager) FailedTasks() []Task { return sortedTasks(m.failed) }

func (m *Manager) CompletedIDs() map[string]bool {
	out := make(map[string]bool, len(m.completed))
	for id := range m.completed {
		out[id] = true
	}
	return out
}

func sortedTaskIDs(m map[string]Task) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedTasks(m map[string]Task) []Task {
	out := make([]Task, 0, len(m))
	for _, id := range sortedTaskIDs(m) {
		out = append(out, m[id].Clone())
	}
	return out
}

type ManagerState struct {
	ActiveTasks     map[string]json.RawMessage `json:"active_tasks"`
	CompletedTasks  map[string]json.RawMessage `json:"completed_tasks"`
	FailedTasks     map[string]json.RawMessage `json:"failed_tasks"`
	TemplateManager json.RawMessage            `json:"template_manager"`
}

func (m *Manager) State() (ManagerState, error) {
	out := ManagerState{}
	var err error
	if out.ActiveTasks, err = encodeTasks(m.active); err != nil {
		return ManagerState{}, err
	}
	if out.CompletedTasks, err = encodeTasks(m.completed); err != nil {
		return ManagerState{}, err
	}
	if out.FailedTasks, err = encodeTasks(m.failed); err != nil {
		return ManagerState{}, err
	}
	if out.TemplateManager, err = json.Marshal(m.chains.State()); err != nil {
		return ManagerState{}, err
	}
	return out, nil
}

func encodeTasks(tasks map[string]Task) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(tasks))
	for id, t := range tasks {
		b, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode task %s: %w", id, err)
		}
		out[id] = b
	}
	return out, nil
}

// Restore replaces the collections. Every entry is decoded on its own; bad
// entries are reported and skipped.
func (m *Manager) Restore(state ManagerState) issue.List {
	var issues issue.List
	m.active = decodeTasks("active_tasks", state.ActiveTasks, StatusInProgress, &issues)
	m.completed = decodeTasks("completed_tasks", state.CompletedTasks, StatusCompleted, &issues)
	m.failed = decodeTasks("failed_tasks", state.FailedTasks, StatusFailed, &issues)

	chainState, chainIssues := decodeChainState(state.TemplateManager)
	issues = append(issues, chainIssues...)
	issues = append(issues, m.chains.Restore(chainState)...)
	return issues
}

func decodeTasks(section string, raw map[string]json.RawMessage, want Status, issues *issue.List) map[string]Task {
	out := make(map[string]Task, len(raw))
	for id, b := range raw {
		var t Task
		if err := json.Unmarshal(b, &t); err != nil {
			issues.Add(section, id, err)
			continue
		}
		if t.ID == "" {
			t.ID = id
		}
		if t.ID != id {
			issues.Add(section, id, fmt.Errorf("entry holds task %s", t.ID))
			continue
		}
		if t.Status != want {
			issues.Add(section, id, transitionError(id, t.Status, want))
			continue
		}
		out[id] = t
	}
	return out
}

func decodeChainState(raw json.RawMessage) (ChainState, issue.List) {
	var issues issue.List
	out := ChainState{ChainCooldowns: map[string]time.Time{}, ChainCompletedAt: map[string]time.Time{}}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	var aux struct {
		CompletedChains  []string                   `json:"completed_chains"`
		ChainCooldowns   map[string]json.RawMessage `json:"chain_cooldowns"`
		ChainCompletedAt map[string]json.RawMessage `json:"chain_completed_at"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		issues.Add("template_manager", "", err)
		return out, issues
	}
	out.CompletedChains = aux.CompletedChains
	decode := func(section string, in map[string]json.RawMessage, dst map[string]time.Time) {
		for id, b := range in {
			var t time.Time
			if err := json.Unmarshal(b, &t); err != nil {
				issues.Add(section, id, err)
				continue
			}
			dst[id] = t
		}
	}
	decode("template_manager.chain_cooldowns", aux.ChainCooldowns, out.ChainCooldowns)
	decode("template_manager.chain_completed_at", aux.ChainCompletedAt, out.ChainCompletedAt)
	return out, issues
}
