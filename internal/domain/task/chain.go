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
	ErrUnknownTemplate = errors.New("unknown task template")
	ErrUnknownChain    = errors.New("unknown task chain")
	ErrDuplicateID     = errors.New("duplicate id")
)

// Chain orders templates into a progression.
type Chain struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	Tasks                []string      `json:"tasks"`
	Prerequisites        []string      `json:"prerequisites"`
	VillageLevelRequired int           `json:"village_level_required"`
	ReputationRequired   float64       `json:"reputation_required"`
	IsRepeatable         bool          `json:"is_repeatable"`
	Cooldown             time.Duration `json:"-"`
	SeasonAvailability   []string      `json:"season_availability"`
	WeatherAvailability  []string      `json:"weather_availability"`
	TimeRanges           []TimeRange   `json:"time_ranges"`
}

func (c Chain) MarshalJSON() ([]byte, error) {
	type alias Chain
	out := struct {
		alias
		CooldownSeconds *float64 `json:"cooldown_seconds"`
	}{alias: alias(c)}
	if c.Cooldown > 0 {
		s := c.Cooldown.Seconds()
		out.CooldownSeconds = &s
	}
	return json.Marshal(out)
}

func (c *Chain) UnmarshalJSON(b []byte) error {
	type alias Chain
	aux := struct {
		*alias
		CooldownSeconds *float64 `json:"cooldown_seconds"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.CooldownSeconds != nil && *aux.CooldownSeconds > 0 {
		c.Cooldown = time.Duration(*aux.CooldownSeconds * float64(time.Second))
	}
	return nil
}

// Catalog is the immutable set of templates and chains.
type Catalog struct {
	templates     map[string]Template
	templateOrder []string
	chains        map[string]Chain
	chainOrder    []string
	taskChain     map[string]string
}

// NewCatalog indexes templates and chains. Duplicates and chains that
// reference unknown templates are reported and left out.
func NewCatalog(templates []Template, chains []Chain) (*Catalog, issue.List) {
	var issues issue.List
	c := &Catalog{
		templates: map[string]Template{},
		chains:    map[string]Chain{},
		taskChain: map[string]string{},
	}
	for _, t := range templates {
		if t.ID == "" {
			issues.Add("templates", "", errors.New("template without id"))
			continue
		}
		if _, dup := c.templates[t.ID]; dup {
			issues.Add("templates", t.ID, ErrDuplicateID)
			continue
		}
		c.templates[t.ID] = t
		c.templateOrder = append(c.templateOrder, t.ID)
	}
	for _, ch := range chains {
		if ch.ID == "" {
			issues.Add("chains", "", errors.New("chain without id"))
			continue
		}
		if _, dup := c.chains[ch.ID]; dup {
			issues.Add("chains", ch.ID, ErrDuplicateID)
			continue
		}
		missing := ""
		for _, id := range ch.Tasks {
			if _, ok := c.templates[id]; !ok {
				missing = id
				break
			}
		}
		if missing != "" {
			issues.Add("chains", ch.ID, &issue.UnknownName{Kind: "task template", Name: missing, Err: ErrUnknownTemplate})
			continue
		}
		c.chains[ch.ID] = ch
		c.chainOrder = append(c.chainOrder, ch.ID)
		for _, id := range ch.Tasks {
			if _, claimed := c.taskChain[id]; !claimed {
				c.taskChain[id] = ch.ID
			}
		}
	}
	for _, id := range c.templateOrder {
		t := c.templates[id]
		if t.ChainID == "" {
			continue
		}
		if _, ok := c.chains[t.ChainID]; ok {
			c.taskChain[id] = t.ChainID
		}
	}
	return c, issues
}

func (c *Catalog) Template(id string) (Template, bool) {
	t, ok := c.templates[id]
	if !ok {
		return Template{}, false
	}
	return t.Clone(), true
}

func (c *Catalog) Chain(id string) (Chain, bool) {
	ch, ok := c.chains[id]
	return ch, ok
}

func (c *Catalog) Templates() []Template {
	out := make([]Template, 0, len(c.templateOrder))
	for _, id := range c.templateOrder {
		out = append(out, c.templates[id].Clone())
	}
	return out
}

func (c *Catalog) Chains() []Chain {
	out := make([]Chain, 0, len(c.chainOrder))
	for _, id := range c.chainOrder {
		out = append(out, c.chains[id])
	}
	return out
}

func (c *Catalog) TemplateIDs() []string {
	return append([]string(nil), c.templateOrder...)
}

// ChainForTask returns the chain a template belongs to.
func (c *Catalog) ChainForTask(taskID string) (Chain, bool) {
	id, ok := c.taskChain[taskID]
	if !ok {
		return Chain{}, false
	}
	return c.Chain(id)
}

// NextTasks returns the templates that follow taskID in its chain.
func (c *Catalog) NextTasks(taskID string) []Template {
	ch, ok := c.ChainForTask(taskID)
	if !ok {
		return nil
	}
	out := []Template{}
	for i, id := range ch.Tasks {
		if id != taskID {
			continue
		}
		if i+1 < len(ch.Tasks) {
			t, _ := c.Template(ch.Tasks[i+1])
			out = append(out, t)
		}
		break
	}
	return out
}

// ChainQuery is the by-value context chain availability is judged in.
type ChainQuery struct {
	Now          time.Time
	VillageLevel int
	Reputation   float64
	Season       string
	Weather      string
}

// ChainEngine tracks completed chains and cooldowns against a catalog.
type ChainEngine struct {
	catalog     *Catalog
	completed   map[string]bool
	cooldowns   map[string]time.Time
	completedAt map[string]time.Time
}

func NewChainEngine(catalog *Catalog) *ChainEngine {
	return &ChainEngine{
		catalog:     catalog,
		completed:   map[string]bool{},
		cooldowns:   map[string]time.Time{},
		completedAt: map[string]time.Time{},
	}
}

// ChainAvailable reports whether a chain can be worked on, with the reason
// when it cannot.
func (e *ChainEngine) ChainAvailable(ch Chain, q ChainQuery) (bool, string) {
	if e.completed[ch.ID] && !ch.IsRepeatable {
		return false, "Chain already completed"
	}
	if until, ok := e.cooldowns[ch.ID]; ok && q.Now.Before(until) {
		return false, fmt.Sprintf("Chain on cooldown for %s", until.Sub(q.Now).Round(time.Minute))
	}
	if q.VillageLevel < ch.VillageLevelRequired {
		return false, fmt.Sprintf("Village level too low: need %d, have %d", ch.VillageLevelRequired, q.VillageLevel)
	}
	if q.Reputation < ch.ReputationRequired {
		return false, fmt.Sprintf("Reputation too low: need %.1f, have %.1f", ch.ReputationRequired, q.Reputation)
	}
	if len(ch.SeasonAvailability) > 0 && !containsFold(ch.SeasonAvailability, q.Season) {
		return false, fmt.Sprintf("Chain not available in %s", q.Season)
	}
	if len(ch.WeatherAvailability) > 0 && !containsFold(ch.WeatherAvailability, q.Weather) {
		return false, fmt.Sprintf("Chain not available in %s weather", q.Weather)
	}
	if len(ch.TimeRanges) > 0 && !anyRangeContains(ch.TimeRanges, q.Now.Hour()) {
		return false, "Chain not available at this time of day"
	}
	for _, pre := range ch.Prerequisites {
		if !e.completed[pre] {
			return false, fmt.Sprintf("Requires chain %s", pre)
		}
	}
	return true, ""
}

func (e *ChainEngine) AvailableChains(q ChainQuery) []Chain {
	out := []Chain{}
	for _, ch := range e.catalog.Chains() {
		if ok, _ := e.ChainAvailable(ch, q); ok {
			out = append(out, ch)
		}
	}
	return out
}

// ChainTasks returns the chain's templates scaled for the village level.
func (e *ChainEngine) ChainTasks(chainID string, villageLevel int) []Template {
	ch, ok := e.catalog.Chain(chainID)
	if !ok {
		return nil
	}
	out := make([]Template, 0, len(ch.Tasks))
	for _, id := range ch.Tasks {
		t, ok := e.catalog.Template(id)
		if !ok {
			continue
		}
		out = append(out, ScaleTemplate(t, villageLevel))
	}
	return out
}

// MarkChainCompleted records completion. Repeatable chains with a cooldown
// become available again at now+cooldown.
func (e *ChainEngine) MarkChainCompleted(chainID string, now time.Time) error {
	ch, ok := e.catalog.Chain(chainID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChain, chainID)
	}
	e.completed[chainID] = true
	e.completedAt[chainID] = now
	if ch.IsRepeatable && ch.Cooldown > 0 {
		e.cooldowns[chainID] = now.Add(ch.Cooldown)
	}
	return nil
}

func (e *ChainEngine) IsCompleted(chainID string) bool { return e.completed[chainID] }

// LastCompleted is when the chain's latest run finished.
func (e *ChainEngine) LastCompleted(chainID string) (time.Time, bool) {
	t, ok := e.completedAt[chainID]
	return t, ok
}

func (e *ChainEngine) CompletedChains() []string {
	out := make([]string, 0, len(e.completed))
	for id := range e.completed {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (e *ChainEngine) CooldownUntil(chainID string) (time.Time, bool) {
	t, ok := e.cooldowns[chainID]
	return t, ok
}

type ChainState struct {
	CompletedChains  []string             `json:"completed_chains"`
	ChainCooldowns   map[string]time.Time `json:"chain_cooldowns"`
	ChainCompletedAt map[string]time.Time `json:"chain_completed_at,omitempty"`
}

func (e *ChainEngine) State() ChainState {
	out := ChainState{
		CompletedChains:  e.CompletedChains(),
		ChainCooldowns:   make(map[string]time.Time, len(e.cooldowns)),
		ChainCompletedAt: make(map[string]time.Time, len(e.completedAt)),
	}
	for k, v := range e.cooldowns {
		out.ChainCooldowns[k] = v
	}
	for k, v := range e.completedAt {
		out.ChainCompletedAt[k] = v
	}
	return out
}

// Restore loads chain progress. Chain ids missing from the catalog are
// reported and dropped.
func (e *ChainEngine) Restore(state ChainState) issue.List {
	var issues issue.List
	e.completed = map[string]bool{}
	e.cooldowns = map[string]time.Time{}
	e.completedAt = map[string]time.Time{}
	known := func(section, id string) bool {
		if _, ok := e.catalog.Chain(id); ok {
			return true
		}
		issues.Add(section, id, &issue.UnknownName{Kind: "task chain", Name: id, Err: ErrUnknownChain})
		return false
	}
	for _, id := range state.CompletedChains {
		if known("template_manager.completed_chains", id) {
			e.completed[id] = true
		}
	}
	for id, t := range state.ChainCooldowns {
		if known("template_manager.chain_cooldowns", id) {
			e.cooldowns[id] = t
		}
	}
	for id, t := range state.ChainCompletedAt {
		if e.completed[id] {
			e.completedAt[id] = t
		}
	}
	return issues
}
