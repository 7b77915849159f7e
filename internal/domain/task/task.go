package task

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"villagelife/internal/domain/modifier"
	"villagelife/internal/domain/resource"
)

const ReadyReason = "Ready to start"

// Task is one attempt generated from a template.
type Task struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	Description         string                `json:"description"`
	Type                Type                  `json:"type"`
	Duration            time.Duration         `json:"-"`
	Prerequisites       []Prerequisite        `json:"prerequisites"`
	RequiredResources   []ResourceRequirement `json:"required_resources"`
	RequiredTools       []ResourceRequirement `json:"required_tools"`
	ResourceRewards     []ResourceReward      `json:"resource_rewards"`
	SkillRequirements   map[string]float64    `json:"skill_requirements"`
	SkillRewards        map[string]float64    `json:"skill_rewards"`
	ReputationReward    float64               `json:"reputation_reward"`
	VillageExpReward    float64               `json:"village_exp_reward"`
	ValidTimeRanges     []TimeRange           `json:"valid_time_ranges"`
	SeasonMultipliers   map[string]float64    `json:"season_multipliers"`
	WeatherRequirements []string              `json:"weather_requirements"`
	ChainID             string                `json:"chain_id,omitempty"`
	EventID             string                `json:"event_id,omitempty"`
	Modifiers           []modifier.Modifier   `json:"modifiers,omitempty"`

	Status         Status     `json:"status"`
	Progress       float64    `json:"progress"`
	StartTime      *time.Time `json:"start_time"`
	CompletedAt    *time.Time `json:"completed_at"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	RewardsClaimed bool       `json:"rewards_claimed"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	return json.Marshal(struct {
		alias
		DurationSeconds float64 `json:"duration_seconds"`
	}{alias(t), t.Duration.Seconds()})
}

func (t *Task) UnmarshalJSON(b []byte) error {
	type alias Task
	aux := struct {
		*alias
		DurationSeconds *float64 `json:"duration_seconds"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.DurationSeconds == nil {
		return fmt.Errorf("task %s: missing duration_seconds", t.ID)
	}
	t.Duration = time.Duration(*aux.DurationSeconds * float64(time.Second))
	if t.Status == "" {
		return fmt.Errorf("task %s: missing status", t.ID)
	}
	return nil
}

// Conditions are the by-value inputs a start check is evaluated against.
// Now is the game instant; its hour is the game hour.
type Conditions struct {
	Now            time.Time
	Resources      map[resource.Type]resource.Stack
	CompletedTasks map[string]bool
	Skills         map[string]float64
	Season         string
	Weather        string
	VillageLevel   int
	Reputation     float64
	Buildings      map[string]bool
}

// Environment is what progress is evaluated against each tick.
type Environment struct {
	Now       time.Time
	Season    string
	Weather   string
	Modifiers []modifier.Modifier
}

func lookupFold(m map[string]float64, key string) (float64, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return 0, false
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func checkResource(kind string, t resource.Type, quantity, minQuality float64, have map[resource.Type]resource.Stack) (bool, string) {
	st, ok := have[t]
	if !ok || st.Quantity <= 0 {
		return false, fmt.Sprintf("Missing required %s: %s", kind, t)
	}
	if st.Quantity < quantity {
		return false, fmt.Sprintf("Not enough %s: need %s, have %s", t, amount(quantity, st.Quantity), amount(st.Quantity, quantity))
	}
	if st.Quality < minQuality {
		return false, fmt.Sprintf("%s quality too low: need %.2f, have %.2f", t, minQuality, st.Quality)
	}
	return true, ""
}

// amount formats v to one decimal unless that would print it equal to other.
func amount(v, other float64) string {
	a, b := strconv.FormatFloat(v, 'f', 1, 64), strconv.FormatFloat(other, 'f', 1, 64)
	if a != b {
		return a
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func checkSkill(name string, level float64, skills map[string]float64) (bool, string) {
	have, ok := skills[name]
	if !ok {
		return false, fmt.Sprintf("Missing required skill: %s", name)
	}
	if have < level {
		return false, fmt.Sprintf("Skill %s too low: need %.1f, have %.1f", name, level, have)
	}
	return true, ""
}

func (p Prerequisite) check(c Conditions) (bool, string) {
	if p.TaskID != "" && !c.CompletedTasks[p.TaskID] {
		return false, fmt.Sprintf("Required task %s not completed", p.TaskID)
	}
	if p.SkillName != "" {
		if ok, reason := checkSkill(p.SkillName, p.SkillLevel, c.Skills); !ok {
			return false, reason
		}
	}
	if p.Season != "" && !strings.EqualFold(p.Season, c.Season) {
		return false, fmt.Sprintf("Cannot be done in %s", c.Season)
	}
	if p.WeatherType != "" && !strings.EqualFold(p.WeatherType, c.Weather) {
		return false, fmt.Sprintf("Cannot be done in %s weather", c.Weather)
	}
	if p.TimeRange != nil && !p.TimeRange.Contains(c.Now.Hour()) {
		return false, "Not the right time of day"
	}
	if p.BuildingType != "" && !c.Buildings[p.BuildingType] {
		return false, fmt.Sprintf("Missing required building: %s", p.BuildingType)
	}
	if p.ResourceType != "" {
		if ok, reason := checkResource("resource", p.ResourceType, p.ResourceQuantity, p.ResourceQuality, c.Resources); !ok {
			return false, reason
		}
	}
	if p.VillageLevel > 0 && c.VillageLevel < p.VillageLevel {
		return false, fmt.Sprintf("Village level too low: need %d, have %d", p.VillageLevel, c.VillageLevel)
	}
	return true, ""
}

// CanStart evaluates every condition in a fixed order and returns the
// first one that fails.
func (t Task) CanStart(c Conditions) (bool, string) {
	for _, p := range t.Prerequisites {
		if ok, reason := p.check(c); !ok {
			return false, reason
		}
	}
	for _, r := range t.RequiredResources {
		if ok, reason := checkResource("resource", r.Type, r.Quantity, r.MinQuality, c.Resources); !ok {
			return false, reason
		}
	}
	for _, r := range t.RequiredTools {
		if ok, reason := checkResource("tool", r.Type, r.Quantity, r.MinQuality, c.Resources); !ok {
			return false, reason
		}
	}
	for _, name := range sortedKeys(t.SkillRequirements) {
		if ok, reason := checkSkill(name, t.SkillRequirements[name], c.Skills); !ok {
			return false, reason
		}
	}
	if len(t.SeasonMultipliers) > 0 {
		if m, ok := lookupFold(t.SeasonMultipliers, c.Season); !ok || m <= 0 {
			return false, fmt.Sprintf("Cannot be done in %s", c.Season)
		}
	}
	if len(t.ValidTimeRanges) > 0 && !anyRangeContains(t.ValidTimeRanges, c.Now.Hour()) {
		return false, "Not the right time of day"
	}
	if len(t.WeatherRequirements) > 0 && !containsFold(t.WeatherRequirements, c.Weather) {
		return false, fmt.Sprintf("Cannot be done in %s weather", c.Weather)
	}
	return true, ""
}

func (t *Task) transition(to Status) error {
	if !t.Status.CanTransition(to) {
		return transitionError(t.ID, t.Status, to)
	}
	t.Status = to
	return nil
}

func (t *Task) Unlock() error { return t.transition(StatusAvailable) }

func (t *Task) Lock() error { return t.transition(StatusLocked) }

func (t *Task) Start(now time.Time) error {
	if t.Status != StatusAvailable {
		return transitionError(t.ID, t.Status, StatusInProgress)
	}
	if err := t.transition(StatusInProgress); err != nil {
		return err
	}
	start := now
	t.StartTime = &start
	t.Progress = 0
	return nil
}

func (t *Task) Fail(reason string) error {
	if t.Status != StatusInProgress {
		return transitionError(t.ID, t.Status, StatusFailed)
	}
	t.Status = StatusFailed
	t.FailureReason = reason
	return nil
}

// Cancel abandons an in-progress attempt and returns it to Available.
func (t *Task) Cancel() error {
	if t.Status != StatusInProgress {
		return transitionError(t.ID, t.Status, StatusAvailable)
	}
	t.Status = StatusAvailable
	t.Progress = 0
	t.StartTime = nil
	return nil
}

// SeasonMultiplier is 1 when the task declares no multipliers and 0 for an
// undeclared season otherwise.
func (t Task) SeasonMultiplier(season string) float64 {
	if len(t.SeasonMultipliers) == 0 {
		return 1
	}
	m, _ := lookupFold(t.SeasonMultipliers, season)
	return math.Max(0, m)
}

// UpdateProgress advances an in-progress task by elapsed game time. It
// reports true on the update that completes the task.
func (t *Task) UpdateProgress(elapsed time.Duration, env Environment) bool {
	if t.Status != StatusInProgress || elapsed < 0 {
		return false
	}
	fraction := 1.0
	if t.Duration > 0 {
		fraction = elapsed.Seconds() / t.Duration.Seconds()
	}
	rate := t.SeasonMultiplier(env.Season) * modifier.Product(t.Modifiers) * modifier.Product(env.Modifiers)
	t.Progress = math.Min(1, t.Progress+fraction*math.Max(0, rate))
	if t.Progress < 1 {
		return false
	}
	t.Status = StatusCompleted
	done := env.Now
	t.CompletedAt = &done
	return true
}

type Rewards struct {
	Resources  []resource.Stack   `json:"resources"`
	Skills     map[string]float64 `json:"skills"`
	Reputation float64            `json:"reputation"`
	VillageExp float64            `json:"village_exp"`
}

func (r Rewards) Empty() bool {
	return len(r.Resources) == 0 && len(r.Skills) == 0 && r.Reputation == 0 && r.VillageExp == 0
}

// Rand draws reward bonuses.
type Rand interface {
	Float64() float64
}

// ClaimRewards computes the rewards once. It reports false, with empty
// rewards, unless the task is completed and unclaimed.
func (t *Task) ClaimRewards(skills map[string]float64, rng Rand) (Rewards, bool) {
	if t.Status != StatusCompleted || t.RewardsClaimed {
		return Rewards{}, false
	}
	out := Rewards{
		Skills:     copyFloatMap(t.SkillRewards),
		Reputation: t.ReputationReward,
		VillageExp: t.VillageExpReward,
	}
	for _, r := range t.ResourceRewards {
		mult := 1.0
		for _, level := range skills {
			mult = math.Max(mult, level*r.SkillMultiplier)
		}
		qty := r.BaseQuantity * mult
		if r.RandomBonus > 0 && rng != nil {
			qty *= 1 + rng.Float64()*r.RandomBonus
		}
		if qty <= 0 || !r.Type.Valid() {
			continue
		}
		out.Resources = append(out.Resources, resource.Stack{
			Type:     r.Type,
			Quantity: qty,
			Quality:  math.Max(0, math.Min(1, mult*r.QualityMultiplier)),
		})
	}
	t.RewardsClaimed = true
	return out, true
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone deep-copies slices, maps and time pointers.
func (t Task) Clone() Task {
	out := t
	out.Prerequisites = append([]Prerequisite(nil), t.Prerequisites...)
	for i, p := range out.Prerequisites {
		if p.TimeRange != nil {
			r := *p.TimeRange
			out.Prerequisites[i].TimeRange = &r
		}
	}
	out.RequiredResources = append([]ResourceRequirement(nil), t.RequiredResources...)
	out.RequiredTools = append([]ResourceRequirement(nil), t.RequiredTools...)
	out.ResourceRewards = append([]ResourceReward(nil), t.ResourceRewards...)
	out.SkillRequirements = copyFloatMap(t.SkillRequirements)
	out.SkillRewards = copyFloatMap(t.SkillRewards)
	out.ValidTimeRanges = append([]TimeRange(nil), t.ValidTimeRanges...)
	out.SeasonMultipliers = copyFloatMap(t.SeasonMultipliers)
	out.WeatherRequirements = append([]string(nil), t.WeatherRequirements...)
	out.Modifiers = append([]modifier.Modifier(nil), t.Modifiers...)
	if t.StartTime != nil {
		s := *t.StartTime
		out.StartTime = &s
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		out.CompletedAt = &c
	}
	return out
}
