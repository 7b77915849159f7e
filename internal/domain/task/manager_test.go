package task

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"villagelife/internal/domain/issue"
	"villagelife/internal/domain/resource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func establishmentCatalog(t *testing.T) *Catalog {
	t.Helper()
	scout := Template{
		ID:                "scout_location",
		Name:              "Scout location",
		Type:              TypeExploration,
		BaseDuration:      30 * time.Minute,
		ChainID:           "village_establishment_1",
		ResourceRewards:   []ResourceReward{Reward(resource.Herbs, 2)},
		SkillRewards:      map[string]float64{"exploration": 5},
		VillageExpReward:  10,
		DifficultyScaling: 1,
		RewardScaling:     1,
	}
	clear := Template{
		ID:                  "clear_land",
		Name:                "Clear land",
		Type:                TypeConstruction,
		BaseDuration:        time.Hour,
		ChainID:             "village_establishment_1",
		PositionInChain:     1,
		Prerequisites:       []Prerequisite{{TaskID: "scout_location"}},
		RequiredTools:       []ResourceRequirement{{Type: resource.Axe, Quantity: 1, MinQuality: 0.3}},
		ResourceRewards:     []ResourceReward{Reward(resource.Wood, 20)},
		ValidTimeRanges:     []TimeRange{{Start: 6, End: 18}},
		WeatherRequirements: []string{"CLEAR", "CLOUDY"},
	}
	fish := Template{ID: "go_fishing", Type: TypeFishing, BaseDuration: 20 * time.Minute, ResourceRewards: []ResourceReward{Reward(resource.Fish, 3)}}
	secret := Template{ID: "secret_cave", Type: TypeExploration, IsHidden: true, SkillRequirements: map[string]float64{"exploration": 50}}
	chain := Chain{ID: "village_establishment_1", Name: "Village establishment", Tasks: []string{"scout_location", "clear_land"}}

	c, issues := NewCatalog([]Template{scout, clear, fish, secret}, []Chain{chain})
	require.Empty(t, issues)
	return c
}

func morning() Conditions {
	return Conditions{
		Now:     time.Date(2000, 1, 1, 9, 0, 0, 0, time.UTC),
		Season:  "SPRING",
		Weather: "CLEAR",
		Resources: map[resource.Type]resource.Stack{
			resource.Axe: {Type: resource.Axe, Quantity: 1, Quality: 0.8},
		},
	}
}

func ids(list []Availability) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Task.ID)
	}
	return out
}

func TestManager_VillageEstablishmentScenario(t *testing.T) {
	m := NewManager(establishmentCatalog(t))
	c := morning()

	avail := m.AvailableTasks(c)
	assert.Equal(t, []string{"scout_location", "go_fishing"}, ids(avail))
	require.True(t, avail[0].Ready)
	assert.Equal(t, ReadyReason, avail[0].Reason)

	_, ok, reason := m.StartTask("clear_land", c)
	if ok || reason != ReasonNotAvailable {
		t.Fatalf("clear_land before scouting: got ok=%v reason=%q", ok, reason)
	}

	started, ok, _ := m.StartTask("scout_location", c)
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, started.Status)
	assert.Equal(t, "village_establishment_1", started.ChainID)

	out := m.UpdateTasks(30*time.Minute, Environment{Now: c.Now.Add(30 * time.Minute), Season: "SPRING"})
	require.Len(t, out.Completed, 1)
	assert.Empty(t, out.Chains)
	assert.False(t, m.Chains().IsCompleted("village_establishment_1"))

	avail = m.AvailableTasks(c)
	assert.Equal(t, []string{"clear_land", "go_fishing"}, ids(avail))
	require.True(t, avail[0].Ready, avail[0].Reason)

	_, ok, _ = m.StartTask("clear_land", c)
	require.True(t, ok)
	out = m.UpdateTasks(time.Hour, Environment{Now: c.Now.Add(2 * time.Hour), Season: "SPRING"})
	require.Len(t, out.Completed, 1)
	assert.Equal(t, []string{"village_establishment_1"}, out.Chains)
	assert.Equal(t, []string{"village_establishment_1"}, m.Chains().CompletedChains())
	assert.Equal(t, []string{"go_fishing"}, ids(m.AvailableTasks(c)))
}

func TestManager_ClearLandBlockedByWeather(t *testing.T) {
	m := NewManager(establishmentCatalog(t))
	c := morning()
	_, ok, _ := m.StartTask("scout_location", c)
	require.True(t, ok)
	m.UpdateTasks(time.Hour, Environment{Now: c.Now, Season: "SPRING"})

	c.Weather = "STORMY"
	_, ok, reason := m.StartTask("clear_land", c)
	require.False(t, ok)
	assert.Equal(t, "Cannot be done in STORMY weather", reason)
}

func TestManager_StartRejectsActiveID(t *testing.T) {
	m := NewManager(establishmentCatalog(t))
	_, ok, _ := m.StartTask("go_fishing", morning())
	require.True(t, ok)
	_, ok, reason := m.StartTask("go_fishing", morning())
	if ok || reason != ReasonAlreadyActive {
		t.Fatalf("got ok=%v reason=%q want=%q", ok, reason, ReasonAlreadyActive)
	}
}

func TestManager_HiddenTemplatesOnlyShowWhenReady(t *testing.T) {
	m := NewManager(establishmentCatalog(t))
	c := morning()
	assert.NotContains(t, ids(m.AvailableTasks(c)), "secret_cave")

	c.Skills = map[string]float64{"exploration": 60}
	assert.Contains(t, ids(m.AvailableTasks(c)), "secret_cave")
}

func TestManager_FailAndCancel(t *testing.T) {
	m := NewManager(establishmentCatalog(t))
	c := morning()

	if _, err := m.FailTask("go_fishing", "no bait"); !errors.Is(err, ErrTaskNotActive) {
		t.Fatalf("fail inactive: got=%v want ErrTaskNotActive", err)
	}

	_, ok, _ := m.StartTask("go_fishing", c)
	require.True(t, ok)
	cancelled, err := m.CancelTask("go_fishing")
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, cancelled.Status)
	assert.Empty(t, m.ActiveTasks())
	assert.Contains(t, ids(m.AvailableTasks(c)), "go_fishing")

	_, ok, _ = m.StartTask("go_fishing", c)
	require.True(t, ok)
	failed, err := m.FailTask("go_fishing", "no bait")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	require.Len(t, m.FailedTasks(), 1)
	assert.Empty(t, m.ActiveTasks())
}

func TestManager_ClaimTaskRewardsOnce(t *testing.T) {
	m := NewManager(establishmentCatalog(t))
	c := morning()
	_, ok, _ := m.StartTask("scout_location", c)
	require.True(t, ok)

	if _, _, err := m.ClaimTaskRewards("scout_location", nil, nil); !errors.Is(err, ErrTaskNotCompleted) {
		t.Fatalf("claim active task: got=%v want ErrTaskNotCompleted", err)
	}
	m.UpdateTasks(time.Hour, Environment{Now: c.Now, Season: "SPRING"})

	rewards, ok, err := m.ClaimTaskRewards("scout_location", nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10.0, rewards.VillageExp)
	require.Len(t, rewards.Resources, 1)

	_, ok, err = m.ClaimTaskRewards("scout_location", nil, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestManager_LevelScalingAppliesToCandidates(t *testing.T) {
	m := NewManager(establishmentCatalog(t))
	c := morning()
	c.VillageLevel = 3
	avail := m.AvailableTasks(c)
	require.NotEmpty(t, avail)
	assert.InDelta(t, 2*(1+2.0), avail[0].Task.ResourceRewards[0].BaseQuantity, 1e-9)
}

func TestManager_RepeatableChainRunsAgainAfterCooldown(t *testing.T) {
	tmpl := Template{ID: "harvest", Type: TypeFarming, BaseDuration: time.Hour, ChainID: "harvest_cycle"}
	chain := Chain{ID: "harvest_cycle", Tasks: []string{"harvest"}, IsRepeatable: true, Cooldown: 24 * time.Hour}
	cat, issues := NewCatalog([]Template{tmpl}, []Chain{chain})
	require.Empty(t, issues)
	m := NewManager(cat)

	c := morning()
	_, ok, _ := m.StartTask("harvest", c)
	require.True(t, ok)
	out := m.UpdateTasks(time.Hour, Environment{Now: c.Now.Add(time.Hour)})
	require.Equal(t, []string{"harvest_cycle"}, out.Chains)

	c.Now = c.Now.Add(2 * time.Hour)
	assert.Empty(t, m.AvailableTasks(c))

	c.Now = c.Now.Add(24 * time.Hour)
	assert.Equal(t, []string{"harvest"}, ids(m.AvailableTasks(c)))
	_, ok, _ = m.StartTask("harvest", c)
	require.True(t, ok)
	out = m.UpdateTasks(time.Hour, Environment{Now: c.Now.Add(time.Hour)})
	assert.Equal(t, []string{"harvest_cycle"}, out.Chains)
}

func TestChain_CompletedOnlyAfterEveryTask(t *testing.T) {
	a := Template{ID: "A", BaseDuration: time.Minute, ChainID: "AB"}
	b := Template{ID: "B", BaseDuration: time.Minute, ChainID: "AB", Prerequisites: []Prerequisite{{TaskID: "A"}}}
	cat, _ := NewCatalog([]Template{a, b}, []Chain{{ID: "AB", Tasks: []string{"A", "B"}}})
	m := NewManager(cat)
	c := morning()

	_, ok, _ := m.StartTask("A", c)
	require.True(t, ok)
	m.UpdateTasks(time.Minute, Environment{Now: c.Now})
	assert.False(t, m.Chains().IsCompleted("AB"))

	_, ok, _ = m.StartTask("B", c)
	require.True(t, ok)
	m.UpdateTasks(time.Minute, Environment{Now: c.Now})
	assert.True(t, m.Chains().IsCompleted("AB"))
}

func TestChainEngine_AvailabilityFilters(t *testing.T) {
	tmpl := Template{ID: "t"}
	chains := []Chain{
		{ID: "base", Tasks: []string{"t"}},
		{ID: "elite", Tasks: []string{"t"}, VillageLevelRequired: 3, ReputationRequired: 10},
		{ID: "winter", Tasks: []string{"t"}, SeasonAvailability: []string{"WINTER"}},
		{ID: "rainy", Tasks: []string{"t"}, WeatherAvailability: []string{"RAINY"}},
		{ID: "sequel", Tasks: []string{"t"}, Prerequisites: []string{"base"}},
		{ID: "night", Tasks: []string{"t"}, TimeRanges: []TimeRange{{Start: 20, End: 4}}},
	}
	cat, issues := NewCatalog([]Template{tmpl}, chains)
	require.Empty(t, issues)
	e := NewChainEngine(cat)
	q := ChainQuery{Now: time.Date(2000, 1, 1, 9, 0, 0, 0, time.UTC), Season: "SPRING", Weather: "CLEAR"}

	names := func() []string {
		var out []string
		for _, ch := range e.AvailableChains(q) {
			out = append(out, ch.ID)
		}
		return out
	}
	assert.Equal(t, []string{"base"}, names())

	require.NoError(t, e.MarkChainCompleted("base", q.Now))
	q.VillageLevel, q.Reputation = 3, 10
	assert.Equal(t, []string{"elite", "sequel"}, names())

	if err := e.MarkChainCompleted("missing", q.Now); !errors.Is(err, ErrUnknownChain) {
		t.Fatalf("got=%v want ErrUnknownChain", err)
	}
}

func TestNewCatalog_ReportsBadEntries(t *testing.T) {
	cat, issues := NewCatalog(
		[]Template{{ID: "a"}, {ID: "a"}, {ID: "b"}},
		[]Chain{{ID: "ok", Tasks: []string{"a", "b"}}, {ID: "broken", Tasks: []string{"a", "zzz"}}},
	)
	require.Len(t, issues, 2)
	assert.ErrorIs(t, issues[0], ErrDuplicateID)
	assert.ErrorIs(t, issues[1], ErrUnknownTemplate)
	var unknown *issue.UnknownName
	require.ErrorAs(t, issues[1], &unknown)
	assert.Equal(t, "zzz", unknown.Name)

	_, ok := cat.Chain("broken")
	assert.False(t, ok)
	ch, ok := cat.ChainForTask("b")
	require.True(t, ok)
	assert.Equal(t, "ok", ch.ID)
	next := cat.NextTasks("a")
	require.Len(t, next, 1)
	assert.Equal(t, "b", next[0].ID)
	assert.Empty(t, cat.NextTasks("b"))
}

func TestScaleTemplate_PureAndScaled(t *testing.T) {
	tmpl := Template{
		ID:                "smelt",
		RequiredResources: []ResourceRequirement{{Type: resource.Metal, Quantity: 10, MinQuality: 0.6}},
		RequiredTools:     []ResourceRequirement{{Type: resource.Hammer, Quantity: 1, MinQuality: 0.5}},
		ResourceRewards:   []ResourceReward{Reward(resource.RefinedMetal, 4)},
		SkillRequirements: map[string]float64{"smithing": 2},
		SkillRewards:      map[string]float64{"smithing": 10},
		ReputationReward:  1,
		VillageExpReward:  5,
		DifficultyScaling: 1,
		RewardScaling:     0.5,
	}
	before := tmpl.Clone()

	scaled := ScaleTemplate(tmpl, 3)
	assert.Equal(t, before, tmpl)

	// scaling factor 2, reward factor 2
	assert.InDelta(t, 30.0, scaled.RequiredResources[0].Quantity, 1e-9)
	assert.InDelta(t, 1.0, scaled.RequiredResources[0].MinQuality, 1e-9)
	assert.InDelta(t, 0.8, scaled.RequiredTools[0].MinQuality, 1e-9)
	assert.InDelta(t, 8.0, scaled.ResourceRewards[0].BaseQuantity, 1e-9)
	assert.InDelta(t, 4.0, scaled.SkillRequirements["smithing"], 1e-9)
	assert.InDelta(t, 20.0, scaled.SkillRewards["smithing"], 1e-9)
	assert.InDelta(t, 2.0, scaled.ReputationReward, 1e-9)
	assert.InDelta(t, 10.0, scaled.VillageExpReward, 1e-9)

	assert.Equal(t, tmpl, ScaleTemplate(tmpl, 1))
}

func TestTemplateJSON_Defaults(t *testing.T) {
	var tmpl Template
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","name":"X","type":"GATHERING"}`), &tmpl))
	assert.Equal(t, DefaultDuration, tmpl.BaseDuration)
	assert.Equal(t, 1.0, tmpl.DifficultyScaling)
	assert.Equal(t, 1.0, tmpl.RewardScaling)

	task := GenerateTask(tmpl)
	assert.Equal(t, "x", task.ID)
	assert.Equal(t, StatusAvailable, task.Status)
	assert.Equal(t, DefaultDuration, task.Duration)
	assert.Nil(t, task.StartTime)
}

func TestManager_StateRoundTripAndTolerance(t *testing.T) {
	m := NewManager(establishmentCatalog(t))
	c := morning()
	_, ok, _ := m.StartTask("scout_location", c)
	require.True(t, ok)
	m.UpdateTasks(time.Hour, Environment{Now: c.Now, Season: "SPRING"})
	_, ok, _ = m.StartTask("go_fishing", c)
	require.True(t, ok)

	state, err := m.State()
	require.NoError(t, err)
	b, err := json.Marshal(state)
	require.NoError(t, err)

	var decoded ManagerState
	require.NoError(t, json.Unmarshal(b, &decoded))
	decoded.CompletedTasks["bogus"] = json.RawMessage(`{"id":"bogus","status":"SLEEPING","duration_seconds":1}`)

	restored := NewManager(establishmentCatalog(t))
	issues := restored.Restore(decoded)
	require.Len(t, issues, 1)
	assert.Equal(t, "completed_tasks", issues[0].Section)
	assert.Equal(t, "bogus", issues[0].Key)

	assert.Equal(t, m.ActiveTasks(), restored.ActiveTasks())
	assert.Equal(t, m.CompletedTasks(), restored.CompletedTasks())
	assert.Equal(t, []string{"clear_land"}, ids(restored.AvailableTasks(c)))
}

func TestManager_RestoreChainStateReportsUnknownChains(t *testing.T) {
	m := NewManager(establishmentCatalog(t))
	issues := m.Restore(ManagerState{
		TemplateManager: json.RawMessage(`{"completed_chains":["village_establishment_1","gone"],"chain_cooldowns":{"x":"not-a-time"}}`),
	})
	require.Len(t, issues, 2)
	assert.True(t, m.Chains().IsCompleted("village_establishment_1"))
	assert.False(t, m.Chains().IsCompleted("gone"))
}
