package task

import (
	"encoding/json"
	"math"
	"time"

	"villagelife/internal/domain/modifier"
)

const DefaultDuration = 30 * time.Minute

// Template is the static blueprint tasks are generated from.
type Template struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	Description         string                `json:"description"`
	Type                Type                  `json:"type"`
	BaseDuration        time.Duration         `json:"-"`
	ChainID             string                `json:"chain_id,omitempty"`
	PositionInChain     int                   `json:"position_in_chain"`
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
	EventID             string                `json:"event_id,omitempty"`
	Modifiers           []modifier.Modifier   `json:"modifiers,omitempty"`
	DifficultyScaling   float64               `json:"difficulty_scaling"`
	RewardScaling       float64               `json:"reward_scaling"`
	IsHidden            bool                  `json:"is_hidden"`
}

func (t Template) MarshalJSON() ([]byte, error) {
	type alias Template
	return json.Marshal(struct {
		alias
		BaseDurationSeconds float64 `json:"base_duration_seconds"`
	}{alias(t), t.BaseDuration.Seconds()})
}

// UnmarshalJSON applies the defaults: 30 minute duration and scaling
// factors of 1.
func (t *Template) UnmarshalJSON(b []byte) error {
	type alias Template
	a := alias{DifficultyScaling: 1, RewardScaling: 1}
	aux := struct {
		*alias
		BaseDurationSeconds *float64 `json:"base_duration_seconds"`
	}{alias: &a}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	a.BaseDuration = DefaultDuration
	if aux.BaseDurationSeconds != nil {
		a.BaseDuration = time.Duration(*aux.BaseDurationSeconds * float64(time.Second))
	}
	*t = Template(a)
	return nil
}

func (t Template) Clone() Template {
	out := t
	task := Task{
		Prerequisites:       t.Prerequisites,
		RequiredResources:   t.RequiredResources,
		RequiredTools:       t.RequiredTools,
		ResourceRewards:     t.ResourceRewards,
		SkillRequirements:   t.SkillRequirements,
		SkillRewards:        t.SkillRewards,
		ValidTimeRanges:     t.ValidTimeRanges,
		SeasonMultipliers:   t.SeasonMultipliers,
		WeatherRequirements: t.WeatherRequirements,
		Modifiers:           t.Modifiers,
	}.Clone()
	out.Prerequisites = task.Prerequisites
	out.RequiredResources = task.RequiredResources
	out.RequiredTools = task.RequiredTools
	out.ResourceRewards = task.ResourceRewards
	out.SkillRequirements = task.SkillRequirements
	out.SkillRewards = task.SkillRewards
	out.ValidTimeRanges = task.ValidTimeRanges
	out.SeasonMultipliers = task.SeasonMultipliers
	out.WeatherRequirements = task.WeatherRequirements
	out.Modifiers = task.Modifiers
	return out
}

// GenerateTask copies the template into a fresh Available task. The task
// id is the template id.
func GenerateTask(t Template) Task {
	c := t.Clone()
	return Task{
		ID:                  c.ID,
		Name:                c.Name,
		Description:         c.Description,
		Type:                c.Type,
		Duration:            c.BaseDuration,
		Prerequisites:       c.Prerequisites,
		RequiredResources:   c.RequiredResources,
		RequiredTools:       c.RequiredTools,
		ResourceRewards:     c.ResourceRewards,
		SkillRequirements:   c.SkillRequirements,
		SkillRewards:        c.SkillRewards,
		ReputationReward:    c.ReputationReward,
		VillageExpReward:    c.VillageExpReward,
		ValidTimeRanges:     c.ValidTimeRanges,
		SeasonMultipliers:   c.SeasonMultipliers,
		WeatherRequirements: c.WeatherRequirements,
		ChainID:             c.ChainID,
		EventID:             c.EventID,
		Modifiers:           c.Modifiers,
		Status:              StatusAvailable,
	}
}

// ScaleTemplate returns a copy with requirements and rewards scaled for the
// village level. Levels up to 1 return an unscaled copy; the input is never
// modified.
func ScaleTemplate(t Template, villageLevel int) Template {
	out := t.Clone()
	if villageLevel <= 1 {
		return out
	}
	scaling := float64(villageLevel-1) * t.DifficultyScaling
	rewardFactor := 1 + scaling*t.RewardScaling

	for i := range out.RequiredResources {
		r := &out.RequiredResources[i]
		r.Quantity *= 1 + scaling
		r.MinQuality = math.Min(1, r.MinQuality*(1+scaling*0.5))
	}
	for i := range out.RequiredTools {
		r := &out.RequiredTools[i]
		r.MinQuality = math.Min(1, r.MinQuality*(1+scaling*0.3))
	}
	for i := range out.ResourceRewards {
		out.ResourceRewards[i].BaseQuantity *= rewardFactor
	}
	for k, v := range out.SkillRequirements {
		out.SkillRequirements[k] = v * (1 + scaling*0.5)
	}
	for k, v := range out.SkillRewards {
		out.SkillRewards[k] = v * rewardFactor
	}
	out.ReputationReward *= rewardFactor
	out.VillageExpReward *= rewardFactor
	return out
}
