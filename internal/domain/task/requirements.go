package task

import (
	"encoding/json"
	"fmt"

	"villagelife/internal/domain/resource"
)

// ResourceRequirement is an amount of a resource at a minimum quality.
// Consumed requirements are removed from the store when the task starts.
type ResourceRequirement struct {
	Type       resource.Type `json:"type"`
	Quantity   float64       `json:"quantity"`
	MinQuality float64       `json:"min_quality"`
	Consumed   bool          `json:"consumed"`
}

func (r *ResourceRequirement) UnmarshalJSON(b []byte) error {
	type alias ResourceRequirement
	aux := alias{Consumed: true}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = ResourceRequirement(aux)
	return nil
}

type ResourceReward struct {
	Type              resource.Type `json:"type"`
	BaseQuantity      float64       `json:"base_quantity"`
	QualityMultiplier float64       `json:"quality_multiplier"`
	SkillMultiplier   float64       `json:"skill_multiplier"`
	RandomBonus       float64       `json:"random_bonus"`
}

func (r *ResourceReward) UnmarshalJSON(b []byte) error {
	type alias ResourceReward
	aux := alias{QualityMultiplier: 1, SkillMultiplier: 1}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = ResourceReward(aux)
	return nil
}

func Reward(t resource.Type, base float64) ResourceReward {
	return ResourceReward{Type: t, BaseQuantity: base, QualityMultiplier: 1, SkillMultiplier: 1}
}

// TimeRange is an hour window [Start, End). Start > End wraps midnight.
// It serializes as a two-element array.
type TimeRange struct {
	Start int
	End   int
}

func (r TimeRange) Contains(hour int) bool {
	if r.Start <= r.End {
		return hour >= r.Start && hour < r.End
	}
	return hour >= r.Start || hour < r.End
}

func (r TimeRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

func (r *TimeRange) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("time range needs 2 hours, got %d", len(pair))
	}
	for _, h := range pair {
		if h < 0 || h > 24 {
			return fmt.Errorf("time range hour %d out of range", h)
		}
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

func anyRangeContains(ranges []TimeRange, hour int) bool {
	for _, r := range ranges {
		if r.Contains(hour) {
			return true
		}
	}
	return false
}

// Prerequisite is one independent condition. Only the fields that are set
// are checked.
type Prerequisite struct {
	TaskID           string        `json:"task_id,omitempty"`
	SkillName        string        `json:"skill_name,omitempty"`
	SkillLevel       float64       `json:"skill_level,omitempty"`
	BuildingType     string        `json:"building_type,omitempty"`
	ResourceType     resource.Type `json:"resource_type,omitempty"`
	ResourceQuantity float64       `json:"resource_quantity,omitempty"`
	ResourceQuality  float64       `json:"resource_quality,omitempty"`
	Season           string        `json:"season,omitempty"`
	WeatherType      string        `json:"weather_type,omitempty"`
	TimeRange        *TimeRange    `json:"time_range,omitempty"`
	VillageLevel     int           `json:"village_level,omitempty"`
}
