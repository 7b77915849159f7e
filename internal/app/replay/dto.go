package replay

import "villagelife/internal/domain/event"

type Request struct {
	Slot  string
	Limit int
	Topic string
	Types []string
	// OccurredFrom and OccurredTo bound the game instant, in unix seconds.
	OccurredFrom int64
	OccurredTo   int64
}

// Summary is what the filtered events add up to.
type Summary struct {
	TasksStarted    []string           `json:"tasks_started"`
	TasksCompleted  []string           `json:"tasks_completed"`
	TasksFailed     []string           `json:"tasks_failed"`
	ChainsCompleted []string           `json:"chains_completed"`
	ResourceNet     map[string]float64 `json:"resource_net"`
	LastWeather     string             `json:"last_weather,omitempty"`
	LastSeason      string             `json:"last_season,omitempty"`
	DaysStarted     int                `json:"days_started"`
	Loads           int                `json:"loads"`
	Saves           int                `json:"saves"`
}

type Response struct {
	Events  []event.DomainEvent `json:"events"`
	Summary Summary             `json:"summary"`
}
