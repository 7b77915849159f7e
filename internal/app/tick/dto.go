package tick

import "villagelife/internal/domain/world"

type Request struct {
	// AdvanceMinutes, when positive, moves game time directly instead of reading
	// the wall clock.
	AdvanceMinutes int `json:"advance_minutes"`
}

type Response struct {
	Ticks           int            `json:"ticks"`
	Snapshot        world.Snapshot `json:"snapshot"`
	CompletedTasks  []string       `json:"completed_tasks"`
	CompletedChains []string       `json:"completed_chains"`
	WeatherChanged  bool           `json:"weather_changed"`
	Events          int            `json:"events"`
}
