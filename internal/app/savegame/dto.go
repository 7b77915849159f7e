package savegame

import "time"

type SaveRequest struct {
	// Slot defaults to the session's slot.
	Slot string `json:"slot"`
}

type SaveResponse struct {
	Slot     string `json:"slot"`
	Revision string `json:"revision"`
	Version  int64  `json:"version"`
	GameDate string `json:"game_date"`
	Events   int    `json:"events"`
}

type LoadRequest struct {
	Slot string `json:"slot"`
}

// Issue is one saved entry that was skipped on load.
type Issue struct {
	Section    string `json:"section"`
	Key        string `json:"key,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

type LoadResponse struct {
	Slot     string  `json:"slot"`
	Revision string  `json:"revision"`
	Version  int64   `json:"version"`
	GameDate string  `json:"game_date"`
	Issues   []Issue `json:"issues"`
}

type SlotSummary struct {
	Slot      string    `json:"slot"`
	Revision  string    `json:"revision"`
	Version   int64     `json:"version"`
	GameDate  string    `json:"game_date"`
	Ticks     uint64    `json:"ticks"`
	UpdatedAt time.Time `json:"updated_at"`
}
