package status

import (
	"villagelife/internal/app/ports"
	"villagelife/internal/domain/village"
)

type Request struct {
	IncludeCharacter bool
}

type Response struct {
	Slot         string               `json:"slot"`
	Status       village.Status       `json:"status"`
	Interpolated village.Interpolated `json:"interpolated"`
	Character    *ports.Character     `json:"character,omitempty"`
	WorldTime    int64                `json:"world_time_seconds"`
	NextPhaseIn  int                  `json:"next_phase_in_minutes"`
}
