package tasks

import (
	"villagelife/internal/app/ports"
	"villagelife/internal/domain/task"
)

type ListRequest struct {
	IncludeLocked bool
}

type ListResponse struct {
	Available       []task.Availability `json:"available"`
	Active          []task.Task         `json:"active"`
	Completed       []task.Task         `json:"completed"`
	Failed          []task.Task         `json:"failed"`
	CompletedChains []string            `json:"completed_chains"`
}

type Request struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason,omitempty"`
}

// StartResponse reports a rejected start as Started=false with the reason;
// that is not an error.
type StartResponse struct {
	Started bool       `json:"started"`
	Reason  string     `json:"reason"`
	Task    *task.Task `json:"task,omitempty"`
}

type TaskResponse struct {
	Task task.Task `json:"task"`
}

type ClaimResponse struct {
	Claimed   bool             `json:"claimed"`
	Rewards   task.Rewards     `json:"rewards"`
	Character *ports.Character `json:"character,omitempty"`
}
