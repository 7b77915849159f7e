package task

import (
	"errors"
	"fmt"
	"strings"

	"villagelife/internal/domain/issue"
)

type Type string

const (
	TypeGathering    Type = "GATHERING"
	TypeCrafting     Type = "CRAFTING"
	TypeConstruction Type = "CONSTRUCTION"
	TypePlanning     Type = "PLANNING"
	TypeCombat       Type = "COMBAT"
	TypeSocial       Type = "SOCIAL"
	TypeExploration  Type = "EXPLORATION"
	TypeResearch     Type = "RESEARCH"
	TypeMining       Type = "MINING"
	TypeFarming      Type = "FARMING"
	TypeHunting      Type = "HUNTING"
	TypeFishing      Type = "FISHING"
	TypeBuilding     Type = "BUILDING"
	TypeRepair       Type = "REPAIR"
	TypeStudy        Type = "STUDY"
	TypeExperiment   Type = "EXPERIMENT"
	TypeTrading      Type = "TRADING"
	TypeNegotiation  Type = "NEGOTIATION"
	TypeDiplomacy    Type = "DIPLOMACY"
	TypeOrganizing   Type = "ORGANIZING"
	TypeTraining     Type = "TRAINING"
	TypeEvent        Type = "EVENT"
	TypeExpedition   Type = "EXPEDITION"
	TypeDefense      Type = "DEFENSE"
	TypeCelebration  Type = "CELEBRATION"
)

var taskTypes = []Type{
	TypeGathering, TypeCrafting, TypeConstruction, TypePlanning, TypeCombat,
	TypeSocial, TypeExploration, TypeResearch, TypeMining, TypeFarming,
	TypeHunting, TypeFishing, TypeBuilding, TypeRepair, TypeStudy,
	TypeExperiment, TypeTrading, TypeNegotiation, TypeDiplomacy, TypeOrganizing,
	TypeTraining, TypeEvent, TypeExpedition, TypeDefense, TypeCelebration,
}

func Types() []Type {
	out := make([]Type, len(taskTypes))
	copy(out, taskTypes)
	return out
}

func ParseType(name string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(name)))
	for _, v := range taskTypes {
		if v == t {
			return t, nil
		}
	}
	return "", &issue.UnknownName{Kind: "task type", Name: name}
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type Status string

const (
	StatusLocked     Status = "LOCKED"
	StatusAvailable  Status = "AVAILABLE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

var ErrInvalidTransition = errors.New("invalid task status transition")

var transitions = map[Status][]Status{
	StatusLocked:     {StatusAvailable},
	StatusAvailable:  {StatusLocked, StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusFailed, StatusAvailable},
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func ParseStatus(name string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(name)))
	switch s {
	case StatusLocked, StatusAvailable, StatusInProgress, StatusCompleted, StatusFailed:
		return s, nil
	}
	return "", &issue.UnknownName{Kind: "task status", Name: name}
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func transitionError(id string, from, to Status) error {
	return fmt.Errorf("%w: task %s %s -> %s", ErrInvalidTransition, id, from, to)
}
