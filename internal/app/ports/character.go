package ports

import (
	"context"

	"villagelife/internal/domain/task"
	"villagelife/internal/domain/village"
)

type Character struct {
	Name         string             `json:"name" yaml:"name"`
	Skills       map[string]float64 `json:"skills" yaml:"skills"`
	Reputation   float64            `json:"reputation" yaml:"reputation"`
	VillageLevel int                `json:"village_level" yaml:"village_level"`
	VillageExp   float64            `json:"village_exp" yaml:"village_exp"`
	Buildings    []string           `json:"buildings" yaml:"buildings"`
}

// Profile is the read-only view task checks need.
func (c Character) Profile() village.Profile {
	p := village.Profile{
		Skills:       c.Skills,
		VillageLevel: c.VillageLevel,
		Reputation:   c.Reputation,
	}
	if len(c.Buildings) > 0 {
		p.Buildings = make(map[string]bool, len(c.Buildings))
		for _, b := range c.Buildings {
			p.Buildings[b] = true
		}
	}
	return p
}

type CharacterProvider interface {
	Character(ctx context.Context) (Character, error)
}

// RewardReceiver is implemented by providers whose characters can grow.
type RewardReceiver interface {
	ApplyRewards(ctx context.Context, rewards task.Rewards) (Character, error)
}
