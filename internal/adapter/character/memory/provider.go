// Package memorycharacter keeps a character in memory and grows it from
// claimed task rewards.
package memorycharacter

import (
	"context"
	"math"
	"sort"
	"sync"

	"villagelife/internal/app/ports"
	"villagelife/internal/domain/task"
)

const (
	MaxSkill = 100.0
	// skillSoftCap is the level at which a reward counts half.
	skillSoftCap = 50.0
)

type Provider struct {
	mu   sync.RWMutex
	char ports.Character
}

func New(seed ports.Character) *Provider {
	if seed.VillageLevel < 1 {
		seed.VillageLevel = 1
	}
	seed.Skills = copySkills(seed.Skills)
	seed.Buildings = append([]string(nil), seed.Buildings...)
	return &Provider{char: seed}
}

func (p *Provider) Character(_ context.Context) (ports.Character, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return clone(p.char), nil
}

// ApplyRewards grows skills with diminishing returns, adds reputation and
// village experience, and levels the village up every 100*level exp.
func (p *Provider) ApplyRewards(_ context.Context, r task.Rewards) (ports.Character, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.char.Skills == nil {
		p.char.Skills = map[string]float64{}
	}
	for name, gain := range r.Skills {
		p.char.Skills[name] = Improve(p.char.Skills[name], gain)
	}
	p.char.Reputation = math.Max(0, p.char.Reputation+r.Reputation)
	p.char.VillageExp += r.VillageExp
	for p.char.VillageExp >= ExpForNextLevel(p.char.VillageLevel) {
		p.char.VillageExp -= ExpForNextLevel(p.char.VillageLevel)
		p.char.VillageLevel++
	}
	return clone(p.char), nil
}

// AddBuilding records a completed building once.
func (p *Provider) AddBuilding(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.char.Buildings {
		if b == name {
			return
		}
	}
	p.char.Buildings = append(p.char.Buildings, name)
	sort.Strings(p.char.Buildings)
}

func Improve(current, gain float64) float64 {
	if gain <= 0 {
		return current
	}
	return math.Min(MaxSkill, current+gain/(1+current/skillSoftCap))
}

func ExpForNextLevel(level int) float64 {
	if level < 1 {
		level = 1
	}
	return 100 * float64(level)
}

func clone(c ports.Character) ports.Character {
	c.Skills = copySkills(c.Skills)
	c.Buildings = append([]string(nil), c.Buildings...)
	return c
}

func copySkills(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
