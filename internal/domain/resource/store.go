package resource

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"villagelife/internal/domain/issue"
)

const DefaultCapacity = 1000.0

const secondsPerDay = 86400.0

// Store holds one stack per resource type. Capacity is advisory: adds are
// never rejected for weight, callers read OverCapacity to react.
type Store struct {
	capacity float64
	stacks   map[Type]Stack
}

func NewStore(capacity float64) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, stacks: map[Type]Stack{}}
}

// Add merges quantity at quality into the type's stack, creating it when
// absent. It reports false without mutating for non-positive quantity,
// out-of-range quality, NaN or infinite values, or an unknown type.
func (s *Store) Add(t Type, quantity, quality float64) bool {
	if !finite(quantity) || !finite(quality) {
		return false
	}
	if quantity <= 0 || !t.Valid() || quality < 0 || quality > 1 {
		return false
	}
	in := Stack{Type: t, Quantity: quantity, Quality: quality}
	cur, ok := s.stacks[t]
	if !ok {
		s.stacks[t] = in
		return true
	}
	merged, err := Combine(cur, in)
	if err != nil {
		return false
	}
	s.stacks[t] = merged
	return true
}

// Remove splits quantity off the type's stack and returns the removed
// portion. An emptied stack is deleted.
func (s *Store) Remove(t Type, quantity float64) (bool, float64, float64) {
	cur, ok := s.stacks[t]
	if !ok || quantity <= 0 || quantity > cur.Quantity {
		return false, 0, 0
	}
	taken, rest, err := cur.Split(quantity)
	if err != nil {
		return false, 0, 0
	}
	if rest.Empty() {
		delete(s.stacks, t)
	} else {
		s.stacks[t] = rest
	}
	return true, taken.Quantity, taken.Quality
}

func (s *Store) Get(t Type) (Stack, bool) {
	st, ok := s.stacks[t]
	return st, ok
}

func (s *Store) Quantity(t Type) float64 {
	return s.stacks[t].Quantity
}

func (s *Store) Len() int { return len(s.stacks) }

func (s *Store) Capacity() float64 { return s.capacity }

func (s *Store) TotalWeight() float64 {
	total := 0.0
	for _, st := range s.stacks {
		total += st.Weight()
	}
	return total
}

func (s *Store) FreeCapacity() float64 {
	return math.Max(0, s.capacity-s.TotalWeight())
}

func (s *Store) OverCapacity() bool {
	return s.TotalWeight() > s.capacity
}

// Update applies one tick of decay and then the per-type season factor.
// Both are computed from the stacks as they were when Update began. Tools
// wear: their quality decays and the count of tools stays whole.
func (s *Store) Update(elapsed time.Duration, seasonEffects map[string]float64) {
	days := elapsed.Seconds() / secondsPerDay
	next := make(map[Type]Stack, len(s.stacks))
	for t, st := range s.stacks {
		p, _ := t.Properties()
		q := st.Quantity
		if p.Category == CategoryTools {
			st.Quality = math.Max(0, st.Quality*(1-p.DecayRate*days))
		} else {
			q *= 1 - p.DecayRate*days
		}
		if factor, ok := seasonEffects[string(t)]; ok {
			q *= factor
		}
		if q <= 0 {
			continue
		}
		st.Quantity = q
		next[t] = st
	}
	s.stacks = next
}

// Snapshot copies the stacks so callers can evaluate requirements without
// holding a reference into the store.
func (s *Store) Snapshot() map[Type]Stack {
	out := make(map[Type]Stack, len(s.stacks))
	for t, st := range s.stacks {
		out[t] = st
	}
	return out
}

type Info struct {
	Type     Type    `json:"type"`
	Quantity float64 `json:"quantity"`
	Quality  float64 `json:"quality"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
}

type StorageInfo struct {
	Capacity     float64 `json:"capacity"`
	TotalWeight  float64 `json:"total_weight"`
	OverCapacity bool    `json:"over_capacity"`
	Resources    []Info  `json:"resources"`
}

func (s *Store) Info(t Type) (Info, bool) {
	st, ok := s.stacks[t]
	if !ok {
		return Info{}, false
	}
	return Info{
		Type:     t,
		Quantity: st.Quantity,
		Quality:  st.Quality,
		Value:    st.Value(),
		Weight:   st.Weight(),
	}, true
}

func (s *Store) StorageInfo() StorageInfo {
	out := StorageInfo{
		Capacity:    s.capacity,
		TotalWeight: s.TotalWeight(),
		Resources:   make([]Info, 0, len(s.stacks)),
	}
	out.OverCapacity = out.TotalWeight > out.Capacity
	for _, t := range order {
		if info, ok := s.Info(t); ok {
			out.Resources = append(out.Resources, info)
		}
	}
	return out
}

// State is the persisted form. Entries stay raw so a malformed one can be
// skipped on restore.
type State struct {
	StorageCapacity float64                    `json:"storage_capacity"`
	Resources       map[string]json.RawMessage `json:"resources"`
}

type stackState struct {
	Quantity *float64 `json:"quantity"`
	Quality  *float64 `json:"quality"`
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *Store) State() (State, error) {
	out := State{StorageCapacity: s.capacity, Resources: make(map[string]json.RawMessage, len(s.stacks))}
	keys := make([]string, 0, len(s.stacks))
	for t := range s.stacks {
		keys = append(keys, string(t))
	}
	sort.Strings(keys)
	for _, k := range keys {
		st := s.stacks[Type(k)]
		b, err := json.Marshal(stackState{Quantity: &st.Quantity, Quality: &st.Quality})
		if err != nil {
			return State{}, fmt.Errorf("resource %s: %w", k, err)
		}
		out.Resources[k] = b
	}
	return out, nil
}

// Restore replaces the store contents. Missing quantity loads as 0 (and is
// dropped), missing quality as 1. Entries that fail are reported and skipped.
func (s *Store) Restore(state State) issue.List {
	var issues issue.List
	if state.StorageCapacity > 0 {
		s.capacity = state.StorageCapacity
	}
	s.stacks = map[Type]Stack{}
	for key, raw := range state.Resources {
		t, err := ParseType(key)
		if err != nil {
			issues.Add("resources", key, err)
			continue
		}
		var entry stackState
		if err := json.Unmarshal(raw, &entry); err != nil {
			issues.Add("resources", key, fmt.Errorf("decode stack: %w", err))
			continue
		}
		st := Stack{Type: t, Quality: 1}
		if entry.Quantity != nil {
			st.Quantity = *entry.Quantity
		}
		if entry.Quality != nil {
			st.Quality = *entry.Quality
		}
		if st.Quality < 0 || st.Quality > 1 {
			issues.Add("resources", key, fmt.Errorf("quality %.3f out of range", st.Quality))
			continue
		}
		if st.Quantity <= 0 {
			continue
		}
		s.stacks[t] = st
	}
	return issues
}
