// Package modifier implements value modifiers applied to task progress,
// resource quality and rates.
package modifier

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"villagelife/internal/domain/issue"
)

type Kind string

const (
	KindMultiply     Kind = "multiply"
	KindAdd          Kind = "add"
	KindQualityClamp Kind = "quality"
	KindWeather      Kind = "weather"
	KindTime         Kind = "time"
)

var (
	ErrKindMismatch = errors.New("cannot combine modifiers of different kinds")
	ErrUnknownKind  = errors.New("unknown modifier kind")
	ErrDuplicate    = errors.New("modifier kind already registered")
)

// Modifier is a tagged variant. Weather and Phase are only meaningful for
// the weather and time kinds.
type Modifier struct {
	Kind     Kind    `json:"kind"`
	Strength float64 `json:"strength"`
	Weather  string  `json:"weather,omitempty"`
	Phase    string  `json:"phase,omitempty"`
}

func Multiply(s float64) Modifier { return Modifier{Kind: KindMultiply, Strength: s} }

func Add(s float64) Modifier { return Modifier{Kind: KindAdd, Strength: s} }

func QualityClamp(s float64) Modifier { return Modifier{Kind: KindQualityClamp, Strength: s} }

// Weather scales a rate by the multiplier the named weather yields.
func Weather(weather string, multiplier float64) Modifier {
	return Modifier{Kind: KindWeather, Strength: multiplier, Weather: weather}
}

// Time scales a rate by a factor tied to a time-of-day phase.
func Time(phase string, factor float64) Modifier {
	return Modifier{Kind: KindTime, Strength: factor, Phase: phase}
}

func (m Modifier) builtin() bool {
	switch m.Kind {
	case KindMultiply, KindAdd, KindQualityClamp, KindWeather, KindTime:
		return true
	}
	return false
}

// Apply dispatches on Kind. Unknown kinds leave the value unchanged; use a
// Registry for application-defined kinds.
func (m Modifier) Apply(value float64) float64 {
	switch m.Kind {
	case KindMultiply, KindWeather, KindTime:
		return value * m.Strength
	case KindAdd:
		return value + m.Strength
	case KindQualityClamp:
		return math.Max(0, math.Min(1, value*m.Strength))
	default:
		return value
	}
}

// Combine merges two modifiers of the same kind by summing strengths.
func Combine(a, b Modifier) (Modifier, error) {
	if a.Kind != b.Kind {
		return Modifier{}, fmt.Errorf("%w: %s and %s", ErrKindMismatch, a.Kind, b.Kind)
	}
	out := a
	out.Strength = a.Strength + b.Strength
	return out, nil
}

// ApplyFunc is the behavior of a registered modifier kind.
type ApplyFunc func(m Modifier, value float64) float64

// Registry holds the built-in kinds plus any the application registers.
// It is constructed per simulation, never shared globally.
type Registry struct {
	mu     sync.RWMutex
	custom map[Kind]ApplyFunc
}

func NewRegistry() *Registry {
	return &Registry{custom: map[Kind]ApplyFunc{}}
}

func (r *Registry) Register(kind Kind, fn ApplyFunc) error {
	if strings.TrimSpace(string(kind)) == "" || fn == nil {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if (Modifier{Kind: kind}).builtin() {
		return fmt.Errorf("%w: %s", ErrDuplicate, kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.custom[kind]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, kind)
	}
	r.custom[kind] = fn
	return nil
}

func (r *Registry) Known(kind Kind) bool {
	if (Modifier{Kind: kind}).builtin() {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.custom[kind]
	return ok
}

func (r *Registry) Kinds() []Kind {
	out := []Kind{KindMultiply, KindAdd, KindQualityClamp, KindWeather, KindTime}
	r.mu.RLock()
	extra := make([]string, 0, len(r.custom))
	for k := range r.custom {
		extra = append(extra, string(k))
	}
	r.mu.RUnlock()
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, Kind(k))
	}
	return out
}

func (r *Registry) Apply(m Modifier, value float64) (float64, error) {
	if m.builtin() {
		return m.Apply(value), nil
	}
	r.mu.RLock()
	fn, ok := r.custom[m.Kind]
	r.mu.RUnlock()
	if !ok {
		return value, &issue.UnknownName{Kind: "modifier kind", Name: string(m.Kind), Err: ErrUnknownKind}
	}
	return fn(m, value), nil
}

// ApplyAll folds the modifiers over value in order. Unknown kinds are
// skipped and reported.
func (r *Registry) ApplyAll(value float64, mods []Modifier) (float64, error) {
	var errs []error
	for _, m := range mods {
		v, err := r.Apply(m, value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		value = v
	}
	return value, errors.Join(errs...)
}

// Product multiplies the built-in modifiers' effect on 1.0.
func Product(mods []Modifier) float64 {
	v := 1.0
	for _, m := range mods {
		v = m.Apply(v)
	}
	return v
}
