package world

import (
	"fmt"
	"math"
	"strings"
	"time"

	"villagelife/internal/domain/issue"
)

type WeatherType string

const (
	WeatherClear  WeatherType = "CLEAR"
	WeatherCloudy WeatherType = "CLOUDY"
	WeatherRainy  WeatherType = "RAINY"
	WeatherStormy WeatherType = "STORMY"
	WeatherSnowy  WeatherType = "SNOWY"
	WeatherHot    WeatherType = "HOT"
)

var weatherTypes = []WeatherType{WeatherClear, WeatherCloudy, WeatherRainy, WeatherStormy, WeatherSnowy, WeatherHot}

func WeatherTypes() []WeatherType {
	out := make([]WeatherType, len(weatherTypes))
	copy(out, weatherTypes)
	return out
}

func (w WeatherType) Valid() bool {
	_, ok := baseEffects[w]
	return ok
}

func (w WeatherType) Extreme() bool {
	return w == WeatherStormy || w == WeatherHot
}

func ParseWeatherType(name string) (WeatherType, error) {
	w := WeatherType(strings.ToUpper(strings.TrimSpace(name)))
	if !w.Valid() {
		return "", &issue.UnknownName{Kind: "weather type", Name: name}
	}
	return w, nil
}

// TransitionWindow is how long before the current weather ends that the
// next one is drawn and blended in.
const TransitionWindow = 5 * time.Minute

// Effects are multipliers around 1.0 applied to gameplay rates.
type Effects struct {
	TaskSpeed    float64 `json:"task_speed"`
	ResourceRate float64 `json:"resource_rate"`
	ToolWear     float64 `json:"tool_wear"`
	EnergyCost   float64 `json:"energy_cost"`
}

func NeutralEffects() Effects {
	return Effects{TaskSpeed: 1, ResourceRate: 1, ToolWear: 1, EnergyCost: 1}
}

func (e Effects) Map() map[string]float64 {
	return map[string]float64{
		"task_speed":    e.TaskSpeed,
		"resource_rate": e.ResourceRate,
		"tool_wear":     e.ToolWear,
		"energy_cost":   e.EnergyCost,
	}
}

var baseEffects = map[WeatherType]Effects{
	WeatherClear:  {TaskSpeed: 1.0, ResourceRate: 1.0, ToolWear: 1.0, EnergyCost: 1.0},
	WeatherCloudy: {TaskSpeed: 0.9, ResourceRate: 0.9, ToolWear: 1.0, EnergyCost: 1.1},
	WeatherRainy:  {TaskSpeed: 0.7, ResourceRate: 0.8, ToolWear: 1.2, EnergyCost: 1.3},
	WeatherStormy: {TaskSpeed: 0.5, ResourceRate: 0.6, ToolWear: 1.5, EnergyCost: 1.5},
	WeatherSnowy:  {TaskSpeed: 0.6, ResourceRate: 0.7, ToolWear: 1.3, EnergyCost: 1.4},
	WeatherHot:    {TaskSpeed: 0.8, ResourceRate: 0.9, ToolWear: 1.1, EnergyCost: 1.3},
}

type Weather struct {
	Type      WeatherType   `json:"type"`
	Intensity float64       `json:"intensity"`
	Duration  time.Duration `json:"duration"`
	StartTime time.Time     `json:"start_time"`
}

func (w Weather) EndTime() time.Time {
	return w.StartTime.Add(w.Duration)
}

func (w Weather) Expired(now time.Time) bool {
	return !now.Before(w.EndTime())
}

func (w Weather) Remaining(now time.Time) time.Duration {
	r := w.EndTime().Sub(now)
	if r < 0 {
		return 0
	}
	return r
}

func blend(base, intensity float64) float64 {
	return 1 + (base-1)*intensity
}

// Effects scales the type's base table by intensity: intensity 0 is
// neutral, intensity 1 the full base effect.
func (w Weather) Effects() Effects {
	base, ok := baseEffects[w.Type]
	if !ok {
		return NeutralEffects()
	}
	i := math.Max(0, math.Min(1, w.Intensity))
	return Effects{
		TaskSpeed:    blend(base.TaskSpeed, i),
		ResourceRate: blend(base.ResourceRate, i),
		ToolWear:     blend(base.ToolWear, i),
		EnergyCost:   blend(base.EnergyCost, i),
	}
}

func IntensityLabel(intensity float64) string {
	switch {
	case intensity < 0.3:
		return "Mild"
	case intensity < 0.6:
		return "Moderate"
	case intensity < 0.8:
		return "Strong"
	default:
		return "Severe"
	}
}

// Describe returns the display name and intensity label, "Rainy", "Strong".
func (w Weather) Describe() (string, string) {
	lower := strings.ToLower(string(w.Type))
	if lower == "" {
		return "Clear", "Mild"
	}
	return strings.ToUpper(lower[:1]) + lower[1:], IntensityLabel(w.Intensity)
}

// Rand is the random source for weather draws.
type Rand interface {
	Float64() float64
}

type WeightedWeather struct {
	Type   WeatherType `json:"type" yaml:"type"`
	Weight float64     `json:"weight" yaml:"weight"`
}

func DefaultPatterns() map[Season][]WeightedWeather {
	return map[Season][]WeightedWeather{
		Spring: {{WeatherClear, 0.3}, {WeatherCloudy, 0.3}, {WeatherRainy, 0.3}, {WeatherStormy, 0.1}},
		Summer: {{WeatherClear, 0.4}, {WeatherHot, 0.3}, {WeatherCloudy, 0.2}, {WeatherStormy, 0.1}},
		Autumn: {{WeatherCloudy, 0.4}, {WeatherRainy, 0.3}, {WeatherClear, 0.2}, {WeatherStormy, 0.1}},
		Winter: {{WeatherSnowy, 0.4}, {WeatherCloudy, 0.3}, {WeatherClear, 0.2}, {WeatherStormy, 0.1}},
	}
}

// WeatherEngine keeps a current and a next weather slot and moves between
// them on a fixed transition window.
type WeatherEngine struct {
	rng        Rand
	patterns   map[Season][]WeightedWeather
	current    *Weather
	next       *Weather
	transition float64
}

// NewWeatherEngine uses DefaultPatterns for any season missing from
// patterns.
func NewWeatherEngine(rng Rand, patterns map[Season][]WeightedWeather) *WeatherEngine {
	merged := DefaultPatterns()
	for s, p := range patterns {
		if len(p) > 0 {
			merged[s] = p
		}
	}
	return &WeatherEngine{rng: rng, patterns: merged}
}

// Pick draws a weather type for the season, normalizing by total weight.
// Unknown seasons and empty patterns yield CLEAR.
func (e *WeatherEngine) Pick(season Season) WeatherType {
	pattern := e.patterns[season]
	total := 0.0
	for _, w := range pattern {
		if w.Weight > 0 {
			total += w.Weight
		}
	}
	if total <= 0 {
		return WeatherClear
	}
	roll := e.rng.Float64() * total
	acc := 0.0
	for _, w := range pattern {
		if w.Weight <= 0 {
			continue
		}
		acc += w.Weight
		if roll < acc {
			return w.Type
		}
	}
	return pattern[len(pattern)-1].Type
}

// Generate draws a complete weather starting at start.
func (e *WeatherEngine) Generate(season Season, start time.Time) Weather {
	t := e.Pick(season)
	minMinutes, span := 60, 181
	if t.Extreme() {
		minMinutes, span = 30, 91
	}
	minutes := minMinutes + int(e.rng.Float64()*float64(span))
	if minutes > minMinutes+span-1 {
		minutes = minMinutes + span - 1
	}
	return Weather{
		Type:      t,
		Intensity: 0.5 + e.rng.Float64()*0.5,
		Duration:  time.Duration(minutes) * time.Minute,
		StartTime: start,
	}
}

// Update advances the weather state machine to now. It reports true when
// the current weather changed.
func (e *WeatherEngine) Update(now time.Time, season Season) bool {
	changed := false
	switch {
	case (e.current == nil || e.current.Expired(now)) && e.next != nil:
		e.current = e.next
		e.next = nil
		e.transition = 0
		changed = true
	case e.current == nil:
		w := e.Generate(season, now)
		e.current = &w
		changed = true
	}

	if e.current != nil && e.next != nil {
		remaining := e.current.Remaining(now)
		e.transition = math.Max(0, math.Min(1, 1-float64(remaining)/float64(TransitionWindow)))
	}

	if e.current != nil && e.next == nil && e.current.Remaining(now) < TransitionWindow {
		w := e.Generate(season, e.current.EndTime())
		e.next = &w
	}
	return changed
}

func (e *WeatherEngine) Current() (Weather, bool) {
	if e.current == nil {
		return Weather{}, false
	}
	return *e.current, true
}

func (e *WeatherEngine) Next() (Weather, bool) {
	if e.next == nil {
		return Weather{}, false
	}
	return *e.next, true
}

func (e *WeatherEngine) TransitionProgress() float64 { return e.transition }

// CurrentType is CLEAR until the first weather is generated.
func (e *WeatherEngine) CurrentType() WeatherType {
	if e.current == nil {
		return WeatherClear
	}
	return e.current.Type
}

func (e *WeatherEngine) Effects() Effects {
	if e.current == nil {
		return NeutralEffects()
	}
	return e.current.Effects()
}

func (e *WeatherEngine) Describe() (string, string) {
	if e.current == nil {
		return "Clear", "Mild"
	}
	return e.current.Describe()
}

type WeatherState struct {
	TypeName        string    `json:"type_name"`
	Intensity       float64   `json:"intensity"`
	DurationSeconds float64   `json:"duration_seconds"`
	StartTime       time.Time `json:"start_time"`
}

type WeatherEngineState struct {
	CurrentWeather     *WeatherState `json:"current_weather"`
	NextWeather        *WeatherState `json:"next_weather"`
	TransitionProgress float64       `json:"transition_progress"`
}

func toWeatherState(w *Weather) *WeatherState {
	if w == nil {
		return nil
	}
	return &WeatherState{
		TypeName:        string(w.Type),
		Intensity:       w.Intensity,
		DurationSeconds: w.Duration.Seconds(),
		StartTime:       w.StartTime,
	}
}

func fromWeatherState(s *WeatherState) (*Weather, error) {
	if s == nil {
		return nil, nil
	}
	t, err := ParseWeatherType(s.TypeName)
	if err != nil {
		return nil, err
	}
	if s.Intensity < 0 || s.Intensity > 1 {
		return nil, fmt.Errorf("intensity %.3f out of range", s.Intensity)
	}
	return &Weather{
		Type:      t,
		Intensity: s.Intensity,
		Duration:  time.Duration(s.DurationSeconds * float64(time.Second)),
		StartTime: s.StartTime,
	}, nil
}

func (e *WeatherEngine) State() WeatherEngineState {
	return WeatherEngineState{
		CurrentWeather:     toWeatherState(e.current),
		NextWeather:        toWeatherState(e.next),
		TransitionProgress: e.transition,
	}
}

// Restore loads both slots. A slot that fails to decode is reported and
// left empty; the engine regenerates it on the next Update.
func (e *WeatherEngine) Restore(state WeatherEngineState) issue.List {
	var issues issue.List
	cur, err := fromWeatherState(state.CurrentWeather)
	issues.Add("weather", "current_weather", err)
	next, err := fromWeatherState(state.NextWeather)
	issues.Add("weather", "next_weather", err)
	e.current = cur
	e.next = next
	e.transition = math.Max(0, math.Min(1, state.TransitionProgress))
	return issues
}
