package world

import "time"

// Snapshot freezes the world at one tick boundary. It is passed by value so
// every evaluation within a tick sees the same instant.
type Snapshot struct {
	Instant        time.Time   `json:"instant"`
	Date           GameDate    `json:"date"`
	Formatted      string      `json:"formatted"`
	TimeOfDay      string      `json:"time_of_day"`
	IsDaytime      bool        `json:"is_daytime"`
	DayProgress    float64     `json:"day_progress"`
	SeasonProgress float64     `json:"season_progress"`
	YearProgress   float64     `json:"year_progress"`
	Weather        WeatherType `json:"weather"`
	Intensity      float64     `json:"intensity"`
	IntensityLabel string      `json:"intensity_label"`
	Effects        Effects     `json:"effects"`
	Transition     float64     `json:"transition_progress"`
}

func (s Snapshot) Season() Season { return s.Date.Season }

func (s Snapshot) Hour() int { return s.Date.Hour }

// Capture reads the clock and the weather engine together.
func Capture(clock *Clock, weather *WeatherEngine) Snapshot {
	d := clock.Date()
	snap := Snapshot{
		Instant:        d.Time(),
		Date:           d,
		Formatted:      d.Format(),
		TimeOfDay:      d.TimeOfDay(),
		IsDaytime:      d.IsDaytime(),
		DayProgress:    d.DayProgress(),
		SeasonProgress: d.SeasonProgress(),
		YearProgress:   d.YearProgress(),
		Weather:        weather.CurrentType(),
		Effects:        weather.Effects(),
		Transition:     weather.TransitionProgress(),
	}
	if cur, ok := weather.Current(); ok {
		snap.Intensity = cur.Intensity
	}
	_, snap.IntensityLabel = weather.Describe()
	return snap
}
