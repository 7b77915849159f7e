package world

import (
	"fmt"
	"strings"
	"time"

	"villagelife/internal/domain/issue"
)

const (
	MinutesPerHour = 60
	HoursPerDay    = 24
	MinutesPerDay  = MinutesPerHour * HoursPerDay
	DaysPerSeason  = 30
	SeasonsPerYear = 4
	DaysPerYear    = DaysPerSeason * SeasonsPerYear
)

// Epoch is the wall-clock projection of Year 1, Spring, Day 1, 00:00. Game
// instants are Epoch plus elapsed game time.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

type Season string

const (
	Spring Season = "SPRING"
	Summer Season = "SUMMER"
	Autumn Season = "AUTUMN"
	Winter Season = "WINTER"
)

var seasons = []Season{Spring, Summer, Autumn, Winter}

func Seasons() []Season {
	out := make([]Season, len(seasons))
	copy(out, seasons)
	return out
}

func (s Season) Index() int {
	for i, v := range seasons {
		if v == s {
			return i
		}
	}
	return -1
}

func (s Season) Valid() bool { return s.Index() >= 0 }

func (s Season) Next() Season {
	i := s.Index()
	if i < 0 {
		return Spring
	}
	return seasons[(i+1)%len(seasons)]
}

// Title is the display form, "Spring".
func (s Season) Title() string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(string(s))
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// ParseSeason is case-insensitive and accepts FALL for AUTUMN.
func ParseSeason(name string) (Season, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "FALL" {
		return Autumn, nil
	}
	s := Season(n)
	if !s.Valid() {
		return "", &issue.UnknownName{Kind: "season", Name: name}
	}
	return s, nil
}

type GameDate struct {
	Year   int    `json:"year"`
	Season Season `json:"season"`
	Day    int    `json:"day"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

func DefaultStartDate() GameDate {
	return GameDate{Year: 1, Season: Spring, Day: 1, Hour: 6, Minute: 0}
}

func (d GameDate) Validate() error {
	switch {
	case d.Year < 1:
		return fmt.Errorf("year %d must be >= 1", d.Year)
	case !d.Season.Valid():
		return &issue.UnknownName{Kind: "season", Name: string(d.Season)}
	case d.Day < 1 || d.Day > DaysPerSeason:
		return fmt.Errorf("day %d out of range 1..%d", d.Day, DaysPerSeason)
	case d.Hour < 0 || d.Hour >= HoursPerDay:
		return fmt.Errorf("hour %d out of range 0..23", d.Hour)
	case d.Minute < 0 || d.Minute >= MinutesPerHour:
		return fmt.Errorf("minute %d out of range 0..59", d.Minute)
	}
	return nil
}

// TotalMinutes counts game minutes since Year 1, Spring, Day 1, 00:00.
func (d GameDate) TotalMinutes() int64 {
	days := int64(d.Year-1)*DaysPerYear + int64(d.Season.Index())*DaysPerSeason + int64(d.Day-1)
	return days*MinutesPerDay + int64(d.Hour)*MinutesPerHour + int64(d.Minute)
}

func DateFromMinutes(total int64) GameDate {
	if total < 0 {
		total = 0
	}
	days := total / MinutesPerDay
	rem := total % MinutesPerDay
	year := days/DaysPerYear + 1
	dayOfYear := days % DaysPerYear
	return GameDate{
		Year:   int(year),
		Season: seasons[dayOfYear/DaysPerSeason],
		Day:    int(dayOfYear%DaysPerSeason) + 1,
		Hour:   int(rem / MinutesPerHour),
		Minute: int(rem % MinutesPerHour),
	}
}

// Advance wraps minute, hour, day, season and year in that order.
func (d GameDate) Advance(minutes int) GameDate {
	if minutes <= 0 {
		return d
	}
	return DateFromMinutes(d.TotalMinutes() + int64(minutes))
}

func (d GameDate) Time() time.Time {
	return Epoch.Add(time.Duration(d.TotalMinutes()) * time.Minute)
}

func (d GameDate) DayProgress() float64 {
	return float64(d.Hour*MinutesPerHour+d.Minute) / MinutesPerDay
}

func (d GameDate) SeasonProgress() float64 {
	return float64(d.Day-1) / DaysPerSeason
}

func (d GameDate) YearProgress() float64 {
	return float64(d.Season.Index()*DaysPerSeason+d.Day-1) / DaysPerYear
}

type dayPhase struct {
	hour  int
	label string
}

var dayNightCycle = []dayPhase{
	{5, "dawn"},
	{8, "morning"},
	{12, "noon"},
	{17, "evening"},
	{20, "dusk"},
	{22, "night"},
}

func (d GameDate) TimeOfDay() string {
	label := "night"
	for _, p := range dayNightCycle {
		if d.Hour >= p.hour {
			label = p.label
		}
	}
	return label
}

// MinutesToNextPhase counts game minutes until the time-of-day label
// next changes.
func MinutesToNextPhase(d GameDate) int {
	now := d.Hour*60 + d.Minute
	for _, p := range dayNightCycle {
		if start := p.hour * 60; start > now {
			return start - now
		}
	}
	return MinutesPerDay - now + dayNightCycle[0].hour*60
}

func (d GameDate) IsDaytime() bool {
	return d.Hour >= 5 && d.Hour < 20
}

// Format renders "Year 1, Spring, Day 01 - 06:00 (dawn)".
func (d GameDate) Format() string {
	return fmt.Sprintf("Year %d, %s, Day %02d - %02d:%02d (%s)",
		d.Year, d.Season.Title(), d.Day, d.Hour, d.Minute, d.TimeOfDay())
}

type SeasonEffects struct {
	CropGrowth float64 `json:"crop_growth"`
	EnergyCost float64 `json:"energy_cost"`
	Foraging   float64 `json:"foraging"`
}

func (e SeasonEffects) Map() map[string]float64 {
	return map[string]float64{
		"crop_growth": e.CropGrowth,
		"energy_cost": e.EnergyCost,
		"foraging":    e.Foraging,
	}
}

var seasonalEffects = map[Season]SeasonEffects{
	Spring: {CropGrowth: 1.2, EnergyCost: 1.0, Foraging: 1.2},
	Summer: {CropGrowth: 1.5, EnergyCost: 1.2, Foraging: 1.0},
	Autumn: {CropGrowth: 0.8, EnergyCost: 1.0, Foraging: 1.5},
	Winter: {CropGrowth: 0.3, EnergyCost: 1.5, Foraging: 0.5},
}

func EffectsFor(s Season) SeasonEffects {
	if e, ok := seasonalEffects[s]; ok {
		return e
	}
	return SeasonEffects{CropGrowth: 1, EnergyCost: 1, Foraging: 1}
}
