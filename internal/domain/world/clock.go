package world

import (
	"fmt"
	"math"
	"time"

	"villagelife/internal/domain/issue"
)

const (
	DefaultTimeScale = 60.0
	DefaultFixedStep = time.Second / 60
	DefaultMaxFrame  = 250 * time.Millisecond
)

// ClockConfig configures the fixed-timestep game clock. TimeScale is game
// minutes per real second.
type ClockConfig struct {
	Start     GameDate
	TimeScale float64
	FixedStep time.Duration
	MaxFrame  time.Duration
	RealStart time.Time
}

// Clock accumulates real frame time and advances the game date one fixed
// step at a time.
type Clock struct {
	cfg         ClockConfig
	date        GameDate
	accumulator time.Duration
	lastUpdate  time.Time
	carry       float64
	lastAdvance int
	ticks       uint64
}

func NewClock(cfg ClockConfig) *Clock {
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = DefaultTimeScale
	}
	if cfg.FixedStep <= 0 {
		cfg.FixedStep = DefaultFixedStep
	}
	if cfg.MaxFrame <= 0 {
		cfg.MaxFrame = DefaultMaxFrame
	}
	if cfg.MaxFrame < cfg.FixedStep {
		cfg.MaxFrame = cfg.FixedStep
	}
	if cfg.Start.Validate() != nil {
		cfg.Start = DefaultStartDate()
	}
	return &Clock{cfg: cfg, date: cfg.Start}
}

func DefaultClock() *Clock {
	return NewClock(ClockConfig{})
}

// Update feeds the wall clock reading. The first call only primes the
// clock. When the accumulator holds a full step, exactly one step is
// consumed, the date advances and Update reports true.
func (c *Clock) Update(now time.Time) bool {
	if c.lastUpdate.IsZero() {
		c.lastUpdate = now
		if c.cfg.RealStart.IsZero() {
			c.cfg.RealStart = now
		}
		return false
	}
	frame := now.Sub(c.lastUpdate)
	c.lastUpdate = now
	if frame < 0 {
		frame = 0
	}
	if frame > c.cfg.MaxFrame {
		frame = c.cfg.MaxFrame
	}
	c.accumulator += frame
	if c.accumulator < c.cfg.FixedStep {
		return false
	}
	c.accumulator -= c.cfg.FixedStep
	c.step()
	return true
}

func (c *Clock) step() {
	// Steps are whole nanoseconds, so 1/60s truncates to 16.666666ms. Work
	// in micro-minutes to keep that step at exactly one minute at scale 60.
	micro := math.Round(c.cfg.FixedStep.Seconds()*c.cfg.TimeScale*1e6) + c.carry
	whole := math.Floor(micro / 1e6)
	c.carry = micro - whole*1e6
	c.lastAdvance = int(whole)
	c.date = c.date.Advance(c.lastAdvance)
	c.ticks++
}

// Pending reports whether another full step is already accumulated.
func (c *Clock) Pending() bool {
	return c.accumulator >= c.cfg.FixedStep
}

// Alpha is the fraction of the next tick already elapsed, in [0,1).
func (c *Clock) Alpha() float64 {
	step := c.cfg.FixedStep.Seconds()
	a := math.Mod(c.accumulator.Seconds(), step) / step
	if a < 0 || a >= 1 {
		return 0
	}
	return a
}

// AdvanceMinutes moves the date directly, bypassing the accumulator.
func (c *Clock) AdvanceMinutes(minutes int) {
	c.date = c.date.Advance(minutes)
	c.lastAdvance = minutes
}

// LastAdvance is the game time the most recent tick moved forward.
func (c *Clock) LastAdvance() time.Duration {
	return time.Duration(c.lastAdvance) * time.Minute
}

func (c *Clock) Date() GameDate { return c.date }
func (c *Clock) Now() time.Time { return c.date.Time() }
func (c *Clock) Season() Season { return c.date.Season }
func (c *Clock) Ticks() uint64 { return c.ticks }
func (c *Clock) TimeScale() float64 { return c.cfg.TimeScale }
func (c *Clock) FixedStep() time.Duration { return c.cfg.FixedStep }

func (c *Clock) TimeOfDay() string { return c.date.TimeOfDay() }
func (c *Clock) IsDaytime() bool { return c.date.IsDaytime() }
func (c *Clock) DayProgress() float64 { return c.date.DayProgress() }
func (c *Clock) SeasonProgress() float64 { return c.date.SeasonProgress() }
func (c *Clock) YearProgress() float64 { return c.date.YearProgress() }
func (c *Clock) SeasonEffects() SeasonEffects { return EffectsFor(c.date.Season) }
func (c *Clock) Format() string { return c.date.Format() }

type DateState struct {
	Year       int    `json:"year"`
	SeasonName string `json:"season_name"`
	Day        int    `json:"day"`
	Hour       int    `json:"hour"`
	Minute     int    `json:"minute"`
}

type ClockState struct {
	RealStartTime time.Time `json:"real_start_time"`
	GameDate      DateState `json:"game_date"`
	TimeScale     float64   `json:"time_scale"`
}

func (c *Clock) State() ClockState {
	return ClockState{
		RealStartTime: c.cfg.RealStart,
		GameDate: DateState{
			Year:       c.date.Year,
			SeasonName: string(c.date.Season),
			Day:        c.date.Day,
			Hour:       c.date.Hour,
			Minute:     c.date.Minute,
		},
		TimeScale: c.cfg.TimeScale,
	}
}

// Restore loads a saved clock. An invalid date is reported and the current
// date kept; the accumulator restarts empty.
func (c *Clock) Restore(state ClockState) issue.List {
	var issues issue.List
	if !state.RealStartTime.IsZero() {
		c.cfg.RealStart = state.RealStartTime
	}
	if state.TimeScale > 0 {
		c.cfg.TimeScale = state.TimeScale
	}
	season, err := ParseSeason(state.GameDate.SeasonName)
	if err != nil {
		issues.Add("time", "game_date.season_name", err)
		return issues
	}
	d := GameDate{
		Year:   state.GameDate.Year,
		Season: season,
		Day:    state.GameDate.Day,
		Hour:   state.GameDate.Hour,
		Minute: state.GameDate.Minute,
	}
	if err := d.Validate(); err != nil {
		issues.Add("time", "game_date", fmt.Errorf("invalid date: %w", err))
		return issues
	}
	c.date = d
	c.accumulator = 0
	c.carry = 0
	c.lastUpdate = time.Time{}
	return issues
}
