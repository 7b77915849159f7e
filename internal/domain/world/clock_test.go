package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameDate_AdvanceMinutes(t *testing.T) {
	d := DefaultStartDate().Advance(75)
	if d.Hour != 7 || d.Minute != 15 {
		t.Fatalf("advance(75) from 06:00 got=%02d:%02d want=07:15", d.Hour, d.Minute)
	}
}

func TestGameDate_ThirtyDaysTurnsSeason(t *testing.T) {
	for _, start := range []GameDate{
		{Year: 1, Season: Spring, Day: 1, Hour: 6},
		{Year: 3, Season: Summer, Day: 1, Hour: 0},
		{Year: 2, Season: Winter, Day: 1, Hour: 23, Minute: 59},
	} {
		got := start.Advance(30 * MinutesPerDay)
		if got.Season != start.Season.Next() || got.Day != 1 {
			t.Fatalf("from %+v got season=%s day=%d want season=%s day=1", start, got.Season, got.Day, start.Season.Next())
		}
		if start.Season == Winter && got.Year != start.Year+1 {
			t.Fatalf("winter wrap should roll year: got=%d want=%d", got.Year, start.Year+1)
		}
	}
}

func TestGameDate_OneHundredTwentyDaysTurnsYear(t *testing.T) {
	start := GameDate{Year: 1, Season: Spring, Day: 1, Hour: 6}
	got := start.Advance(DaysPerYear * MinutesPerDay)
	want := GameDate{Year: 2, Season: Spring, Day: 1, Hour: 6}
	if got != want {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
}

func TestGameDate_Progress(t *testing.T) {
	noon := GameDate{Year: 1, Season: Summer, Day: 16, Hour: 12}
	if noon.DayProgress() != 0.5 {
		t.Fatalf("day progress at noon got=%v want=0.5", noon.DayProgress())
	}
	assert.InDelta(t, 0.5, noon.SeasonProgress(), 1e-9)
	assert.InDelta(t, float64(30+15)/120, noon.YearProgress(), 1e-9)
}

func TestGameDate_TimeOfDayAndFormat(t *testing.T) {
	cases := map[int]string{0: "night", 4: "night", 5: "dawn", 9: "morning", 12: "noon", 18: "evening", 20: "dusk", 23: "night"}
	for hour, want := range cases {
		d := GameDate{Year: 1, Season: Spring, Day: 1, Hour: hour}
		if got := d.TimeOfDay(); got != want {
			t.Fatalf("hour %d got=%q want=%q", hour, got, want)
		}
	}
	if got := DefaultStartDate().Format(); got != "Year 1, Spring, Day 01 - 06:00 (dawn)" {
		t.Fatalf("format got=%q", got)
	}
	if (GameDate{Year: 1, Season: Spring, Day: 1, Hour: 20}).IsDaytime() {
		t.Fatalf("20:00 should not be daytime")
	}
}

func TestMinutesToNextPhase(t *testing.T) {
	cases := []struct {
		hour, minute, want int
	}{
		{6, 0, 120},
		{21, 30, 30},
		{23, 0, 6 * 60},
		{2, 15, 2*60 + 45},
	}
	for _, c := range cases {
		d := GameDate{Year: 1, Season: Spring, Day: 1, Hour: c.hour, Minute: c.minute}
		if got := MinutesToNextPhase(d); got != c.want {
			t.Fatalf("%02d:%02d got=%d want=%d", c.hour, c.minute, got, c.want)
		}
	}
}

func TestGameDate_TimeProjectionIsMonotonic(t *testing.T) {
	a := DefaultStartDate()
	b := a.Advance(1)
	if !b.Time().After(a.Time()) {
		t.Fatalf("expected later date to project later")
	}
	if got := DateFromMinutes(b.TotalMinutes()); got != b {
		t.Fatalf("round trip got=%+v want=%+v", got, b)
	}
}

func TestClock_FixedStepConsumesOneStepPerUpdate(t *testing.T) {
	c := NewClock(ClockConfig{FixedStep: 100 * time.Millisecond, TimeScale: 10})
	base := time.Unix(1000, 0)

	if c.Update(base) {
		t.Fatalf("first update only primes the clock")
	}
	if c.Update(base.Add(50 * time.Millisecond)) {
		t.Fatalf("half a step must not fire")
	}
	before := c.Date()
	if !c.Update(base.Add(120 * time.Millisecond)) {
		t.Fatalf("expected tick once a full step accumulated")
	}
	// 0.1s * 10 minutes/s
	if got := c.Date(); got != before.Advance(1) {
		t.Fatalf("date got=%+v want=%+v", got, before.Advance(1))
	}
	assert.InDelta(t, 0.2, c.Alpha(), 1e-9)
	assert.Equal(t, time.Minute, c.LastAdvance())
}

func TestClock_DefaultStepAdvancesOneMinute(t *testing.T) {
	c := DefaultClock()
	start := c.Date()
	base := time.Unix(1000, 0)
	c.Update(base)

	require.True(t, c.Update(base.Add(DefaultFixedStep)))
	assert.Equal(t, time.Minute, c.LastAdvance())
	assert.Equal(t, start.Advance(1), c.Date())

	now := base.Add(DefaultFixedStep)
	for i := 0; i < 59; i++ {
		now = now.Add(DefaultFixedStep)
		require.True(t, c.Update(now))
		require.Equal(t, time.Minute, c.LastAdvance(), "step %d", i+2)
	}
	assert.Equal(t, int64(60), c.Date().TotalMinutes()-start.TotalMinutes())
}

func TestClock_AlphaStaysBelowOne(t *testing.T) {
	c := NewClock(ClockConfig{FixedStep: 10 * time.Millisecond, MaxFrame: time.Second})
	now := time.Unix(0, 0)
	c.Update(now)
	for i := 0; i < 200; i++ {
		now = now.Add(time.Duration(i%7+3) * time.Millisecond)
		c.Update(now)
		a := c.Alpha()
		if a < 0 || a >= 1 {
			t.Fatalf("alpha out of range at step %d: %v", i, a)
		}
	}
}

func TestClock_CarriesFractionalMinutes(t *testing.T) {
	c := NewClock(ClockConfig{FixedStep: 100 * time.Millisecond, TimeScale: 5})
	now := time.Unix(0, 0)
	c.Update(now)
	start := c.Date().TotalMinutes()
	for i := 0; i < 4; i++ {
		now = now.Add(100 * time.Millisecond)
		require.True(t, c.Update(now))
	}
	// 4 ticks of half a minute
	assert.Equal(t, int64(2), c.Date().TotalMinutes()-start)
}

func TestClock_MaxFrameLimitsBacklog(t *testing.T) {
	c := NewClock(ClockConfig{FixedStep: 10 * time.Millisecond, MaxFrame: 30 * time.Millisecond})
	now := time.Unix(0, 0)
	c.Update(now)
	require.True(t, c.Update(now.Add(time.Hour)))
	fired := 1
	for c.Pending() {
		require.True(t, c.Update(now.Add(time.Hour)))
		fired++
	}
	assert.Equal(t, 3, fired)
}

func TestClock_StateRoundTrip(t *testing.T) {
	c := NewClock(ClockConfig{Start: GameDate{Year: 4, Season: Autumn, Day: 12, Hour: 21, Minute: 7}, TimeScale: 30, RealStart: time.Unix(55, 0).UTC()})
	restored := DefaultClock()
	issues := restored.Restore(c.State())
	require.Empty(t, issues)
	assert.Equal(t, c.Date(), restored.Date())
	assert.Equal(t, 30.0, restored.TimeScale())
	assert.Equal(t, "AUTUMN", c.State().GameDate.SeasonName)
}

func TestClock_RestoreRejectsBadSeason(t *testing.T) {
	c := DefaultClock()
	state := c.State()
	state.GameDate.SeasonName = "MONSOON"
	issues := c.Restore(state)
	require.Len(t, issues, 1)
	assert.Equal(t, DefaultStartDate(), c.Date())
}

func TestParseSeason_AcceptsFall(t *testing.T) {
	s, err := ParseSeason("fall")
	require.NoError(t, err)
	assert.Equal(t, Autumn, s)
}
