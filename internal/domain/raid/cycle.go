// internal/domain/raid/cycle.go
package raid

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultCadenceDays is the every-other-day raid rhythm.
const DefaultCadenceDays = 2

// CycleConfig describes when raid notifications fire.
type CycleConfig struct {
	StartDate   time.Time      // Only the calendar date is used
	FireHour    int            // 0..23
	FireMinute  int            // 0..59
	CadenceDays int            // Fire every CadenceDays days counted from StartDate
	Location    *time.Location // Timezone the date and time-of-day are evaluated in; nil means UTC
	Force       bool           // Debug mode: every tick is a fire tick
}

func (c CycleConfig) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c CycleConfig) cadence() int {
	if c.CadenceDays < 1 {
		return DefaultCadenceDays
	}
	return c.CadenceDays
}

// DaysElapsed returns the number of calendar days between StartDate and now.
// It is negative when now is before StartDate.
func (c CycleConfig) DaysElapsed(now time.Time) int {
	local := now.In(c.location())
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(c.StartDate.Year(), c.StartDate.Month(), c.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	// Both values sit on UTC midnight, so the difference is an exact number of days.
	return int(today.Sub(start) / (24 * time.Hour))
}

// IsEligibleDay reports whether now falls on a cadence day.
func (c CycleConfig) IsEligibleDay(now time.Time) bool {
	mod := c.DaysElapsed(now) % c.cadence()
	if mod < 0 {
		mod += c.cadence()
	}
	return mod == 0
}

// IsFireMinute reports whether the hour and minute of now equal the configured fire time.
// Seconds are ignored.
func (c CycleConfig) IsFireMinute(now time.Time) bool {
	local := now.In(c.location())
	return local.Hour() == c.FireHour && local.Minute() == c.FireMinute
}

// ShouldFire decides whether a tick at now is a fire tick.
func (c CycleConfig) ShouldFire(now time.Time) bool {
	if c.Force {
		return true
	}
	return c.IsEligibleDay(now) && c.IsFireMinute(now)
}

// MinuteKey identifies the calendar minute of now in the cycle timezone.
// The idle loop stores it as the last-fired marker.
func (c CycleConfig) MinuteKey(now time.Time) string {
	return now.In(c.location()).Format("2006-01-02 15:04")
}

// FireTimeLabel formats the fire time as HH:MM.
func (c CycleConfig) FireTimeLabel() string {
	return fmt.Sprintf("%02d:%02d", c.FireHour, c.FireMinute)
}

// ParseFireTime parses "HH:MM" or "HH:MM:SS". Seconds are validated and then dropped.
func ParseFireTime(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, fmt.Errorf("invalid fire time %q: expected HH:MM or HH:MM:SS", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid fire time %q: bad hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid fire time %q: bad minute", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, 0, fmt.Errorf("invalid fire time %q: bad second", s)
		}
	}
	return hour, minute, nil
}
