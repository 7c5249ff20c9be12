// Package outofhours decides whether a notification may go out now or has to
// wait for the next business window.
package outofhours

import (
	"fmt"
	"hash/fnv"
	"time"
)

// Clock returns the current instant.
type Clock func() time.Time

// Jitter returns an offset added to the start of the next window so deferred
// jobs do not all fire on the hour. The same key must always get the same
// offset, otherwise a resubmitted job lands on a new trigger and is queued
// twice.
type Jitter func(key string) time.Duration

// MinuteJitter spreads keys over the whole minutes of the first hour using
// an FNV-1a hash of the key.
func MinuteJitter(key string) time.Duration {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return time.Duration(h.Sum32()%60) * time.Minute
}

func NoJitter(string) time.Duration { return 0 }

type Calculator struct {
	now       Clock
	jitter    Jitter
	loc       *time.Location
	startHour int
	endHour   int
}

// NewCalculator builds a gate for the window [startHour, endHour) in zone.
func NewCalculator(now Clock, jitter Jitter, zone string, startHour, endHour int) (*Calculator, error) {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("invalid business window [%d,%d)", startHour, endHour)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", zone, err)
	}
	if now == nil {
		now = time.Now
	}
	if jitter == nil {
		jitter = MinuteJitter
	}
	return &Calculator{now: now, jitter: jitter, loc: loc, startHour: startHour, endHour: endHour}, nil
}

// IsOutOfHours reports whether the current local hour falls outside the
// window. The end hour itself is out of hours.
func (c *Calculator) IsOutOfHours() bool {
	hour := c.now().In(c.loc).Hour()
	return hour < c.startHour || hour >= c.endHour
}

// ShouldDefer reports whether an event with the given out-of-hours policy
// has to wait.
func (c *Calculator) ShouldDefer(allowOutOfHours bool) bool {
	return !allowOutOfHours && c.IsOutOfHours()
}

// StartOfNextInHoursPeriod returns the next window start plus the jitter for
// key, in the location of the injected clock.
func (c *Calculator) StartOfNextInHoursPeriod(key string) time.Time {
	now := c.now()
	local := now.In(c.loc)

	day := local
	if local.Hour() >= c.endHour {
		day = local.AddDate(0, 0, 1)
	}

	// time.Date resolves the offset for that calendar day, so a window on
	// the far side of a DST change still opens at startHour local time.
	start := time.Date(day.Year(), day.Month(), day.Day(), c.startHour, 0, 0, 0, c.loc)
	return start.Add(c.jitter(key)).In(now.Location())
}
