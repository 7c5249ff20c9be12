package outofhours

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

func createTestCalculator(t *testing.T, now time.Time) *Calculator {
	t.Helper()
	c, err := NewCalculator(func() time.Time { return now }, NoJitter, "Europe/London", 9, 17)
	require.NoError(t, err)
	return c
}

func TestCalculator_IsOutOfHours(t *testing.T) {
	loc := london(t)
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"midday is in hours", time.Date(2018, 9, 18, 12, 0, 0, 0, loc), false},
		{"start hour is in hours", time.Date(2018, 9, 18, 9, 0, 0, 0, loc), false},
		{"evening is out of hours", time.Date(2018, 9, 18, 20, 0, 0, 0, loc), true},
		{"end hour is out of hours", time.Date(2018, 9, 18, 17, 0, 0, 0, loc), true},
		{"UTC afternoon during BST is out of hours", time.Date(2018, 10, 5, 16, 1, 0, 0, time.UTC), true},
		{"UTC afternoon during GMT is in hours", time.Date(2018, 12, 5, 16, 1, 0, 0, time.UTC), false},
		{"UTC morning during BST is in hours", time.Date(2018, 10, 5, 8, 1, 0, 0, time.UTC), false},
		{"UTC morning during GMT is out of hours", time.Date(2018, 12, 5, 8, 1, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, createTestCalculator(t, tt.now).IsOutOfHours())
		})
	}
}

func TestCalculator_ShouldDefer(t *testing.T) {
	loc := london(t)
	night := createTestCalculator(t, time.Date(2018, 9, 18, 22, 0, 0, 0, loc))
	day := createTestCalculator(t, time.Date(2018, 9, 18, 11, 0, 0, 0, loc))

	assert.False(t, night.ShouldDefer(true))
	assert.True(t, night.ShouldDefer(false))
	assert.False(t, day.ShouldDefer(false))
}

func TestCalculator_StartOfNextInHoursPeriod(t *testing.T) {
	loc := london(t)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "after close opens next morning",
			now:  time.Date(2018, 9, 18, 17, 0, 0, 0, loc),
			want: time.Date(2018, 9, 19, 9, 0, 0, 0, loc),
		},
		{
			name: "before opening opens same morning",
			now:  time.Date(2018, 9, 18, 1, 0, 0, 0, loc),
			want: time.Date(2018, 9, 18, 9, 0, 0, 0, loc),
		},
		{
			name: "returned in caller zone",
			now:  time.Date(2018, 10, 5, 20, 0, 0, 0, time.UTC),
			want: time.Date(2018, 10, 6, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "clocks going back overnight",
			now:  time.Date(2018, 10, 27, 18, 0, 0, 0, loc),
			want: time.Date(2018, 10, 28, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := createTestCalculator(t, tt.now).StartOfNextInHoursPeriod("1001_question_round_issued")
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
			assert.Equal(t, tt.now.Location(), got.Location())
		})
	}
}

func TestCalculator_NextStartAlwaysAtStartHour(t *testing.T) {
	loc := london(t)
	base := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

	for h := 0; h < 365*24; h += 7 {
		now := base.Add(time.Duration(h) * time.Hour)
		c := createTestCalculator(t, now)
		if !c.IsOutOfHours() {
			continue
		}
		next := c.StartOfNextInHoursPeriod("1001_question_round_issued")
		require.Equal(t, 9, next.In(loc).Hour(), "from %s", now)
		require.True(t, next.After(now), "from %s", now)
	}
}

func TestCalculator_JitterIsApplied(t *testing.T) {
	now := time.Date(2018, 9, 18, 20, 0, 0, 0, london(t))
	c, err := NewCalculator(func() time.Time { return now }, func(string) time.Duration { return 17 * time.Minute }, "Europe/London", 9, 17)
	require.NoError(t, err)

	next := c.StartOfNextInHoursPeriod("1001_question_round_issued")

	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 17, next.Minute())
}

func TestNewCalculator_RejectsBadInput(t *testing.T) {
	_, err := NewCalculator(nil, nil, "Europe/London", 17, 9)
	assert.Error(t, err)

	_, err = NewCalculator(nil, nil, "Not/AZone", 9, 17)
	assert.Error(t, err)
}

func TestMinuteJitter_StablePerKey(t *testing.T) {
	seen := map[time.Duration]bool{}
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("%d_question_round_issued", 1000+i)
		j := MinuteJitter(key)
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, time.Hour)
		assert.Zero(t, j%time.Minute)
		assert.Equal(t, j, MinuteJitter(key), "key %s", key)
		seen[j] = true
	}
	assert.Greater(t, len(seen), 1, "jitter should spread keys across the hour")
}

func TestCalculator_SameKeySameTrigger(t *testing.T) {
	now := time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)
	c, err := NewCalculator(func() time.Time { return now }, nil, "Europe/London", 9, 17)
	require.NoError(t, err)

	first := c.StartOfNextInHoursPeriod("1001_question_round_issued")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.StartOfNextInHoursPeriod("1001_question_round_issued"))
	}
}
