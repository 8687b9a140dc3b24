package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var epoch = time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)

func TestAdvance_FirstReadingProducesNothing(t *testing.T) {
	var a Accumulator
	require.Equal(t, 0, a.Advance(epoch))
	require.Equal(t, 1, a.Advance(epoch.Add(time.Second)))
}

func TestAdvance_CarriesRemainder(t *testing.T) {
	var a Accumulator
	a.Rebase(epoch)

	now := epoch
	total := 0
	for i := 0; i < 10; i++ {
		now = now.Add(250 * time.Millisecond)
		total += a.Advance(now)
	}
	require.Equal(t, 2, total)
	// 500ms carried over: one more half second completes a tick.
	require.Equal(t, 1, a.Advance(now.Add(500*time.Millisecond)))
}

func TestAdvance_LateReadingCatchesUp(t *testing.T) {
	var a Accumulator
	a.Rebase(epoch)
	require.Equal(t, 3, a.Advance(epoch.Add(3200*time.Millisecond)))
	require.Equal(t, 1, a.Advance(epoch.Add(4*time.Second)))
}

func TestAdvance_MaxCatchUp(t *testing.T) {
	a := Accumulator{MaxCatchUp: 2}
	a.Rebase(epoch)
	require.Equal(t, 2, a.Advance(epoch.Add(10*time.Second)))
}

func TestAdvance_BackwardsClockIgnored(t *testing.T) {
	var a Accumulator
	a.Rebase(epoch)
	require.Equal(t, 0, a.Advance(epoch.Add(-time.Second)))
	require.Equal(t, 1, a.Advance(epoch))
}

func TestRebase_DropsPausedTime(t *testing.T) {
	var a Accumulator
	a.Rebase(epoch)
	require.Equal(t, 0, a.Advance(epoch.Add(700*time.Millisecond)))

	// Paused for a minute, then resumed.
	resume := epoch.Add(time.Minute)
	a.Rebase(resume)
	require.Equal(t, 0, a.Advance(resume.Add(900*time.Millisecond)))
	require.Equal(t, 1, a.Advance(resume.Add(1100*time.Millisecond)))
}

func TestProperty_TicksMatchWholeSeconds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var a Accumulator
		a.Rebase(epoch)

		steps := rapid.SliceOfN(rapid.IntRange(1, 2500), 1, 100).Draw(t, "stepsMillis")
		now := epoch
		total := 0
		for _, ms := range steps {
			now = now.Add(time.Duration(ms) * time.Millisecond)
			total += a.Advance(now)
		}
		want := int(now.Sub(epoch) / time.Second)
		if total != want {
			t.Fatalf("ticks = %d, want %d", total, want)
		}
	})
}

func TestManualSource(t *testing.T) {
	m := NewManual(epoch)
	done := make(chan time.Time)
	go func() { done <- <-m.C() }()

	m.Advance(1500 * time.Millisecond)
	require.Equal(t, epoch.Add(1500*time.Millisecond), <-done)
	require.Equal(t, epoch.Add(1500*time.Millisecond), m.Now())
}
