package dedup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minute = int64(60 * 1000)

func TestKeyUppercasesSymbolOnly(t *testing.T) {
	assert.Equal(t, "momo-v2AAPLBUY", Key("momo-v2", "aapl", "BUY"))
	// strategyID casing is the caller's problem
	assert.NotEqual(t, Key("MOMO", "AAPL", "BUY"), Key("momo", "AAPL", "BUY"))
}

func TestShouldSuppressWindow(t *testing.T) {
	d := NewSuppressor(0)
	key := Key("breakout", "NVDA", "BUY")
	start := int64(1_700_000_000_000)

	// first fire never suppressed
	v := d.ShouldSuppress(key, start, 30, 10, 60)
	require.False(t, v.Suppress)
	d.RecordFire(key, start, 60)

	// 10 minutes later, confidence 65 < 60+10 -> suppressed
	v = d.ShouldSuppress(key, start+10*minute, 30, 10, 65)
	assert.True(t, v.Suppress)
	assert.NotEmpty(t, v.Reason)

	// same elapsed, confidence 72 >= 70 -> override fires
	v = d.ShouldSuppress(key, start+10*minute, 30, 10, 72)
	assert.False(t, v.Suppress)

	// after 31 minutes the window has passed regardless of confidence
	v = d.ShouldSuppress(key, start+31*minute, 30, 10, 1)
	assert.False(t, v.Suppress)
}

func TestShouldSuppressDisabledWindow(t *testing.T) {
	d := NewSuppressor(0)
	key := Key("s", "SPY", "SELL")
	d.RecordFire(key, 1000, 90)

	v := d.ShouldSuppress(key, 1001, 0, 10, 1)
	assert.False(t, v.Suppress)

	v = d.ShouldSuppress(key, 1001, -5, 10, 1)
	assert.False(t, v.Suppress)
}

func TestShouldSuppressFutureDatedFire(t *testing.T) {
	d := NewSuppressor(0)
	key := Key("s", "SPY", "BUY")

	// previous fire recorded ahead of now: clock skew, do not suppress
	d.RecordFire(key, 5*minute, 60)
	v := d.ShouldSuppress(key, 1*minute, 30, 10, 60)
	assert.False(t, v.Suppress)
}

func TestShouldSuppressDoesNotMutate(t *testing.T) {
	d := NewSuppressor(0)
	key := Key("s", "TSLA", "BUY")
	d.RecordFire(key, 0, 50)

	// a suppressed check must not refresh the window
	for i := 0; i < 5; i++ {
		v := d.ShouldSuppress(key, 29*minute, 30, 10, 50)
		require.True(t, v.Suppress)
	}
	v := d.ShouldSuppress(key, 30*minute, 30, 10, 50)
	assert.False(t, v.Suppress)
}

func TestEvictionOldestFirst(t *testing.T) {
	d := NewSuppressor(3)

	for i := 0; i < 4; i++ {
		d.RecordFire(fmt.Sprintf("key-%d", i), int64(i)*minute, 50)
	}

	require.Equal(t, 3, d.Len())

	// key-0 was the oldest, so a repeat for it is no longer suppressed
	v := d.ShouldSuppress("key-0", 1*minute, 30, 10, 50)
	assert.False(t, v.Suppress)

	// key-3 is still tracked
	v = d.ShouldSuppress("key-3", 3*minute+1, 30, 10, 50)
	assert.True(t, v.Suppress)
}
