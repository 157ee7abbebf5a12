package slideshow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickerMirrorsCycleIndex(t *testing.T) {
	cycle := New(abc, DefaultInterval)
	ticker := NewTicker([]string{"one", "two"}, cycle)

	assert.Equal(t, "one", ticker.CurrentItem())
	cycle.Advance()
	assert.Equal(t, "two", ticker.CurrentItem())
	cycle.Advance()
	assert.Equal(t, "one", ticker.CurrentItem(), "index 2 wraps to item 0")
}

func TestTickerDurationFollowsInterval(t *testing.T) {
	cycle := New(abc, DefaultInterval)
	ticker := NewTicker(nil, cycle)

	assert.Len(t, ticker.Items(), 10)
	assert.Equal(t, 80*time.Second, ticker.Duration())

	cycle.SetInterval(4 * time.Second)
	assert.Equal(t, 40*time.Second, ticker.Duration())

	assert.True(t, ticker.SetItems([]string{"a", "b"}))
	assert.Equal(t, 8*time.Second, ticker.Duration())
	assert.False(t, ticker.SetItems(nil))
}

func TestTickerDetach(t *testing.T) {
	cycle := New(abc, DefaultInterval)
	ticker := NewTicker([]string{"a", "b", "c"}, cycle)

	ticker.Detach()
	cycle.Advance()
	assert.Equal(t, "a", ticker.CurrentItem())
}

func TestTickerPauseResume(t *testing.T) {
	ticker := NewTicker([]string{"a"}, nil)
	assert.False(t, ticker.Running())
	ticker.Resume()
	assert.True(t, ticker.Running())
	ticker.Pause()
	assert.False(t, ticker.Running())
}
