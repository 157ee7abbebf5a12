package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCenter(max int) (*Center, *time.Time) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New(max, 3*time.Second)
	c.Clock = func() time.Time { return now }
	return c, &now
}

func TestShowAppliesDefaults(t *testing.T) {
	c, now := newTestCenter(0)

	n := c.Info("Initializing application...")
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, SeverityInfo, n.Severity)
	assert.Equal(t, now.Add(DefaultDuration), n.ExpiresAt)

	custom := c.Show("Loading", "", 10*time.Second)
	assert.Equal(t, SeverityInfo, custom.Severity)
	assert.Equal(t, now.Add(10*time.Second), custom.ExpiresAt)
}

func TestOldestEvictedWhenFull(t *testing.T) {
	c, _ := newTestCenter(5)

	var ids []string
	for i := 0; i < 7; i++ {
		ids = append(ids, c.Info("msg").ID)
	}

	active := c.Active()
	require.Len(t, active, 5)
	assert.Equal(t, ids[2], active[0].ID)
	assert.Equal(t, ids[6], active[4].ID)
}

func TestExpiredEntriesPruned(t *testing.T) {
	c, now := newTestCenter(5)
	c.Success("short")
	c.Show("long", SeverityWarning, time.Minute)

	*now = now.Add(5 * time.Second)
	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "long", active[0].Message)
}

func TestDismissAndClear(t *testing.T) {
	c, _ := newTestCenter(5)
	a := c.Error("a")
	c.Warning("b")

	assert.True(t, c.Dismiss(a.ID))
	assert.False(t, c.Dismiss(a.ID))
	assert.Len(t, c.Active(), 1)

	c.Clear()
	assert.Empty(t, c.Active())
}

func TestSubscribersAndObserver(t *testing.T) {
	c, _ := newTestCenter(5)
	var seen []Severity
	var observed []Severity
	c.OnShow(func(n Notification) { seen = append(seen, n.Severity) })
	c.Observer = func(s Severity) { observed = append(observed, s) }

	c.Info("i")
	c.Error("e")

	assert.Equal(t, []Severity{SeverityInfo, SeverityError}, seen)
	assert.Equal(t, seen, observed)
}

func TestParseSeverity(t *testing.T) {
	s, err := ParseSeverity(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, SeverityWarning, s)

	_, err = ParseSeverity("fatal")
	assert.Error(t, err)
}
