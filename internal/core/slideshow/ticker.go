package slideshow

import (
	"sync"
	"time"
)

// Ticker is the text strip shown with the slideshow. It highlights
// items[index % len(items)] for the cycle's index and runs one full pass of
// its animation in len(items) × interval.
type Ticker struct {
	mu       sync.Mutex
	items    []string
	index    int
	interval time.Duration
	running  bool

	detach []func()
}

// NewTicker attaches a ticker to cycle. Empty items fall back to the
// built-in word list.
func NewTicker(items []string, cycle *Cycle) *Ticker {
	if len(items) == 0 {
		items = DefaultTickerItems
	}
	t := &Ticker{
		items:    append([]string(nil), items...),
		interval: DefaultInterval,
	}
	if cycle == nil {
		return t
	}

	t.index = cycle.CurrentIndex()
	t.interval = cycle.Interval()
	t.detach = append(t.detach,
		cycle.OnChange(func(evt ChangeEvent) {
			t.mu.Lock()
			t.index = evt.Index
			t.mu.Unlock()
		}),
		cycle.OnInterval(func(d time.Duration) {
			t.mu.Lock()
			t.interval = d
			t.mu.Unlock()
		}),
	)
	return t
}

// DefaultTickerItems is the built-in word list.
var DefaultTickerItems = []string{
	"Internet", "Schedule", "Restaurants", "Decibels", "Coffees",
	"Jobs", "Cars", "Emails", "Parties", "Nature",
}

// CurrentItem returns the highlighted item.
func (t *Ticker) CurrentItem() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.items) == 0 {
		return ""
	}
	return t.items[t.index%len(t.items)]
}

// Duration returns the time for one full pass over the items.
func (t *Ticker) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(len(t.items)) * t.interval
}

// SetItems replaces the items. An empty list is ignored.
func (t *Ticker) SetItems(items []string) bool {
	if len(items) == 0 {
		return false
	}
	t.mu.Lock()
	t.items = append([]string(nil), items...)
	t.mu.Unlock()
	return true
}

// Items returns a copy of the items.
func (t *Ticker) Items() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.items...)
}

// Pause stops the animation.
func (t *Ticker) Pause() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
}

// Resume starts the animation.
func (t *Ticker) Resume() {
	t.mu.Lock()
	t.running = true
	t.mu.Unlock()
}

// Running reports whether the animation is playing.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Detach stops following the cycle.
func (t *Ticker) Detach() {
	t.mu.Lock()
	detach := t.detach
	t.detach = nil
	t.mu.Unlock()
	for _, fn := range detach {
		fn()
	}
}
