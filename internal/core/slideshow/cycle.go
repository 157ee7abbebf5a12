// Package slideshow cycles an ordered set of image URLs on an owned timer
// and keeps a text ticker in step with it.
package slideshow

import (
	"errors"
	"sync"
	"time"

	"github.com/ambientdeck/ambientdeck/internal/core/events"
)

// Interval bounds.
const (
	MinInterval     = 3 * time.Second
	MaxInterval     = 20 * time.Second
	DefaultInterval = 8 * time.Second
)

// ErrNoImages is returned when replacing the set with an empty one.
var ErrNoImages = errors.New("slideshow: image set must not be empty")

// ChangeEvent describes the image now showing.
type ChangeEvent struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	URL   string `json:"url"`
}

// TickSource is a periodic timer. The cycle owns the one it creates and
// stops it when the cycle stops.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) TickSource {
	return timeTicker{t: time.NewTicker(d)}
}

// Cycle is the slideshow state machine. It is stopped until Start.
type Cycle struct {
	mu       sync.Mutex
	images   []string
	index    int
	interval time.Duration
	playing  bool

	// generation changes every time the timer is started or stopped, so a
	// tick delivered by a superseded timer is discarded.
	generation uint64
	done       chan struct{}

	minInterval time.Duration
	maxInterval time.Duration
	newTicker   func(time.Duration) TickSource

	changes   events.Bus[ChangeEvent]
	intervals events.Bus[time.Duration]
	states    events.Bus[bool]
}

// Option configures a Cycle.
type Option func(*Cycle)

// WithTickSource replaces the wall-clock ticker factory.
func WithTickSource(factory func(time.Duration) TickSource) Option {
	return func(c *Cycle) {
		if factory != nil {
			c.newTicker = factory
		}
	}
}

// WithBounds overrides the interval clamp.
func WithBounds(min, max time.Duration) Option {
	return func(c *Cycle) {
		if min > 0 && max >= min {
			c.minInterval = min
			c.maxInterval = max
		}
	}
}

// New returns a stopped cycle over images with the given interval, clamped.
func New(images []string, interval time.Duration, opts ...Option) *Cycle {
	c := &Cycle{
		images:      append([]string(nil), images...),
		minInterval: MinInterval,
		maxInterval: MaxInterval,
		newTicker:   newTimeTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	c.interval = c.clamp(interval)
	return c
}

// OnChange subscribes to index changes.
func (c *Cycle) OnChange(handler func(ChangeEvent)) (unsubscribe func()) {
	return c.changes.Subscribe(handler)
}

// OnInterval subscribes to interval changes; the handler receives the
// clamped value.
func (c *Cycle) OnInterval(handler func(time.Duration)) (unsubscribe func()) {
	return c.intervals.Subscribe(handler)
}

// OnPlayState subscribes to running/stopped transitions.
func (c *Cycle) OnPlayState(handler func(playing bool)) (unsubscribe func()) {
	return c.states.Subscribe(handler)
}

// Start begins advancing every interval, replacing any running timer.
func (c *Cycle) Start() {
	c.mu.Lock()
	c.startLocked()
	c.mu.Unlock()
	c.states.Publish(true)
}

// Stop cancels the timer. Stopping a stopped cycle is a no-op.
func (c *Cycle) Stop() {
	c.mu.Lock()
	wasPlaying := c.playing
	c.stopLocked()
	c.mu.Unlock()
	if wasPlaying {
		c.states.Publish(false)
	}
}

// Pause is Stop.
func (c *Cycle) Pause() { c.Stop() }

// Resume is Start.
func (c *Cycle) Resume() { c.Start() }

// Playing reports whether the timer is running.
func (c *Cycle) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Advance moves to the next image, wrapping to the first.
func (c *Cycle) Advance() { c.step(1) }

// Retreat moves to the previous image, wrapping to the last.
func (c *Cycle) Retreat() { c.step(-1) }

func (c *Cycle) step(delta int) {
	c.mu.Lock()
	evt, ok := c.stepLocked(delta)
	c.mu.Unlock()
	if ok {
		c.changes.Publish(evt)
	}
}

func (c *Cycle) stepLocked(delta int) (ChangeEvent, bool) {
	n := len(c.images)
	if n == 0 {
		return ChangeEvent{}, false
	}
	c.index = ((c.index+delta)%n + n) % n
	return c.eventLocked(), true
}

// GoTo jumps to index i. Out-of-range indexes are ignored and reported false.
func (c *Cycle) GoTo(i int) bool {
	c.mu.Lock()
	if i < 0 || i >= len(c.images) {
		c.mu.Unlock()
		return false
	}
	c.index = i
	evt := c.eventLocked()
	c.mu.Unlock()

	c.changes.Publish(evt)
	return true
}

// Replace swaps in a new image set at index 0. With autoStart the cycle
// starts; otherwise it keeps its previous running or stopped state.
func (c *Cycle) Replace(images []string, autoStart bool) error {
	if len(images) == 0 {
		return ErrNoImages
	}

	c.mu.Lock()
	wasPlaying := c.playing
	c.stopLocked()
	c.images = append([]string(nil), images...)
	c.index = 0
	resume := autoStart || wasPlaying
	if resume {
		c.startLocked()
	}
	evt := c.eventLocked()
	c.mu.Unlock()

	c.changes.Publish(evt)
	if resume != wasPlaying {
		c.states.Publish(resume)
	}
	return nil
}

// SetInterval clamps d to the allowed range, applies it and restarts a
// running timer. It returns the applied interval.
func (c *Cycle) SetInterval(d time.Duration) time.Duration {
	c.mu.Lock()
	c.interval = c.clamp(d)
	applied := c.interval
	if c.playing {
		c.startLocked()
	}
	c.mu.Unlock()

	c.intervals.Publish(applied)
	return applied
}

// Interval returns the current interval.
func (c *Cycle) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// CurrentImage returns the URL showing now, or "" for an empty set.
func (c *Cycle) CurrentImage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.images) == 0 {
		return ""
	}
	return c.images[c.index]
}

// CurrentIndex returns the index showing now.
func (c *Cycle) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Count returns the number of images.
func (c *Cycle) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// Images returns a copy of the image set.
func (c *Cycle) Images() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.images...)
}

// Destroy stops the timer and empties the set.
func (c *Cycle) Destroy() {
	c.mu.Lock()
	wasPlaying := c.playing
	c.stopLocked()
	c.images = nil
	c.index = 0
	c.mu.Unlock()
	if wasPlaying {
		c.states.Publish(false)
	}
}

func (c *Cycle) eventLocked() ChangeEvent {
	evt := ChangeEvent{Index: c.index, Total: len(c.images)}
	if len(c.images) > 0 {
		evt.URL = c.images[c.index]
	}
	return evt
}

func (c *Cycle) clamp(d time.Duration) time.Duration {
	if d < c.minInterval {
		return c.minInterval
	}
	if d > c.maxInterval {
		return c.maxInterval
	}
	return d
}

// startLocked cancels any running timer and starts a new one. Caller holds mu.
func (c *Cycle) startLocked() {
	c.stopLocked()

	c.generation++
	gen := c.generation
	done := make(chan struct{})
	c.done = done
	c.playing = true

	ticks := c.newTicker(c.interval)
	go c.run(gen, ticks, done)
}

// stopLocked cancels the running timer, if any. Caller holds mu.
func (c *Cycle) stopLocked() {
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.generation++
	c.playing = false
}

func (c *Cycle) run(gen uint64, ticks TickSource, done <-chan struct{}) {
	defer ticks.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticks.C():
			c.tick(gen)
		}
	}
}

func (c *Cycle) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || !c.playing {
		c.mu.Unlock()
		return
	}
	evt, ok := c.stepLocked(1)
	c.mu.Unlock()
	if ok {
		c.changes.Publish(evt)
	}
}
