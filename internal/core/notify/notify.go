// Package notify keeps a short, bounded feed of user-facing notifications.
package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ambientdeck/ambientdeck/internal/core/events"
)

// Severity of a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Defaults for New.
const (
	DefaultDuration  = 3 * time.Second
	DefaultMaxActive = 5
)

// ParseSeverity maps a string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityInfo:
		return SeverityInfo, nil
	case SeveritySuccess:
		return SeveritySuccess, nil
	case SeverityWarning, "warn":
		return SeverityWarning, nil
	case SeverityError:
		return SeverityError, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Notification is one feed entry.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Center holds at most MaxActive unexpired notifications, evicting the
// oldest when full. Expired entries are pruned on read.
type Center struct {
	Logger   *logging.Logger
	Clock    func() time.Time
	Observer func(Severity)

	mu        sync.Mutex
	active    []Notification
	maxActive int
	duration  time.Duration

	shown events.Bus[Notification]
}

// New returns a center; non-positive arguments use the defaults.
func New(maxActive int, duration time.Duration) *Center {
	if maxActive <= 0 {
		maxActive = DefaultMaxActive
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Center{maxActive: maxActive, duration: duration}
}

// OnShow subscribes to every shown notification.
func (c *Center) OnShow(handler func(Notification)) (unsubscribe func()) {
	return c.shown.Subscribe(handler)
}

// Show adds a notification. A non-positive duration uses the default.
func (c *Center) Show(message string, severity Severity, duration time.Duration) Notification {
	if severity == "" {
		severity = SeverityInfo
	}

	c.mu.Lock()
	if duration <= 0 {
		duration = c.duration
	}
	now := c.now()
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}
	c.pruneLocked(now)
	for len(c.active) >= c.maxActive {
		c.active = c.active[1:]
	}
	c.active = append(c.active, n)
	c.mu.Unlock()

	c.log(n)
	if c.Observer != nil {
		c.Observer(severity)
	}
	c.shown.Publish(n)
	return n
}

// Info shows an info notification with the default duration.
func (c *Center) Info(message string) Notification { return c.Show(message, SeverityInfo, 0) }

// Success shows a success notification with the default duration.
func (c *Center) Success(message string) Notification { return c.Show(message, SeveritySuccess, 0) }

// Warning shows a warning notification with the default duration.
func (c *Center) Warning(message string) Notification { return c.Show(message, SeverityWarning, 0) }

// Error shows an error notification with the default duration.
func (c *Center) Error(message string) Notification { return c.Show(message, SeverityError, 0) }

// Active returns the unexpired notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(c.now())
	return append([]Notification(nil), c.active...)
}

// Dismiss removes a notification by id.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i:i], c.active[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every notification.
func (c *Center) Clear() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
}

func (c *Center) pruneLocked(now time.Time) {
	kept := c.active[:0]
	for _, n := range c.active {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	c.active = kept
}

func (c *Center) log(n Notification) {
	if c.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("notification_id", n.ID),
		zap.String("severity", string(n.Severity)),
	}
	switch n.Severity {
	case SeverityError:
		c.Logger.Error(n.Message, fields...)
	case SeverityWarning:
		c.Logger.Warn(n.Message, fields...)
	default:
		c.Logger.Info(n.Message, fields...)
	}
}

func (c *Center) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
