package core

import "time"

// Board is a user board on the upstream pin service.
type Board struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PinCount    int    `json:"pin_count,omitempty"`
}

// Pin is the projection of an upstream pin the deck works with. ImageURL is
// empty when the pin carries no usable image rendition.
type Pin struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	Link         string `json:"link,omitempty"`
	CreativeType string `json:"creative_type,omitempty"`
}

// HasImage reports whether the pin can be shown in the slideshow.
func (p Pin) HasImage() bool {
	return p.ImageURL != ""
}

// ImageURLs returns the image URLs of the pins that have one, in order.
func ImageURLs(pins []Pin) []string {
	urls := make([]string, 0, len(pins))
	for _, pin := range pins {
		if pin.HasImage() {
			urls = append(urls, pin.ImageURL)
		}
	}
	return urls
}

// RateLimitState captures the observed upstream throttling for one endpoint.
type RateLimitState struct {
	Hits         int
	Last429At    *time.Time
	RetryAfter   time.Duration
	BackoffUntil *time.Time
}

// Active reports whether the endpoint is still backing off at now.
func (s *RateLimitState) Active(now time.Time) bool {
	return s != nil && s.BackoffUntil != nil && now.Before(*s.BackoffUntil)
}
