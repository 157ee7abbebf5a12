package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	apperrors "github.com/ambientdeck/ambientdeck/internal/errors"
)

// maxJSONBody bounds the small JSON request bodies the deck endpoints accept.
const maxJSONBody = 1 << 20

// DeckResponse is the JSON form of deck.Snapshot.
type DeckResponse struct {
	Index                 int     `json:"index"`
	Total                 int     `json:"total"`
	URL                   string  `json:"url"`
	IntervalSeconds       float64 `json:"interval_seconds"`
	Playing               bool    `json:"playing"`
	TickerItem            string  `json:"ticker_item"`
	TickerDurationSeconds float64 `json:"ticker_duration_seconds"`
	Source                string  `json:"source"`
}

// NewDeckResponse converts a snapshot.
func NewDeckResponse(s deck.Snapshot) DeckResponse {
	return DeckResponse{
		Index:                 s.Index,
		Total:                 s.Total,
		URL:                   s.URL,
		IntervalSeconds:       s.Interval.Seconds(),
		Playing:               s.Playing,
		TickerItem:            s.TickerItem,
		TickerDurationSeconds: s.TickerDuration.Seconds(),
		Source:                s.Source,
	}
}

// IntervalRequest is the body of PUT /deck/interval.
type IntervalRequest struct {
	Seconds float64 `json:"seconds"`
}

// ImagesRequest is the body of PUT /deck/images.
type ImagesRequest struct {
	Images []string `json:"images"`
}

// DeckHandler exposes playback control.
type DeckHandler struct {
	Deck *deck.Deck
}

// Snapshot returns the current frame.
func (h *DeckHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	h.respond(w)
}

func (h *DeckHandler) Play(w http.ResponseWriter, r *http.Request) {
	h.Deck.Play()
	h.respond(w)
}

func (h *DeckHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.Deck.Pause()
	h.respond(w)
}

func (h *DeckHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.Deck.Toggle()
	h.respond(w)
}

func (h *DeckHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.Deck.Next()
	h.respond(w)
}

func (h *DeckHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.Deck.Previous()
	h.respond(w)
}

// GoTo jumps to the {index} URL parameter. Indexes outside the current set
// are rejected rather than silently ignored.
func (h *DeckHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "index must be an integer"))
		return
	}
	if !h.Deck.GoTo(index) {
		respondWithError(w, r, apperrors.NewInvalidInputError("index out of range"))
		return
	}
	h.respond(w)
}

// SetInterval changes the slide interval; the deck clamps it.
func (h *DeckHandler) SetInterval(w http.ResponseWriter, r *http.Request) {
	var req IntervalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if req.Seconds <= 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError("seconds must be positive"))
		return
	}
	h.Deck.SetInterval(time.Duration(req.Seconds * float64(time.Second)))
	h.respond(w)
}

// SetImages replaces the image set and starts playback.
func (h *DeckHandler) SetImages(w http.ResponseWriter, r *http.Request) {
	var req ImagesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := h.Deck.SetImages(req.Images); err != nil {
		respondWithError(w, r, err)
		return
	}
	h.respond(w)
}

func (h *DeckHandler) respond(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, NewDeckResponse(h.Deck.Snapshot()))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.WrapInvalidInput(r.Context(), err, "invalid JSON body")
	}
	return nil
}
