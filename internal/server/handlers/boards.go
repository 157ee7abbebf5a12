package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ambientdeck/ambientdeck/internal/core"
	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	apperrors "github.com/ambientdeck/ambientdeck/internal/errors"
)

// BoardsResponse lists boards.
type BoardsResponse struct {
	Outcome core.Outcome `json:"outcome"`
	Boards  []core.Board `json:"boards"`
}

// PinsResponse lists pins.
type PinsResponse struct {
	Outcome core.Outcome `json:"outcome"`
	Pins    []core.Pin   `json:"pins"`
}

// LoadResponse reports a board load and the resulting frame.
type LoadResponse struct {
	Outcome core.Outcome `json:"outcome"`
	Loaded  int          `json:"loaded"`
	Deck    DeckResponse `json:"deck"`
}

// BoardsHandler exposes the board API through the deck, so every call shares
// its limiter, cache and notifications.
type BoardsHandler struct {
	Deck *deck.Deck
}

// List returns the caller's boards.
func (h *BoardsHandler) List(w http.ResponseWriter, r *http.Request) {
	result := h.Deck.FindBoards(r.Context(), bearerToken(r))
	if result.Failed() {
		respondWithError(w, r, result.Err)
		return
	}
	writeJSON(w, http.StatusOK, BoardsResponse{Outcome: result.Outcome, Boards: result.Items})
}

// Pins returns a board's pins, optionally truncated by ?limit=.
func (h *BoardsHandler) Pins(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	result := h.Deck.Pins(r.Context(), bearerToken(r), chi.URLParam(r, "boardID"))
	if result.Failed() {
		respondWithError(w, r, result.Err)
		return
	}
	pins := result.Items
	if limit > 0 && len(pins) > limit {
		pins = pins[:limit]
	}
	writeJSON(w, http.StatusOK, PinsResponse{Outcome: result.Outcome, Pins: pins})
}

// Load shows a board's images in the slideshow.
func (h *BoardsHandler) Load(w http.ResponseWriter, r *http.Request) {
	result := h.Deck.LoadBoard(r.Context(), bearerToken(r), chi.URLParam(r, "boardID"))
	if result.Failed() {
		respondWithError(w, r, result.Err)
		return
	}
	writeJSON(w, http.StatusOK, LoadResponse{
		Outcome: result.Outcome,
		Loaded:  len(core.ImageURLs(result.Items)),
		Deck:    NewDeckResponse(h.Deck.Snapshot()),
	})
}

// Search finds pins matching ?q=.
func (h *BoardsHandler) Search(w http.ResponseWriter, r *http.Request) {
	result := h.Deck.SearchPins(r.Context(), bearerToken(r), r.URL.Query().Get("q"))
	if result.Failed() {
		respondWithError(w, r, result.Err)
		return
	}
	writeJSON(w, http.StatusOK, PinsResponse{Outcome: result.Outcome, Pins: result.Items})
}

// bearerToken returns the token from the Authorization header, or "" so the
// deck falls back to the stored token.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, apperrors.NewInvalidInputError("limit must be a positive integer")
	}
	return limit, nil
}
