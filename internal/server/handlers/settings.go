package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ambientdeck/ambientdeck/internal/core/store"
	"github.com/ambientdeck/ambientdeck/internal/output"
	apperrors "github.com/ambientdeck/ambientdeck/internal/errors"
)

// SettingsStore is the persistence behind the settings endpoints.
type SettingsStore interface {
	ListSettings(ctx context.Context) ([]store.Setting, error)
	SetSetting(ctx context.Context, key, value string) error
}

// SettingResponse is one persisted setting. Secret values are masked.
type SettingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingsResponse lists settings.
type SettingsResponse struct {
	Settings []SettingResponse `json:"settings"`
}

// SettingRequest is the body of PUT /settings/{key}.
type SettingRequest struct {
	Value string `json:"value"`
}

// SettingsHandler reads and writes the persisted board settings.
type SettingsHandler struct {
	Store SettingsStore
}

func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.ListSettings(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list settings"))
		return
	}
	resp := SettingsResponse{Settings: make([]SettingResponse, 0, len(settings))}
	for _, s := range settings {
		resp.Settings = append(resp.Settings, newSettingResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	key := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "key")))
	if !store.ValidSettingKey(key) {
		respondWithError(w, r, store.ErrUnknownSetting)
		return
	}

	var req SettingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	value := strings.TrimSpace(req.Value)
	if value == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("value must not be empty"))
		return
	}

	if err := h.Store.SetSetting(r.Context(), key, value); err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to save setting"))
		return
	}
	writeJSON(w, http.StatusOK, newSettingResponse(store.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}))
}

func newSettingResponse(s store.Setting) SettingResponse {
	value := s.Value
	if s.Key == store.SettingBoardToken {
		value = output.MaskSecret(value)
	}
	return SettingResponse{Key: s.Key, Value: value, UpdatedAt: s.UpdatedAt}
}
