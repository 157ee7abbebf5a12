package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	"github.com/ambientdeck/ambientdeck/internal/core/imports"
	apperrors "github.com/ambientdeck/ambientdeck/internal/errors"
	"github.com/ambientdeck/ambientdeck/internal/metrics"
)

// uploadField is the multipart field carrying image files.
const uploadField = "files"

// UploadResponse reports an import.
type UploadResponse struct {
	Count  int             `json:"count"`
	Report *imports.Report `json:"report"`
	Deck   DeckResponse    `json:"deck"`
}

// UploadsHandler accepts multipart image uploads.
type UploadsHandler struct {
	Deck *deck.Deck
}

// Upload imports the files and shows them.
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limits := h.Deck.Importer.Limits
	// One slack file per limit so oversize files reach the importer and get
	// a rejection reason instead of failing the whole request.
	maxBody := int64(limits.MaxFiles+1) * (limits.MaxFileSize + 1) * 2
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid multipart upload"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError(fmt.Sprintf("no files in %q field", uploadField)))
		return
	}

	candidates := make([]imports.Candidate, 0, len(headers))
	var total int64
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "unreadable upload"))
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, limits.MaxFileSize+1))
		_ = file.Close()
		if err != nil {
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "unreadable upload"))
			return
		}
		total += int64(len(data))
		candidates = append(candidates, imports.Candidate{Name: header.Filename, Data: data})
	}
	metrics.RecordUploadBytes(total)

	report, err := h.Deck.ImportImages(r.Context(), candidates)
	if report != nil {
		metrics.RecordImport(len(report.Accepted), len(report.Rejected))
	}
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{
		Count:  report.Count(),
		Report: report,
		Deck:   NewDeckResponse(h.Deck.Snapshot()),
	})
}
