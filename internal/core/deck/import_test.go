package deck

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambientdeck/ambientdeck/internal/core/imports"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImportImagesReplacesSet(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	report, err := h.deck.ImportImages(context.Background(), []imports.Candidate{
		{Name: "a.png", Data: pngBytes(t)},
		{Name: "notes.txt", Data: []byte("hello")},
		{Name: "b.png", Data: pngBytes(t)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count())
	assert.Len(t, report.Rejected, 1)

	snap := h.deck.Snapshot()
	assert.Equal(t, 2, snap.Total)
	assert.True(t, strings.HasPrefix(snap.URL, "data:image/png;base64,"))
	assert.Equal(t, SourceImport, snap.Source)
	assert.Contains(t, h.messages(), "success: Loaded 2 images successfully")
}

func TestImportImagesNothingValid(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := h.deck.ImportImages(context.Background(), []imports.Candidate{{Name: "x.txt", Data: []byte("no")}})
	require.ErrorIs(t, err, imports.ErrNoValidImages)
	assert.Equal(t, 5, h.deck.Snapshot().Total)
	assert.Contains(t, h.messages(), "error: Upload error: "+imports.ErrNoValidImages.Error())
}

func TestImportDir(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), pngBytes(t), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), pngBytes(t), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# photos"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	report, err := h.deck.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, report.Accepted)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "readme.md", report.Rejected[0].Name)
	assert.Equal(t, 2, h.deck.Snapshot().Total)
	assert.Equal(t, SourceImport, h.deck.Snapshot().Source)
}

func TestImportDirMissing(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := h.deck.ImportDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, SourcePreset, h.deck.Snapshot().Source)
}
