package imports

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	return img
}

// noisy defeats PNG compression so size limits can be exercised.
func noisy(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	seed := uint32(7)
	for i := range img.Pix {
		seed = seed*1664525 + 1013904223
		img.Pix[i] = byte(seed >> 24)
	}
	return img
}

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, noisy(w, h)))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h), nil))
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, solid(4, 4), nil))
	return buf.Bytes()
}

func TestImportAcceptsAllowedTypes(t *testing.T) {
	importer := New(Limits{})
	report, err := importer.Import(context.Background(), []Candidate{
		{Name: "a.png", Data: pngBytes(t, 10, 10)},
		{Name: "b.jpg", Data: jpegBytes(t, 10, 10)},
		{Name: "c.gif", Data: gifBytes(t)},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Count())
	assert.Equal(t, []string{"a.png", "b.jpg", "c.gif"}, report.Accepted)
	assert.True(t, strings.HasPrefix(report.URLs[0], "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(report.URLs[1], "data:image/jpeg;base64,"))
	assert.True(t, strings.HasPrefix(report.URLs[2], "data:image/gif;base64,"))
	assert.Empty(t, report.Rejected)
	assert.Len(t, report.Previews, 3)
}

func TestImportRejectsWithReasons(t *testing.T) {
	importer := New(Limits{MaxFileSize: 1024})
	report, err := importer.Import(context.Background(), []Candidate{
		{Name: "notes.txt", Data: []byte("hello there, not an image")},
		{Name: "huge.png", Data: noisyPNG(t, 64, 64)},
		{Name: "empty.png"},
		{Name: "fake.png", Data: append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)},
		{Name: "ok.png", Data: pngBytes(t, 2, 2)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.png"}, report.Accepted)

	reasons := map[string]string{}
	for _, r := range report.Rejected {
		reasons[r.Name] = r.Reason
	}
	require.Len(t, reasons, 4)
	assert.Contains(t, reasons["notes.txt"], "unsupported file type text/plain")
	assert.Contains(t, reasons["huge.png"], "file too large")
	assert.Contains(t, reasons["empty.png"], "empty")
	assert.Contains(t, reasons["fake.png"], "cannot decode")
}

func TestImportStopsAtMaxFiles(t *testing.T) {
	importer := New(Limits{MaxFiles: 2, PreviewCount: 1})
	data := pngBytes(t, 3, 3)

	var progress []Progress
	importer.OnProgress(func(p Progress) { progress = append(progress, p) })

	report, err := importer.Import(context.Background(), []Candidate{
		{Name: "1.png", Data: data},
		{Name: "2.png", Data: data},
		{Name: "3.png", Data: data},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1.png", "2.png"}, report.Accepted)
	require.Len(t, report.Rejected, 1)
	assert.Contains(t, report.Rejected[0].Reason, "file limit")
	assert.Len(t, report.Previews, 1)
	assert.Equal(t, []Progress{{Loaded: 1, Total: 2}, {Loaded: 2, Total: 2}}, progress)
}

func TestImportNoValidImages(t *testing.T) {
	report, err := New(Limits{}).Import(context.Background(), []Candidate{{Name: "x.txt", Data: []byte("text")}})
	require.ErrorIs(t, err, ErrNoValidImages)
	require.NotNil(t, report)
	assert.Len(t, report.Rejected, 1)
}

func TestThumbnailScalesLongestEdge(t *testing.T) {
	preview, err := Thumbnail(pngBytes(t, 1024, 512), 256)
	require.NoError(t, err)
	assert.Equal(t, 256, preview.Width)
	assert.Equal(t, 128, preview.Height)
	assert.True(t, strings.HasPrefix(preview.DataURL, "data:image/jpeg;base64,"))

	small, err := Thumbnail(pngBytes(t, 20, 10), 256)
	require.NoError(t, err)
	assert.Equal(t, 20, small.Width, "small images are not upscaled")
}

func TestDetectTypeWebP(t *testing.T) {
	header := []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")
	assert.Equal(t, "image/webp", DetectType(header))
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), pngBytes(t, 5, 5), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), jpegBytes(t, 5, 5), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.png"), noisyPNG(t, 64, 64), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	importer := New(Limits{MaxFileSize: 2048})
	report, err := importer.FromDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.png"}, report.Accepted)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "big.png", report.Rejected[0].Name)
}

func TestFromDirMissing(t *testing.T) {
	_, err := New(Limits{}).FromDir(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestPreviewCountDefaultsAndDisable(t *testing.T) {
	data := pngBytes(t, 4, 4)
	candidates := make([]Candidate, 8)
	for i := range candidates {
		candidates[i] = Candidate{Name: fmt.Sprintf("%d.png", i), Data: data}
	}

	report, err := New(Limits{}).Import(context.Background(), candidates)
	require.NoError(t, err)
	assert.Equal(t, 8, report.Count())
	assert.Len(t, report.Previews, DefaultPreviewCount)

	report, err = New(Limits{PreviewCount: -1}).Import(context.Background(), candidates)
	require.NoError(t, err)
	assert.Equal(t, 8, report.Count())
	assert.Empty(t, report.Previews)
}
