// Package imports turns local image files into data URLs for the slideshow.
package imports

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/ambientdeck/ambientdeck/internal/core/events"
)

// Defaults for Limits.
const (
	DefaultMaxFiles      = 50
	DefaultMaxFileSize   = 5 * 1024 * 1024
	DefaultPreviewCount  = 6
	DefaultThumbnailSize = 256
)

// AllowedTypes are the accepted sniffed content types.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ErrNoValidImages is returned when every candidate was rejected.
var ErrNoValidImages = errors.New("no valid image files selected")

// Candidate is one file offered for import.
type Candidate struct {
	Name string
	Data []byte
}

// Rejection explains why a candidate was not imported.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Preview is a downscaled JPEG of an accepted image.
type Preview struct {
	Name    string `json:"name"`
	DataURL string `json:"data_url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Progress is published after each accepted file is encoded.
type Progress struct {
	Loaded int `json:"loaded"`
	Total  int `json:"total"`
}

// Report is the outcome of one import.
type Report struct {
	URLs     []string    `json:"-"`
	Accepted []string    `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
	Previews []Preview   `json:"previews"`
}

// Count returns the number of accepted images.
func (r *Report) Count() int {
	if r == nil {
		return 0
	}
	return len(r.URLs)
}

// Limits bound an import. A negative PreviewCount disables previews.
type Limits struct {
	MaxFiles      int
	MaxFileSize   int64
	PreviewCount  int
	ThumbnailSize int
}

func (l Limits) withDefaults() Limits {
	if l.MaxFiles <= 0 {
		l.MaxFiles = DefaultMaxFiles
	}
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = DefaultMaxFileSize
	}
	if l.PreviewCount == 0 {
		l.PreviewCount = DefaultPreviewCount
	}
	if l.ThumbnailSize <= 0 {
		l.ThumbnailSize = DefaultThumbnailSize
	}
	return l
}

// Importer validates and encodes images.
type Importer struct {
	Limits Limits
	Logger *logging.Logger

	progress events.Bus[Progress]
}

// New returns an importer; zero limits use the defaults.
func New(limits Limits) *Importer {
	return &Importer{Limits: limits.withDefaults()}
}

// OnProgress subscribes to per-file progress.
func (i *Importer) OnProgress(handler func(Progress)) (unsubscribe func()) {
	return i.progress.Subscribe(handler)
}

// Import validates candidates in order, keeping at most MaxFiles, and
// encodes the accepted ones as data URLs. The report is returned even when
// it is ErrNoValidImages.
func (i *Importer) Import(ctx context.Context, candidates []Candidate) (*Report, error) {
	limits := i.Limits.withDefaults()
	report := &Report{URLs: []string{}, Accepted: []string{}, Rejected: []Rejection{}, Previews: []Preview{}}

	type accepted struct {
		name string
		mime string
		data []byte
	}
	var valid []accepted
	for _, c := range candidates {
		if len(valid) >= limits.MaxFiles {
			report.Rejected = append(report.Rejected, Rejection{Name: c.Name, Reason: fmt.Sprintf("file limit of %d reached", limits.MaxFiles)})
			continue
		}
		mime, reason := validate(c, limits)
		if reason != "" {
			report.Rejected = append(report.Rejected, Rejection{Name: c.Name, Reason: reason})
			i.debug("Rejected import candidate", zap.String("name", c.Name), zap.String("reason", reason))
			continue
		}
		valid = append(valid, accepted{name: c.Name, mime: mime, data: c.Data})
	}

	if len(valid) == 0 {
		return report, ErrNoValidImages
	}

	for n, v := range valid {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.URLs = append(report.URLs, DataURL(v.mime, v.data))
		report.Accepted = append(report.Accepted, v.name)
		i.progress.Publish(Progress{Loaded: n + 1, Total: len(valid)})

		if n < limits.PreviewCount {
			preview, err := Thumbnail(v.data, limits.ThumbnailSize)
			if err != nil {
				i.debug("Preview generation failed", zap.String("name", v.name), zap.Error(err))
				continue
			}
			preview.Name = v.name
			report.Previews = append(report.Previews, *preview)
		}
	}

	return report, nil
}

// FromDir imports the regular files of dir in name order. Oversized files
// are rejected from their size without being read.
func (i *Importer) FromDir(ctx context.Context, dir string) (*Report, error) {
	limits := i.Limits.withDefaults()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].Name() < entries[b].Name() })

	var candidates []Candidate
	var tooLarge []Rejection
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() > limits.MaxFileSize {
			tooLarge = append(tooLarge, Rejection{Name: entry.Name(), Reason: sizeReason(info.Size(), limits.MaxFileSize)})
			continue
		}
		data, err := readFile(filepath.Join(dir, entry.Name()), limits.MaxFileSize)
		if err != nil {
			tooLarge = append(tooLarge, Rejection{Name: entry.Name(), Reason: err.Error()})
			continue
		}
		candidates = append(candidates, Candidate{Name: entry.Name(), Data: data})
	}

	report, err := i.Import(ctx, candidates)
	if report != nil {
		report.Rejected = append(tooLarge, report.Rejected...)
	}
	return report, err
}

func validate(c Candidate, limits Limits) (string, string) {
	if int64(len(c.Data)) > limits.MaxFileSize {
		return "", sizeReason(int64(len(c.Data)), limits.MaxFileSize)
	}
	if len(c.Data) == 0 {
		return "", "file is empty"
	}
	mime := DetectType(c.Data)
	if !allowed(mime) {
		return "", fmt.Sprintf("unsupported file type %s", mime)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(c.Data)); err != nil {
		return "", fmt.Sprintf("cannot decode image: %v", err)
	}
	return mime, ""
}

func sizeReason(size, limit int64) string {
	return fmt.Sprintf("file too large: %d bytes exceeds %d", size, limit)
}

// DetectType sniffs the content type from the leading bytes.
func DetectType(data []byte) string {
	return http.DetectContentType(data)
}

func allowed(mime string) bool {
	for _, t := range AllowedTypes {
		if t == mime {
			return true
		}
	}
	return false
}

// DataURL encodes data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Thumbnail downsizes an image so its longest edge is at most maxSize and
// returns it as a JPEG data URL. Smaller images are not upscaled.
func Thumbnail(data []byte, maxSize int) (*Preview, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid image dimensions")
	}

	scale := float64(maxSize) / float64(max(width, height))
	if scale > 1 {
		scale = 1
	}
	newW := max(int(float64(width)*scale), 1)
	newH := max(int(float64(height)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return &Preview{DataURL: DataURL("image/jpeg", buf.Bytes()), Width: newW, Height: newH}, nil
}

func readFile(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errors.New(sizeReason(int64(len(data)), limit))
	}
	return data, nil
}

func (i *Importer) debug(msg string, fields ...zap.Field) {
	if i.Logger != nil {
		i.Logger.Debug(msg, fields...)
	}
}
