// Package convert implements the PNG-to-JPEG conversion pipeline as an
// explicit state machine: validate a selected file, decode it, flatten it
// onto an opaque surface, and re-encode it as JPEG at a chosen quality.
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	// The decoder for the supported source format.
	_ "image/png"
)

// State identifies the controller's position in the conversion lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateSelected   State = "selected"
	StateConverting State = "converting"
	StateConverted  State = "converted"
	StateFailed     State = "failed"
)

const (
	// MaxFileSize is the accepted source size ceiling (50 MiB).
	MaxFileSize = 50 * 1024 * 1024

	// DefaultQuality is the JPEG quality used until the caller picks another.
	DefaultQuality = 85
)

// User-facing messages. Infrastructure detail never leaks through these.
var (
	ErrInvalidType      = errors.New("Please select a PNG image file.")
	ErrTooLarge         = errors.New("File size must be less than 50MB.")
	ErrNoFile           = errors.New("Please select a PNG file first.")
	ErrBusy             = errors.New("A conversion is already in progress.")
	ErrNoOutput         = errors.New("No converted file available. Please convert first.")
	ErrConversionFailed = errors.New("Failed to convert image. Please try again.")
	ErrQualityRange     = errors.New("quality must be between 1 and 100")
)

// ProgressFunc receives coarse milestone updates while a conversion runs.
// Milestones are fixed checkpoints, not measured throughput.
type ProgressFunc func(percent int, message string)

// Job is the single in-flight conversion: the selected source and, after a
// successful run, the encoded output.
type Job struct {
	Name   string
	MIME   string
	Size   int64
	source []byte
	output []byte
}

// Controller owns at most one Job and drives it through the state machine.
// It is a single-flow component; callers serialize access.
type Controller struct {
	state    State
	job      *Job
	quality  int
	progress ProgressFunc
}

// New returns an idle controller at the default quality.
func New() *Controller {
	return &Controller{state: StateIdle, quality: DefaultQuality}
}

// SetProgressFunc registers the milestone callback.
func (c *Controller) SetProgressFunc(fn ProgressFunc) {
	c.progress = fn
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Quality returns the JPEG quality currently selected.
func (c *Controller) Quality() int {
	return c.quality
}

// SetQuality picks the encoder quality. Valid range is 1-100 inclusive.
func (c *Controller) SetQuality(q int) error {
	if q < 1 || q > 100 {
		return ErrQualityRange
	}
	c.quality = q
	return nil
}

// SelectFile validates the candidate and makes it the live job. Rejections
// leave the previous job and state untouched; no job is created for them.
// Selection is refused while a conversion is running so a second job cannot
// mutate shared state mid-flight.
func (c *Controller) SelectFile(name, mimeType string, data []byte) error {
	if c.state == StateConverting {
		return ErrBusy
	}
	if !strings.HasPrefix(mimeType, "image/png") {
		return ErrInvalidType
	}
	if int64(len(data)) > MaxFileSize {
		return ErrTooLarge
	}
	c.job = &Job{
		Name:   name,
		MIME:   mimeType,
		Size:   int64(len(data)),
		source: data,
	}
	c.state = StateSelected
	return nil
}

// Convert decodes the selected source, flattens it onto a white surface
// sized exactly to the decoded raster, and re-encodes it as JPEG at the
// selected quality. On any failure the attempt ends in the failed state
// with no partial output.
func (c *Controller) Convert() error {
	if c.state == StateConverting {
		return ErrBusy
	}
	if c.job == nil {
		return ErrNoFile
	}
	c.state = StateConverting
	c.report(20, "Loading image...")

	src, _, err := image.Decode(bytes.NewReader(c.job.source))
	if err != nil {
		c.fail()
		return ErrConversionFailed
	}
	c.report(40, "Processing image...")

	// JPEG has no alpha channel; transparent regions flatten to white.
	bounds := src.Bounds()
	surface := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(surface, surface.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(surface, surface.Bounds(), src, bounds.Min, draw.Over)
	c.report(70, "Converting to JPEG...")

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, surface, &jpeg.Options{Quality: c.quality}); err != nil {
		c.fail()
		return ErrConversionFailed
	}
	c.job.output = buf.Bytes()
	c.state = StateConverted
	c.report(100, "Conversion complete!")
	return nil
}

// Output returns the encoded JPEG. Only valid after a successful Convert.
func (c *Controller) Output() ([]byte, error) {
	if c.state != StateConverted || c.job == nil || c.job.output == nil {
		return nil, ErrNoOutput
	}
	return c.job.output, nil
}

// OutputFilename derives the download name: a trailing ".png" in any case is
// replaced by ".jpg"; any other name simply gains a ".jpg" suffix.
func (c *Controller) OutputFilename() string {
	if c.job == nil {
		return ""
	}
	name := c.job.Name
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".png") {
		name = name[:len(name)-len(ext)]
	}
	return name + ".jpg"
}

// SaveOutput writes the converted blob into dir under OutputFilename and
// returns the written path.
func (c *Controller) SaveOutput(dir string) (string, error) {
	output, err := c.Output()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, c.OutputFilename())
	if err := os.WriteFile(path, output, 0o644); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	return path, nil
}

// Reset discards the job and returns to idle with the default quality.
func (c *Controller) Reset() {
	c.job = nil
	c.state = StateIdle
	c.quality = DefaultQuality
}

// FileInfo reports the selected file's name and human-readable size for
// display. ok is false when nothing is selected.
func (c *Controller) FileInfo() (name, size string, ok bool) {
	if c.job == nil {
		return "", "", false
	}
	return c.job.Name, FormatFileSize(c.job.Size), true
}

func (c *Controller) fail() {
	c.state = StateFailed
	if c.job != nil {
		c.job.output = nil
	}
}

func (c *Controller) report(percent int, message string) {
	if c.progress != nil {
		c.progress(percent, message)
	}
}
