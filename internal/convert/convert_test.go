package convert

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// gradientPNG encodes a w x h PNG with enough pixel variation that JPEG
// quality changes show up in the output size.
func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 7) % 256),
				G: uint8((y * 13) % 256),
				B: uint8((x*y + x + y) % 256),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// transparentPNG encodes a fully transparent PNG.
func transparentPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func selectAndConvert(t *testing.T, c *Controller, name string, data []byte) {
	t.Helper()
	if err := c.SelectFile(name, "image/png", data); err != nil {
		t.Fatalf("select %s: %v", name, err)
	}
	if err := c.Convert(); err != nil {
		t.Fatalf("convert %s: %v", name, err)
	}
}

func TestConvertProducesJPEG(t *testing.T) {
	c := New()
	selectAndConvert(t, c, "photo.png", gradientPNG(t, 64, 48))

	if c.State() != StateConverted {
		t.Fatalf("state: got %s want %s", c.State(), StateConverted)
	}
	output, err := c.Output()
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	if len(output) == 0 {
		t.Fatal("expected non-empty output")
	}
	if output[0] != 0xFF || output[1] != 0xD8 {
		t.Fatalf("output missing JPEG SOI marker: % x", output[:2])
	}
	decoded, err := jpeg.Decode(bytes.NewReader(output))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("output dimensions: got %dx%d want 64x48", b.Dx(), b.Dy())
	}
}

func TestConvertReportsFixedMilestones(t *testing.T) {
	c := New()
	var percents []int
	c.SetProgressFunc(func(percent int, message string) {
		percents = append(percents, percent)
		if message == "" {
			t.Error("milestone message should not be empty")
		}
	})
	selectAndConvert(t, c, "photo.png", gradientPNG(t, 16, 16))

	want := []int{20, 40, 70, 100}
	if len(percents) != len(want) {
		t.Fatalf("milestones: got %v want %v", percents, want)
	}
	for i := range want {
		if percents[i] != want[i] {
			t.Fatalf("milestones: got %v want %v", percents, want)
		}
	}
}

func TestQualityMonotonicity(t *testing.T) {
	source := gradientPNG(t, 128, 96)
	var prevSize int
	for _, quality := range []int{1, 10, 25, 50, 75, 100} {
		c := New()
		if err := c.SetQuality(quality); err != nil {
			t.Fatalf("set quality %d: %v", quality, err)
		}
		selectAndConvert(t, c, "photo.png", source)
		output, err := c.Output()
		if err != nil {
			t.Fatalf("output at quality %d: %v", quality, err)
		}
		if len(output) < prevSize {
			t.Fatalf("quality %d produced %d bytes, smaller than previous %d", quality, len(output), prevSize)
		}
		prevSize = len(output)
	}
}

func TestTransparentPixelsFlattenToWhite(t *testing.T) {
	c := New()
	selectAndConvert(t, c, "ghost.png", transparentPNG(t, 8, 8))

	output, err := c.Output()
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(output))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	r, g, b, _ := decoded.At(4, 4).RGBA()
	// Tolerate lossy encoding, but the fill must clearly be white.
	const floor = 0xF000
	if r < floor || g < floor || b < floor {
		t.Fatalf("expected white fill, got r=%#x g=%#x b=%#x", r, g, b)
	}
}

func TestSelectFileRejectsNonPNGType(t *testing.T) {
	c := New()
	if err := c.SelectFile("photo.jpg", "image/jpeg", []byte{1, 2, 3}); err != ErrInvalidType {
		t.Fatalf("got %v want %v", err, ErrInvalidType)
	}
	if c.State() != StateIdle {
		t.Fatalf("rejection must not leave idle, state %s", c.State())
	}
}

func TestSelectFileRejectsOversized(t *testing.T) {
	c := New()
	oversized := make([]byte, MaxFileSize+1)
	if err := c.SelectFile("big.png", "image/png", oversized); err != ErrTooLarge {
		t.Fatalf("got %v want %v", err, ErrTooLarge)
	}
	if c.State() != StateIdle {
		t.Fatalf("rejection must not leave idle, state %s", c.State())
	}
}

func TestRejectionPreservesPriorJob(t *testing.T) {
	c := New()
	selectAndConvert(t, c, "photo.png", gradientPNG(t, 16, 16))

	if err := c.SelectFile("nope.gif", "image/gif", []byte{1}); err != ErrInvalidType {
		t.Fatalf("got %v want %v", err, ErrInvalidType)
	}
	if c.State() != StateConverted {
		t.Fatalf("state after rejection: got %s want %s", c.State(), StateConverted)
	}
	if _, err := c.Output(); err != nil {
		t.Fatalf("prior output must survive a rejected selection: %v", err)
	}
	if c.OutputFilename() != "photo.jpg" {
		t.Fatalf("prior job name must survive, got %q", c.OutputFilename())
	}
}

func TestSelectFileRefusedWhileConverting(t *testing.T) {
	c := New()
	var busyErr error
	c.SetProgressFunc(func(percent int, message string) {
		if percent == 40 {
			busyErr = c.SelectFile("second.png", "image/png", gradientPNG(t, 4, 4))
		}
	})
	selectAndConvert(t, c, "first.png", gradientPNG(t, 16, 16))

	if busyErr != ErrBusy {
		t.Fatalf("mid-conversion selection: got %v want %v", busyErr, ErrBusy)
	}
	if c.OutputFilename() != "first.jpg" {
		t.Fatalf("in-flight job must win, got %q", c.OutputFilename())
	}
}

func TestCorruptSourceFailsGenerically(t *testing.T) {
	c := New()
	if err := c.SelectFile("broken.png", "image/png", []byte("not a png at all")); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.Convert(); err != ErrConversionFailed {
		t.Fatalf("got %v want %v", err, ErrConversionFailed)
	}
	if c.State() != StateFailed {
		t.Fatalf("state: got %s want %s", c.State(), StateFailed)
	}
	if _, err := c.Output(); err != ErrNoOutput {
		t.Fatalf("no partial output may leak, got %v", err)
	}

	// A new selection recovers from the failed state.
	selectAndConvert(t, c, "good.png", gradientPNG(t, 8, 8))
	if c.State() != StateConverted {
		t.Fatalf("recovery state: got %s", c.State())
	}
}

func TestConvertWithoutSelection(t *testing.T) {
	c := New()
	if err := c.Convert(); err != ErrNoFile {
		t.Fatalf("got %v want %v", err, ErrNoFile)
	}
}

func TestSetQualityRange(t *testing.T) {
	c := New()
	if c.Quality() != DefaultQuality {
		t.Fatalf("default quality: got %d", c.Quality())
	}
	for _, q := range []int{0, -1, 101} {
		if err := c.SetQuality(q); err != ErrQualityRange {
			t.Fatalf("quality %d: got %v want %v", q, err, ErrQualityRange)
		}
	}
	for _, q := range []int{1, 100} {
		if err := c.SetQuality(q); err != nil {
			t.Fatalf("quality %d: %v", q, err)
		}
	}
}

func TestResetReturnsToIdleDefaults(t *testing.T) {
	c := New()
	if err := c.SetQuality(30); err != nil {
		t.Fatalf("set quality: %v", err)
	}
	selectAndConvert(t, c, "photo.png", gradientPNG(t, 8, 8))

	c.Reset()

	if c.State() != StateIdle {
		t.Fatalf("state after reset: got %s", c.State())
	}
	if c.Quality() != DefaultQuality {
		t.Fatalf("quality after reset: got %d want %d", c.Quality(), DefaultQuality)
	}
	if _, err := c.Output(); err != ErrNoOutput {
		t.Fatalf("output after reset: got %v", err)
	}
	if _, _, ok := c.FileInfo(); ok {
		t.Fatal("file info should be cleared after reset")
	}
}

func TestOutputFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.jpg"},
		{"PHOTO.PNG", "PHOTO.jpg"},
		{"photo.Png", "photo.jpg"},
		{"archive.tar", "archive.tar.jpg"},
		{"noextension", "noextension.jpg"},
		{"double.png.png", "double.png.jpg"},
	}
	for _, tc := range cases {
		c := New()
		if err := c.SelectFile(tc.in, "image/png", gradientPNG(t, 2, 2)); err != nil {
			t.Fatalf("select %s: %v", tc.in, err)
		}
		if got := c.OutputFilename(); got != tc.want {
			t.Fatalf("filename for %q: got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestSaveOutput(t *testing.T) {
	c := New()
	selectAndConvert(t, c, "photo.png", gradientPNG(t, 8, 8))

	dir := t.TempDir()
	path, err := c.SaveOutput(dir)
	if err != nil {
		t.Fatalf("save output: %v", err)
	}
	if filepath.Base(path) != "photo.jpg" {
		t.Fatalf("saved name: got %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatal("saved file is not a JPEG")
	}
}

func TestSaveOutputWithoutConversion(t *testing.T) {
	c := New()
	if _, err := c.SaveOutput(t.TempDir()); err != ErrNoOutput {
		t.Fatalf("got %v want %v", err, ErrNoOutput)
	}
}

func TestFormatFileSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{5242880, "5 MB"},
	}
	for _, tc := range cases {
		if got := FormatFileSize(tc.in); got != tc.want {
			t.Fatalf("FormatFileSize(%d): got %q want %q", tc.in, got, tc.want)
		}
	}
}
