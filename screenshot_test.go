package engy

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"after-spawn", "after-spawn"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"back\\slash", "back_slash"},
		{"special!@#$%", "special_____"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
		{"MixedCase123", "MixedCase123"},
	}
	for _, tt := range tests {
		got := sanitizeLabel(tt.in)
		if got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScreenshotQueueAppend(t *testing.T) {
	app := newTestApp(t, nil, nil)
	app.Screenshot("a")
	app.Screenshot("b")
	app.Screenshot("c")
	if len(app.screenshotQueue) != 3 {
		t.Fatalf("queue len = %d, want 3", len(app.screenshotQueue))
	}
	if app.screenshotQueue[0] != "a" || app.screenshotQueue[1] != "b" || app.screenshotQueue[2] != "c" {
		t.Errorf("queue = %v, want [a b c]", app.screenshotQueue)
	}
}

func TestScreenshotWrittenOnRender(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScreenshotDir = filepath.Join(t.TempDir(), "shots")
	cfg.Background = "#ff0000"
	clock := func() time.Time { return time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC) }
	app := newTestAppConfig(t, cfg, nil, nil, WithClock(clock))

	app.Screenshot("first frame")
	if err := app.RenderTo(NewImageSurface(4, 4)); err != nil {
		t.Fatal(err)
	}
	if len(app.screenshotQueue) != 0 {
		t.Errorf("queue not flushed: %v", app.screenshotQueue)
	}

	want := filepath.Join(cfg.ScreenshotDir, "20240301_123045_first_frame.png")
	f, err := os.Open(want)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Errorf("Bounds = %v", img.Bounds())
	}
	if got := color.NRGBAModel.Convert(img.At(2, 2)); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("pixel = %v, want red", got)
	}
}

// blindSurface cannot be read back.
type blindSurface struct{ *ImageSurface }

func (blindSurface) Snapshot() {}

func TestScreenshotDroppedWithoutSnapshot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScreenshotDir = filepath.Join(t.TempDir(), "shots")
	app := newTestAppConfig(t, cfg, nil, nil)

	app.Screenshot("x")
	s := blindSurface{NewImageSurface(2, 2)}
	if written := app.flushScreenshots(s); len(written) != 0 {
		t.Errorf("written = %v, want none", written)
	}
	if len(app.screenshotQueue) != 0 {
		t.Error("queue should be dropped")
	}
	if _, err := os.Stat(cfg.ScreenshotDir); !os.IsNotExist(err) {
		t.Errorf("screenshot dir should not be created, stat err = %v", err)
	}
}

func TestTimestamp(t *testing.T) {
	got := timestamp(time.Date(2025, 12, 31, 23, 59, 58, 0, time.UTC))
	if got != "20251231_235958" {
		t.Errorf("timestamp = %q", got)
	}
	if strings.ContainsAny(got, ":/ ") {
		t.Error("timestamp must be safe in file names")
	}
}
