package engy

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Screenshot queues a labeled screenshot to be captured at the end of the
// next render. The resulting PNG is written to Config.ScreenshotDir with a
// timestamped filename. Safe to call from any phase.
func (a *App) Screenshot(label string) {
	a.screenshotQueue = append(a.screenshotQueue, label)
}

// flushScreenshots captures s for every queued label and writes each as a
// PNG file. It returns the paths written. Surfaces that cannot be read back
// drop the queue with a warning.
func (a *App) flushScreenshots(s Surface) []string {
	if len(a.screenshotQueue) == 0 {
		return nil
	}
	defer func() { a.screenshotQueue = a.screenshotQueue[:0] }()

	snap, ok := s.(Snapshotter)
	if !ok {
		a.logger.Warn("screenshot: surface cannot be read back", "dropped", len(a.screenshotQueue))
		return nil
	}
	dir := a.cfg.ScreenshotDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.logger.Warn("screenshot: mkdir failed", "dir", dir, "err", err)
		return nil
	}
	img := snap.Snapshot()
	if img == nil {
		return nil
	}

	stamp := timestamp(a.clock())
	var written []string
	for _, label := range a.screenshotQueue {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			a.logger.Warn("screenshot failed", "err", err)
			continue
		}
		a.logger.Info("screenshot written", "path", path)
		written = append(written, path)
	}
	return written
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// timestamp formats t for screenshot file names.
func timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}
