package epd

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	appLog "epddash/internal/log"
)

// Simulator writes each frame to a PNG file instead of a physical panel.
type Simulator struct {
	path string
}

// NewSimulator returns a sink that saves frames to path (default
// "preview.png" when empty).
func NewSimulator(path string) *Simulator {
	if path == "" {
		path = "preview.png"
	}
	return &Simulator{path: path}
}

// Show encodes the frame as PNG. The write goes through a temp file and
// rename so a concurrent preview reader never sees a half-written image.
func (s *Simulator) Show(_ context.Context, img *image.NRGBA) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".preview-*.png")
	if err != nil {
		return fmt.Errorf("sim: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("sim: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("sim: rename: %w", err)
	}
	appLog.Info("simulated display updated", "path", s.path)
	return nil
}

// Path returns where the simulator writes frames.
func (s *Simulator) Path() string { return s.path }

func (s *Simulator) Sleep() error { return nil }
func (s *Simulator) Close() error { return nil }
