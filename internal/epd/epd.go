// Package epd drives the Waveshare 7.5" tri-color e-paper (B) panel over
// SPI, with a file-based simulator for development machines.
package epd

import (
	"context"
	"image"

	"epddash/internal/config"
	appLog "epddash/internal/log"
)

// Sink is where a rendered frame ends up: real panel or simulator.
type Sink interface {
	// Show pushes a full frame. The raster must match the panel geometry.
	Show(ctx context.Context, img *image.NRGBA) error
	// Sleep puts the panel into deep sleep between refreshes.
	Sleep() error
	Close() error
}

// New picks a sink for the configured display. When hardware is requested
// but unavailable (no SPI bus, not a Pi) it falls back to the simulator so
// the rest of the run still completes.
func New(cfg config.DisplayConfig) Sink {
	if cfg.UseHardware {
		p, err := NewPanel()
		if err == nil {
			appLog.Info("using hardware e-paper panel")
			return p
		}
		appLog.Warn("hardware panel unavailable, falling back to simulator", "reason", err.Error())
	}
	return NewSimulator(cfg.PreviewPath)
}
