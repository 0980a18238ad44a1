//go:build !linux

package epd

import (
	"context"
	"errors"
	"image"
)

// Panel is only available on Linux hosts with an SPI bus.
type Panel struct{}

func NewPanel() (*Panel, error) {
	return nil, errors.New("epd: hardware panel requires linux")
}

func (p *Panel) Show(context.Context, *image.NRGBA) error { return errors.New("epd: no hardware") }
func (p *Panel) Clear(context.Context) error              { return errors.New("epd: no hardware") }
func (p *Panel) Sleep() error                             { return nil }
func (p *Panel) Close() error                             { return nil }
