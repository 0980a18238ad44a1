//go:build linux

package epd

import (
	"context"
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"epddash/internal/convert"
)

// BCM pin assignments for the Waveshare e-paper HAT.
const (
	bcmRST  = 17
	bcmDC   = 25
	bcmBusy = 24
	bcmPWR  = 18
)

// Panel drives the 7.5" B (800×480, UC8179 controller) over /dev/spidev0.0.
// The chip select is handled by the SPI device itself.
type Panel struct {
	port spi.PortCloser
	conn spi.Conn

	rst  gpio.PinOut
	dc   gpio.PinOut
	pwr  gpio.PinOut
	busy gpio.PinIn

	initialized bool
}

// NewPanel opens the SPI bus and claims the control pins. It fails cleanly
// on machines without the hardware, which the caller turns into a simulator
// fallback.
func NewPanel() (*Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("epd: periph host init: %w", err)
	}

	port, err := spireg.Open("")
	if err != nil {
		return nil, fmt.Errorf("epd: open spi: %w", err)
	}
	conn, err := port.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("epd: connect spi: %w", err)
	}

	gpioOut := func(num int, lvl gpio.Level) (gpio.PinOut, error) {
		p := gpioreg.ByName(fmt.Sprintf("GPIO%d", num))
		if p == nil {
			return nil, fmt.Errorf("epd: gpio %d not found", num)
		}
		if err := p.Out(lvl); err != nil {
			return nil, fmt.Errorf("epd: gpio %d out: %w", num, err)
		}
		return p, nil
	}

	panel := &Panel{port: port, conn: conn}
	if panel.rst, err = gpioOut(bcmRST, gpio.High); err != nil {
		port.Close()
		return nil, err
	}
	if panel.dc, err = gpioOut(bcmDC, gpio.Low); err != nil {
		port.Close()
		return nil, err
	}
	if panel.pwr, err = gpioOut(bcmPWR, gpio.High); err != nil {
		port.Close()
		return nil, err
	}

	busy := gpioreg.ByName(fmt.Sprintf("GPIO%d", bcmBusy))
	if busy == nil {
		port.Close()
		return nil, fmt.Errorf("epd: gpio %d not found", bcmBusy)
	}
	if err := busy.In(gpio.PullUp, gpio.NoEdge); err != nil {
		port.Close()
		return nil, fmt.Errorf("epd: gpio %d in: %w", bcmBusy, err)
	}
	panel.busy = busy

	return panel, nil
}

// Show packs the raster into black/red planes and runs a full refresh.
func (p *Panel) Show(ctx context.Context, img *image.NRGBA) error {
	black, red, err := convert.PackNRGBA(img)
	if err != nil {
		return err
	}

	if !p.initialized {
		if err := p.initPanel(); err != nil {
			return err
		}
		p.initialized = true
	}

	// Black plane, then red plane (red bits are inverted on the wire).
	if err := p.sendCommand(0x10); err != nil {
		return err
	}
	if err := p.sendData(black); err != nil {
		return err
	}
	if err := p.sendCommand(0x13); err != nil {
		return err
	}
	inv := make([]byte, len(red))
	for i, b := range red {
		inv[i] = ^b
	}
	if err := p.sendData(inv); err != nil {
		return err
	}

	return p.refresh(ctx)
}

// Clear flushes both planes to white.
func (p *Panel) Clear(ctx context.Context) error {
	if !p.initialized {
		if err := p.initPanel(); err != nil {
			return err
		}
		p.initialized = true
	}

	white := make([]byte, convert.EPDPlaneSize)
	for i := range white {
		white[i] = 0xFF
	}
	if err := p.sendCommand(0x10); err != nil {
		return err
	}
	if err := p.sendData(white); err != nil {
		return err
	}
	if err := p.sendCommand(0x13); err != nil {
		return err
	}
	zero := make([]byte, convert.EPDPlaneSize)
	if err := p.sendData(zero); err != nil {
		return err
	}
	return p.refresh(ctx)
}

// Sleep powers the panel down into deep sleep. A reset wakes it, so the
// next Show re-runs the init sequence.
func (p *Panel) Sleep() error {
	if err := p.sendCommand(0x02); err != nil { // power off
		return err
	}
	if err := p.waitIdle(context.Background()); err != nil {
		return err
	}
	if err := p.sendCommand(0x07); err != nil { // deep sleep
		return err
	}
	if err := p.sendData([]byte{0xA5}); err != nil {
		return err
	}
	p.initialized = false
	return nil
}

func (p *Panel) Close() error {
	_ = p.pwr.Out(gpio.Low)
	return p.port.Close()
}

// initPanel runs the UC8179 power-on sequence for the 7.5" B V2 panel.
func (p *Panel) initPanel() error {
	p.reset()

	steps := []struct {
		cmd  byte
		data []byte
	}{
		{0x01, []byte{0x07, 0x07, 0x3f, 0x3f}}, // power setting
		{0x06, []byte{0x17, 0x17, 0x28, 0x17}}, // booster soft start
		{0x04, nil},                            // power on
	}
	for _, s := range steps {
		if err := p.sendCommand(s.cmd); err != nil {
			return err
		}
		if len(s.data) > 0 {
			if err := p.sendData(s.data); err != nil {
				return err
			}
		}
	}
	if err := p.waitIdle(context.Background()); err != nil {
		return err
	}

	steps = []struct {
		cmd  byte
		data []byte
	}{
		{0x00, []byte{0x0F}},                   // panel setting: KWR mode
		{0x61, []byte{0x03, 0x20, 0x01, 0xE0}}, // resolution 800×480
		{0x15, []byte{0x00}},                   // dual SPI off
		{0x50, []byte{0x11, 0x07}},             // VCOM and data interval
		{0x60, []byte{0x22}},                   // TCON
	}
	for _, s := range steps {
		if err := p.sendCommand(s.cmd); err != nil {
			return err
		}
		if err := p.sendData(s.data); err != nil {
			return err
		}
	}
	return nil
}

func (p *Panel) reset() {
	_ = p.rst.Out(gpio.High)
	time.Sleep(20 * time.Millisecond)
	_ = p.rst.Out(gpio.Low)
	time.Sleep(2 * time.Millisecond)
	_ = p.rst.Out(gpio.High)
	time.Sleep(20 * time.Millisecond)
}

func (p *Panel) refresh(ctx context.Context) error {
	if err := p.sendCommand(0x12); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	return p.waitIdle(ctx)
}

// waitIdle polls the BUSY pin (low while the controller is busy). A full
// tri-color refresh takes on the order of 15-30 seconds.
func (p *Panel) waitIdle(ctx context.Context) error {
	deadline := time.Now().Add(60 * time.Second)
	for p.busy.Read() == gpio.Low {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("epd: busy timeout")
		}
		time.Sleep(20 * time.Millisecond)
	}
	return nil
}

func (p *Panel) sendCommand(cmd byte) error {
	if err := p.dc.Out(gpio.Low); err != nil {
		return err
	}
	return p.conn.Tx([]byte{cmd}, nil)
}

// sendData streams a data buffer in SPI-transfer-sized chunks.
func (p *Panel) sendData(data []byte) error {
	if err := p.dc.Out(gpio.High); err != nil {
		return err
	}
	const chunk = 4096
	for off := 0; off < len(data); off += chunk {
		end := off + chunk
		if end > len(data) {
			end = len(data)
		}
		if err := p.conn.Tx(data[off:end], nil); err != nil {
			return err
		}
	}
	return nil
}
