// Package battery reads the charge level from a PiSugar3 UPS over I2C, so
// templates and the status API can show how long the frame will last
// between charges.
package battery

import (
	"context"
	"errors"
	"runtime"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"epddash/internal/config"
	appLog "epddash/internal/log"
)

// Status is the battery state reported to templates and the status API.
type Status struct {
	Percent   int `json:"percent"`
	VoltageMv int `json:"voltage_mv"`
}

// Reader abstracts the battery source so callers work identically with the
// real I2C controller and the fixed stub used off-device.
type Reader interface {
	Read(ctx context.Context) (Status, error)
}

// PiSugar3 register map: voltage high/low bytes and percentage.
const (
	regVoltageHigh = 0x22
	regVoltageLow  = 0x23
	regPercent     = 0x2A
)

type i2cReader struct {
	busName string
	addr    uint16
}

// NewI2CReader builds a reader for the given periph.io bus name ("" for the
// platform default, /dev/i2c-1 on a Pi) and 7-bit device address. The bus is
// opened per Read so a transient I2C failure does not wedge the process.
func NewI2CReader(busName string, addr uint16) Reader {
	return &i2cReader{busName: busName, addr: addr}
}

func (r *i2cReader) Read(_ context.Context) (Status, error) {
	if runtime.GOOS != "linux" {
		return Status{}, errors.New("battery: i2c unavailable on this platform")
	}
	if _, err := host.Init(); err != nil {
		return Status{}, err
	}

	bus, err := i2creg.Open(r.busName)
	if err != nil {
		return Status{}, err
	}
	defer bus.Close()

	dev := &i2c.Dev{Bus: bus, Addr: r.addr}
	readReg := func(reg byte) (byte, error) {
		buf := []byte{0}
		if err := dev.Tx([]byte{reg}, buf); err != nil {
			return 0, err
		}
		return buf[0], nil
	}

	high, err := readReg(regVoltageHigh)
	if err != nil {
		return Status{}, err
	}
	low, err := readReg(regVoltageLow)
	if err != nil {
		return Status{}, err
	}

	pct, err := readReg(regPercent)
	if err != nil {
		return Status{}, err
	}
	if pct > 100 {
		pct = 100
	}

	return Status{
		Percent:   int(pct),
		VoltageMv: int(uint16(high)<<8 | uint16(low)),
	}, nil
}

// stubReader reports a fixed full charge where no hardware exists. Keeping
// the value constant (rather than random) keeps renders deterministic.
type stubReader struct{}

// NewStubReader returns the off-device Reader.
func NewStubReader() Reader { return stubReader{} }

func (stubReader) Read(context.Context) (Status, error) {
	return Status{Percent: 100}, nil
}

// NewReader picks the reader for the configured battery monitor: the I2C
// controller when it answers, the stub otherwise. Callers never see the
// probe failure; a frame without a real battery number still renders.
func NewReader(cfg config.BatteryConfig) Reader {
	if !cfg.Enabled {
		return NewStubReader()
	}
	r := NewI2CReader(cfg.Bus, cfg.Addr)
	if _, err := r.Read(context.Background()); err != nil {
		appLog.Warn("battery controller unavailable, using stub", "reason", err.Error())
		return NewStubReader()
	}
	return r
}
