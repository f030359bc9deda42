package mux

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

// MuxAddr is the TCA9548A's address with A0-A2 grounded.
const MuxAddr = 0x70

const NumPorts = 8

type Interface interface {
	DisableAllPorts() error
	SelectSinglePort(num int) error
	SelectMultiplePorts(i byte) error
	Close() error
}

type device interface {
	Write(buf []byte) error
	Close() error
}

type Mux struct {
	dev device
}

func New(deviceFile string) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, MuxAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "open mux on %s", deviceFile)
	}
	return &Mux{
		dev: dev,
	}, nil
}

func (p *Mux) SelectSinglePort(num int) error {
	if num < 0 || num >= NumPorts {
		return errors.Errorf("mux port %d out of range", num)
	}
	return p.dev.Write([]byte{1 << uint(num)})
}

func (p *Mux) SelectMultiplePorts(i byte) error {
	return p.dev.Write([]byte{i})
}

func (p *Mux) DisableAllPorts() error {
	return p.dev.Write([]byte{0})
}

func (p *Mux) Close() error {
	return p.dev.Close()
}

// DummyMux records the selected port without touching a bus. Port is -1
// when nothing is selected.
type DummyMux struct {
	Port int
}

var _ Interface = (*DummyMux)(nil)

func Dummy() *DummyMux {
	return &DummyMux{Port: -1}
}

func (p *DummyMux) SelectSinglePort(num int) error {
	if num < 0 || num >= NumPorts {
		return errors.Errorf("mux port %d out of range", num)
	}
	p.Port = num
	return nil
}

func (p *DummyMux) DisableAllPorts() error {
	p.Port = -1
	return nil
}

func (p *DummyMux) SelectMultiplePorts(i byte) error {
	return nil
}

func (p *DummyMux) Close() error {
	return nil
}
