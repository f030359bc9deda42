package imu

import (
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

// NewSPI opens the IMU on an SPI device such as "/dev/spidev0.1".
func NewSPI(deviceFile string) (*IMU, error) {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		return nil, err
	}

	p, err := spireg.Open(deviceFile)
	if err != nil {
		return nil, err
	}

	// 1MHz is the limit for register writes on the MPU-9250.
	c, err := p.Connect(physic.KiloHertz*1000, spi.Mode3, 8)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	return &IMU{
		dev:        &SPIAdapter{c: c, p: p},
		disableI2C: true,
	}, nil
}

type SPIAdapter struct {
	c spi.Conn
	p spi.PortCloser

	r, w []byte
}

const W = 0x00
const R = 0x80

func (s *SPIAdapter) ReadReg(reg byte, buf []byte) error {
	// The read and write buffers need to be as long as the whole transaction.
	bufLen := 1 + len(buf)
	s.ensureBuf(bufLen)
	s.w[0] = R | reg
	err := s.c.Tx(s.w[:bufLen], s.r[:bufLen])
	if err != nil {
		return err
	}
	// The response only starts after the address byte.
	copy(buf, s.r[1:bufLen])
	return nil
}

func (s *SPIAdapter) WriteReg(reg byte, buf []byte) (err error) {
	bufLen := 1 + len(buf)
	s.ensureBuf(bufLen)
	s.w[0] = W | reg
	copy(s.w[1:], buf)
	err = s.c.Tx(s.w[:bufLen], s.r[:bufLen])
	return
}

func (s *SPIAdapter) Close() error {
	return s.p.Close()
}

func (s *SPIAdapter) ensureBuf(l int) {
	if len(s.r) < l {
		s.w = make([]byte, l)
		s.r = make([]byte, l)
	} else {
		for i := 0; i < l; i++ {
			s.w[i] = 0
			s.r[i] = 0
		}
	}
}
