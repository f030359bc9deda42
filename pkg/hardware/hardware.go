package hardware

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"periph.io/x/periph/conn/gpio"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/imu"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/mux"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/sound"
)

type Hardware struct {
	log *zap.Logger

	mux    mux.Interface
	imu    *imu.IMU
	pin    gpio.PinIO
	ticker *dmp.TickerInterrupt

	soundsToPlay chan string
}

var _ Interface = (*Hardware)(nil)

// Open brings up the board: mux port, IMU transport and interrupt line. On
// error anything already opened is closed again.
func Open(board config.Board, log *zap.Logger) (_ *Hardware, err error) {
	h := &Hardware{log: log}
	defer func() {
		if err != nil {
			h.Shutdown()
		}
	}()

	if board.MuxPort >= 0 {
		h.mux, err = mux.New(board.I2CDevice())
		if err != nil {
			return nil, err
		}
		if err = h.mux.SelectSinglePort(board.MuxPort); err != nil {
			return nil, errors.Wrap(err, "failed to select mux port")
		}
	}

	switch board.Transport {
	case config.TransportSPI:
		h.imu, err = imu.NewSPI(board.SPIDevice)
	default:
		h.imu, err = imu.NewI2C(board.I2CDevice(), board.DMP.I2CAddr)
	}
	if err != nil {
		return nil, err
	}

	if board.NoInterrupt {
		log.Info("No interrupt line, polling at the sample rate")
		h.ticker = dmp.NewTickerInterrupt(board.DMP.DMPSampleRate)
	} else {
		h.pin, err = OpenInterruptPin(board.DMP.GPIOInterruptPinChip, board.DMP.GPIOInterruptPin)
		if err != nil {
			return nil, err
		}
	}

	h.soundsToPlay = sound.InitSound(log)
	return h, nil
}

func (h *Hardware) IMU() imu.Interface {
	return h.imu
}

func (h *Hardware) Interrupt() dmp.Interrupt {
	if h.ticker != nil {
		return h.ticker
	}
	return h.pin
}

func (h *Hardware) PlaySound(path string) {
	if path == "" || h.soundsToPlay == nil {
		return
	}
	select {
	case h.soundsToPlay <- path:
	case <-time.After(10 * time.Millisecond):
		h.log.Warn("Timed out trying to play sound", zap.String("path", path))
	}
}

func (h *Hardware) Shutdown() {
	if h.soundsToPlay != nil {
		close(h.soundsToPlay)
		h.soundsToPlay = nil
	}
	if h.ticker != nil {
		h.ticker.Stop()
	}
	if h.pin != nil {
		if err := h.pin.Halt(); err != nil {
			h.log.Warn("Failed to release interrupt pin", zap.Error(err))
		}
	}
	if h.imu != nil {
		if err := h.imu.Close(); err != nil {
			h.log.Warn("Failed to close IMU", zap.Error(err))
		}
	}
	if h.mux != nil {
		_ = h.mux.DisableAllPorts()
		_ = h.mux.Close()
	}
}
