package hardware

import (
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/imu"
)

type Interface interface {
	IMU() imu.Interface
	// Interrupt is the IMU's data-ready line, or a ticker standing in for it.
	Interrupt() dmp.Interrupt

	PlaySound(path string)

	Shutdown()
}
