package main

import (
	"fmt"
	"log"

	"github.com/alecthomas/kong"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/imu"
)

var CLI struct {
	Device string `arg:"" optional:"" default:"/dev/spidev0.1" help:"SPI device the IMU is on."`
}

func main() {
	kong.Parse(&CLI, kong.Name("spitests"), kong.Description("Check the IMU answers on SPI."))

	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	refs := spireg.All()
	for _, r := range refs {
		log.Printf("Port ref: %v", r)
	}

	m, err := imu.NewSPI(CLI.Device)
	if err != nil {
		log.Fatalf("Failed to open IMU on %s: %v", CLI.Device, err)
	}
	defer m.Close()

	who, err := m.WhoAmI()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("WHO_AM_I: 0x%02x (%s)\n", who, chipName(who))
}

func chipName(who byte) string {
	switch who {
	case imu.WhoAmIMPU9250:
		return "MPU-9250"
	case imu.WhoAmIMPU9255:
		return "MPU-9255"
	case imu.WhoAmIMPU6500:
		return "MPU-6500, no magnetometer"
	}
	return "unknown"
}
