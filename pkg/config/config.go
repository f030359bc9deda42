package config

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
)

const (
	TransportI2C = "i2c"
	TransportSPI = "spi"
)

// Board describes how the IMU is wired up. Zero values in a file fall back to
// Default.
type Board struct {
	DMP dmp.Config `yaml:"dmp"`

	Transport string `yaml:"transport"`
	SPIDevice string `yaml:"spi_device"`

	// TCA9548A port the IMU sits behind, -1 for a direct connection.
	MuxPort int `yaml:"mux_port"`

	// Poll at the sample rate instead of waiting on the interrupt line.
	NoInterrupt bool `yaml:"no_interrupt"`

	Screen          string `yaml:"screen"`
	ReadySound      string `yaml:"ready_sound"`
	CalibrationFile string `yaml:"calibration_file"`
	BNO08xDevice    string `yaml:"bno08x_device"`
}

func Default() Board {
	return Board{
		DMP:             dmp.DefaultConfig(),
		Transport:       TransportI2C,
		SPIDevice:       "/dev/spidev0.0",
		MuxPort:         -1,
		CalibrationFile: "/var/lib/imuprint/gyro.yaml",
		BNO08xDevice:    "/dev/ttyAMA0",
	}
}

// I2CDevice is the bus device file for DMP.I2CBus.
func (b Board) I2CDevice() string {
	return fmt.Sprintf("/dev/i2c-%d", b.DMP.I2CBus)
}

func (b Board) Validate() error {
	switch b.Transport {
	case TransportI2C, TransportSPI:
	default:
		return errors.Errorf("unknown transport %q", b.Transport)
	}
	if b.MuxPort < -1 || b.MuxPort > 7 {
		return errors.Errorf("mux_port must be -1..7, got %d", b.MuxPort)
	}
	return b.DMP.Validate()
}

// Load reads a board file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Board, error) {
	b := Default()
	if path == "" {
		return b, nil
	}
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return b, errors.Wrap(err, "failed to read board config")
	}
	if err := yaml.UnmarshalStrict(raw, &b); err != nil {
		return b, errors.Wrapf(err, "failed to parse %s", path)
	}
	return b, nil
}

// Calibration is the stored gyro zero offset.
type Calibration struct {
	GyroBias [3]float64 `yaml:"gyro_bias"` // degrees/s
	Samples  int        `yaml:"samples"`
}

// LoadCalibration returns a zero calibration if the file doesn't exist.
func LoadCalibration(path string) (Calibration, error) {
	var c Calibration
	raw, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	} else if err != nil {
		return c, errors.Wrap(err, "failed to read calibration")
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, errors.Wrapf(err, "failed to parse %s", path)
	}
	return c, nil
}

func SaveCalibration(path string, c Calibration) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return errors.Wrap(ioutil.WriteFile(path, raw, 0644), "failed to write calibration")
}
