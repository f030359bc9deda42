package dmp

import (
	"errors"
	"fmt"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/imu"
)

const (
	MinSampleRate = 4
	MaxSampleRate = 200
)

var ErrInvalidSampleRate = errors.New("dmp_sample_rate must be between 4 & 200 and an integer divisor of 200")

// Config is the full set of knobs for the motion processor. Start from
// DefaultConfig and override what the board needs.
type Config struct {
	AccelFSR  int `yaml:"accel_fsr"`  // g
	GyroFSR   int `yaml:"gyro_fsr"`   // degrees/s
	AccelDLPF int `yaml:"accel_dlpf"` // Hz
	GyroDLPF  int `yaml:"gyro_dlpf"`  // Hz

	EnableMagnetometer bool        `yaml:"enable_magnetometer"`
	DMPSampleRate      int         `yaml:"dmp_sample_rate"` // Hz
	Orientation        Orientation `yaml:"orientation"`

	// Seconds for the fused yaw to follow the compass.
	CompassTimeConstant float64 `yaml:"compass_time_constant"`
	// Magnetometer is read every MagSampleRateDiv samples.
	MagSampleRateDiv int `yaml:"mag_sample_rate_div"`

	MahonyKp float64 `yaml:"mahony_kp"`
	MahonyKi float64 `yaml:"mahony_ki"`

	I2CBus               int `yaml:"i2c_bus"`
	I2CAddr              int `yaml:"i2c_addr"`
	GPIOInterruptPinChip int `yaml:"gpio_interrupt_pin_chip"`
	GPIOInterruptPin     int `yaml:"gpio_interrupt_pin"`

	ShowWarnings bool `yaml:"show_warnings"`
}

func DefaultConfig() Config {
	return Config{
		AccelFSR:             4,
		GyroFSR:              2000,
		AccelDLPF:            184,
		GyroDLPF:             184,
		DMPSampleRate:        100,
		Orientation:          OrientationZUp,
		CompassTimeConstant:  20,
		MagSampleRateDiv:     4,
		MahonyKp:             2,
		MahonyKi:             0.005,
		I2CBus:               2,
		I2CAddr:              imu.DefaultAddr,
		GPIOInterruptPinChip: 3,
		GPIOInterruptPin:     21,
	}
}

func (c Config) Validate() error {
	if c.DMPSampleRate < MinSampleRate || c.DMPSampleRate > MaxSampleRate || MaxSampleRate%c.DMPSampleRate != 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidSampleRate, c.DMPSampleRate)
	}
	if _, _, err := imu.AccelRange(c.AccelFSR); err != nil {
		return err
	}
	if _, _, err := imu.GyroRange(c.GyroFSR); err != nil {
		return err
	}
	if _, err := imu.DLPFBits(c.AccelDLPF); err != nil {
		return fmt.Errorf("accel: %w", err)
	}
	if _, err := imu.DLPFBits(c.GyroDLPF); err != nil {
		return fmt.Errorf("gyro: %w", err)
	}
	if !c.Orientation.Valid() {
		return fmt.Errorf("invalid orientation %d", uint16(c.Orientation))
	}
	if c.MagSampleRateDiv < 1 {
		return fmt.Errorf("mag_sample_rate_div must be at least 1, got %d", c.MagSampleRateDiv)
	}
	if c.CompassTimeConstant <= 0 {
		return fmt.Errorf("compass_time_constant must be positive, got %v", c.CompassTimeConstant)
	}
	if c.MahonyKp < 0 || c.MahonyKi < 0 {
		return fmt.Errorf("filter gains must not be negative")
	}
	return nil
}

func (c Config) settings() imu.Settings {
	return imu.Settings{
		AccelFSR:           c.AccelFSR,
		GyroFSR:            c.GyroFSR,
		AccelDLPF:          c.AccelDLPF,
		GyroDLPF:           c.GyroDLPF,
		SampleRate:         c.DMPSampleRate,
		EnableMag:          c.EnableMagnetometer,
		DataReadyInterrupt: true,
	}
}
