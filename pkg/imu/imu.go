package imu

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x68

	// Internal sample rate with the DLPF enabled.
	baseRate = 1000

	// Gyro variance above which a calibration is rejected, (degrees/s)^2.
	maxCalibrationVariance = 10.0
)

var (
	ErrBadWhoAmI     = errors.New("unexpected WHO_AM_I")
	ErrMagNotReady   = errors.New("magnetometer data not ready")
	ErrMagOverflow   = errors.New("magnetometer overflow")
	ErrNotStationary = errors.New("sensor moved during calibration")
)

// Settings is the chip configuration applied by Configure.
type Settings struct {
	AccelFSR           int // g
	GyroFSR            int // degrees/s
	AccelDLPF          int // Hz
	GyroDLPF           int // Hz
	SampleRate         int // Hz
	EnableMag          bool
	DataReadyInterrupt bool
}

// Sample is one accel/temp/gyro reading in sensor axes.
type Sample struct {
	Accel    [3]float64 // g
	Gyro     [3]float64 // degrees/s, bias removed
	Temp     float64    // degrees C
	RawAccel [3]int16
	RawGyro  [3]int16
}

type Interface interface {
	Configure(s Settings) error
	ReadSample() (Sample, error)
	// ReadMag returns the field in micro tesla, aligned to the accel/gyro axes.
	ReadMag() ([3]float64, error)
	Calibrate(samples int) ([3]float64, error)
	SetGyroBias(bias [3]float64)
	PowerOff() error
	Close() error
}

type port interface {
	// ReadReg reads len(buf) bytes starting at reg.
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) (err error)
	Close() error
}

type IMU struct {
	dev        port
	disableI2C bool

	accelScale float64 // g per LSB
	gyroScale  float64 // degrees/s per LSB
	magAdjust  [3]float64
	magEnabled bool
	gyroBias   [3]float64

	// Overridable so tests don't wait for the chip.
	sleep func(time.Duration)
}

var _ Interface = (*IMU)(nil)

// NewI2C opens the IMU on an I2C bus device such as "/dev/i2c-2".
func NewI2C(deviceFile string, addr int) (*IMU, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s addr 0x%02x", deviceFile, addr)
	}
	return &IMU{
		dev: dev,
	}, nil
}

// GyroRange returns the GYRO_FS_SEL bits and the scale for a full-scale range.
func GyroRange(dps int) (bits byte, scale float64, err error) {
	switch dps {
	case 250:
		bits = 0
	case 500:
		bits = 1
	case 1000:
		bits = 2
	case 2000:
		bits = 3
	default:
		return 0, 0, fmt.Errorf("%d is not a valid gyro range", dps)
	}
	return bits, float64(dps) / math.MaxInt16, nil
}

// AccelRange returns the ACCEL_FS_SEL bits and the scale for a full-scale range.
func AccelRange(g int) (bits byte, scale float64, err error) {
	switch g {
	case 2:
		bits = 0
	case 4:
		bits = 1
	case 8:
		bits = 2
	case 16:
		bits = 3
	default:
		return 0, 0, fmt.Errorf("%d is not a valid accel range", g)
	}
	return bits, float64(g) / math.MaxInt16, nil
}

// DLPFBits returns the DLPF_CFG (or A_DLPFCFG) value for a bandwidth in Hz.
func DLPFBits(hz int) (byte, error) {
	switch hz {
	case 184:
		return 1, nil
	case 92:
		return 2, nil
	case 41:
		return 3, nil
	case 20:
		return 4, nil
	case 10:
		return 5, nil
	case 5:
		return 6, nil
	}
	return 0, fmt.Errorf("%d Hz is not a supported low pass filter", hz)
}

func (m *IMU) Configure(s Settings) error {
	if s.SampleRate <= 0 || s.SampleRate > baseRate {
		return fmt.Errorf("sample rate %d out of range", s.SampleRate)
	}
	gyroBits, gyroScale, err := GyroRange(s.GyroFSR)
	if err != nil {
		return err
	}
	accelBits, accelScale, err := AccelRange(s.AccelFSR)
	if err != nil {
		return err
	}
	gyroLPF, err := DLPFBits(s.GyroDLPF)
	if err != nil {
		return err
	}
	accelLPF, err := DLPFBits(s.AccelDLPF)
	if err != nil {
		return err
	}

	if err := m.writeReg(RegPwrMgmt1, BitHReset); err != nil {
		return errors.Wrap(err, "reset")
	}
	m.wait(100 * time.Millisecond)
	if err := m.writeReg(RegPwrMgmt1, 0); err != nil {
		return errors.Wrap(err, "wake")
	}
	if m.disableI2C {
		if err := m.writeReg(RegUserCtl, BitI2CIFDis); err != nil {
			return errors.Wrap(err, "disable i2c interface")
		}
	}

	who, err := m.readReg(RegWhoAmI)
	if err != nil {
		return errors.Wrap(err, "read WHO_AM_I")
	}
	switch who {
	case WhoAmIMPU9250, WhoAmIMPU9255, WhoAmIMPU6500:
	default:
		return errors.Wrapf(ErrBadWhoAmI, "got 0x%02x", who)
	}

	for _, w := range []struct {
		reg, val byte
		what     string
	}{
		{RegPwrMgmt1, ClockPLL, "clock source"},
		{RegPwrMgmt2, 0, "enable sensors"},
		{RegGyroConf, gyroBits << 3, "gyro range"},
		{RegAccelConf, accelBits << 3, "accel range"},
		{RegConfig, gyroLPF, "gyro filter"},
		{RegAccelConf2, accelLPF, "accel filter"},
		// The I2C master only runs once per sample, so the magnetometer is
		// set up at the full 1kHz rate.
		{RegSampleRateDiv, 0, "sample rate"},
	} {
		if err := m.writeReg(w.reg, w.val); err != nil {
			return errors.Wrap(err, w.what)
		}
	}
	m.gyroScale = gyroScale
	m.accelScale = accelScale

	m.magEnabled = false
	if s.EnableMag {
		if err := m.configureMag(); err != nil {
			return errors.Wrap(err, "magnetometer")
		}
		m.magEnabled = true
	}
	if err := m.writeReg(RegSampleRateDiv, byte(baseRate/s.SampleRate-1)); err != nil {
		return errors.Wrap(err, "sample rate")
	}

	if s.DataReadyInterrupt {
		// Active high, push-pull, 50us pulse, cleared by any read.
		if err := m.writeReg(RegIntPinCfg, BitIntAnyRd2Clear); err != nil {
			return errors.Wrap(err, "interrupt pin")
		}
		if err := m.writeReg(RegIntEnable, BitRawRdyEn); err != nil {
			return errors.Wrap(err, "interrupt enable")
		}
	} else if err := m.writeReg(RegIntEnable, 0); err != nil {
		return errors.Wrap(err, "interrupt disable")
	}
	return nil
}

func (m *IMU) ReadSample() (Sample, error) {
	var buf [14]byte
	if err := m.dev.ReadReg(RegAccelXOut, buf[:]); err != nil {
		return Sample{}, errors.Wrap(err, "read sample")
	}
	var s Sample
	for i := 0; i < 3; i++ {
		s.RawAccel[i] = be16(buf[i*2:])
		s.RawGyro[i] = be16(buf[8+i*2:])
		s.Accel[i] = float64(s.RawAccel[i]) * m.accelScale
		s.Gyro[i] = float64(s.RawGyro[i])*m.gyroScale - m.gyroBias[i]
	}
	s.Temp = float64(be16(buf[6:]))/333.87 + 21
	return s, nil
}

func (m *IMU) ReadMag() ([3]float64, error) {
	var out [3]float64
	if !m.magEnabled {
		return out, ErrMagNotReady
	}
	var buf [7]byte
	if err := m.dev.ReadReg(RegExtSensData00, buf[:]); err != nil {
		return out, errors.Wrap(err, "read magnetometer")
	}
	if buf[6]&AK8963Overflow != 0 {
		return out, ErrMagOverflow
	}
	var raw [3]float64
	for i := 0; i < 3; i++ {
		raw[i] = float64(le16(buf[i*2:])) * m.magAdjust[i] * MagScale
	}
	// The AK8963 has X and Y swapped and Z inverted relative to the MPU.
	out[0], out[1], out[2] = raw[1], raw[0], -raw[2]
	return out, nil
}

// Calibrate averages the gyro while the sensor is stationary and returns the
// bias in degrees/s. The bias is not applied; use SetGyroBias.
func (m *IMU) Calibrate(samples int) ([3]float64, error) {
	var bias [3]float64
	if samples <= 0 {
		return bias, fmt.Errorf("need a positive number of samples, got %d", samples)
	}
	saved := m.gyroBias
	m.gyroBias = [3]float64{}
	defer func() { m.gyroBias = saved }()

	// Let the filters settle.
	for i := 0; i < 100; i++ {
		if _, err := m.ReadSample(); err != nil {
			return bias, err
		}
	}

	var sum, sumSq [3]float64
	for i := 0; i < samples; i++ {
		s, err := m.ReadSample()
		if err != nil {
			return bias, err
		}
		for j, g := range s.Gyro {
			sum[j] += g
			sumSq[j] += g * g
		}
		m.wait(time.Millisecond)
	}
	n := float64(samples)
	for j := range bias {
		bias[j] = sum[j] / n
		if variance := sumSq[j]/n - bias[j]*bias[j]; variance > maxCalibrationVariance {
			return [3]float64{}, errors.Wrapf(ErrNotStationary, "axis %d variance %.2f", j, variance)
		}
	}
	return bias, nil
}

// WhoAmI reads the chip ID without configuring anything.
func (m *IMU) WhoAmI() (byte, error) {
	who, err := m.readReg(RegWhoAmI)
	return who, errors.Wrap(err, "read WHO_AM_I")
}

func (m *IMU) SetGyroBias(bias [3]float64) {
	m.gyroBias = bias
}

func (m *IMU) PowerOff() error {
	if m.magEnabled {
		if err := m.magWrite(AK8963Cntl1, AK8963PowerDown); err != nil {
			return errors.Wrap(err, "magnetometer power down")
		}
		m.magEnabled = false
	}
	return errors.Wrap(m.writeReg(RegPwrMgmt1, BitSleep), "sleep")
}

func (m *IMU) Close() error {
	return m.dev.Close()
}

func (m *IMU) wait(d time.Duration) {
	if m.sleep != nil {
		m.sleep(d)
		return
	}
	time.Sleep(d)
}

func (m *IMU) writeReg(reg, value byte) error {
	return m.dev.WriteReg(reg, []byte{value})
}

func (m *IMU) readReg(reg byte) (byte, error) {
	var buf [1]byte
	err := m.dev.ReadReg(reg, buf[:])
	return buf[0], err
}

func be16(b []byte) int16 {
	return int16(b[0])<<8 | int16(b[1])
}

func le16(b []byte) int16 {
	return int16(b[1])<<8 | int16(b[0])
}
