package hardware

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/imu"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/mux"
)

// Dummy is a bench board: a level IMU turning slowly about Z, with a ticker
// in place of the interrupt line and a mux that only remembers its port.
type Dummy struct {
	log    *zap.Logger
	mux    *mux.DummyMux
	imu    *SimulatedIMU
	ticker *dmp.TickerInterrupt
}

var _ Interface = (*Dummy)(nil)

func NewDummy(board config.Board, log *zap.Logger) *Dummy {
	d := &Dummy{
		log:    log,
		mux:    mux.Dummy(),
		imu:    &SimulatedIMU{YawRate: 10},
		ticker: dmp.NewTickerInterrupt(board.DMP.DMPSampleRate),
	}
	if board.MuxPort >= 0 {
		if err := d.mux.SelectSinglePort(board.MuxPort); err != nil {
			log.Warn("DHW: failed to select mux port", zap.Error(err))
		} else {
			log.Debug("DHW: selected mux port", zap.Int("port", board.MuxPort))
		}
	}
	return d
}

func (d *Dummy) IMU() imu.Interface {
	return d.imu
}

func (d *Dummy) Interrupt() dmp.Interrupt {
	return d.ticker
}

func (d *Dummy) PlaySound(path string) {
	d.log.Debug("DHW: PlaySound", zap.String("path", path))
}

func (d *Dummy) Shutdown() {
	d.ticker.Stop()
	_ = d.mux.DisableAllPorts()
	_ = d.mux.Close()
	d.log.Debug("DHW: Shutdown")
}

// SimulatedIMU produces the readings of a level sensor rotating at YawRate
// degrees/s in a 50uT field, advancing one sample period per read.
type SimulatedIMU struct {
	YawRate float64

	lock     sync.Mutex
	settings imu.Settings
	yaw      float64 // degrees
	bias     [3]float64
	asleep   bool
}

var _ imu.Interface = (*SimulatedIMU)(nil)

func (s *SimulatedIMU) Configure(settings imu.Settings) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, _, err := imu.AccelRange(settings.AccelFSR); err != nil {
		return err
	}
	if _, _, err := imu.GyroRange(settings.GyroFSR); err != nil {
		return err
	}
	s.settings = settings
	s.asleep = false
	return nil
}

func (s *SimulatedIMU) ReadSample() (imu.Sample, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.settings.SampleRate > 0 {
		s.yaw += s.YawRate / float64(s.settings.SampleRate)
	}
	gyro := [3]float64{-s.bias[0], -s.bias[1], s.YawRate - s.bias[2]}
	return imu.Sample{
		Accel:    [3]float64{0, 0, 1},
		Gyro:     gyro,
		Temp:     25,
		RawAccel: [3]int16{0, 0, int16(math.MaxInt16 / max(s.settings.AccelFSR, 1))},
	}, nil
}

// ReadMag reports a field with north fixed in the world, so it turns
// backwards in sensor axes as the sensor yaws.
func (s *SimulatedIMU) ReadMag() ([3]float64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.settings.EnableMag {
		return [3]float64{}, imu.ErrMagNotReady
	}
	r := -s.yaw * dmp.DegToRad
	return [3]float64{20 * math.Cos(r), 20 * math.Sin(r), -45}, nil
}

func (s *SimulatedIMU) Calibrate(samples int) ([3]float64, error) {
	return [3]float64{}, nil
}

func (s *SimulatedIMU) SetGyroBias(bias [3]float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.bias = bias
}

func (s *SimulatedIMU) PowerOff() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.asleep = true
	return nil
}

func (s *SimulatedIMU) Close() error {
	return nil
}
