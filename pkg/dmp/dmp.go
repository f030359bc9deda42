package dmp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/imu"
)

const (
	// How long the loop waits on the interrupt before checking for shutdown.
	interruptTimeout = 100 * time.Millisecond
	// Consecutive timeouts before warning that the interrupt line is dead.
	missedInterruptWarning = 10
)

// DMP drives an IMU from its data-ready interrupt, fusing each sample into an
// attitude estimate and handing it to the registered callback.
type DMP struct {
	cfg    Config
	sensor imu.Interface
	irq    Interrupt
	log    *zap.Logger

	filter  *Mahony
	compass compass
	count   int
	mag     [3]float64
	heading float64

	lock     sync.Mutex
	latest   Data
	callback func(Data)

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	offErr error
}

// Initialize configures the sensor, levels the filter on the first sample and
// starts the sampling loop. The loop runs until PowerOff or ctx is done.
func Initialize(ctx context.Context, cfg Config, sensor imu.Interface, irq Interrupt, log *zap.Logger) (*DMP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := sensor.Configure(cfg.settings()); err != nil {
		return nil, fmt.Errorf("failed to configure IMU: %w", err)
	}
	first, err := sensor.ReadSample()
	if err != nil {
		return nil, fmt.Errorf("failed to read first sample: %w", err)
	}

	d := &DMP{
		cfg:     cfg,
		sensor:  sensor,
		irq:     irq,
		log:     log,
		filter:  NewMahony(cfg.MahonyKp, cfg.MahonyKi),
		compass: compass{tau: cfg.CompassTimeConstant},
		done:    make(chan struct{}),
	}
	d.filter.Reset(cfg.Orientation.Apply(first.Accel))

	ctx, d.cancel = context.WithCancel(ctx)
	go d.loop(ctx)

	log.Info("DMP running",
		zap.Int("rate", cfg.DMPSampleRate),
		zap.Stringer("orientation", cfg.Orientation),
		zap.Bool("magnetometer", cfg.EnableMagnetometer))
	return d, nil
}

// SetCallback registers f to run after every sample, on the sampling
// goroutine. A nil f clears it.
func (d *DMP) SetCallback(f func(Data)) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.callback = f
}

// Latest returns the most recent sample.
func (d *DMP) Latest() Data {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.latest
}

// PowerOff stops the loop and puts the sensor to sleep. No callback runs
// after it returns. Safe to call more than once.
func (d *DMP) PowerOff() error {
	d.once.Do(func() {
		d.cancel()
		<-d.done
		d.offErr = d.sensor.PowerOff()
		if d.offErr == nil {
			d.log.Info("IMU powered off")
		}
	})
	return d.offErr
}

func (d *DMP) loop(ctx context.Context) {
	defer close(d.done)
	dt := 1 / float64(d.cfg.DMPSampleRate)
	missed := 0
	for ctx.Err() == nil {
		if !d.irq.WaitForEdge(interruptTimeout) {
			missed++
			if missed == missedInterruptWarning {
				d.log.Warn("No data-ready interrupt from IMU", zap.Duration("waited", missedInterruptWarning*interruptTimeout))
			}
			continue
		}
		missed = 0
		if ctx.Err() != nil {
			return
		}
		data, err := d.step(dt)
		if err != nil {
			if d.cfg.ShowWarnings {
				d.log.Warn("Failed to read IMU", zap.Error(err))
			}
			continue
		}

		d.lock.Lock()
		d.latest = data
		cb := d.callback
		d.lock.Unlock()
		if cb != nil {
			cb(data)
		}
	}
}

// step reads one sample and runs it through the filters.
func (d *DMP) step(dt float64) (Data, error) {
	s, err := d.sensor.ReadSample()
	if err != nil {
		return Data{}, err
	}
	o := d.cfg.Orientation
	accel := o.Apply(s.Accel)
	gyro := o.Apply(s.Gyro)

	d.filter.Update([3]float64{gyro[0] * DegToRad, gyro[1] * DegToRad, gyro[2] * DegToRad}, accel, dt)
	q := d.filter.Quaternion()

	if d.cfg.EnableMagnetometer && d.count%d.cfg.MagSampleRateDiv == 0 {
		mag, err := d.sensor.ReadMag()
		if err == nil {
			d.mag = o.Apply(mag)
			d.heading = d.compass.update(q, d.mag, dt*float64(d.cfg.MagSampleRateDiv))
		} else if d.cfg.ShowWarnings {
			d.log.Warn("Failed to read magnetometer", zap.Error(err))
		}
	}
	d.count++

	fused := q
	if d.cfg.EnableMagnetometer {
		fused = d.compass.fuse(q)
	}
	fusedTB := TaitBryan(fused)

	data := Data{
		Time:              time.Now(),
		Gyro:              gyro,
		Mag:               d.mag,
		Temp:              s.Temp,
		RawAccel:          s.RawAccel,
		RawGyro:           s.RawGyro,
		DMPQuat:           quatArray(q),
		DMPTaitBryan:      TaitBryan(q),
		FusedQuat:         quatArray(fused),
		FusedTaitBryan:    fusedTB,
		CompassHeadingRaw: d.heading,
	}
	for i := range accel {
		data.Accel[i] = accel[i] * StandardGravity
	}
	if d.cfg.EnableMagnetometer {
		data.CompassHeading = fusedTB[TBYawZ]
	}
	return data, nil
}
