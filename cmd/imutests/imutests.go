package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/angle"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/bno08x"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/imu"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/logger"
)

var CLI struct {
	Config   string        `help:"Board config file (YAML)."`
	Source   string        `enum:"mpu,bno08x,dummy" default:"mpu" help:"Sensor to dump."`
	Interval time.Duration `default:"200ms" help:"Time between readings."`
	Forward  string        `enum:"x,y,z" default:"x" help:"Sensor axis pointing forwards, for the heading readout."`
	LogLevel string        `default:"info" help:"Log level."`
}

func main() {
	kong.Parse(&CLI, kong.Name("imutests"), kong.Description("Dump raw IMU readings."))

	zl, err := logger.New(CLI.LogLevel)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer zl.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-signals
		cancel()
	}()

	board, err := config.Load(CLI.Config)
	if err != nil {
		zl.Fatal("Failed to load board config", zap.Error(err))
	}

	if CLI.Source == "bno08x" {
		dumpBNO08x(ctx, board, zl)
		return
	}

	var hw hardware.Interface
	if CLI.Source == "dummy" {
		hw = hardware.NewDummy(board, zl)
	} else {
		hw, err = hardware.Open(board, zl)
		if err != nil {
			zl.Fatal("Failed to open hardware", zap.Error(err))
		}
	}
	defer hw.Shutdown()
	dumpRaw(ctx, hw.IMU(), board.DMP, zl)
}

func dumpRaw(ctx context.Context, sensor imu.Interface, cfg dmp.Config, zl *zap.Logger) {
	err := sensor.Configure(imu.Settings{
		AccelFSR:   cfg.AccelFSR,
		GyroFSR:    cfg.GyroFSR,
		AccelDLPF:  cfg.AccelDLPF,
		GyroDLPF:   cfg.GyroDLPF,
		SampleRate: cfg.DMPSampleRate,
		EnableMag:  cfg.EnableMagnetometer,
	})
	if err != nil {
		zl.Error("Failed to configure IMU", zap.Error(err))
		return
	}
	defer sensor.PowerOff()

	ticker := time.NewTicker(CLI.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s, err := sensor.ReadSample()
		if err != nil {
			zl.Warn("Read failed", zap.Error(err))
			continue
		}
		a := cfg.Orientation.Apply(s.Accel)
		g := cfg.Orientation.Apply(s.Gyro)
		fmt.Printf("accel %7.3f %7.3f %7.3f g |%.3f| gyro %8.2f %8.2f %8.2f dps temp %5.1fC\n",
			a[0], a[1], a[2], gravityNorm(a), g[0], g[1], g[2], s.Temp)
		if cfg.EnableMagnetometer {
			m, err := sensor.ReadMag()
			if err != nil {
				zl.Warn("Mag read failed", zap.Error(err))
				continue
			}
			m = cfg.Orientation.Apply(m)
			fmt.Printf("mag   %7.2f %7.2f %7.2f uT |%.2f|\n", m[0], m[1], m[2], r3.Norm(toVec(m)))
		}
	}
}

func dumpBNO08x(ctx context.Context, board config.Board, zl *zap.Logger) {
	b := bno08x.New(board.BNO08xDevice, zl)
	b.Start(ctx)
	defer b.PowerOff()

	if _, err := b.WaitForReportAfter(time.Now()); err != nil {
		zl.Error("No reports from BNO08x", zap.Error(err))
		return
	}
	forward := axis(CLI.Forward)
	first := true
	var offset angle.PlusMinus180
	for ctx.Err() == nil {
		rep := b.CurrentReport()
		fmt.Printf("%v\n", rep)

		yaw := float64(rep.Yaw) / 100 * dmp.DegToRad
		pitch := float64(rep.Pitch) / 100 * dmp.DegToRad
		roll := float64(rep.Roll) / 100 * dmp.DegToRad
		h := headingOf(forward, yaw, pitch, roll)
		if first {
			offset = h
			first = false
		}
		fmt.Printf("Heading: %.2f (relative %.2f)\n", h.Float(), h.Sub(offset).Float())

		select {
		case <-ctx.Done():
		case <-time.After(CLI.Interval):
		}
	}
}

func gravityNorm(accel [3]float64) float64 {
	return r3.Norm(toVec(accel))
}

func toVec(v [3]float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func axis(name string) r3.Vec {
	switch name {
	case "y":
		return r3.Vec{Y: 1}
	case "z":
		return r3.Vec{Z: 1}
	}
	return r3.Vec{X: 1}
}

// headingOf rotates the sensor's forward axis through yaw about Z, pitch
// about the new Y and roll about the new X, and returns the compass direction
// of the result projected onto the horizontal.
func headingOf(forward r3.Vec, yaw, pitch, roll float64) angle.PlusMinus180 {
	x0, y0, z0 := r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}

	x1 := r3.Rotate(x0, yaw, z0)
	y1 := r3.Rotate(y0, yaw, z0)
	z1 := z0

	x2 := r3.Rotate(x1, pitch, y1)
	y2 := y1
	z2 := r3.Rotate(z1, pitch, y1)

	x3 := x2
	y3 := r3.Rotate(y2, roll, x2)
	z3 := r3.Rotate(z2, roll, x2)

	f := r3.Add(r3.Add(r3.Scale(forward.X, x3), r3.Scale(forward.Y, y3)), r3.Scale(forward.Z, z3))
	return angle.FromRadians(math.Atan2(f.Y, f.X))
}
