package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/imu"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/logger"
)

var CLI struct {
	Config   string `help:"Board config file (YAML)."`
	Samples  int    `default:"1000" help:"Gyro samples to average."`
	Output   string `help:"Where to write the calibration (defaults to the board's calibration_file)."`
	Dummy    bool   `help:"Calibrate the simulated IMU."`
	LogLevel string `default:"info" help:"Log level."`
}

func main() {
	kong.Parse(&CLI, kong.Name("gyrocal"), kong.Description("Measure and save the gyro zero offset. Keep the board still."))

	zl, err := logger.New(CLI.LogLevel)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer zl.Sync()

	board, err := config.Load(CLI.Config)
	if err != nil {
		zl.Fatal("Failed to load board config", zap.Error(err))
	}
	out := CLI.Output
	if out == "" {
		out = board.CalibrationFile
	}

	fmt.Println("---- Gyro calibration ----")

	var hw hardware.Interface
	if CLI.Dummy {
		hw = hardware.NewDummy(board, zl)
	} else {
		hw, err = hardware.Open(board, zl)
		if err != nil {
			zl.Fatal("Failed to open hardware", zap.Error(err))
		}
	}
	defer hw.Shutdown()

	cal, err := calibrate(hw.IMU(), board, CLI.Samples)
	if err != nil {
		zl.Error("Calibration failed", zap.Error(err))
		return
	}
	if err := config.SaveCalibration(out, cal); err != nil {
		zl.Error("Failed to save calibration", zap.Error(err))
		return
	}
	fmt.Printf("Gyro bias %.3f %.3f %.3f dps written to %s\n", cal.GyroBias[0], cal.GyroBias[1], cal.GyroBias[2], out)
}

func calibrate(sensor imu.Interface, board config.Board, samples int) (config.Calibration, error) {
	err := sensor.Configure(imu.Settings{
		AccelFSR:   board.DMP.AccelFSR,
		GyroFSR:    board.DMP.GyroFSR,
		AccelDLPF:  board.DMP.AccelDLPF,
		GyroDLPF:   board.DMP.GyroDLPF,
		SampleRate: board.DMP.DMPSampleRate,
	})
	if err != nil {
		return config.Calibration{}, err
	}
	defer sensor.PowerOff()

	bias, err := sensor.Calibrate(samples)
	if err != nil {
		return config.Calibration{}, err
	}
	return config.Calibration{GyroBias: bias, Samples: samples}, nil
}
