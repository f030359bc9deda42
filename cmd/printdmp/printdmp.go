package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/bno08x"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/console"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/logger"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/screen"
)

const (
	sourceMPU    = "mpu"
	sourceBNO08x = "bno08x"
	sourceDummy  = "dummy"
)

// sampleRate records whether -r was given. Values parse like atoi: junk
// reads as 0 and fails the range check.
type sampleRate struct {
	set   bool
	value int
}

func (r *sampleRate) Decode(ctx *kong.DecodeContext) error {
	var s string
	if err := ctx.Scan.PopValueInto("rate", &s); err != nil {
		return err
	}
	r.set = true
	r.value = atoi(s)
	return nil
}

func atoi(s string) int {
	i, n, neg := 0, 0, false
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n > 1<<20 {
			// Far out of range already.
			break
		}
	}
	if neg {
		return -n
	}
	return n
}

// badRateFirst walks the short options the way getopt would and reports
// whether an out of range -r comes before anything that stops the run (-h or
// an unknown option). getopt also takes "-r -5" as a value, which kong won't.
func badRateFirst(args []string) bool {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return false
		}
		if len(arg) < 2 || arg[0] != '-' || arg[1] == '-' {
			continue
		}
	cluster:
		for j := 1; j < len(arg); j++ {
			switch arg[j] {
			case 'm', 'o':
			case 'r':
				value := arg[j+1:]
				if value == "" {
					if i+1 == len(args) {
						return false
					}
					i++
					value = args[i]
				}
				if v := atoi(value); v > dmp.MaxSampleRate || v < dmp.MinSampleRate {
					return true
				}
				break cluster
			default:
				return false
			}
		}
	}
	return false
}

type cli struct {
	Rate        sampleRate `short:"r" placeholder:"RATE" help:"Set sample rate in HZ (default 100)."`
	Mag         bool       `short:"m" help:"Enable Magnetometer."`
	Orientation bool       `short:"o" help:"Show a menu to select IMU orientation."`
	Help        bool       `short:"h" help:"Print this help message."`

	Config   string `help:"Board config file (YAML)."`
	Source   string `enum:"mpu,bno08x,dummy" default:"mpu" help:"Where orientation comes from."`
	LogLevel string `default:"info" help:"Log level."`
}

// source is a running orientation stream.
type source interface {
	SetCallback(func(dmp.Data))
	PowerOff() error
}

func main() {
	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) int {
	if badRateFirst(args) {
		fmt.Fprintln(stdout, "sample_rate must be between 4 & 200")
		return 1
	}

	var c cli
	parser, err := kong.New(&c,
		kong.Name("printdmp"),
		kong.NoDefaultHelp(),
		kong.Writers(stdout, stdout),
	)
	if err != nil {
		panic(err)
	}
	if _, err := parser.Parse(args); err != nil {
		fmt.Fprintf(stdout, "%v\n", err)
		fmt.Fprintln(stdout, "invalid argument")
		console.PrintUsage(stdout)
		return 1
	}
	if c.Help {
		console.PrintUsage(stdout)
		return 1
	}
	if c.Rate.set && (c.Rate.value > dmp.MaxSampleRate || c.Rate.value < dmp.MinSampleRate) {
		fmt.Fprintln(stdout, "sample_rate must be between 4 & 200")
		return 1
	}
	// Without -r there's nothing to print.
	if !c.Rate.set {
		console.PrintUsage(stdout)
		fmt.Fprintln(stdout, "please enable an option to print some data")
		return 1
	}

	zl, err := logger.New(c.LogLevel)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	defer zl.Sync()

	board, err := config.Load(c.Config)
	if err != nil {
		zl.Error("Failed to load board config", zap.Error(err))
		return 1
	}
	board.DMP.DMPSampleRate = c.Rate.value
	if c.Mag {
		board.DMP.EnableMagnetometer = true
	}
	if c.Orientation {
		o, err := console.PromptOrientation(ctx, stdin, stdout)
		if errors.Is(err, console.ErrQuit) {
			return 0
		} else if err != nil {
			zl.Error("Failed to read orientation", zap.Error(err))
			return 1
		}
		board.DMP.Orientation = o
	}

	src, hw, err := start(ctx, c.Source, board, zl)
	if err != nil {
		zl.Error("Initialisation failed", zap.Error(err))
		fmt.Fprintln(stdout, "mpu initialize failed")
		return 1
	}
	if hw != nil {
		defer hw.Shutdown()
	}

	console.PrintHeader(stdout)
	src.SetCallback(func(d dmp.Data) {
		_ = console.PrintData(stdout, d)
		screen.SetData(d, board.DMP.EnableMagnetometer)
	})
	if board.Screen != "" {
		go screen.LoopUpdatingScreen(ctx, board.Screen, zl)
	}
	if hw != nil {
		hw.PlaySound(board.ReadySound)
	}

	<-ctx.Done()

	if err := src.PowerOff(); err != nil {
		zl.Warn("Power off failed", zap.Error(err))
	}
	fmt.Fprint(stdout, "\n")
	return 0
}

// start opens the chosen source and gets samples flowing.
func start(ctx context.Context, name string, board config.Board, zl *zap.Logger) (source, hardware.Interface, error) {
	if name == sourceBNO08x {
		b := bno08x.New(board.BNO08xDevice, zl)
		b.Start(ctx)
		if _, err := b.WaitForReportAfter(time.Now()); err != nil {
			_ = b.PowerOff()
			return nil, nil, err
		}
		return b, nil, nil
	}

	var hw hardware.Interface
	switch name {
	case sourceDummy:
		hw = hardware.NewDummy(board, zl)
	case sourceMPU:
		if err := board.Validate(); err != nil {
			return nil, nil, err
		}
		h, err := hardware.Open(board, zl)
		if err != nil {
			return nil, nil, err
		}
		hw = h
		cal, err := config.LoadCalibration(board.CalibrationFile)
		if err != nil {
			zl.Warn("Ignoring gyro calibration", zap.Error(err))
		} else {
			hw.IMU().SetGyroBias(cal.GyroBias)
		}
	default:
		return nil, nil, fmt.Errorf("unknown source %q", name)
	}

	d, err := dmp.Initialize(ctx, board.DMP, hw.IMU(), hw.Interrupt(), zl)
	if err != nil {
		hw.Shutdown()
		return nil, nil, err
	}
	return d, hw, nil
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-signals
		cancelFunc()
	}()
}
