package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/logger"
	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/screen"
)

var CLI struct {
	Device string `default:"/dev/fb1" help:"Framebuffer to draw on."`
	PNG    string `help:"Also save each frame to this PNG file."`
}

// Reads "pitch roll yaw" in degrees from stdin and shows them on the screen.
func main() {
	kong.Parse(&CLI, kong.Name("screentests"))
	zl, err := logger.New("info")
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go screen.LoopUpdatingScreen(ctx, CLI.Device, zl)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}
		d, err := parseAngles(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		screen.SetData(d, false)
		if CLI.PNG != "" {
			if err := gg.SavePNG(CLI.PNG, screen.Render(d.DMPTaitBryan, 0, false)); err != nil {
				zl.Warn("Failed to save PNG", zap.Error(err))
			}
		}
	}
}

func parseAngles(line string) (dmp.Data, error) {
	var d dmp.Data
	var p, r, y float64
	if _, err := fmt.Sscan(strings.TrimSpace(line), &p, &r, &y); err != nil {
		return d, fmt.Errorf("want: pitch roll yaw (degrees): %w", err)
	}
	d.DMPTaitBryan = [3]float64{p * dmp.DegToRad, r * dmp.DegToRad, y * dmp.DegToRad}
	return d, nil
}
