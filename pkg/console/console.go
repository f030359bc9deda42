// Package console holds the terminal text of printdmp: usage, the data
// header and line, and the orientation menu.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
)

// ErrQuit is returned by PromptOrientation when the user asks to quit.
var ErrQuit = errors.New("quit")

const usage = `
 Options
-r {rate}       Set sample rate in HZ (default 100)
                Sample rate must be a divisor of 200
-m              Enable Magnetometer
-o              Show a menu to select IMU orientation
-h              Print this help message

`

func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usage)
}

func PrintHeader(w io.Writer) {
	fmt.Fprint(w, " ")
	fmt.Fprint(w, " DMP TaitBryan (deg) |")
	fmt.Fprint(w, "\n")
}

// FormatAngles renders pitch(X), roll(Y), yaw(Z) radians as the data line,
// which starts with a carriage return so it overwrites itself.
func FormatAngles(tb [3]float64) string {
	return fmt.Sprintf("\r %6.1f %6.1f %6.1f |",
		tb[dmp.TBPitchX]*dmp.RadToDeg,
		tb[dmp.TBRollY]*dmp.RadToDeg,
		tb[dmp.TBYawZ]*dmp.RadToDeg)
}

// PrintData writes the data line for one sample.
func PrintData(w io.Writer, d dmp.Data) error {
	_, err := io.WriteString(w, FormatAngles(d.DMPTaitBryan))
	return err
}

type keypress struct {
	c   byte
	err error
}

// PromptOrientation shows the orientation menu on w and reads single
// characters from r until one selects an orientation. End of input picks
// Z_UP; 'q' or cancelling ctx returns ErrQuit.
func PromptOrientation(ctx context.Context, r io.Reader, w io.Writer) (dmp.Orientation, error) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Please select a number 1-8 corresponding to the")
	fmt.Fprintln(w, "orientation you wish to use. Press 'q' to exit.")
	fmt.Fprintln(w)
	for i, o := range dmp.Orientations {
		fmt.Fprintf(w, " %d: %s\n", i+1, o)
	}

	// A blocked read can't be interrupted, so it runs on its own goroutine.
	keys := make(chan keypress)
	done := make(chan struct{})
	defer close(done)
	go func() {
		br := bufio.NewReader(r)
		for {
			c, err := br.ReadByte()
			select {
			case keys <- keypress{c, err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		var k keypress
		select {
		case <-ctx.Done():
			return 0, ErrQuit
		case k = <-keys:
		}
		if k.err == io.EOF {
			return dmp.OrientationZUp, nil
		} else if k.err != nil {
			return 0, k.err
		}
		switch c := k.c; {
		case c >= '1' && c <= '8':
			return dmp.Orientations[c-'1'], nil
		case c == 'q':
			fmt.Fprintln(w, "Quitting")
			return 0, ErrQuit
		case c == '\n':
		default:
			fmt.Fprintln(w, "invalid input")
		}
	}
}
