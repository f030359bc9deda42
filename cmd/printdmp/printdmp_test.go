package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written from the sampling goroutine while the test reads it.
type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func runArgs(args ...string) (int, string) {
	var out syncBuffer
	code := run(context.Background(), args, strings.NewReader(""), &out)
	return code, out.String()
}

func TestNoRatePrintsUsage(t *testing.T) {
	code, out := runArgs()
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "\n Options\n")
	assert.True(t, strings.HasSuffix(out, "please enable an option to print some data\n"))

	code, out = runArgs("-m")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "please enable an option to print some data")
}

func TestHelp(t *testing.T) {
	code, out := runArgs("-h")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "-h              Print this help message")
	assert.NotContains(t, out, "please enable")
}

func TestRateOutOfRange(t *testing.T) {
	for _, r := range []string{"3", "201", "0", "fast", "1000000"} {
		code, out := runArgs("-r", r)
		assert.Equal(t, 1, code, r)
		assert.Equal(t, "sample_rate must be between 4 & 200\n", out, r)
	}
}

func TestOptionsCheckedInOrder(t *testing.T) {
	for _, args := range [][]string{
		{"-r", "300", "-h"},
		{"-r", "300", "-x"},
		{"-r", "-5"},
		{"-r300"},
		{"-mr", "2"},
		{"-r", "100", "-r", "201"},
		{"--source", "dummy", "-r", "3"},
	} {
		code, out := runArgs(args...)
		assert.Equal(t, 1, code, args)
		assert.Equal(t, "sample_rate must be between 4 & 200\n", out, args)
	}

	code, out := runArgs("-h", "-r", "300")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, " Options\n")
	assert.NotContains(t, out, "sample_rate")

	code, out = runArgs("-x", "-r", "300")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "invalid argument\n")
	assert.NotContains(t, out, "sample_rate")
}

func TestUnknownFlag(t *testing.T) {
	code, out := runArgs("-x")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "invalid argument\n")
	assert.Contains(t, out, " Options\n")
}

func TestMissingRateValue(t *testing.T) {
	code, out := runArgs("-r")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "invalid argument\n")
}

func TestAtoi(t *testing.T) {
	for in, expected := range map[string]int{
		"100":    100,
		" 50":    50,
		"+8":     8,
		"-4":     -4,
		"12abc":  12,
		"abc":    0,
		"":       0,
		"999999": 999999,
	} {
		assert.Equal(t, expected, atoi(in), in)
	}
}

func TestOrientationMenuQuit(t *testing.T) {
	var out syncBuffer
	code := run(context.Background(), []string{"-r", "100", "-o", "--source", "dummy"}, strings.NewReader("q"), &out)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), " 3: ORIENTATION_X_UP\n")
	assert.True(t, strings.HasSuffix(out.String(), "Quitting\n"))
}

func TestCancelAtOrientationMenu(t *testing.T) {
	stdin, keyboard := io.Pipe()
	defer keyboard.Close()
	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan int)
	go func() {
		done <- run(ctx, []string{"-r", "100", "-o", "--source", "dummy"}, stdin, &out)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), " 8: ORIENTATION_X_BACK\n")
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("run stayed in the orientation menu after cancel")
	}
	assert.NotContains(t, out.String(), "DMP TaitBryan")
}

func TestInitializeFailure(t *testing.T) {
	// 150Hz passes the flag check but isn't a divisor of 200.
	code, out := runArgs("-r", "150", "--source", "dummy", "--log-level", "fatal")
	assert.Equal(t, 1, code)
	assert.Equal(t, "mpu initialize failed\n", out)
}

func TestSilentBNO08xFailsInitialize(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("bno08x_device: "+filepath.Join(dir, "no-tty")+"\n"), 0o644))

	code, out := runArgs("-r", "100", "--source", "bno08x", "--config", cfg, "--log-level", "fatal")
	assert.Equal(t, 1, code)
	assert.Equal(t, "mpu initialize failed\n", out)
}

func TestPrintsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan int)
	go func() {
		done <- run(ctx, []string{"-r", "200", "-m", "--source", "dummy", "--log-level", "error"}, strings.NewReader(""), &out)
	}()

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "\r") >= 3
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "  DMP TaitBryan (deg) |\n\r "), s)
	assert.True(t, strings.HasSuffix(s, " |\n"), s)
	first := strings.Split(s, "\r")[1]
	assert.Len(t, first, len(" 000.0 000.0 000.0 |")+3)
}
