package bno08x

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
)

func packet(index uint8, yaw, pitch, roll, x, y, z int16) []byte {
	buf := make([]byte, packetLen)
	buf[0], buf[1] = 0xaa, 0xaa
	buf[2] = index
	for i, v := range []int16{yaw, pitch, roll, x, y, z} {
		binary.LittleEndian.PutUint16(buf[3+2*i:], uint16(v))
	}
	var sum uint8
	for _, b := range buf[2 : packetLen-1] {
		sum += b
	}
	buf[packetLen-1] = sum
	return buf
}

func TestParsePacket(t *testing.T) {
	r, err := parsePacket(packet(7, -9000, 150, -45, 10, -20, 1000))
	require.NoError(t, err)
	assert.Equal(t, uint8(7), r.Index)
	assert.Equal(t, int16(-9000), r.Yaw)
	assert.Equal(t, int16(150), r.Pitch)
	assert.Equal(t, int16(-45), r.Roll)
	assert.Equal(t, int16(1000), r.ZAccel)
	assert.Equal(t, -90.0, r.YawDegrees())
}

func TestParsePacketErrors(t *testing.T) {
	p := packet(1, 0, 0, 0, 0, 0, 0)
	p[5]++
	_, err := parsePacket(p)
	assert.True(t, errors.Is(err, ErrBadChecksum), "%v", err)

	p = packet(1, 0, 0, 0, 0, 0, 0)
	p[0] = 0
	_, err = parsePacket(p)
	assert.Equal(t, ErrBadHeader, err)

	_, err = parsePacket(p[:10])
	assert.Error(t, err)
}

func TestReportData(t *testing.T) {
	d := IMUReport{Yaw: 18000, Pitch: -4500, Roll: 9000, ZAccel: 1000}.Data()
	assert.InDelta(t, math.Pi, d.DMPTaitBryan[dmp.TBYawZ], 1e-9)
	assert.InDelta(t, -math.Pi/4, d.DMPTaitBryan[dmp.TBPitchX], 1e-9)
	assert.InDelta(t, math.Pi/2, d.DMPTaitBryan[dmp.TBRollY], 1e-9)
	assert.Equal(t, d.DMPTaitBryan, d.FusedTaitBryan)
	assert.InDelta(t, dmp.StandardGravity, d.Accel[2], 1e-9)
}

func TestReadLoopResyncs(t *testing.T) {
	var stream bytes.Buffer
	stream.Write([]byte{0x01, 0xaa, 0x02})
	stream.Write(packet(1, 100, 0, 0, 0, 0, 0))
	bad := packet(2, 200, 0, 0, 0, 0, 0)
	bad[18]++
	stream.Write(bad)
	stream.Write([]byte{0x55})
	stream.Write(packet(3, 300, 0, 0, 0, 0, 0))

	b := New("", nil)
	var got []dmp.Data
	b.SetCallback(func(d dmp.Data) { got = append(got, d) })

	err := b.readLoop(context.Background(), &stream)
	assert.True(t, errors.Is(err, io.EOF), "%v", err)

	require.Len(t, got, 2)
	assert.InDelta(t, 1.0, got[0].DMPTaitBryan[dmp.TBYawZ]*dmp.RadToDeg, 1e-9)
	assert.InDelta(t, 3.0, got[1].DMPTaitBryan[dmp.TBYawZ]*dmp.RadToDeg, 1e-9)
	assert.Equal(t, uint8(3), b.CurrentReport().Index)
	assert.InDelta(t, 3.0, b.Latest().DMPTaitBryan[dmp.TBYawZ]*dmp.RadToDeg, 1e-9)
}

func TestReadLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := New("", nil)
	err := b.readLoop(ctx, bytes.NewReader(packet(1, 0, 0, 0, 0, 0, 0)))
	assert.Equal(t, context.Canceled, err)
}

func TestWaitForReportTimesOut(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "missing-tty"), nil)
	b.Start(context.Background())
	defer b.PowerOff()

	start := time.Now()
	_, err := b.WaitForReportAfter(start)
	require.Error(t, err)
	assert.WithinDuration(t, start.Add(time.Second), time.Now(), time.Second)
}

func TestWaitForReportAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := New(filepath.Join(t.TempDir(), "missing-tty"), nil)
	b.Start(ctx)
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := b.WaitForReportAfter(start)
	assert.Equal(t, ErrStopped, err)
	assert.Less(t, int64(time.Since(start)), int64(900*time.Millisecond))
}
