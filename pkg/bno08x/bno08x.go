package bno08x

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
)

const DefaultDevice = "/dev/ttyAMA0"

// UART-RVC mode reports at a fixed rate.
const ReportFrequency = 100
const ReportInterval = time.Second / ReportFrequency

const packetLen = 19

var (
	ErrBadHeader   = errors.New("bad packet header")
	ErrBadChecksum = errors.New("bad packet checksum")
	ErrStopped     = errors.New("BNO08X reader stopped")
)

type IMUReport struct {
	Time   time.Time
	Index  uint8
	Yaw    int16 // 0.01 degrees
	Pitch  int16
	Roll   int16
	XAccel int16 // mg
	YAccel int16
	ZAccel int16
}

func (i IMUReport) String() string {
	return fmt.Sprintf("[%02x] Y:%7.2f P:%7.2f R:%7.2f X:%7.2f Y:%7.2f Z:%7.2f",
		i.Index, float64(i.Yaw)/100.0, float64(i.Pitch)/100.0, float64(i.Roll)/100.0,
		float64(i.XAccel)/1000.0, float64(i.YAccel)/1000.0, float64(i.ZAccel)/1000.0)
}

func (i IMUReport) YawDegrees() float64 {
	return float64(i.Yaw) / 100.0
}

// Data converts the report to the motion processor's sample type. The BNO08x
// does its own fusion so the DMP and fused fields are the same.
func (i IMUReport) Data() dmp.Data {
	tb := [3]float64{
		dmp.TBPitchX: float64(i.Pitch) / 100 * dmp.DegToRad,
		dmp.TBRollY:  float64(i.Roll) / 100 * dmp.DegToRad,
		dmp.TBYawZ:   float64(i.Yaw) / 100 * dmp.DegToRad,
	}
	return dmp.Data{
		Time: i.Time,
		Accel: [3]float64{
			float64(i.XAccel) / 1000 * dmp.StandardGravity,
			float64(i.YAccel) / 1000 * dmp.StandardGravity,
			float64(i.ZAccel) / 1000 * dmp.StandardGravity,
		},
		DMPTaitBryan:   tb,
		FusedTaitBryan: tb,
	}
}

// parsePacket decodes one framed packet, which must start with 0xAAAA.
func parsePacket(buf []byte) (IMUReport, error) {
	var report IMUReport
	if len(buf) != packetLen {
		return report, errors.Errorf("packet is %d bytes, expected %d", len(buf), packetLen)
	}
	if buf[0] != 0xaa || buf[1] != 0xaa {
		return report, ErrBadHeader
	}
	var checksum uint8
	for _, b := range buf[2 : packetLen-1] {
		checksum += b
	}
	if buf[packetLen-1] != checksum {
		return report, errors.Wrapf(ErrBadChecksum, "%02x != %02x", buf[packetLen-1], checksum)
	}
	report.Index = buf[2]
	report.Yaw = int16(binary.LittleEndian.Uint16(buf[3:5]))
	report.Pitch = int16(binary.LittleEndian.Uint16(buf[5:7]))
	report.Roll = int16(binary.LittleEndian.Uint16(buf[7:9]))
	report.XAccel = int16(binary.LittleEndian.Uint16(buf[9:11]))
	report.YAccel = int16(binary.LittleEndian.Uint16(buf[11:13]))
	report.ZAccel = int16(binary.LittleEndian.Uint16(buf[13:15]))
	return report, nil
}

type Interface interface {
	CurrentReport() IMUReport
	WaitForReportAfter(t time.Time) (IMUReport, error)
}

type BNO08X struct {
	device string
	log    *zap.Logger

	lock       sync.Mutex
	cond       *sync.Cond
	lastReport IMUReport
	callback   func(dmp.Data)
	stopped    bool

	cancel context.CancelFunc
	done   chan struct{}
}

var _ Interface = (*BNO08X)(nil)

func New(device string, log *zap.Logger) *BNO08X {
	if device == "" {
		device = DefaultDevice
	}
	if log == nil {
		log = zap.NewNop()
	}
	b := &BNO08X{device: device, log: log}
	b.cond = sync.NewCond(&b.lock)
	return b
}

func (b *BNO08X) CurrentReport() IMUReport {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.lastReport
}

// SetCallback registers f to run on the reader goroutine for every report.
func (b *BNO08X) SetCallback(f func(dmp.Data)) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.callback = f
}

// Latest returns the last report as a sample.
func (b *BNO08X) Latest() dmp.Data {
	return b.CurrentReport().Data()
}

// WaitForReportAfter blocks until a report newer than t arrives, failing if
// the sensor stays silent for a second.
func (b *BNO08X) WaitForReportAfter(t time.Time) (IMUReport, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	startTime := time.Now()
	for b.lastReport.Time.Before(t) {
		if b.stopped {
			return b.lastReport, ErrStopped
		}
		if time.Since(startTime) > time.Second {
			return b.lastReport, errors.New("IMU hasn't responded for >1s")
		}
		b.cond.Wait()
	}
	return b.lastReport, nil
}

// Start runs the reader in the background until PowerOff or ctx is done.
func (b *BNO08X) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})
	b.lock.Lock()
	b.stopped = false
	b.lock.Unlock()
	go func() {
		defer close(b.done)
		b.LoopReadingReports(ctx)
	}()
	// Wake WaitForReportAfter callers periodically so they can time out.
	go func() {
		t := time.NewTicker(250 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.cond.Broadcast()
			}
		}
	}()
}

// PowerOff stops the reader. The sensor has no sleep command in RVC mode.
func (b *BNO08X) PowerOff() error {
	if b.cancel == nil {
		return nil
	}
	b.cancel()
	<-b.done
	return nil
}

func (b *BNO08X) LoopReadingReports(ctx context.Context) {
	defer func() {
		b.lock.Lock()
		b.stopped = true
		b.lock.Unlock()
		b.cond.Broadcast()
	}()
	for ctx.Err() == nil {
		err := b.openAndLoop(ctx)
		if ctx.Err() != nil {
			return
		}
		b.log.Warn("BNO08X loop stopped; will retry", zap.Error(err))
		time.Sleep(100 * time.Millisecond)
		b.cond.Broadcast()
	}
}

func (b *BNO08X) openAndLoop(ctx context.Context) error {
	mode := &serial.Mode{
		BaudRate: 115200,
	}
	s, err := serial.Open(b.device, mode)
	if err != nil {
		return errors.Wrapf(err, "failed to open serial port %s", b.device)
	}
	defer s.Close()
	// Closing the port unblocks a read on a silent line.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-stop:
		}
	}()
	return b.readLoop(ctx, s)
}

// readLoop consumes the packet stream, resyncing on the 0xAAAA header after
// any framing or checksum error.
func (b *BNO08X) readLoop(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
	buf := make([]byte, packetLen)
resync:
	b.log.Debug("BNO08X resync")
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		head, err := br.Peek(2)
		if err != nil {
			return errors.Wrap(err, "failed to read from serial")
		}
		if bytes.Equal(head, []byte{0xaa, 0xaa}) {
			break
		}
		if _, err := br.Discard(1); err != nil {
			return errors.Wrap(err, "failed to read from serial")
		}
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := io.ReadFull(br, buf); err != nil {
			return errors.Wrap(err, "failed to read from serial")
		}
		report, err := parsePacket(buf)
		if err != nil {
			b.log.Debug("BNO08X dropped packet", zap.Error(err))
			goto resync
		}
		report.Time = time.Now()
		b.setReport(report)
	}
}

func (b *BNO08X) setReport(report IMUReport) {
	b.lock.Lock()
	b.lastReport = report
	cb := b.callback
	b.cond.Broadcast()
	b.lock.Unlock()
	if cb != nil {
		cb(report.Data())
	}
}
