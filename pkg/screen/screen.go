package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
)

const (
	S = 128

	DefaultDevice = "/dev/fb1"
)

var (
	lock     sync.Mutex
	attitude [3]float64 // radians, Tait-Bryan
	heading  float64
	haveMag  bool
)

// SetData records the sample to show on the next refresh.
func SetData(d dmp.Data, magnetometer bool) {
	lock.Lock()
	defer lock.Unlock()
	attitude = d.DMPTaitBryan
	heading = d.CompassHeading
	haveMag = magnetometer
}

func LoopUpdatingScreen(ctx context.Context, device string, log *zap.Logger) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		log.Info("Failed to open screen, ignoring", zap.Error(err))
		return
	}
	defer f.Close()

	var buf [S * S * 2]byte
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		if ctx.Err() != nil {
			buf = [S * S * 2]byte{}
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		}

		lock.Lock()
		tb, h, mag := attitude, heading, haveMag
		lock.Unlock()
		EncodeRGB565(Render(tb, h, mag), buf[:])

		_, err = f.Seek(0, 0)
		if err != nil {
			log.Warn("Screen failure", zap.Error(err))
			return
		}
		for i := 0; i < S; i++ {
			_, err = f.Write(buf[i*S*2 : (i+1)*S*2])
			if err != nil {
				log.Warn("Screen failure", zap.Error(err))
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// Render draws an artificial horizon for the given attitude with the angles
// printed underneath.
func Render(tb [3]float64, heading float64, magnetometer bool) image.Image {
	dc := gg.NewContext(S, S)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	const r = 40
	cx, cy := float64(S/2), float64(48)

	// Sky and ground, split by a horizon that rolls with Y and rises with X.
	dc.Push()
	dc.DrawCircle(cx, cy, r)
	dc.Clip()
	dc.SetRGB(0.1, 0.4, 0.9)
	dc.DrawRectangle(cx-r, cy-r, 2*r, 2*r)
	dc.Fill()
	dc.RotateAbout(-tb[dmp.TBRollY], cx, cy)
	offset := tb[dmp.TBPitchX] * dmp.RadToDeg / 90 * r
	dc.SetRGB(0.6, 0.35, 0.1)
	dc.DrawRectangle(cx-2*r, cy+offset, 4*r, 2*r)
	dc.Fill()
	dc.ResetClip()
	dc.Pop()

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.SetLineWidth(2)
	dc.DrawCircle(cx, cy, r)
	dc.Stroke()
	dc.DrawLine(cx-12, cy, cx+12, cy)
	dc.Stroke()

	dc.DrawString(fmt.Sprintf("P%6.1f R%6.1f", tb[dmp.TBPitchX]*dmp.RadToDeg, tb[dmp.TBRollY]*dmp.RadToDeg), 4, 104)
	dc.DrawString(fmt.Sprintf("Y%6.1f", tb[dmp.TBYawZ]*dmp.RadToDeg), 4, 120)
	if magnetometer {
		dc.DrawString(fmt.Sprintf("H%6.1f", heading*dmp.RadToDeg), 68, 120)
	}
	return dc.Image()
}

// EncodeRGB565 packs img into the panel's little-endian RGB565 layout, which is
// mounted rotated a quarter turn. buf must hold S*S*2 bytes.
func EncodeRGB565(img image.Image, buf []byte) {
	for y := 0; y < S; y++ {
		for x := 0; x < S; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(S-1-y)*2+x*S*2+1] = (rb << 3) | (gb >> 3)
			buf[(S-1-y)*2+x*S*2] = bb | (gb << 5)
		}
	}
}
