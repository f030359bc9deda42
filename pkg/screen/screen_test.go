package screen

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
)

func TestEncodeRGB565(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, S, S))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	img.Set(1, 0, color.RGBA{G: 0xff, A: 0xff})
	img.Set(0, 1, color.RGBA{B: 0xff, A: 0xff})
	img.Set(S-1, S-1, color.White)

	buf := make([]byte, S*S*2)
	EncodeRGB565(img, buf)

	// (0,0) lands at the end of the first panel row.
	assert.Equal(t, []byte{0x00, 0xf8}, buf[254:256])
	assert.Equal(t, []byte{0xe0, 0x07}, buf[256+254:256+256])
	assert.Equal(t, []byte{0x1f, 0x00}, buf[252:254])
	last := (S - 1) * S * 2
	assert.Equal(t, []byte{0xff, 0xff}, buf[last:last+2])
	assert.Equal(t, []byte{0, 0}, buf[2:4])
}

func TestRenderHorizon(t *testing.T) {
	sky := func(img image.Image, x, y int) bool {
		_, _, b, _ := img.At(x, y).RGBA()
		return b > 0x8000
	}

	level := Render([3]float64{}, 0, false)
	assert.Equal(t, image.Rect(0, 0, S, S), level.Bounds())
	assert.True(t, sky(level, S/2, 30), "above the horizon")
	assert.False(t, sky(level, S/2, 70), "below the horizon")

	// Nose up 45 degrees moves the horizon down by half the radius.
	up := Render([3]float64{45 * dmp.DegToRad, 0, 0}, 0, false)
	assert.True(t, sky(up, S/2, 60))
	assert.False(t, sky(level, S/2, 60))
}

func TestSetData(t *testing.T) {
	SetData(dmp.Data{DMPTaitBryan: [3]float64{1, 2, 3}, CompassHeading: 0.5}, true)
	lock.Lock()
	defer lock.Unlock()
	assert.Equal(t, [3]float64{1, 2, 3}, attitude)
	assert.Equal(t, 0.5, heading)
	assert.True(t, haveMag)
}
