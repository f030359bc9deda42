package dmp

import (
	"fmt"
	"strings"
)

// Orientation is how the board is mounted, as an InvenSense orientation
// scalar: three 3-bit rows, each holding the source axis (bits 0-1) and a
// negative flag (bit 2).
type Orientation uint16

const (
	OrientationZUp      Orientation = 136
	OrientationZDown    Orientation = 396
	OrientationXUp      Orientation = 14
	OrientationXDown    Orientation = 266
	OrientationYUp      Orientation = 112
	OrientationYDown    Orientation = 336
	OrientationXForward Orientation = 133
	OrientationXBack    Orientation = 161
)

// Orientations in menu order.
var Orientations = []Orientation{
	OrientationZUp,
	OrientationZDown,
	OrientationXUp,
	OrientationXDown,
	OrientationYUp,
	OrientationYDown,
	OrientationXForward,
	OrientationXBack,
}

var orientationNames = map[Orientation]string{
	OrientationZUp:      "ORIENTATION_Z_UP",
	OrientationZDown:    "ORIENTATION_Z_DOWN",
	OrientationXUp:      "ORIENTATION_X_UP",
	OrientationXDown:    "ORIENTATION_X_DOWN",
	OrientationYUp:      "ORIENTATION_Y_UP",
	OrientationYDown:    "ORIENTATION_Y_DOWN",
	OrientationXForward: "ORIENTATION_X_FORWARD",
	OrientationXBack:    "ORIENTATION_X_BACK",
}

func (o Orientation) String() string {
	if n, ok := orientationNames[o]; ok {
		return n
	}
	return fmt.Sprintf("Orientation(%d)", uint16(o))
}

func (o Orientation) Valid() bool {
	_, ok := orientationNames[o]
	return ok
}

// Matrix returns the rotation taking sensor axes to board axes.
func (o Orientation) Matrix() [3][3]float64 {
	var m [3][3]float64
	for row := 0; row < 3; row++ {
		bits := (uint16(o) >> (3 * row)) & 7
		v := 1.0
		if bits&4 != 0 {
			v = -1
		}
		m[row][bits&3] = v
	}
	return m
}

// Apply rotates a sensor-frame vector into the board frame.
func (o Orientation) Apply(v [3]float64) [3]float64 {
	m := o.Matrix()
	var out [3]float64
	for i := range out {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

// ParseOrientation accepts "ORIENTATION_X_UP", "X_UP" or "x_up".
func ParseOrientation(s string) (Orientation, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(name, "ORIENTATION_") {
		name = "ORIENTATION_" + name
	}
	for o, n := range orientationNames {
		if n == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown orientation %q", s)
}

func (o Orientation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid orientation %d", uint16(o))
	}
	return []byte(o.String()), nil
}

func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
