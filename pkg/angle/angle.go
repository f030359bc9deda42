package angle

import "math"

// PlusMinus180 is an angle in degrees, stored as a value in range (-180, 180].
// All operations clamp their output into range.
type PlusMinus180 struct {
	float64
}

func (a PlusMinus180) Add(b PlusMinus180) PlusMinus180 {
	return FromFloat(a.float64 + b.float64)
}

func (a PlusMinus180) Sub(b PlusMinus180) PlusMinus180 {
	return FromFloat(a.float64 - b.float64)
}

// Float returns the angle in degrees, range (-180, 180].
func (a PlusMinus180) Float() float64 {
	return a.float64
}

func (a PlusMinus180) Radians() float64 {
	return a.float64 * math.Pi / 180
}

// FromFloat converts a float of any magnitude to a PlusMinus180 by calculating
// f mod 360 and shifting into range.
func FromFloat(f float64) PlusMinus180 {
	d := math.Mod(f, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return PlusMinus180{d}
}

func FromRadians(r float64) PlusMinus180 {
	return FromFloat(r * 180 / math.Pi)
}

// WrapRadians shifts r into (-pi, pi].
func WrapRadians(r float64) float64 {
	d := math.Mod(r, 2*math.Pi)
	if d <= -math.Pi {
		d += 2 * math.Pi
	} else if d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}
