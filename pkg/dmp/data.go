package dmp

import (
	"math"
	"time"
)

// Indices into the Tait-Bryan arrays.
const (
	TBPitchX = 0
	TBRollY  = 1
	TBYawZ   = 2
)

const (
	RadToDeg = 180 / math.Pi
	DegToRad = math.Pi / 180

	StandardGravity = 9.80665 // m/s^2
)

// Data is one processed sample. Angles are radians, quaternions are w, x, y, z.
type Data struct {
	Time time.Time

	Accel    [3]float64 // m/s^2, board frame
	Gyro     [3]float64 // degrees/s, board frame
	Mag      [3]float64 // micro tesla, board frame
	Temp     float64    // degrees C
	RawAccel [3]int16   // sensor frame
	RawGyro  [3]int16

	DMPQuat      [4]float64
	DMPTaitBryan [3]float64

	// Yaw corrected towards magnetic north. Same as the DMP values when the
	// magnetometer is off.
	FusedQuat      [4]float64
	FusedTaitBryan [3]float64

	CompassHeading    float64 // filtered
	CompassHeadingRaw float64
}

// TaitBryanDegrees returns pitch(X), roll(Y), yaw(Z) from the DMP in degrees.
func (d Data) TaitBryanDegrees() [3]float64 {
	return [3]float64{
		d.DMPTaitBryan[TBPitchX] * RadToDeg,
		d.DMPTaitBryan[TBRollY] * RadToDeg,
		d.DMPTaitBryan[TBYawZ] * RadToDeg,
	}
}
