package dmp

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/angle"
)

// Mahony is a 6-axis complementary attitude filter. The quaternion it holds
// rotates board-frame vectors into the earth frame.
type Mahony struct {
	Kp, Ki float64

	q        quat.Number
	integral r3.Vec
}

func NewMahony(kp, ki float64) *Mahony {
	return &Mahony{Kp: kp, Ki: ki, q: quat.Number{Real: 1}}
}

// Reset levels the filter against a gravity reading, leaving yaw at zero.
func (m *Mahony) Reset(accel [3]float64) {
	m.integral = r3.Vec{}
	a := r3.Vec{X: accel[0], Y: accel[1], Z: accel[2]}
	n := r3.Norm(a)
	if n == 0 {
		m.q = quat.Number{Real: 1}
		return
	}
	a = r3.Scale(1/n, a)
	if a.Z < -0.999999 {
		// Upside down, any axis in the horizontal plane will do.
		m.q = quat.Number{Imag: 1}
		return
	}
	// Shortest arc taking a onto +Z.
	m.q = normalise(quat.Number{Real: 1 + a.Z, Imag: a.Y, Jmag: -a.X})
}

// Update advances the filter by dt seconds. gyro is in rad/s, accel in any
// unit.
func (m *Mahony) Update(gyro, accel [3]float64, dt float64) {
	g := r3.Vec{X: gyro[0], Y: gyro[1], Z: gyro[2]}
	a := r3.Vec{X: accel[0], Y: accel[1], Z: accel[2]}

	if n := r3.Norm(a); n > 0 {
		a = r3.Scale(1/n, a)
		q0, q1, q2, q3 := m.q.Real, m.q.Imag, m.q.Jmag, m.q.Kmag
		// Gravity direction predicted by the current estimate.
		v := r3.Vec{
			X: 2 * (q1*q3 - q0*q2),
			Y: 2 * (q0*q1 + q2*q3),
			Z: q0*q0 - q1*q1 - q2*q2 + q3*q3,
		}
		e := r3.Cross(a, v)
		if m.Ki > 0 {
			m.integral = r3.Add(m.integral, r3.Scale(m.Ki*dt, e))
			g = r3.Add(g, m.integral)
		}
		g = r3.Add(g, r3.Scale(m.Kp, e))
	}

	qDot := quat.Mul(m.q, quat.Number{Imag: g.X, Jmag: g.Y, Kmag: g.Z})
	m.q = normalise(quat.Add(m.q, quat.Scale(0.5*dt, qDot)))
}

func (m *Mahony) Quaternion() quat.Number {
	return m.q
}

func normalise(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// TaitBryan decomposes q as Rz(yaw)·Rx(pitch)·Ry(roll), returning angles in
// radians indexed by TBPitchX, TBRollY and TBYawZ.
func TaitBryan(q quat.Number) [3]float64 {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	sinX := 2 * (y*z + w*x)
	if sinX > 1 {
		sinX = 1
	} else if sinX < -1 {
		sinX = -1
	}
	return [3]float64{
		TBPitchX: math.Asin(sinX),
		TBRollY:  math.Atan2(-2*(x*z-w*y), 1-2*(x*x+y*y)),
		TBYawZ:   math.Atan2(-2*(x*y-w*z), 1-2*(x*x+z*z)),
	}
}

// Rotate applies q to a vector.
func Rotate(q quat.Number, v [3]float64) [3]float64 {
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}), quat.Conj(q))
	return [3]float64{p.Imag, p.Jmag, p.Kmag}
}

func yawQuat(yaw float64) quat.Number {
	return quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
}

func quatArray(q quat.Number) [4]float64 {
	return [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}

// compass low-pass filters the direction of magnetic north in the filter's
// earth frame.
type compass struct {
	tau   float64
	set   bool
	north float64
}

// update takes the current attitude and a board-frame field reading and
// returns the raw heading.
func (c *compass) update(q quat.Number, mag [3]float64, dt float64) float64 {
	world := Rotate(q, mag)
	north := math.Atan2(world[1], world[0])
	if !c.set {
		c.north = north
		c.set = true
	} else {
		alpha := dt / (c.tau + dt)
		c.north = angle.WrapRadians(c.north + alpha*angle.WrapRadians(north-c.north))
	}
	return angle.WrapRadians(TaitBryan(q)[TBYawZ] - north)
}

// fuse rotates q so that yaw is measured from the filtered north.
func (c *compass) fuse(q quat.Number) quat.Number {
	if !c.set {
		return q
	}
	return quat.Mul(yawQuat(-c.north), q)
}
