package dmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestOrientationMatrix(t *testing.T) {
	for _, tc := range []struct {
		o        Orientation
		expected [3][3]float64
	}{
		{OrientationZUp, [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}},
		{OrientationZDown, [3][3]float64{{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}}},
		{OrientationXUp, [3][3]float64{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}}},
		{OrientationXDown, [3][3]float64{{0, 0, 1}, {0, 1, 0}, {-1, 0, 0}}},
		{OrientationYUp, [3][3]float64{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}}},
		{OrientationYDown, [3][3]float64{{1, 0, 0}, {0, 0, 1}, {0, -1, 0}}},
		{OrientationXForward, [3][3]float64{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}},
		{OrientationXBack, [3][3]float64{{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}}},
	} {
		assert.Equal(t, tc.expected, tc.o.Matrix(), tc.o.String())
	}
}

func TestMountedUpGravityPointsUp(t *testing.T) {
	// Whichever sensor axis faces up, gravity lands on board +Z.
	assert.Equal(t, [3]float64{0, 0, 1}, OrientationXUp.Apply([3]float64{1, 0, 0}))
	assert.Equal(t, [3]float64{0, 0, 1}, OrientationXDown.Apply([3]float64{-1, 0, 0}))
	assert.Equal(t, [3]float64{0, 0, 1}, OrientationYUp.Apply([3]float64{0, 1, 0}))
	assert.Equal(t, [3]float64{0, 0, 1}, OrientationYDown.Apply([3]float64{0, -1, 0}))
	assert.Equal(t, [3]float64{0, 0, 1}, OrientationZDown.Apply([3]float64{0, 0, -1}))
}

func TestParseOrientation(t *testing.T) {
	for _, s := range []string{"ORIENTATION_Y_DOWN", "Y_DOWN", " y_down "} {
		o, err := ParseOrientation(s)
		require.NoError(t, err, s)
		assert.Equal(t, OrientationYDown, o)
	}
	_, err := ParseOrientation("sideways")
	assert.EqualError(t, err, `unknown orientation "sideways"`)
}

func TestOrientationsAreDistinctAndValid(t *testing.T) {
	seen := map[Orientation]bool{}
	for _, o := range Orientations {
		assert.True(t, o.Valid())
		assert.False(t, seen[o])
		seen[o] = true
	}
	assert.Len(t, seen, 8)
	assert.False(t, Orientation(0).Valid())
	assert.Equal(t, "Orientation(7)", Orientation(7).String())
}

func TestOrientationYAML(t *testing.T) {
	var c struct {
		Orientation Orientation `yaml:"orientation"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("orientation: X_FORWARD\n"), &c))
	assert.Equal(t, OrientationXForward, c.Orientation)

	out, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, "orientation: ORIENTATION_X_FORWARD\n", string(out))

	assert.Error(t, yaml.Unmarshal([]byte("orientation: nope\n"), &c))
}
