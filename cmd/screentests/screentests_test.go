package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tigerbot/go-imuprint/pkg/dmp"
)

func TestParseAngles(t *testing.T) {
	d, err := parseAngles(" 10 -20 90\n")
	require.NoError(t, err)
	assert.InDelta(t, 10, d.DMPTaitBryan[dmp.TBPitchX]*dmp.RadToDeg, 1e-9)
	assert.InDelta(t, -20, d.DMPTaitBryan[dmp.TBRollY]*dmp.RadToDeg, 1e-9)
	assert.InDelta(t, 90, d.DMPTaitBryan[dmp.TBYawZ]*dmp.RadToDeg, 1e-9)

	_, err = parseAngles("10 twenty\n")
	assert.Error(t, err)
}
