package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChipName(t *testing.T) {
	assert.Equal(t, "MPU-9250", chipName(0x71))
	assert.Equal(t, "MPU-9255", chipName(0x73))
	assert.Equal(t, "MPU-6500, no magnetometer", chipName(0x70))
	assert.Equal(t, "unknown", chipName(0xff))
}
