package sound

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestLoadNotWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ready.wav")
	require.NoError(t, ioutil.WriteFile(path, []byte("definitely not RIFF data"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
