package meter

import (
	"io"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReplay(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "samples/iphone4.raw", []byte("#d,-,18,1,2,3;\n"), 0o644))

	src, err := Open(fs, Options{Port: "samples/iphone4.raw", Simulate: true}, nil)
	require.NoError(t, err)
	defer src.Close()

	assert.Nil(t, src.Commander())
	assert.Contains(t, src.Name(), "iphone4.raw")

	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "#d,-,18,1,2,3;\n", string(data))
}

func TestOpenReplayMissingIsEmpty(t *testing.T) {
	src, err := Open(afero.NewMemMapFs(), Options{Port: "missing.raw", Simulate: true}, nil)
	require.NoError(t, err)

	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.NoError(t, src.Close())
}

func TestOpenReplayDirect(t *testing.T) {
	_, err := OpenReplay(afero.NewMemMapFs(), "missing.raw")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestOpenDeviceMissingIsFatal(t *testing.T) {
	_, err := Open(afero.NewMemMapFs(), Options{
		Port:           "/dev/does-not-exist-wattsup",
		SilenceTimeout: time.Second,
	}, nil)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
