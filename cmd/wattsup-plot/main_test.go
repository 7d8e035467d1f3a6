package main

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `2011-09-02 17:10:50.000000 0 100.0 120.0 0.833
2011-09-02 17:11:50.000000 60 150.5 120.1 1.254
2011-09-02 17:12:50.000000 120 99.9 119.9 0.833
`

func TestRunWritesChartsAndFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "log.out", []byte(sampleLog), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(fs, &out, "log.out", "charts.txt"))

	assert.Contains(t, out.String(), "Power over time")
	assert.Contains(t, out.String(), "samples: 3")

	saved, err := afero.ReadFile(fs, "charts.txt")
	require.NoError(t, err)
	assert.Equal(t, out.String(), string(saved))
}

func TestRunSavesImages(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "log.out", []byte(sampleLog), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(fs, &out, "log.out", "power.png"))
	assert.Contains(t, out.String(), "Plots saved as power.png and power-energy.png")

	for _, path := range []string{"power.png", "power-energy.png"} {
		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err, path)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), path)
	}
}

func TestRunMissingLog(t *testing.T) {
	var out bytes.Buffer
	err := run(afero.NewMemMapFs(), &out, "nope.out", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.out does not exist")
	assert.Empty(t, out.String())
}
