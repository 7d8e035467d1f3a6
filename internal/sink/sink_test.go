package sink

import (
	"testing"
	"time"

	"wattsup-logger/internal/protocol"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawPath(t *testing.T) {
	cases := map[string]string{
		"log.out":          "log.raw",
		"data/run.1.log":   "data/run.1.raw",
		"capture":          "capture.raw",
		"already.raw":      "already.raw.raw",
		"/tmp/x/power.txt": "/tmp/x/power.raw",
	}
	for in, want := range cases {
		assert.Equal(t, want, RawPath(in), in)
	}
}

func TestLogLineRoundTrip(t *testing.T) {
	ts := time.Date(2011, 9, 2, 17, 10, 50, 123456000, time.Local)
	s := protocol.Sample{Timestamp: ts, Index: 42, Power: 123.4, Voltage: 120.5, Current: 0.5}

	line := FormatLogLine(s)
	assert.Equal(t, "2011-09-02 17:10:50.123456 42 123.4 120.5 0.500\n", line)

	got, err := ParseLogLine(line)
	require.NoError(t, err)
	assert.True(t, ts.Equal(got.Timestamp))
	assert.Equal(t, 42, got.Index)
	assert.InDelta(t, 123.4, got.Power, 1e-9)
	assert.InDelta(t, 120.5, got.Voltage, 1e-9)
	assert.InDelta(t, 0.5, got.Current, 1e-9)
}

func TestLogLineRoundTripRounds(t *testing.T) {
	s := protocol.Sample{Timestamp: time.Now(), Index: 3, Power: 99.94, Voltage: 119.96, Current: 1.23449}
	got, err := ParseLogLine(FormatLogLine(s))
	require.NoError(t, err)
	assert.InDelta(t, s.Power, got.Power, 0.05)
	assert.InDelta(t, s.Voltage, got.Voltage, 0.05)
	assert.InDelta(t, s.Current, got.Current, 0.0005)
}

func TestParseLogLineErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"2011-09-02 17:10:50.000000 1 2.0 3.0",
		"yesterday noon 1 2.0 3.0 0.100",
		"2011-09-02 17:10:50.000000 x 2.0 3.0 0.100",
		"2011-09-02 17:10:50.000000 1 2.0 volts 0.100",
	} {
		_, err := ParseLogLine(line)
		assert.Error(t, err, line)
	}
}

func TestLogSinkAppends(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/log.out", []byte("existing\n"), 0o644))

	l, err := OpenLog(fs, "out/log.out")
	require.NoError(t, err)
	assert.Equal(t, "out/log.out", l.Path())

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	require.NoError(t, l.Append(protocol.Sample{Timestamp: ts, Index: 0, Power: 1, Voltage: 2, Current: 0.003}))
	require.NoError(t, l.Close())

	data, err := afero.ReadFile(fs, "out/log.out")
	require.NoError(t, err)
	assert.Equal(t, "existing\n2024-01-01 00:00:00.000000 0 1.0 2.0 0.003\n", string(data))
}

func TestRawSinkVerbatim(t *testing.T) {
	fs := afero.NewMemMapFs()
	r, err := OpenRaw(fs, "log.raw")
	require.NoError(t, err)

	require.NoError(t, r.Append("#d,-,18,1,2,3;\r\n"))
	require.NoError(t, r.Append("#d,-,18,4,5,6;"))
	require.NoError(t, r.Close())

	data, err := afero.ReadFile(fs, "log.raw")
	require.NoError(t, err)
	assert.Equal(t, "#d,-,18,1,2,3;\r\n#d,-,18,4,5,6;\n", string(data))
}

func TestOpenFailsOnReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	_, err := OpenLog(fs, "log.out")
	assert.Error(t, err)
	_, err = OpenRaw(fs, "log.raw")
	assert.Error(t, err)
}
