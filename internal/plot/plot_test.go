package plot

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"wattsup-logger/internal/protocol"
	"wattsup-logger/internal/sink"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplesAt(interval int, powers ...float64) []protocol.Sample {
	out := make([]protocol.Sample, len(powers))
	for i, p := range powers {
		out[i] = protocol.Sample{
			Timestamp: time.Date(2011, 9, 2, 17, 0, i, 0, time.Local),
			Index:     i * interval,
			Power:     p,
			Voltage:   120,
			Current:   p / 120,
		}
	}
	return out
}

func TestReadLog(t *testing.T) {
	fs := afero.NewMemMapFs()
	want := samplesAt(2, 100, 150.5, 99.9)

	var b strings.Builder
	for _, s := range want {
		b.WriteString(sink.FormatLogLine(s))
	}
	b.WriteString("\n")
	require.NoError(t, afero.WriteFile(fs, "log.out", []byte(b.String()), 0o644))

	got, err := ReadLog(fs, "log.out")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range want {
		assert.Equal(t, want[i].Index, got[i].Index)
		assert.InDelta(t, want[i].Power, got[i].Power, 1e-9)
	}
}

func TestReadLogErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := ReadLog(fs, "missing.out")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "bad.out", []byte("2011-09-02 17:00:00.000000 0 1.0 120.0 0.008\nnot a line\n"), 0o644))
	_, err = ReadLog(fs, "bad.out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.out:2")
}

func TestEnergy(t *testing.T) {
	cases := []struct {
		name    string
		samples []protocol.Sample
		want    []float64
	}{
		{"empty", nil, []float64{}},
		{"single", samplesAt(5, 10), []float64{10}},
		{"uniform", samplesAt(2, 100, 200, 300), []float64{200, 600, 1200}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Energy(tc.samples)
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateApprox(0, 1e-9), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Energy() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMinutes(t *testing.T) {
	got := Minutes(samplesAt(30, 1, 1, 1))
	if diff := cmp.Diff([]float64{0, 0.5, 1}, got); diff != "" {
		t.Errorf("Minutes() mismatch (-want +got):\n%s", diff)
	}
}

func TestChartRender(t *testing.T) {
	c := Chart{Title: "t", YLabel: "W", Width: 10, Height: 4}
	out := c.String([]float64{0, 1, 2}, []float64{1, 2, 3})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	// title, y label, 4 rows, axis, x labels
	require.Len(t, lines, 8)
	assert.Equal(t, "t", lines[0])
	assert.Contains(t, lines[2], "3.00")
	assert.Contains(t, lines[5], "1.00")
	assert.True(t, strings.HasSuffix(lines[2], "*|"), lines[2])
	assert.Contains(t, lines[5], "|*")
	assert.Contains(t, lines[7], "2.0 min")
}

func TestChartEmpty(t *testing.T) {
	assert.Contains(t, Chart{}.String(nil, nil), "no samples")
}

func TestPowerChartSecondary(t *testing.T) {
	c := PowerChart()
	assert.InDelta(t, 1000.0, c.Secondary(120), 1e-9)
	assert.InDelta(t, 1.0, EnergyChart().Secondary(3.6), 1e-9)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, samplesAt(60, 100, 100), DefaultWidth, DefaultHeight))
	out := buf.String()
	assert.Contains(t, out, "Power over time")
	assert.Contains(t, out, "Cumulative energy")
	assert.Contains(t, out, "energy: 12.000 kJ (3.333 Wh)")
}
