// Package plot reads finished sample logs and draws text charts of power
// and cumulative energy against elapsed minutes.
package plot

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"wattsup-logger/internal/protocol"
	"wattsup-logger/internal/sink"

	"github.com/spf13/afero"
)

// MilliampsPerWatt converts power to an approximate current on a 120 V
// line, for the secondary scale of power charts.
const MilliampsPerWatt = 1000.0 / 120

// JoulesPerWh converts energy in joules to watt hours.
const JoulesPerWh = 3600.0

// ReadLog parses every line of the log at path. Blank lines are skipped;
// any other unparsable line is an error naming its line number.
func ReadLog(fs afero.Fs, path string) ([]protocol.Sample, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", path, err)
	}
	defer f.Close()

	var samples []protocol.Sample
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := sink.ParseLogLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log %s: %w", path, err)
	}
	return samples, nil
}

// Minutes returns each sample's index in minutes.
func Minutes(samples []protocol.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s.Index) / 60
	}
	return out
}

// Power returns each sample's power in watts.
func Power(samples []protocol.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Power
	}
	return out
}

// Energy returns the cumulative energy in joules after each sample. A
// sample covers the time until the next one; the last sample reuses the
// spacing before it, and a lone sample counts for one second.
func Energy(samples []protocol.Sample) []float64 {
	out := make([]float64, len(samples))
	total := 0.0
	step := 1
	for i, s := range samples {
		if i+1 < len(samples) {
			if d := samples[i+1].Index - s.Index; d > 0 {
				step = d
			}
		}
		total += s.Power * float64(step)
		out[i] = total
	}
	return out
}

// PowerChart plots watts with the matching current in mA alongside.
func PowerChart() Chart {
	return Chart{
		Title:          "Power over time",
		YLabel:         "Power (W)",
		Secondary:      func(w float64) float64 { return w * MilliampsPerWatt },
		SecondaryLabel: "Current (mA)",
	}
}

// EnergyChart plots cumulative kJ with the matching Wh alongside.
func EnergyChart() Chart {
	return Chart{
		Title:          "Cumulative energy",
		YLabel:         "Energy (kJ)",
		Secondary:      func(kj float64) float64 { return kj * 1000 / JoulesPerWh },
		SecondaryLabel: "Energy (Wh)",
	}
}

// Report writes the power and energy charts for samples, width by height
// characters each, followed by a totals line.
func Report(w io.Writer, samples []protocol.Sample, width, height int) error {
	xs := Minutes(samples)
	energy := Energy(samples)
	kj := kilojoules(energy)

	pc, ec := PowerChart(), EnergyChart()
	pc.Width, pc.Height = width, height
	ec.Width, ec.Height = width, height

	if err := pc.Render(w, xs, Power(samples)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	if err := ec.Render(w, xs, kj); err != nil {
		return err
	}

	total := 0.0
	if len(energy) > 0 {
		total = energy[len(energy)-1]
	}
	_, err := fmt.Fprintf(w, "\nsamples: %d  energy: %.3f kJ (%.3f Wh)\n",
		len(samples), total/1000, total/JoulesPerWh)
	return err
}

func kilojoules(joules []float64) []float64 {
	out := make([]float64, len(joules))
	for i, j := range joules {
		out[i] = j / 1000
	}
	return out
}
