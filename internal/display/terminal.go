package display

import (
	"fmt"
	"io"
	"strings"

	"wattsup-logger/internal/collector"
	"wattsup-logger/internal/plot"
	"wattsup-logger/internal/protocol"
	"wattsup-logger/internal/sink"
)

const clearScreen = "\x1b[H\x1b[2J"

// Quitter reports an operator quit request without blocking.
type Quitter interface {
	QuitRequested() bool
	Close() error
}

// Terminal redraws a full-screen status page for every sample, with an
// optional power chart. Lines end in CRLF since the terminal may be in raw
// mode.
type Terminal struct {
	out   io.Writer
	keys  Quitter
	chart bool
	width int
}

// NewTerminal draws to out and asks keys about quitting. keys may be nil.
func NewTerminal(out io.Writer, keys Quitter, chart bool) *Terminal {
	return &Terminal{out: out, keys: keys, chart: chart, width: plot.DefaultWidth}
}

func (t *Terminal) Render(s protocol.Sample, st collector.Status) error {
	var b strings.Builder
	b.WriteString(clearScreen)

	source := st.Source
	if st.Simulated {
		source += " (simulated)"
	}
	fmt.Fprintf(&b, "WattsUp  %s  every %ds\n", source, st.Interval)
	fmt.Fprintf(&b, "elapsed  %s\n", FormatElapsed(s.Index))
	fmt.Fprintf(&b, "power    %.1f W\n", s.Power)
	fmt.Fprintf(&b, "voltage  %.1f V\n", s.Voltage)
	fmt.Fprintf(&b, "current  %s\n", FormatCurrent(s.Current))
	fmt.Fprintf(&b, "samples  %d (%d rejected)\n", st.Samples, st.Rejected)
	if st.LogFile != "" {
		fmt.Fprintf(&b, "logging  %s\n", st.LogFile)
	} else {
		b.WriteString("logging  off\n")
	}
	if st.RawFile != "" {
		fmt.Fprintf(&b, "raw      %s\n", st.RawFile)
	}
	if st.Notice != "" {
		fmt.Fprintf(&b, "notice   %s\n", st.Notice)
	}

	if t.chart && st.Series != nil && st.Series.Len() > 1 {
		xs := make([]float64, st.Series.Len())
		for i, idx := range st.Series.Index {
			xs[i] = float64(idx) / 60
		}
		c := plot.PowerChart()
		c.Width = t.width
		b.WriteString("\n")
		b.WriteString(c.String(xs, st.Series.Power))
	}

	b.WriteString("\npress q to quit\n")
	_, err := io.WriteString(t.out, strings.ReplaceAll(b.String(), "\n", "\r\n"))
	return err
}

func (t *Terminal) QuitRequested() bool {
	return t.keys != nil && t.keys.QuitRequested()
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	if t.keys == nil {
		return nil
	}
	return t.keys.Close()
}

// Lines prints each sample in log file format, for output that is not a
// terminal.
type Lines struct {
	out  io.Writer
	keys Quitter
}

// NewLines prints to out. keys may be nil.
func NewLines(out io.Writer, keys Quitter) *Lines {
	return &Lines{out: out, keys: keys}
}

func (l *Lines) Render(s protocol.Sample, _ collector.Status) error {
	_, err := io.WriteString(l.out, sink.FormatLogLine(s))
	return err
}

func (l *Lines) QuitRequested() bool {
	return l.keys != nil && l.keys.QuitRequested()
}

func (l *Lines) Close() error {
	if l.keys == nil {
		return nil
	}
	return l.keys.Close()
}
