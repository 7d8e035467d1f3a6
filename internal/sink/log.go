package sink

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wattsup-logger/internal/protocol"

	"github.com/spf13/afero"
)

// TimeLayout is the timestamp format of log lines. It contains a space, so
// a log line has six whitespace-separated fields.
const TimeLayout = "2006-01-02 15:04:05.000000"

// logFields is the field count of a log line: date, time, index, W, V, A.
const logFields = 6

// LogSink appends one formatted line per sample.
type LogSink struct {
	*file
}

// OpenLog opens (creating or appending to) the decoded log at path.
func OpenLog(fs afero.Fs, path string) (*LogSink, error) {
	f, err := openAppend(fs, path)
	if err != nil {
		return nil, err
	}
	return &LogSink{file: f}, nil
}

// Append writes s as a single line.
func (l *LogSink) Append(s protocol.Sample) error {
	return l.write([]byte(FormatLogLine(s)))
}

// FormatLogLine renders s as "<timestamp> <index> <W> <V> <A>\n".
func FormatLogLine(s protocol.Sample) string {
	return fmt.Sprintf("%s %d %3.1f %3.1f %5.3f\n",
		s.Timestamp.Format(TimeLayout), s.Index, s.Power, s.Voltage, s.Current)
}

// ParseLogLine is the inverse of FormatLogLine, to the precision written.
// Timestamps are read in local time.
func ParseLogLine(line string) (protocol.Sample, error) {
	fields := strings.Fields(line)
	if len(fields) != logFields {
		return protocol.Sample{}, fmt.Errorf("log line has %d fields, want %d", len(fields), logFields)
	}

	ts, err := time.ParseInLocation(TimeLayout, fields[0]+" "+fields[1], time.Local)
	if err != nil {
		return protocol.Sample{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	index, err := strconv.Atoi(fields[2])
	if err != nil {
		return protocol.Sample{}, fmt.Errorf("invalid index: %w", err)
	}

	var vals [3]float64
	for i := range vals {
		vals[i], err = strconv.ParseFloat(fields[3+i], 64)
		if err != nil {
			return protocol.Sample{}, fmt.Errorf("invalid value in field %d: %w", 3+i, err)
		}
	}

	return protocol.Sample{
		Timestamp: ts,
		Index:     index,
		Power:     vals[0],
		Voltage:   vals[1],
		Current:   vals[2],
	}, nil
}
