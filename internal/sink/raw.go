package sink

import (
	"strings"

	"wattsup-logger/internal/protocol"

	"github.com/spf13/afero"
)

// RawSink stores accepted protocol lines verbatim, in arrival order.
type RawSink struct {
	*file
}

// OpenRaw opens (creating or appending to) the raw capture at path.
func OpenRaw(fs afero.Fs, path string) (*RawSink, error) {
	f, err := openAppend(fs, path)
	if err != nil {
		return nil, err
	}
	return &RawSink{file: f}, nil
}

// Append writes line unchanged. A final line that arrived without a
// newline gets one so the capture stays line-oriented.
func (r *RawSink) Append(line protocol.RawLine) error {
	s := string(line)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return r.write([]byte(s))
}
