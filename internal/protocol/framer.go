// Package protocol implements the WattsUp meter line protocol: framing raw
// serial bytes into lines, decoding "#d" data records into samples and
// encoding mode-change commands.
package protocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// DataPrefix is the two-character marker that starts every data record.
const DataPrefix = "#d"

// RawLine is a single line as received from the source, including its
// terminator when one was present.
type RawLine string

// Text returns the line without trailing CR/LF.
func (l RawLine) Text() string {
	return strings.TrimRight(string(l), "\r\n")
}

// IsDataRecord reports whether the line starts with the data-record marker.
func (l RawLine) IsDataRecord() bool {
	return strings.HasPrefix(string(l), DataPrefix)
}

// MaxLineLength bounds a single line, terminator included. Meter records
// are far shorter; a longer run of bytes is line noise.
const MaxLineLength = 1024

// Framer turns a byte stream into RawLines. It owns end-of-line detection
// and buffering only.
type Framer struct {
	r *bufio.Reader
}

// NewFramer wraps r. Reads block until a full line is available.
func NewFramer(r io.Reader) *Framer {
	return &Framer{r: bufio.NewReaderSize(r, MaxLineLength)}
}

// NextLine returns the next line. A trailing fragment without newline is
// returned once before io.EOF. A line longer than MaxLineLength is
// discarded up to its newline and reported as ErrLineTooLong; the framer
// stays usable. Other errors come from the underlying reader unchanged.
func (f *Framer) NextLine() (RawLine, error) {
	line, err := f.r.ReadSlice('\n')
	switch {
	case err == nil:
		return RawLine(line), nil
	case errors.Is(err, bufio.ErrBufferFull):
		return "", f.skipLine()
	case err == io.EOF && len(line) > 0:
		return RawLine(line), nil
	default:
		return "", err
	}
}

// skipLine drops the rest of an overlong line.
func (f *Framer) skipLine() error {
	for {
		_, err := f.r.ReadSlice('\n')
		switch {
		case err == nil, err == io.EOF:
			return ErrLineTooLong
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return err
		}
	}
}
