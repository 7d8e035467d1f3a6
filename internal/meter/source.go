// Package meter provides the byte sources the acquisition loop reads from:
// a live WattsUp meter on a serial port or a replay of a captured raw file.
package meter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// DefaultBaudRate is the WattsUp serial speed.
const DefaultBaudRate = 115200

// Source is a line-oriented byte stream from a meter. The acquisition loop
// depends only on this capability, never on the concrete variant.
type Source interface {
	io.ReadCloser

	// Commander returns the writer meter commands go to, or nil when there
	// is no device to command.
	Commander() io.Writer

	// Name describes the source for status lines and logs.
	Name() string
}

// Options selects and configures a Source.
type Options struct {
	Port           string        // device path, or replay file when simulating
	BaudRate       int           // serial speed
	Simulate       bool          // replay Port as a captured raw file
	SilenceTimeout time.Duration // bound on a silent device, 0 disables
}

// Open returns a SerialDevice or, when simulating, a ReplayFile. A missing
// device is fatal for real hardware; a missing replay file is logged and
// yields an empty stream.
func Open(fs afero.Fs, opts Options, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Simulate {
		replay, err := OpenReplay(fs, opts.Port)
		if errors.Is(err, ErrDeviceNotFound) {
			logger.Warn("replay file not found, nothing to simulate", "path", opts.Port)
			return emptyReplay(opts.Port), nil
		}
		if err != nil {
			return nil, err
		}
		logger.Info("replaying captured stream", "path", opts.Port)
		return replay, nil
	}

	baud := opts.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	dev, err := OpenSerial(opts.Port, baud, opts.SilenceTimeout)
	if err != nil {
		return nil, err
	}
	logger.Info("serial: port opened", "device", opts.Port, "baud", baud,
		"silence_timeout", opts.SilenceTimeout)
	return dev, nil
}

// ReplayFile replays a previously captured raw protocol stream.
type ReplayFile struct {
	r    io.Reader
	c    io.Closer
	name string
}

// OpenReplay opens path on fs for replay.
func OpenReplay(fs afero.Fs, path string) (*ReplayFile, error) {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
		}
		return nil, fmt.Errorf("failed to open replay file %s: %w", path, err)
	}
	return &ReplayFile{r: f, c: f, name: path}, nil
}

func emptyReplay(name string) *ReplayFile {
	return &ReplayFile{r: strings.NewReader(""), name: name}
}

func (r *ReplayFile) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

func (r *ReplayFile) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}

// Commander returns nil: a replay has no device to command.
func (r *ReplayFile) Commander() io.Writer { return nil }

func (r *ReplayFile) Name() string { return "replay " + r.name }
