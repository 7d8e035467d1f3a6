package meter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"go.bug.st/serial"
	"go.uber.org/multierr"
)

// pollInterval is the serial read timeout. Reads wake up at this rate to
// account for silence; it is not a limit on how long a line may take.
const pollInterval = 250 * time.Millisecond

// port is the subset of serial.Port a SerialDevice uses.
type port interface {
	io.ReadWriteCloser
}

// SerialDevice is a WattsUp meter on a serial port.
type SerialDevice struct {
	port   port
	reader *silenceReader
	name   string
}

// OpenSerial opens portName at baudRate, 8N1. Reads fail with ErrSilence
// after silence without data; silence <= 0 waits forever.
func OpenSerial(portName string, baudRate int, silence time.Duration) (*SerialDevice, error) {
	if runtime.GOOS != "windows" {
		if _, err := os.Stat(portName); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, portName)
		}
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(portName, mode)
	if err != nil {
		var portErr *serial.PortError
		if errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, portName)
		}
		return nil, fmt.Errorf("failed to open meter port %s: %w", portName, err)
	}

	if err := p.SetReadTimeout(pollInterval); err != nil {
		return nil, multierr.Append(
			fmt.Errorf("failed to set read timeout on %s: %w", portName, err),
			p.Close())
	}

	return newSerialDevice(p, portName, silence), nil
}

func newSerialDevice(p port, name string, silence time.Duration) *SerialDevice {
	return &SerialDevice{
		port:   p,
		reader: &silenceReader{r: p, silence: silence, now: time.Now},
		name:   name,
	}
}

func (d *SerialDevice) Read(b []byte) (int, error) {
	return d.reader.Read(b)
}

// Commander returns the port itself; mode commands are written raw.
func (d *SerialDevice) Commander() io.Writer { return d.port }

func (d *SerialDevice) Name() string { return d.name }

func (d *SerialDevice) Close() error {
	if d.port == nil {
		return nil
	}
	return d.port.Close()
}

// silenceReader turns timed-out empty reads into a bounded wait. An empty
// read with no error means the port read timeout elapsed.
type silenceReader struct {
	r       io.Reader
	silence time.Duration
	now     func() time.Time
}

func (s *silenceReader) Read(b []byte) (int, error) {
	start := s.now()
	for {
		n, err := s.r.Read(b)
		if n > 0 || err != nil {
			return n, err
		}
		if s.silence > 0 && s.now().Sub(start) >= s.silence {
			return 0, fmt.Errorf("%w for %v", ErrSilence, s.silence)
		}
	}
}
