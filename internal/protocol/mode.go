package protocol

import (
	"fmt"
	"io"
)

// MeterMode is the logging mode of the meter.
type MeterMode int

const (
	ModeUninitialized MeterMode = iota
	ModeExternal                // stream records over the serial line
	ModeInternal                // log into meter memory
	ModeTCPIP                   // reserved, never driven
)

// fullHandling is the "full handling" option written with internal mode.
const fullHandling = 2

func (m MeterMode) String() string {
	switch m {
	case ModeUninitialized:
		return "uninitialized"
	case ModeExternal:
		return "external"
	case ModeInternal:
		return "internal"
	case ModeTCPIP:
		return "tcpip"
	default:
		return fmt.Sprintf("MeterMode(%d)", int(m))
	}
}

func (m MeterMode) letter() (string, bool) {
	switch m {
	case ModeExternal:
		return "E", true
	case ModeInternal:
		return "I", true
	default:
		return "", false
	}
}

// Encode returns the command string that puts the meter into mode m with
// the given sample interval in seconds.
func (m MeterMode) Encode(interval int) (string, error) {
	letter, ok := m.letter()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMode, m)
	}
	cmd := fmt.Sprintf("#L,W,3,%s,,%d;", letter, interval)
	if m == ModeInternal {
		cmd += fmt.Sprintf("#O,W,1,%d", fullHandling)
	}
	return cmd, nil
}

// ModeController sends mode commands to the meter and tracks the active
// mode. Commands are fire-and-forget; no acknowledgement is read.
type ModeController struct {
	dev  io.Writer
	mode MeterMode
}

// NewModeController returns a controller writing to dev. A nil dev is a
// simulated meter: SetMode succeeds without doing anything.
func NewModeController(dev io.Writer) *ModeController {
	return &ModeController{dev: dev}
}

// SetMode writes the mode command for m.
func (c *ModeController) SetMode(m MeterMode, interval int) error {
	if c.dev == nil {
		return nil
	}
	cmd, err := m.Encode(interval)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(c.dev, cmd); err != nil {
		return fmt.Errorf("failed to send %s mode command: %w", m, err)
	}
	c.mode = m
	return nil
}

// Mode returns the last mode successfully commanded.
func (c *ModeController) Mode() MeterMode {
	return c.mode
}
