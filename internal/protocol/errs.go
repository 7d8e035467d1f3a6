package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordRejected marks a data record that is too short or carries
	// non-numeric measurement fields. The record produces no Sample.
	ErrRecordRejected = errors.New("protocol: record rejected")

	// ErrLineTooLong is returned by the framer for a line over
	// MaxLineLength. It is a rejected record.
	ErrLineTooLong = fmt.Errorf("%w: line exceeds %d bytes", ErrRecordRejected, MaxLineLength)

	// ErrUnsupportedMode is returned when encoding a mode the meter
	// enumerates but this tool never drives (TCP/IP).
	ErrUnsupportedMode = errors.New("protocol: unsupported meter mode")
)
