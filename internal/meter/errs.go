package meter

import "errors"

var (
	// ErrDeviceNotFound is returned when the configured device path does
	// not exist.
	ErrDeviceNotFound = errors.New("meter: device not found")

	// ErrSilence is returned by a serial read when the meter sent nothing
	// for longer than the configured silence timeout.
	ErrSilence = errors.New("meter: device silent")
)
