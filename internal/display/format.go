// Package display renders live samples for the operator and watches the
// keyboard for a quit request without blocking acquisition.
package display

import "fmt"

// FormatCurrent shows currents below one amp in milliamps.
func FormatCurrent(amps float64) string {
	if amps < 1 {
		return fmt.Sprintf("%.1f mA", amps*1000)
	}
	return fmt.Sprintf("%.3f A", amps)
}

// FormatElapsed renders virtual seconds as h:mm:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}
