package collector

import "wattsup-logger/internal/protocol"

// Status is the session state shown next to each sample.
type Status struct {
	Source    string
	LogFile   string // empty when not logging
	RawFile   string // empty when not capturing raw lines
	Samples   int
	Rejected  int
	Interval  int
	Simulated bool
	Notice    string  // last sink problem, if any
	Series    *Series // read-only; nil unless the session keeps history
}

// View renders samples and reports an operator quit request. Render and
// QuitRequested must not block.
type View interface {
	Render(s protocol.Sample, st Status) error
	QuitRequested() bool
	Close() error
}

// Observer receives every accepted sample after it has been written.
type Observer interface {
	Observe(s protocol.Sample)
}

type nopView struct{}

func (nopView) Render(protocol.Sample, Status) error { return nil }
func (nopView) QuitRequested() bool                  { return false }
func (nopView) Close() error                         { return nil }
