// Package collector runs acquisition sessions: it reads meter lines, decodes
// samples, paces replays and fans each sample out to the sinks, the live
// view and any observers, in arrival order.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"wattsup-logger/internal/meter"
	"wattsup-logger/internal/protocol"
	"wattsup-logger/internal/sink"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// State is the lifecycle stage of a Session.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EndReason records why a session stopped running.
type EndReason string

const (
	EndOfStream    EndReason = "end of stream"
	OperatorCancel EndReason = "operator quit"
	DeviceSilent   EndReason = "device silent"
	ReadFailure    EndReason = "read error"
)

// Options configure a Session. They are copied at construction and not
// read again from the caller.
type Options struct {
	Interval          int     // seconds between samples, > 0
	Simulate          bool    // source is a replay
	Speedup           float64 // replay speed factor
	InternalModeAtEnd bool    // hand the meter to internal logging on exit
	RawCapture        bool    // also write accepted lines to OutFile's .raw
	OutFile           string  // decoded log path, empty to not log
	KeepSeries        bool    // hold the session history for a chart view

	Fs        afero.Fs // defaults to the OS file system
	View      View     // defaults to a view that draws nothing
	Observers []Observer
	Logger    *slog.Logger
}

// Summary describes a finished session.
type Summary struct {
	ID       string
	Reason   EndReason
	Samples  int
	Rejected int
	Elapsed  int     // virtual seconds covered by the samples
	AvgPower float64 // W
	EnergyWh float64
}

// Session is one acquisition run. It owns the source, the sinks and the
// in-memory series; nothing else may touch them while it runs.
type Session struct {
	ID string

	opts   Options
	src    meter.Source
	framer *protocol.Framer
	modes  *protocol.ModeController
	view   View
	pacer  *Pacer
	logger *slog.Logger
	now    func() time.Time

	logSink *sink.LogSink
	rawSink *sink.RawSink

	state    State
	index    int
	accepted int
	rejected int
	sumPower float64
	notice   string
	series   Series
}

// NewSession prepares a session reading from src. The session takes
// ownership of src and closes it when it finishes.
func NewSession(src meter.Source, opts Options) *Session {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.View == nil {
		opts.View = nopView{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = 1
	}

	id := uuid.NewString()
	return &Session{
		ID:     id,
		opts:   opts,
		src:    src,
		framer: protocol.NewFramer(src),
		modes:  protocol.NewModeController(src.Commander()),
		view:   opts.View,
		pacer:  NewPacer(opts.Interval, opts.Speedup),
		logger: opts.Logger.With("session", id),
		now:    time.Now,
	}
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	return s.state
}

// Run executes the session until end of stream, device silence, operator
// quit or ctx cancellation. Only close failures are returned; every other
// condition is contained and reported in the Summary.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	if s.state != StateIdle {
		return Summary{}, ErrSessionClosed
	}

	s.start()
	reason, readErr := s.loop(ctx)

	s.state = StateDraining
	err := s.drain()
	s.state = StateClosed

	// Logged only now: the view may have held the terminal in raw mode.
	s.reportEnd(reason, readErr)

	sum := s.summary(reason)
	s.logger.Info("session finished", "reason", reason, "samples", sum.Samples,
		"rejected", sum.Rejected, "energy_wh", sum.EnergyWh)
	return sum, err
}

func (s *Session) start() {
	s.state = StateRunning
	s.logger.Info("session started", "source", s.src.Name(), "interval", s.opts.Interval,
		"simulate", s.opts.Simulate, "log", s.opts.OutFile, "raw", s.opts.RawCapture)
	if s.opts.Simulate {
		s.logger.Info("pacing replay", "period", s.pacer.Period(), "speedup", s.opts.Speedup)
	}

	if err := s.modes.SetMode(protocol.ModeExternal, s.opts.Interval); err != nil {
		s.logger.Warn("failed to enter external logging mode", "err", err)
	}

	if s.opts.OutFile == "" {
		if s.opts.RawCapture {
			s.sinkUnavailable("raw", errors.New("raw capture needs a log file path"))
		}
		return
	}

	logSink, err := sink.OpenLog(s.opts.Fs, s.opts.OutFile)
	if err != nil {
		s.sinkUnavailable("log", err)
	} else {
		s.logSink = logSink
	}

	if s.opts.RawCapture {
		rawSink, err := sink.OpenRaw(s.opts.Fs, sink.RawPath(s.opts.OutFile))
		if err != nil {
			s.sinkUnavailable("raw", err)
		} else {
			s.rawSink = rawSink
		}
	}
}

// loop runs until the session should end. The returned error is the read
// failure that ended it, if any.
func (s *Session) loop(ctx context.Context) (EndReason, error) {
	for {
		if s.view.QuitRequested() {
			return OperatorCancel, nil
		}
		if ctx.Err() != nil {
			return OperatorCancel, nil
		}

		line, err := s.framer.NextLine()
		if errors.Is(err, protocol.ErrRecordRejected) {
			s.rejected++
			s.logger.Debug("line rejected", "err", err)
			continue
		}
		if err != nil {
			return readEnded(err), err
		}

		if !line.IsDataRecord() {
			s.logger.Debug("skipping line", "line", line.Text())
			continue
		}

		sample, err := protocol.Decode(protocol.SplitRecord(line), s.now(), s.index)
		if err != nil {
			s.rejected++
			s.logger.Debug("record rejected", "err", err)
			continue
		}

		if s.opts.Simulate {
			if err := s.pacer.Wait(ctx); err != nil {
				return OperatorCancel, nil
			}
			sample.Timestamp = s.now()
		}

		s.emit(line, sample)
		s.index += s.opts.Interval
	}
}

func readEnded(err error) EndReason {
	switch {
	case errors.Is(err, io.EOF):
		return EndOfStream
	case errors.Is(err, meter.ErrSilence):
		return DeviceSilent
	default:
		return ReadFailure
	}
}

func (s *Session) reportEnd(reason EndReason, err error) {
	switch reason {
	case DeviceSilent:
		s.logger.Warn("no data from meter, session ended", "err", err)
	case ReadFailure:
		s.logger.Error("read from meter failed, session ended", "err", err)
	}
}

// emit fans one sample out in a fixed order: raw capture, view, log,
// observers.
func (s *Session) emit(line protocol.RawLine, sample protocol.Sample) {
	if s.rawSink != nil {
		if err := s.rawSink.Append(line); err != nil {
			s.closeBroken(s.rawSink)
			s.rawSink = nil
			s.sinkUnavailable("raw", err)
		}
	}

	s.accepted++
	s.sumPower += sample.Power
	if s.opts.KeepSeries {
		s.series.Add(sample)
	}

	if err := s.view.Render(sample, s.status()); err != nil {
		s.logger.Debug("display failure", "err", err)
	}

	if s.logSink != nil {
		if err := s.logSink.Append(sample); err != nil {
			s.closeBroken(s.logSink)
			s.logSink = nil
			s.sinkUnavailable("log", err)
		}
	}

	for _, o := range s.opts.Observers {
		o.Observe(sample)
	}
}

func (s *Session) closeBroken(c io.Closer) {
	if err := c.Close(); err != nil {
		s.logger.Debug("closing failed sink", "err", err)
	}
}

// sinkUnavailable reports a sink the session stopped writing to. The
// caller drops the sink so the warning is not repeated.
func (s *Session) sinkUnavailable(name string, err error) {
	s.notice = fmt.Sprintf("%s file disabled: %v", name, err)
	s.logger.Warn("sink unavailable, continuing without it", "sink", name, "err", err)
}

func (s *Session) drain() error {
	var err error
	if s.logSink != nil {
		err = multierr.Append(err, s.logSink.Close())
		s.logSink = nil
	}
	if s.rawSink != nil {
		err = multierr.Append(err, s.rawSink.Close())
		s.rawSink = nil
	}
	if verr := s.view.Close(); verr != nil {
		s.logger.Debug("display close failed", "err", verr)
	}

	if s.opts.InternalModeAtEnd {
		if merr := s.modes.SetMode(protocol.ModeInternal, s.opts.Interval); merr != nil {
			s.logger.Warn("failed to hand meter to internal logging", "err", merr)
		}
	}

	err = multierr.Append(err, s.src.Close())
	if err != nil {
		return fmt.Errorf("session cleanup: %w", err)
	}
	return nil
}

func (s *Session) status() Status {
	st := Status{
		Source:    s.src.Name(),
		Samples:   s.accepted,
		Rejected:  s.rejected,
		Interval:  s.opts.Interval,
		Simulated: s.opts.Simulate,
		Notice:    s.notice,
	}
	if s.opts.KeepSeries {
		st.Series = &s.series
	}
	if s.logSink != nil {
		st.LogFile = s.logSink.Path()
	}
	if s.rawSink != nil {
		st.RawFile = s.rawSink.Path()
	}
	return st
}

func (s *Session) summary(reason EndReason) Summary {
	sum := Summary{
		ID:       s.ID,
		Reason:   reason,
		Samples:  s.accepted,
		Rejected: s.rejected,
		Elapsed:  s.index,
	}
	if s.accepted > 0 {
		sum.AvgPower = s.sumPower / float64(s.accepted)
	}
	sum.EnergyWh = s.sumPower * float64(s.opts.Interval) / 3600
	return sum
}

// Mode returns the meter mode last commanded by this session.
func (s *Session) Mode() protocol.MeterMode {
	return s.modes.Mode()
}
