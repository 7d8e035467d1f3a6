package collector

import (
	"context"
	"sync"
	"time"

	"wattsup-logger/internal/protocol"

	"github.com/sourcegraph/conc"
)

// pollInterval is how often the consumer checks for a quit request while
// no samples arrive.
const pollInterval = 100 * time.Millisecond

type event struct {
	sample protocol.Sample
	status Status
}

// Pipeline runs a session on a background worker and drives the view from
// the calling goroutine. Samples cross over by value through a bounded
// channel; closing the channel tells the consumer the session is done.
type Pipeline struct {
	view   View
	events chan event
	once   sync.Once
	ctx    context.Context
}

// NewPipeline returns a pipeline feeding view through a channel holding up
// to buffer samples.
func NewPipeline(view View, buffer int) *Pipeline {
	if buffer < 1 {
		buffer = 1
	}
	return &Pipeline{
		view:   view,
		events: make(chan event, buffer),
		ctx:    context.Background(),
	}
}

// Producer is the View handed to the Session. It never touches the real
// view.
func (p *Pipeline) Producer() View {
	return producer{p}
}

// Run starts sess on a worker and renders its samples until the session
// closes. An operator quit seen by the view cancels the session.
func (p *Pipeline) Run(ctx context.Context, sess *Session) (Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.ctx = ctx

	var (
		sum Summary
		err error
		wg  conc.WaitGroup
	)
	wg.Go(func() {
		sum, err = sess.Run(ctx)
	})

	p.consume(cancel)
	wg.Wait()

	if cerr := p.view.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return sum, err
}

func (p *Pipeline) consume(cancel context.CancelFunc) {
	var series Series
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-p.events:
			if !ok {
				return
			}
			series.Add(ev.sample)
			ev.status.Series = &series
			// Rendering failures never reach the session.
			_ = p.view.Render(ev.sample, ev.status)
		case <-ticker.C:
		}
		if p.view.QuitRequested() {
			cancel()
		}
	}
}

type producer struct {
	p *Pipeline
}

// Render queues a snapshot for the consumer, blocking while the channel is
// full unless the session is being cancelled.
func (v producer) Render(s protocol.Sample, st Status) error {
	st.Series = nil
	select {
	case v.p.events <- event{sample: s, status: st}:
		return nil
	case <-v.p.ctx.Done():
		return v.p.ctx.Err()
	}
}

// QuitRequested is always false; quits arrive as context cancellation.
func (producer) QuitRequested() bool { return false }

func (v producer) Close() error {
	v.p.once.Do(func() { close(v.p.events) })
	return nil
}
