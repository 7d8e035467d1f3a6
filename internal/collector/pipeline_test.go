package collector

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineDeliversInOrder(t *testing.T) {
	view := &recordingView{}
	p := NewPipeline(view, 1)
	sess := NewSession(newMemSource(tenLines, false), Options{
		Interval: 3,
		Fs:       afero.NewMemMapFs(),
		View:     p.Producer(),
	})

	sum, err := p.Run(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, EndOfStream, sum.Reason)
	require.Len(t, view.samples, 3)
	for i, s := range view.samples {
		assert.Equal(t, i*3, s.Index)
		require.NotNil(t, view.statuses[i].Series)
	}
	assert.Equal(t, 3, view.statuses[2].Series.Len())
	assert.True(t, view.closed)
	assert.Equal(t, StateClosed, sess.State())
}

func TestPipelineQuitCancelsSession(t *testing.T) {
	fs := afero.NewMemMapFs()
	view := &recordingView{quitAt: 1}
	p := NewPipeline(view, 4)
	sess := NewSession(newMemSource(tenLines, false), Options{
		Interval: 1,
		Simulate: true,
		Speedup:  5,
		OutFile:  "log.out",
		Fs:       fs,
		View:     p.Producer(),
	})

	sum, err := p.Run(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, OperatorCancel, sum.Reason)
	assert.Less(t, sum.Samples, 3)
	assert.Len(t, readLog(t, fs, "log.out"), sum.Samples)
}

func TestPipelineProducerCloseIsIdempotent(t *testing.T) {
	p := NewPipeline(&recordingView{}, 1)
	v := p.Producer()
	require.NoError(t, v.Close())
	require.NoError(t, v.Close())
	assert.False(t, v.QuitRequested())
}
