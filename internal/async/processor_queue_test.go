package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/testutil"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

type countingProcessor struct {
	calls   atomic.Int32
	block   chan struct{}
	mu      sync.Mutex
	runIDs  []string
	failFor string
}

func (p *countingProcessor) ProcessFile(ctx context.Context, path string) (workflow.StorageState, error) {
	if p.block != nil {
		<-p.block
	}
	p.calls.Add(1)
	p.mu.Lock()
	p.runIDs = append(p.runIDs, common.RunIDFromContext(ctx))
	p.mu.Unlock()
	if path == p.failFor {
		return workflow.StorageState{}, errors.New("boom")
	}
	return workflow.StorageState{}.WithDocumentID(1, constants.OutcomeStored), nil
}

func TestProcessorQueue_DrainsOnShutdown(t *testing.T) {
	proc := &countingProcessor{failFor: "bad.pdf"}
	var failed atomic.Int32
	q := NewProcessorQueue(proc, testutil.Logger(),
		WithWorkers(3),
		WithQueueSize(16),
		WithProcessTimeout(time.Second),
		WithOnDone(func(_ Job, err error) {
			if err != nil {
				failed.Add(1)
			}
		}),
	)

	for _, p := range []string{"a.pdf", "b.pdf", "bad.pdf", "c.pdf"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p, TraceID: "t-" + p}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Equal(t, int32(4), proc.calls.Load())
	assert.Equal(t, int32(1), failed.Load())
	assert.Contains(t, proc.runIDs, "t-a.pdf")

	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "late.pdf"}), ErrQueueClosed)
	q.Shutdown(ctx)
}

func TestProcessorQueue_EnqueueRespectsContextWhenFull(t *testing.T) {
	proc := &countingProcessor{block: make(chan struct{})}
	q := NewProcessorQueue(proc, testutil.Logger(), WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "1.pdf"}))

	// The single worker takes 1.pdf and blocks; the next job fills the buffer.
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		return q.Enqueue(ctx, Job{Path: "2.pdf"}) == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, q.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{Path: "3.pdf"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(proc.block)
	q.Shutdown(context.Background())
	assert.Equal(t, int32(2), proc.calls.Load())
}

func TestNewJob(t *testing.T) {
	j := NewJob("inbox/a.pdf")
	assert.Equal(t, "inbox/a.pdf", j.Path)
	assert.False(t, j.SubmittedAt.IsZero())
	assert.NotEmpty(t, j.TraceID)
	assert.NotEqual(t, j.TraceID, NewJob("inbox/a.pdf").TraceID)

	kept := Job{Path: "b.pdf", TraceID: "fixed"}.withDefaults("ignored")
	assert.Equal(t, "b.pdf", kept.Path)
	assert.Equal(t, "fixed", kept.TraceID)
}
