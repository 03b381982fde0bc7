package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	handledMu sync.Mutex
	handled   []string
)

func recordHandled(msg string) {
	handledMu.Lock()
	defer handledMu.Unlock()
	handled = append(handled, msg)
}

func handledCount() int {
	handledMu.Lock()
	defer handledMu.Unlock()
	return len(handled)
}

type echoJob struct {
	Msg string `json:"msg"`
}

func (j echoJob) Handle() error {
	recordHandled(j.Msg)
	return nil
}

type failingJob struct{}

func (failingJob) Handle() error { return errors.New("always fails") }

func resetQueue(t *testing.T) {
	t.Helper()
	handledMu.Lock()
	handled = nil
	handledMu.Unlock()

	SetDriver(NewMemoryDriver())
	SetMaxRetry(1)
	t.Cleanup(func() { SetMaxRetry(3) })
}

func TestDispatchAndProcess(t *testing.T) {
	resetQueue(t)
	Register("queue.echoJob", func() Job { return &echoJob{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartWorkers(ctx, 2)

	require.NoError(t, Dispatch(echoJob{Msg: "uno"}))
	require.NoError(t, Dispatch(echoJob{Msg: "dos"}))

	require.Eventually(t, func() bool {
		return handledCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExhaustedRetriesLandInFailedJobs(t *testing.T) {
	resetQueue(t)
	Register("queue.failingJob", func() Job { return &failingJob{} })

	before := len(FailedJobs())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartWorkers(ctx, 1)

	require.NoError(t, Dispatch(failingJob{}))

	require.Eventually(t, func() bool {
		return len(FailedJobs()) == before+1
	}, 5*time.Second, 50*time.Millisecond)

	failedJob := FailedJobs()[before]
	assert.EqualError(t, failedJob.Err, "always fails")
	assert.Equal(t, 1, failedJob.Attempts)
}

func TestUnregisteredJobIsDropped(t *testing.T) {
	resetQueue(t)

	// Pushing a raw envelope for an unknown type must not panic a worker.
	require.NoError(t, defaultManager.driver.Push([]byte(`{"type":"queue.unknown","payload":{}}`)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartWorkers(ctx, 1)

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, handledCount())
}
