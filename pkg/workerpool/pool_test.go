package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRunsTasks(t *testing.T) {
	pool := New(4)
	defer pool.Shutdown()

	var counter int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			atomic.AddInt64(&counter, 1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int64(20), atomic.LoadInt64(&counter))
}

func TestSubmitWait(t *testing.T) {
	pool := New(2)
	defer pool.Shutdown()

	done := false
	require.NoError(t, pool.SubmitWait(func() { done = true }))
	assert.True(t, done)
}

func TestSubmitAfterShutdown(t *testing.T) {
	pool := New(1)
	pool.Shutdown()

	err := pool.Submit(func() {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolFull(t *testing.T) {
	pool := New(1)
	defer pool.Shutdown()

	block := make(chan struct{})
	defer close(block)

	// One running task plus a full buffer forces ErrPoolFull eventually.
	sawFull := false
	for i := 0; i < 10; i++ {
		if err := pool.Submit(func() { <-block }); err == ErrPoolFull {
			sawFull = true
			break
		}
	}
	assert.True(t, sawFull)
}

func TestPanicDoesNotKillWorker(t *testing.T) {
	pool := New(1)
	defer pool.Shutdown()

	require.NoError(t, pool.Submit(func() { panic("boom") }))

	ran := make(chan struct{})
	require.Eventually(t, func() bool {
		err := pool.Submit(func() { close(ran) })
		return err == nil
	}, time.Second, 10*time.Millisecond)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("worker did not recover after panic")
	}
}
