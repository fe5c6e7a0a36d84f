package command

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDispatchesImmediatelyWhenIdle(t *testing.T) {
	q := NewQueue()
	var dispatched []Kind
	q.SetHandlers(func(cmd Command) Result {
		dispatched = append(dispatched, cmd.Kind)
		return Result{Status: StatusProcessing, Command: cmd.Kind}
	}, nil)

	res := q.Enqueue(Command{Kind: KindNext})
	assert.Equal(t, StatusProcessing, res.Status)
	assert.Equal(t, []Kind{KindNext}, dispatched)
	assert.True(t, q.Status().Busy)
	assert.Equal(t, KindNext, q.Status().CurrentCommand)
}

func TestQueueHoldsWhileBusy(t *testing.T) {
	q := NewQueue()
	var dispatched []Kind
	q.SetHandlers(func(cmd Command) Result {
		dispatched = append(dispatched, cmd.Kind)
		return Result{Status: StatusProcessing, Command: cmd.Kind}
	}, nil)

	q.Enqueue(Command{Kind: KindNext})
	res := q.Enqueue(Command{Kind: KindPrev})
	assert.Equal(t, StatusQueued, res.Status)
	assert.Equal(t, 1, res.QueuePosition)
	assert.Equal(t, []Kind{KindNext}, dispatched)

	res = q.Enqueue(Command{Kind: KindGoto, Slide: 4})
	assert.Equal(t, 2, res.QueuePosition)

	// Completion drains in FIFO order, one at a time.
	q.ActionComplete()
	assert.Equal(t, []Kind{KindNext, KindPrev}, dispatched)
	q.ActionComplete()
	assert.Equal(t, []Kind{KindNext, KindPrev, KindGoto}, dispatched)

	res = q.ActionComplete()
	assert.Equal(t, StatusIdle, res.Status)
	assert.False(t, q.Status().Busy)
}

func TestQueueInterruptBypassesBacklog(t *testing.T) {
	q := NewQueue()
	var dispatched, interrupted []Kind
	q.SetHandlers(func(cmd Command) Result {
		dispatched = append(dispatched, cmd.Kind)
		return Result{Status: StatusProcessing}
	}, func(cmd Command) Result {
		interrupted = append(interrupted, cmd.Kind)
		return Result{Status: StatusInterrupt, Command: cmd.Kind}
	})

	q.Enqueue(Command{Kind: KindNext})
	q.Enqueue(Command{Kind: KindPrev})
	res := q.Enqueue(Command{Kind: KindPause, Priority: PriorityInterrupt})

	assert.Equal(t, StatusInterrupt, res.Status)
	assert.Equal(t, []Kind{KindPause}, interrupted)
	// The backlog was not consumed by the interrupt.
	assert.Equal(t, []Kind{KindNext}, dispatched)
	assert.Equal(t, 1, q.Status().QueueSize)
}

func TestQueueClear(t *testing.T) {
	q := NewQueue()
	q.SetHandlers(func(cmd Command) Result { return Result{Status: StatusProcessing} }, nil)

	q.Enqueue(Command{Kind: KindNext})
	q.Enqueue(Command{Kind: KindPrev})
	q.Enqueue(Command{Kind: KindQA})
	require.True(t, q.Status().Busy)

	q.Clear()
	st := q.Status()
	assert.False(t, st.Busy)
	assert.Equal(t, 0, st.QueueSize)
	assert.Empty(t, st.QueuedKinds)

	res := q.ProcessNext()
	assert.Equal(t, StatusIdle, res.Status)
}

func TestQueueHaltKeepsBacklog(t *testing.T) {
	q := NewQueue()
	var dispatched []Kind
	q.SetHandlers(func(cmd Command) Result {
		dispatched = append(dispatched, cmd.Kind)
		return Result{Status: StatusProcessing}
	}, nil)

	q.Enqueue(Command{Kind: KindNext})
	q.Enqueue(Command{Kind: KindPrev})

	q.Halt()
	st := q.Status()
	assert.False(t, st.Busy)
	assert.Equal(t, 1, st.QueueSize)

	// The next enqueue picks the backlog back up in order.
	q.Enqueue(Command{Kind: KindQA})
	assert.Equal(t, []Kind{KindNext, KindPrev}, dispatched)
}

func TestQueueSynchronousCompletionChains(t *testing.T) {
	// A handler whose action finishes synchronously calls ActionComplete from
	// inside the dispatch. The chain must drain the backlog without deadlock.
	q := NewQueue()
	var dispatched []Kind
	q.SetHandlers(func(cmd Command) Result {
		dispatched = append(dispatched, cmd.Kind)
		if len(dispatched) < 3 {
			return q.ActionComplete()
		}
		return Result{Status: StatusProcessing}
	}, nil)

	q.Enqueue(Command{Kind: KindNext})
	q.Enqueue(Command{Kind: KindPrev})
	q.Enqueue(Command{Kind: KindQA})

	assert.Equal(t, []Kind{KindNext, KindPrev, KindQA}, dispatched)
}

func TestQueueConcurrentEnqueueSingleDispatch(t *testing.T) {
	// Racing enqueues against an idle queue must hand exactly one command to
	// the handler; the rest stay in the backlog.
	q := NewQueue()
	release := make(chan struct{})

	var mu sync.Mutex
	active, maxActive := 0, 0
	q.SetHandlers(func(cmd Command) Result {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		<-release

		mu.Lock()
		active--
		mu.Unlock()
		return Result{Status: StatusProcessing, Command: cmd.Kind}
	}, nil)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(Command{Kind: KindNext})
		}()
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return active == 1
	}, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 1, maxActive)
	mu.Unlock()
	assert.Equal(t, workers-1, q.Status().QueueSize)
}

func TestQueueStatusListsKinds(t *testing.T) {
	q := NewQueue()
	q.SetHandlers(func(cmd Command) Result { return Result{Status: StatusProcessing} }, nil)

	q.Enqueue(Command{Kind: KindNext})
	q.Enqueue(Command{Kind: KindGoto, Slide: 9})
	q.Enqueue(Command{Kind: KindOutro})

	st := q.Status()
	assert.True(t, st.Busy)
	assert.Equal(t, KindNext, st.CurrentCommand)
	assert.Equal(t, []Kind{KindGoto, KindOutro}, st.QueuedKinds)
}
