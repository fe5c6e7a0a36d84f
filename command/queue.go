package command

import "sync"

// Result statuses reported back to the operator after an enqueue.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusInterrupt  = "interrupt"
	StatusIdle       = "idle"
)

// Result describes what the queue did with a command.
type Result struct {
	Status        string `json:"status"`
	Command       Kind   `json:"command,omitempty"`
	QueuePosition int    `json:"queue_position,omitempty"`
	QueueSize     int    `json:"queue_size"`
	Message       string `json:"message,omitempty"`
}

// Status is a point-in-time view of the queue for status reporting.
type Status struct {
	Busy           bool   `json:"busy"`
	CurrentCommand Kind   `json:"current_command,omitempty"`
	QueueSize      int    `json:"queue_size"`
	QueuedKinds    []Kind `json:"queued_commands"`
}

// Handler consumes a command popped from the queue (or an interrupt that
// bypassed it) and returns the dispatch result.
type Handler func(Command) Result

// Queue serializes operator commands. Normal commands are appended FIFO and
// dispatched one at a time; the queue stays busy from the moment a command is
// handed to the handler until ActionComplete is called. Interrupt commands
// never touch the backlog and go straight to the interrupt handler.
type Queue struct {
	mu          sync.Mutex
	entries     []Command
	current     *Command
	busy        bool
	onCommand   Handler
	onInterrupt Handler
}

// NewQueue creates an empty queue. Handlers must be set before the first
// Enqueue.
func NewQueue() *Queue {
	return &Queue{}
}

// SetHandlers installs the dispatch and interrupt callbacks.
func (q *Queue) SetHandlers(onCommand, onInterrupt Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onCommand = onCommand
	q.onInterrupt = onInterrupt
}

// Enqueue appends a command and dispatches immediately when the queue is not
// busy. The busy check and the dispatch claim happen in one critical section,
// so concurrent enqueues can never put two commands in flight. Interrupts
// bypass the backlog entirely.
func (q *Queue) Enqueue(cmd Command) Result {
	if cmd.IsInterrupt() {
		q.mu.Lock()
		h := q.onInterrupt
		q.mu.Unlock()
		if h != nil {
			return h(cmd)
		}
		return Result{Status: StatusInterrupt, Command: cmd.Kind}
	}

	q.mu.Lock()
	q.entries = append(q.entries, cmd)
	if q.busy {
		res := Result{
			Status:        StatusQueued,
			Command:       cmd.Kind,
			QueuePosition: len(q.entries),
			QueueSize:     len(q.entries),
		}
		q.mu.Unlock()
		return res
	}
	return q.dispatchNextLocked()
}

// ProcessNext pops the head of the queue and hands it to the command handler.
// The busy flag is set before the handler runs so the handler can observe a
// consistent "one command in flight" state, including when it re-enters the
// queue via ActionComplete for actions that finish synchronously.
func (q *Queue) ProcessNext() Result {
	q.mu.Lock()
	return q.dispatchNextLocked()
}

// dispatchNextLocked claims the head of the queue for dispatch. The caller
// must hold the lock; it is released before the handler runs.
func (q *Queue) dispatchNextLocked() Result {
	if len(q.entries) == 0 {
		q.busy = false
		q.current = nil
		q.mu.Unlock()
		return Result{Status: StatusIdle, Message: "queue empty"}
	}
	cmd := q.entries[0]
	q.entries = q.entries[1:]
	q.busy = true
	q.current = &cmd
	h := q.onCommand
	size := len(q.entries)
	q.mu.Unlock()

	if h == nil {
		return Result{Status: StatusProcessing, Command: cmd.Kind, QueueSize: size}
	}
	return h(cmd)
}

// ActionComplete marks the in-flight command finished and dispatches the next
// queued command, if any.
func (q *Queue) ActionComplete() Result {
	q.mu.Lock()
	q.busy = false
	q.current = nil
	q.mu.Unlock()
	return q.ProcessNext()
}

// Halt abandons the in-flight command without dispatching the next one. Used
// by pause; the backlog survives and resumes draining with the next enqueue.
func (q *Queue) Halt() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.busy = false
	q.current = nil
}

// Clear drops the backlog and the in-flight marker. Used by skip and stop.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
	q.current = nil
	q.busy = false
}

// Status returns a snapshot of the queue for introspection.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	st := Status{
		Busy:        q.busy,
		QueueSize:   len(q.entries),
		QueuedKinds: make([]Kind, 0, len(q.entries)),
	}
	if q.current != nil {
		st.CurrentCommand = q.current.Kind
	}
	for _, e := range q.entries {
		st.QueuedKinds = append(st.QueuedKinds, e.Kind)
	}
	return st
}
