// Package flow provides the ordered asynchronous step runner that sequences
// console actions and their follow-up work (selection re-sync, list reloads).
// A fresh Sequencer is built per user action; it holds no state beyond its
// own queue.
package flow

import "sync"

// Args is the optional argument bag handed to a step.
type Args map[string]any

// Step is one unit of deferred work. It receives a handle to the run it is
// part of and MUST eventually call Run.Done, possibly from another goroutine
// after asynchronous work completes. Before signaling done it may call
// Run.Append any number of times; appended steps execute after everything
// already queued, not immediately.
type Step func(r *Run, args Args)

type queued struct {
	step Step
	args Args
}

// Sequencer runs queued steps strictly in FIFO order, including steps
// appended while a run is in progress.
type Sequencer struct {
	mu    sync.Mutex
	queue []queued
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Add appends a step with no arguments. It returns the sequencer so call
// sites can chain Add().Add().Execute().
func (s *Sequencer) Add(step Step) *Sequencer {
	return s.AddArgs(step, nil)
}

// AddArgs appends a step together with its argument bag.
func (s *Sequencer) AddArgs(step Step, args Args) *Sequencer {
	if step == nil {
		return s
	}
	s.mu.Lock()
	s.queue = append(s.queue, queued{step: step, args: args})
	s.mu.Unlock()
	return s
}

func (s *Sequencer) next() (queued, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return queued{}, false
	}
	q := s.queue[0]
	s.queue = s.queue[1:]
	return q, true
}

// Execute drains the queue, running each step exactly once and waiting for
// its done signal before starting the next. Executing an empty sequencer
// returns immediately. There is no error channel: a step that fails decides
// for itself whether to keep the run going, and the convention throughout
// the console is to always signal done so trailing refresh steps still run.
func (s *Sequencer) Execute() {
	for {
		q, ok := s.next()
		if !ok {
			return
		}
		r := &Run{seq: s, done: make(chan struct{})}
		q.step(r, q.args)
		<-r.done
	}
}

// Run is the handle a step receives: the authority to extend the current
// run and to signal its own completion.
type Run struct {
	seq  *Sequencer
	once sync.Once
	done chan struct{}
}

// Append queues more work on the same run. The new steps execute after all
// steps already queued, before the run is considered finished.
func (r *Run) Append(step Step) *Run {
	r.seq.AddArgs(step, nil)
	return r
}

// AppendArgs queues a step with an argument bag on the same run.
func (r *Run) AppendArgs(step Step, args Args) *Run {
	r.seq.AddArgs(step, args)
	return r
}

// Done signals that the current step finished. Safe to call more than once;
// only the first call counts.
func (r *Run) Done() {
	r.once.Do(func() { close(r.done) })
}
