package core

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type commandKind int

const (
	cmdTouchDown commandKind = iota
	cmdTouchUp
	cmdTouchCancelled
	cmdCancel
	cmdReset
	cmdWake
	// cmdSyncExec runs fn on the loop goroutine and signals done, giving
	// Sleep() and State() a way to execute synchronously from the caller's
	// perspective while still serializing through the single loop (spec §5).
	cmdSyncExec
)

type command struct {
	kind commandKind
	fn   func()
	done chan struct{}
}

// commandQueue is the cooperative single-threaded loop of spec §5: one
// goroutine selects over command delivery and clock tick delivery, so every
// mutation of TimerState happens on a single owner. Grounded on the
// teacher's spawnLocked/stopLocked pairing of a timer channel with engine
// calls (engine.go), generalized from one bare time.Timer to an arbitrary
// number of named ticks, and on DESIGN NOTES §9's explicit guidance to model
// this as "a single goroutine consuming a select over a time channel and a
// command channel". Ingestion is guarded by golang.org/x/time/rate so a
// misbehaving UI layer sending touch events far faster than input hardware
// ever could cannot flood the loop (SPEC_FULL.md §4.7).
type commandQueue struct {
	mu      sync.Mutex
	started bool
	limiter *rate.Limiter

	cmds chan command
	stop chan struct{}
	wg   sync.WaitGroup

	process func(command)
	waitFn  func() (time.Duration, bool)
	pump    func()
}

func newCommandQueue(bufSize int, process func(command), pump func(), waitFn func() (time.Duration, bool)) *commandQueue {
	return &commandQueue{
		cmds:    make(chan command, bufSize),
		stop:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Inf, 1),
		process: process,
		pump:    pump,
		waitFn:  waitFn,
	}
}

// SetRateLimit configures the ingestion guard. The default is unlimited.
func (q *commandQueue) SetRateLimit(r rate.Limit, burst int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.limiter = rate.NewLimiter(r, burst)
}

func (q *commandQueue) isStarted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.started
}

// Start launches the loop goroutine. Tests that drive the engine
// synchronously (no real goroutine, no real clock) never call Start, and
// every enqueue/RunSync call degrades to a direct synchronous call instead.
func (q *commandQueue) Start() {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()
	q.wg.Add(1)
	go q.run()
}

func (q *commandQueue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.mu.Unlock()
	close(q.stop)
	q.wg.Wait()
}

// Enqueue submits an asynchronous command (touch/cancel/reset/wake). Commands
// rejected by the rate limiter are silently dropped, matching a debounced
// physical button that cannot be double-pressed faster than it can move.
func (q *commandQueue) Enqueue(cmd command) {
	q.mu.Lock()
	limiter := q.limiter
	started := q.started
	q.mu.Unlock()
	if !limiter.Allow() {
		return
	}
	if !started {
		q.process(cmd)
		return
	}
	select {
	case q.cmds <- cmd:
	case <-q.stop:
	}
}

// RunSync executes fn on the loop goroutine and blocks until it finishes,
// used by Engine.Sleep (spec §4.6: sleep is synchronous) and by any State
// snapshot read that must not race a concurrently-processing command.
func (q *commandQueue) RunSync(fn func()) {
	if !q.isStarted() {
		fn()
		return
	}
	done := make(chan struct{})
	select {
	case q.cmds <- command{kind: cmdSyncExec, fn: fn, done: done}:
		<-done
	case <-q.stop:
		fn()
	}
}

func (q *commandQueue) run() {
	defer q.wg.Done()
	for {
		var timerC <-chan time.Time
		if d, ok := q.waitFn(); ok {
			timerC = time.After(d)
		}
		select {
		case <-q.stop:
			return
		case cmd := <-q.cmds:
			if cmd.kind == cmdSyncExec {
				cmd.fn()
				close(cmd.done)
				continue
			}
			q.process(cmd)
		case <-timerC:
			q.pump()
		}
	}
}
