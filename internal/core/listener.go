package core

import (
	"go.uber.org/zap"
)

// TimerEventListener receives cue, state-change and penalty notifications.
// Multiple listeners may be registered; they are invoked in the order
// they were added (spec §6).
type TimerEventListener interface {
	OnTimerCue(cue Cue, state TimerState)
	OnTimerSet(state TimerState)
	OnTimerPenalty(state TimerState)
}

// TimerRefreshListener receives the high-rate running-time tick. Only one
// may be registered. The return value selects the next refresh period:
// 0 leaves it unchanged, -1 restores the default, a positive value sets a
// new period (clamped to [MinRefreshPeriodMs, MaxRefreshPeriodMs]).
type TimerRefreshListener interface {
	OnTimerRefreshSolveTime(elapsedMs, periodMs int64) int64
	OnTimerRefreshInspectionTime(remainingMs, periodMs int64) int64
}

// SolveAttemptHandler is the engine's sole connection to the world outside
// the state machine: it mints the opaque Solve handle for a new attempt
// and receives the finished one (spec §6).
type SolveAttemptHandler interface {
	OnSolveAttemptStart() Solve
	OnSolveAttemptStop(solve Solve)
}

// dispatcher fans cues/state/refresh/solve callbacks out to registered
// collaborators, isolating each TimerEventListener so a panicking listener
// cannot corrupt engine state (spec §7: "implementations should isolate
// listeners so one failing listener does not corrupt engine state").
// Grounded on the teacher's single onAdvance callback, generalized to a
// slice and given panic isolation.
type dispatcher struct {
	log       *zap.SugaredLogger
	listeners []TimerEventListener
	refresh   TimerRefreshListener
	handler   SolveAttemptHandler
}

func newDispatcher(log *zap.SugaredLogger, handler SolveAttemptHandler) *dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &dispatcher{log: log, handler: handler}
}

func (d *dispatcher) AddListener(l TimerEventListener) { d.listeners = append(d.listeners, l) }

func (d *dispatcher) SetRefreshListener(l TimerRefreshListener) { d.refresh = l }

func (d *dispatcher) safeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("timer listener panicked", "callback", name, "recovered", r)
		}
	}()
	fn()
}

func (d *dispatcher) cue(c Cue, state TimerState) {
	for _, l := range d.listeners {
		l := l
		d.safeCall("OnTimerCue", func() { l.OnTimerCue(c, state) })
	}
}

func (d *dispatcher) set(state TimerState) {
	for _, l := range d.listeners {
		l := l
		d.safeCall("OnTimerSet", func() { l.OnTimerSet(state) })
	}
}

func (d *dispatcher) penalty(state TimerState) {
	for _, l := range d.listeners {
		l := l
		d.safeCall("OnTimerPenalty", func() { l.OnTimerPenalty(state) })
	}
}

func (d *dispatcher) refreshSolve(elapsedMs, periodMs int64) int64 {
	if d.refresh == nil {
		return 0
	}
	var next int64
	d.safeCall("OnTimerRefreshSolveTime", func() { next = d.refresh.OnTimerRefreshSolveTime(elapsedMs, periodMs) })
	return next
}

func (d *dispatcher) refreshInspection(remainingMs, periodMs int64) int64 {
	if d.refresh == nil {
		return 0
	}
	var next int64
	d.safeCall("OnTimerRefreshInspectionTime", func() { next = d.refresh.OnTimerRefreshInspectionTime(remainingMs, periodMs) })
	return next
}

func (d *dispatcher) solveStart() Solve {
	var s Solve
	d.safeCall("OnSolveAttemptStart", func() { s = d.handler.OnSolveAttemptStart() })
	return s
}

func (d *dispatcher) solveStop(s Solve) {
	d.safeCall("OnSolveAttemptStop", func() { d.handler.OnSolveAttemptStop(s) })
}
