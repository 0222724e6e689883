// Package core implements the solve-attempt state machine: inspection
// countdown, hold-to-start gating, debounce, the running solve, and the
// cancel/stop/suspend protocol around them, driven by a single cooperative
// loop (spec §§2-9).
package core

import (
	"time"

	"go.uber.org/zap"
)

// waitDurationer is implemented by clocks that can report how long the
// loop should block before its next tick is due. RealClock implements it;
// FakeClock does not, since tests drive it by explicit Advance/Pump calls
// rather than by letting a goroutine sleep.
type waitDurationer interface {
	WaitDuration() (time.Duration, bool)
}

// Engine owns one JointState and drives it through the stage transition
// table in response to touch events and clock ticks (spec §4). Grounded on
// the teacher's PomodoroEngine: a mutex-free single owner of state reached
// only through its own goroutine, generalized from PomodoroEngine's bare
// phase cycle (spawnLocked/stopLocked/advance) to the full transition table,
// with mutation funneled through a commandQueue instead of a raw mutex.
type Engine struct {
	clock      Clock
	joint      *JointState
	dispatcher *dispatcher
	queue      *commandQueue
	log        *zap.SugaredLogger

	awake bool
}

// NewEngine constructs an Engine around clock, seeded with prototype and
// wired to handler for minting/finishing Solve records. log may be nil.
func NewEngine(clock Clock, prototype Prototype, handler SolveAttemptHandler, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e := &Engine{
		clock:      clock,
		joint:      NewJointState(prototype),
		dispatcher: newDispatcher(log, handler),
		log:        log,
	}
	waitFn := func() (time.Duration, bool) {
		if wd, ok := e.clock.(waitDurationer); ok {
			return wd.WaitDuration()
		}
		return 50 * time.Millisecond, true
	}
	e.queue = newCommandQueue(32, e.handle, e.DeliverDueTicks, waitFn)
	return e
}

// Start launches the loop goroutine. Only meaningful with a real clock;
// tests driving a FakeClock never call it and every method below degrades
// to a direct synchronous call.
func (e *Engine) Start() { e.queue.Start() }
func (e *Engine) Stop()  { e.queue.Stop() }

// AddListener, SetRefreshListener mirror dispatcher's registration API.
func (e *Engine) AddListener(l TimerEventListener)         { e.dispatcher.AddListener(l) }
func (e *Engine) SetRefreshListener(l TimerRefreshListener) { e.dispatcher.SetRefreshListener(l) }

// Configure updates the seed prototype for future attempts (spec §6).
func (e *Engine) Configure(p Prototype) {
	e.queue.RunSync(func() { e.joint.Configure(p) })
}

// State returns a snapshot of the current attempt, safely serialized
// against any command or tick being processed concurrently.
func (e *Engine) State() TimerState {
	var s TimerState
	e.queue.RunSync(func() { s = e.joint.Current() })
	return s
}

// Now exposes the underlying clock's monotonic reading, for callers (e.g.
// a polling UI) that need to compute elapsed/remaining time against a
// State() snapshot without waiting for the next refresh tick.
func (e *Engine) Now() int64 { return e.clock.Now() }

func (e *Engine) IsAwake() bool {
	var awake bool
	e.queue.RunSync(func() { awake = e.awake })
	return awake
}

// Touch and command events (spec §4.4), all asynchronous: they pass through
// the command queue's rate limiter and are processed by the loop goroutine.
func (e *Engine) OnTouchDown()      { e.queue.Enqueue(command{kind: cmdTouchDown}) }
func (e *Engine) OnTouchUp()        { e.queue.Enqueue(command{kind: cmdTouchUp}) }
func (e *Engine) OnTouchCancelled() { e.queue.Enqueue(command{kind: cmdTouchCancelled}) }
func (e *Engine) Cancel()           { e.queue.Enqueue(command{kind: cmdCancel}) }
func (e *Engine) Reset()            { e.queue.Enqueue(command{kind: cmdReset}) }
func (e *Engine) Wake()             { e.queue.Enqueue(command{kind: cmdWake}) }

// Sleep is synchronous (spec §4.6): the caller must see its effects applied
// before it returns, so it runs via RunSync instead of the async queue.
func (e *Engine) Sleep() { e.queue.RunSync(e.sleepSync) }

// DeliverDueTicks pumps the clock once, delivering every currently-due
// tick to OnClockTick. It is the commandQueue's pump callback and is also
// safe to call directly from tests against a FakeClock.
func (e *Engine) DeliverDueTicks() { e.clock.Pump(e.OnClockTick) }

// handle is the commandQueue's process callback: it runs exclusively on
// the loop goroutine (or synchronously in tests that never start one).
func (e *Engine) handle(cmd command) {
	if cmd.kind == cmdWake {
		e.handleWake()
		return
	}
	if !e.awake {
		return
	}
	switch cmd.kind {
	case cmdTouchDown:
		e.handleTouchDown()
	case cmdTouchUp:
		e.handleTouchUp()
	case cmdTouchCancelled:
		e.handleTouchCancelled()
	case cmdCancel:
		e.handleCancel()
	case cmdReset:
		e.handleReset()
	}
}

// OnClockTick implements TickListener. It is only ever invoked by the
// engine's own clock pump, on the loop goroutine.
func (e *Engine) OnClockTick(id TickID) {
	if !e.awake {
		return
	}
	switch id {
	case DebounceAlarm:
		e.handleDebounceAlarm()
	case HoldingForStartAlarm:
		e.handleHoldingForStartAlarm()
	case Inspection7sRemainingAlarm:
		e.handle7sAlarm()
	case Inspection3sRemainingAlarm:
		e.handle3sAlarm()
	case InspectionOverrunAlarm:
		e.handleOverrunAlarm()
	case InspectionTimeUpAlarm:
		e.handleTimeUpAlarm()
	case TimerRefreshTick:
		e.handleRefreshTick()
	}
}

// ---- transition machinery ----------------------------------------------

// transition performs the three-step setup/teardown protocol of spec §4.4:
// validate against the transition table, tear down the old stage's ticks,
// mutate the stage, then arm the new one. CANCELLING and STOPPING have
// their own entry sequences beyond generic arming, so they are special
// cased here rather than in armStage.
func (e *Engine) transition(to Stage) {
	from := e.joint.Current().Stage()
	if !legalTransition(from, to) {
		panic(newFatalf("illegal transition %s -> %s", from, to))
	}
	e.log.Debugw("transition", "from", from, "to", to)
	e.clock.CancelAllTicks(e)
	e.joint.Mutate(func(s TimerState) TimerState { s.stage = to; return s })

	switch to {
	case Cancelling:
		e.enterCancelling()
	case Stopping:
		e.enterStopping()
	default:
		e.armStage(to)
	}
}

// armStage schedules whatever ticks a freshly-entered (or re-entered, on
// wake) stage needs and fires its entry cue, per spec §4.4's per-stage
// setup table. Firing is naturally idempotent: a cue already consumed
// before a suspend stays consumed across wake.
func (e *Engine) armStage(stage Stage) {
	switch stage {
	case InspectionHoldingForStart, InspectionSolveHoldingForStart, SolveHoldingForStart:
		e.clock.TickIn(e, HoldingForStartAlarm, HoldToStartMs)
	case InspectionStarting, SolveStarting:
		e.clock.TickIn(e, DebounceAlarm, DebounceMs)
	}

	if inspectionRunningStages[stage] {
		e.scheduleInspectionAlarms()
	}

	state := e.joint.Current()
	if stage == SolveStarted {
		e.clock.TickEvery(e, TimerRefreshTick, state.RefreshPeriodMs(), int64(state.SolveStartedAt()))
	} else if inspectionRunningStages[stage] {
		e.clock.TickEvery(e, TimerRefreshTick, state.RefreshPeriodMs(), int64(state.InspectionStartedAt()))
	}

	// The solve handle is minted on an attempt's first entry into whichever
	// *_READY_TO_START stage starts its clock running: INSPECTION_READY_TO_START
	// when inspection is enabled, SOLVE_READY_TO_START otherwise. This is long
	// before the solve's own debounce, so a scramble minted here (see
	// store.pendingAttempt) is already on record by the time inspection shows
	// it to the cuber. The nil check makes this idempotent across a
	// suspend/resume re-arm of the same stage.
	if (stage == InspectionReadyToStart || stage == SolveReadyToStart) && state.Solve() == nil {
		sv := e.dispatcher.solveStart()
		e.joint.Mutate(func(s TimerState) TimerState { s.solve = sv; return s })
	}

	if cue, ok := stageEntryCue[stage]; ok {
		e.fireCue(cue)
	}
}

var stageEntryCue = map[Stage]Cue{
	InspectionHoldingForStart:      CueInspectionHoldingForStart,
	InspectionReadyToStart:         CueInspectionReadyToStart,
	InspectionStarted:              CueInspectionStarted,
	InspectionSolveHoldingForStart: CueInspectionSolveHoldingForStart,
	InspectionSolveReadyToStart:    CueInspectionSolveReadyToStart,
	SolveHoldingForStart:           CueSolveHoldingForStart,
	SolveReadyToStart:              CueSolveReadyToStart,
	SolveStarted:                   CueSolveStarted,
}

// scheduleInspectionAlarms arms the four inspection alarms in reverse
// firing order (latest instant first), per spec §4.4: after a long
// suspend several of these can already be in the past, and scheduling
// latest-first means the past-due FIFO will deliver them in an order that
// lets each handler blank-fire (and cancel) the earlier ones it supersedes.
func (e *Engine) scheduleInspectionAlarms() {
	state := e.joint.Current()
	end := int64(state.InspectionEnd())
	e.clock.TickAt(e, InspectionTimeUpAlarm, end+InspectionOverrunMs)
	if state.pendingCues.pending(CueInspectionTimeOverrun) {
		e.clock.TickAt(e, InspectionOverrunAlarm, end)
	}
	if state.pendingCues.pending(CueInspection3sRemaining) {
		e.clock.TickAt(e, Inspection3sRemainingAlarm, end-InspectionSecondWarningRemainingMs)
	}
	if state.pendingCues.pending(CueInspection7sRemaining) {
		e.clock.TickAt(e, Inspection7sRemainingAlarm, end-InspectionFirstWarningRemainingMs)
	}
}

// fireCue dispatches c to listeners iff it was still pending, consuming it
// either way it wasn't already gone.
func (e *Engine) fireCue(c Cue) {
	state := e.joint.Current()
	if state.pendingCues.fire(c) {
		e.dispatcher.cue(c, state)
	}
}

func (e *Engine) blankFireAndCancel(c Cue, id TickID) {
	e.joint.Current().pendingCues.blankFire(c)
	e.clock.CancelTick(e, id)
}

// enterCancelling implements spec §4.4's "Entering CANCELLING": the
// attempt is discarded, never committed.
func (e *Engine) enterCancelling() {
	e.joint.Mutate(func(s TimerState) TimerState { s.stage = Stopped; return s })
	cancelled := e.joint.Current()
	if cancelled.pendingCues.fire(CueCancelling) {
		e.dispatcher.cue(CueCancelling, cancelled)
	}
	e.joint.Pop()
	e.dispatcher.set(e.joint.Current())
}

// enterStopping implements spec §4.4's "Entering STOPPING": the attempt is
// committed to its Solve handle, if any, and the stopped state becomes the
// new current (nothing to pop back to).
func (e *Engine) enterStopping() {
	e.joint.Mutate(func(s TimerState) TimerState { s.stage = Stopped; return s })
	stopped := e.joint.Current()
	if stopped.pendingCues.fire(CueStopping) {
		e.dispatcher.cue(CueStopping, stopped)
	}
	e.joint.Commit(e.clock.Now(), e.clock.WallNow())
	if sv := e.joint.Current().Solve(); sv != nil {
		e.dispatcher.solveStop(sv)
	}
	e.dispatcher.set(e.joint.Current())
}

// ---- touch handling ------------------------------------------------------

func (e *Engine) handleTouchDown() {
	switch e.joint.Current().Stage() {
	case Unused:
		e.transition(Starting)
		e.chainFromStarting()
	case Stopped:
		e.joint.Push()
		e.dispatcher.set(e.joint.Current())
		e.handleTouchDown()
	case InspectionStarted:
		if e.joint.Current().HoldToStartEnabled() {
			e.transition(InspectionSolveHoldingForStart)
		} else {
			e.transition(InspectionSolveReadyToStart)
		}
	case SolveStarted:
		now := e.clock.Now()
		e.joint.Mutate(func(s TimerState) TimerState { s.solveStoppedAt = Instant(now); return s })
		e.transition(Stopping)
	}
}

// chainFromStarting implements spec §4.4's "STARTING immediately chains to
// the first real stage": touch-down into UNUSED needs no second event.
func (e *Engine) chainFromStarting() {
	state := e.joint.Current()
	switch {
	case state.InspectionDurationMs() > 0 && state.HoldToStartEnabled():
		e.transition(InspectionHoldingForStart)
	case state.InspectionDurationMs() > 0:
		e.transition(InspectionReadyToStart)
	case state.HoldToStartEnabled():
		e.transition(SolveHoldingForStart)
	default:
		e.transition(SolveReadyToStart)
	}
}

func (e *Engine) handleTouchUp() {
	switch e.joint.Current().Stage() {
	case InspectionHoldingForStart, SolveHoldingForStart:
		e.transition(Cancelling)
	case InspectionReadyToStart:
		now := e.clock.Now()
		e.joint.Mutate(func(s TimerState) TimerState { s.inspectionStartedAt = Instant(now); return s })
		e.transition(InspectionStarting)
	case InspectionSolveHoldingForStart:
		e.transition(InspectionStarted)
	case InspectionSolveReadyToStart:
		now := e.clock.Now()
		e.joint.Mutate(func(s TimerState) TimerState { s.inspectionStoppedAt = Instant(now); return s })
		e.fireCue(CueInspectionStopped)
		e.transition(SolveStarting)
	case SolveReadyToStart:
		e.transition(SolveStarting)
	}
}

// handleTouchCancelled reverts the effect of the most recent touch-down, if
// the attempt is still in a hold/ready stage reached by it (spec §4.4/§6).
func (e *Engine) handleTouchCancelled() {
	switch e.joint.Current().Stage() {
	case InspectionSolveHoldingForStart, InspectionSolveReadyToStart:
		e.transition(InspectionStarted)
	case InspectionHoldingForStart, InspectionReadyToStart, SolveHoldingForStart, SolveReadyToStart:
		e.transition(Cancelling)
	}
}

func (e *Engine) handleCancel() {
	stage := e.joint.Current().Stage()
	if stage == Unused || stage == Stopped {
		return
	}
	e.transition(Cancelling)
}

func (e *Engine) handleReset() {
	if e.joint.Current().Stage() != Stopped {
		return
	}
	e.joint.Reset()
	e.dispatcher.set(e.joint.Current())
}

// ---- tick handling --------------------------------------------------------

func (e *Engine) handleDebounceAlarm() {
	switch e.joint.Current().Stage() {
	case InspectionStarting:
		e.transition(InspectionStarted)
	case SolveStarting:
		// solveStartedAt is recorded here, at debounce resolution, not at
		// the touch-up that began SOLVE_STARTING: debounce exists to keep
		// touch chatter from starting the timed run at all, so the run's
		// recorded start is the instant debounce confirms it (see S1, S3).
		// The solve handle itself was already minted back at
		// INSPECTION_READY_TO_START/SOLVE_READY_TO_START (see armStage); by
		// this point it just needs the elapsed-time origin.
		now := e.clock.Now()
		e.joint.Mutate(func(s TimerState) TimerState { s.solveStartedAt = Instant(now); return s })
		e.transition(SolveStarted)
	default:
		panic(newFatalf("unexpected DEBOUNCE_ALARM in stage %s", e.joint.Current().Stage()))
	}
}

func (e *Engine) handleHoldingForStartAlarm() {
	switch e.joint.Current().Stage() {
	case InspectionHoldingForStart:
		e.transition(InspectionReadyToStart)
	case InspectionSolveHoldingForStart:
		e.transition(InspectionSolveReadyToStart)
	case SolveHoldingForStart:
		e.transition(SolveReadyToStart)
	default:
		panic(newFatalf("unexpected HOLDING_FOR_START_ALARM in stage %s", e.joint.Current().Stage()))
	}
}

func (e *Engine) handle7sAlarm() {
	e.fireCue(CueInspection7sRemaining)
}

func (e *Engine) handle3sAlarm() {
	e.blankFireAndCancel(CueInspection7sRemaining, Inspection7sRemainingAlarm)
	e.fireCue(CueInspection3sRemaining)
}

func (e *Engine) handleOverrunAlarm() {
	e.blankFireAndCancel(CueInspection7sRemaining, Inspection7sRemainingAlarm)
	e.blankFireAndCancel(CueInspection3sRemaining, Inspection3sRemainingAlarm)
	e.joint.Mutate(func(s TimerState) TimerState { s.penalties.Pre.IncurPlusTwo(); return s })
	e.fireCue(CueInspectionTimeOverrun)
	e.dispatcher.penalty(e.joint.Current())
}

func (e *Engine) handleTimeUpAlarm() {
	e.blankFireAndCancel(CueInspection7sRemaining, Inspection7sRemainingAlarm)
	e.blankFireAndCancel(CueInspection3sRemaining, Inspection3sRemainingAlarm)
	e.blankFireAndCancel(CueInspectionTimeOverrun, InspectionOverrunAlarm)
	e.joint.Mutate(func(s TimerState) TimerState { s.penalties.Pre.IncurDNF(); return s })
	stoppedAt := Instant(int64(e.joint.Current().InspectionEnd()) + InspectionOverrunMs)
	e.joint.Mutate(func(s TimerState) TimerState { s.inspectionStoppedAt = stoppedAt; return s })
	e.dispatcher.penalty(e.joint.Current())
	e.fireCue(CueInspectionStopped)
	e.transition(Stopping)
}

func (e *Engine) handleRefreshTick() {
	state := e.joint.Current()
	var next int64
	switch {
	case state.IsSolveRunning():
		next = e.dispatcher.refreshSolve(state.ElapsedSolveTime(e.clock.Now()), state.RefreshPeriodMs())
	case state.IsInspectionRunning():
		next = e.dispatcher.refreshInspection(state.RemainingInspectionTime(e.clock.Now()), state.RefreshPeriodMs())
	default:
		return
	}
	e.applyRefreshPeriod(next)
}

// applyRefreshPeriod implements spec §6's refresh-period negotiation: 0
// leaves it unchanged, -1 restores the default, anything else is clamped
// to [MinRefreshPeriodMs, MaxRefreshPeriodMs] and re-arms the periodic tick.
func (e *Engine) applyRefreshPeriod(next int64) {
	if next == 0 {
		return
	}
	period := int64(DefaultRefreshPeriodMs)
	if next != -1 {
		period = next
		if period < MinRefreshPeriodMs {
			period = MinRefreshPeriodMs
		}
		if period > MaxRefreshPeriodMs {
			period = MaxRefreshPeriodMs
		}
	}
	e.joint.Mutate(func(s TimerState) TimerState { s.refreshPeriodMs = period; return s })
	e.clock.CancelTick(e, TimerRefreshTick)

	state := e.joint.Current()
	var origin int64
	if state.IsSolveRunning() {
		origin = int64(state.SolveStartedAt())
	} else {
		origin = int64(state.InspectionStartedAt())
	}
	e.clock.TickEvery(e, TimerRefreshTick, period, origin)
}

// ---- suspend / resume -----------------------------------------------------

// sleepSync implements spec §4.6: synthesize a touch-cancelled (which may
// roll the attempt back one step), then clear the awake flag and tear down
// every scheduled tick so no stale alarm fires while asleep.
func (e *Engine) sleepSync() {
	if !e.awake {
		return
	}
	e.handleTouchCancelled()
	e.awake = false
	e.clock.CancelAllTicks(e)
}

// handleWake implements spec §4.6: set the awake flag, announce the
// current state, then re-arm whatever the current stage needs against the
// clock's present notion of now. Cues already consumed before sleep do not
// re-fire, since armStage's fireCue calls are idempotent against cueSet.
func (e *Engine) handleWake() {
	if e.awake {
		return
	}
	e.awake = true
	e.dispatcher.set(e.joint.Current())
	e.armStage(e.joint.Current().Stage())
}
