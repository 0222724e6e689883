package core

// Instant is a monotonic millisecond reading from a Clock, or NoInstant
// if the event it would describe has not happened yet (spec §3's "clock
// instants or ∅").
type Instant int64

const NoInstant Instant = -1

func (i Instant) Valid() bool { return i != NoInstant }

// Solve is the opaque per-attempt record a SolveAttemptHandler hands back
// from OnSolveAttemptStart. The engine never inspects it beyond calling
// ApplyResult at commit time (spec §3's "solve handle... mutated with
// time/penalties/timestamp at stop").
type Solve interface {
	ApplyResult(elapsedMs int64, penalties Penalties, wallTimestampMs int64)
}

// TimerState is the value object for one attempt (spec §3). Instances are
// never mutated in place from outside package core's engine code; callers
// observe snapshots via Engine's listener callbacks.
type TimerState struct {
	stage Stage

	inspectionDurationMs int64
	holdToStartEnabled   bool

	inspectionStartedAt Instant
	inspectionStoppedAt Instant
	solveStartedAt      Instant
	solveStoppedAt      Instant

	penalties Penalties

	refreshPeriodMs int64

	pendingCues cueSet

	solve Solve
}

// newUnusedState builds a fresh attempt from a prototype configuration.
func newUnusedState(inspectionDurationMs int64, holdToStartEnabled bool) TimerState {
	return TimerState{
		stage:                Unused,
		inspectionDurationMs: inspectionDurationMs,
		holdToStartEnabled:   holdToStartEnabled,
		inspectionStartedAt:  NoInstant,
		inspectionStoppedAt:  NoInstant,
		solveStartedAt:       NoInstant,
		solveStoppedAt:       NoInstant,
		refreshPeriodMs:      DefaultRefreshPeriodMs,
		pendingCues:          newCueSet(),
	}
}

// clone produces an independent deep copy, used by JointState so that
// push/pop/reset operate on value semantics rather than shared references
// (spec §9).
func (s TimerState) clone() TimerState {
	out := s
	out.pendingCues = s.pendingCues.clone()
	return out
}

func (s TimerState) Stage() Stage                     { return s.stage }
func (s TimerState) InspectionDurationMs() int64      { return s.inspectionDurationMs }
func (s TimerState) HoldToStartEnabled() bool         { return s.holdToStartEnabled }
func (s TimerState) InspectionStartedAt() Instant     { return s.inspectionStartedAt }
func (s TimerState) InspectionStoppedAt() Instant     { return s.inspectionStoppedAt }
func (s TimerState) SolveStartedAt() Instant          { return s.solveStartedAt }
func (s TimerState) SolveStoppedAt() Instant          { return s.solveStoppedAt }
func (s TimerState) Penalties() Penalties             { return s.penalties }
func (s TimerState) RefreshPeriodMs() int64           { return s.refreshPeriodMs }
func (s TimerState) Solve() Solve                     { return s.solve }

func (s TimerState) IsUnused() bool  { return s.stage == Unused }
func (s TimerState) IsStopped() bool { return s.stage == Stopped }

// inspectionRunningStages mirrors spec §4.4's "inspection-running stages"
// set: the countdown continues through all of these.
var inspectionRunningStages = set(
	InspectionStarting, InspectionStarted,
	InspectionSolveHoldingForStart, InspectionSolveReadyToStart,
)

func (s TimerState) IsInspectionRunning() bool { return inspectionRunningStages[s.stage] }
func (s TimerState) IsSolveRunning() bool      { return s.stage == SolveStarted }

// InspectionEnd returns inspectionStartedAt + inspectionDurationMs, or
// NoInstant if inspection has not started.
func (s TimerState) InspectionEnd() Instant {
	if !s.inspectionStartedAt.Valid() {
		return NoInstant
	}
	return s.inspectionStartedAt + Instant(s.inspectionDurationMs)
}

// RemainingInspectionTime is inspectionEnd - (now or inspectionStoppedAt).
// It goes negative during the INSPECTION_OVERRUN grace window, per spec §6
// ("remainingMs is negative within the INSPECTION_OVERRUN grace").
func (s TimerState) RemainingInspectionTime(now int64) int64 {
	end := s.InspectionEnd()
	if !end.Valid() {
		return s.inspectionDurationMs
	}
	ref := now
	if s.inspectionStoppedAt.Valid() {
		ref = int64(s.inspectionStoppedAt)
	}
	return int64(end) - ref
}

// ElapsedSolveTime is computed strictly from solveStartedAt and either
// solveStoppedAt or now; it is never stored redundantly (spec §3).
func (s TimerState) ElapsedSolveTime(now int64) int64 {
	if !s.solveStartedAt.Valid() {
		return 0
	}
	end := now
	if s.solveStoppedAt.Valid() {
		end = int64(s.solveStoppedAt)
	}
	return end - int64(s.solveStartedAt)
}

// CommittedTimeMs is the final recorded solve time per spec §6: the raw
// solve span plus 2000ms per post-start +2. Pre-start penalties never
// alter this value. The one exception is the inspection-timeout DNF path
// (see Engine's handling of InspectionTimeUpAlarm), where the solve never
// started and the INSPECTION_OVERRUN grace span, inspectionEnd to
// inspectionStoppedAt, is committed as the time.
func (s TimerState) CommittedTimeMs(now int64) int64 {
	if !s.solveStartedAt.Valid() && s.penalties.Pre.IsDNF() && s.inspectionStoppedAt.Valid() {
		return int64(s.inspectionStoppedAt) - int64(s.InspectionEnd())
	}
	return s.ElapsedSolveTime(now) + s.penalties.Post.PlusTwoMillis()
}
