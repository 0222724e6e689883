package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestState_FreshIsUnused(t *testing.T) {
	s := newUnusedState(15000, false)
	require.True(t, s.IsUnused())
	require.False(t, s.IsStopped())
	require.False(t, s.InspectionStartedAt().Valid())
	require.Equal(t, NoInstant, s.SolveStartedAt())
}

func TestState_RemainingInspectionTimeBeforeStart(t *testing.T) {
	s := newUnusedState(15000, false)
	require.EqualValues(t, 15000, s.RemainingInspectionTime(999))
}

func TestState_RemainingInspectionTimeGoesNegativeDuringOverrun(t *testing.T) {
	s := newUnusedState(15000, false)
	s.inspectionStartedAt = 0
	require.EqualValues(t, 0, s.RemainingInspectionTime(15000))
	require.EqualValues(t, -500, s.RemainingInspectionTime(15500))
}

func TestState_RemainingInspectionTimeFreezesAtInspectionStoppedAt(t *testing.T) {
	s := newUnusedState(15000, false)
	s.inspectionStartedAt = 0
	s.inspectionStoppedAt = 14000
	require.EqualValues(t, 1000, s.RemainingInspectionTime(999999))
}

func TestState_ElapsedSolveTimeZeroBeforeStart(t *testing.T) {
	s := newUnusedState(15000, false)
	require.EqualValues(t, 0, s.ElapsedSolveTime(5000))
}

func TestState_ElapsedSolveTimeRunningUsesNow(t *testing.T) {
	s := newUnusedState(15000, false)
	s.solveStartedAt = 100
	require.EqualValues(t, 900, s.ElapsedSolveTime(1000))
}

func TestState_ElapsedSolveTimeStoppedFreezesAtSolveStoppedAt(t *testing.T) {
	s := newUnusedState(15000, false)
	s.solveStartedAt = 100
	s.solveStoppedAt = 1000
	require.EqualValues(t, 900, s.ElapsedSolveTime(999999))
}

func TestState_CommittedTimeMsAddsPostPlusTwoPenalty(t *testing.T) {
	s := newUnusedState(15000, false)
	s.solveStartedAt = 0
	s.solveStoppedAt = 5000
	s.penalties.Post.IncurPlusTwo()
	require.EqualValues(t, 7000, s.CommittedTimeMs(999999))
}

func TestState_InspectionRunningStages(t *testing.T) {
	for _, stage := range []Stage{InspectionStarting, InspectionStarted, InspectionSolveHoldingForStart, InspectionSolveReadyToStart} {
		s := newUnusedState(15000, false)
		s.stage = stage
		require.Truef(t, s.IsInspectionRunning(), "stage %s should count as inspection-running", stage)
	}
	s := newUnusedState(15000, false)
	s.stage = SolveStarted
	require.False(t, s.IsInspectionRunning())
	require.True(t, s.IsSolveRunning())
}

func TestState_CloneIsIndependentOfOriginal(t *testing.T) {
	s := newUnusedState(15000, false)
	s.pendingCues.fire(CueInspectionStarted)
	c := s.clone()
	c.pendingCues.fire(CueInspectionReadyToStart)

	require.True(t, s.pendingCues.pending(CueInspectionReadyToStart))
	require.False(t, c.pendingCues.pending(CueInspectionReadyToStart))
}
