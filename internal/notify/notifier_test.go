package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cubeware/cubetimer/internal/core"
)

type recordingToaster struct {
	title, body string
	err         error
	calls       int
}

func (r *recordingToaster) Notify(title, body string) error {
	r.title, r.body, r.calls = title, body, r.calls+1
	return r.err
}

type noopHandler struct{}

func (noopHandler) OnSolveAttemptStart() core.Solve { return noopSolve{} }
func (noopHandler) OnSolveAttemptStop(core.Solve)   {}

type noopSolve struct{}

func (noopSolve) ApplyResult(int64, core.Penalties, int64) {}

// cancelCapture keeps the state carried by the CANCELLING cue.
type cancelCapture struct{ state core.TimerState }

func (c *cancelCapture) OnTimerCue(cue core.Cue, s core.TimerState) {
	if cue == core.CueCancelling {
		c.state = s
	}
}
func (c *cancelCapture) OnTimerSet(core.TimerState)     {}
func (c *cancelCapture) OnTimerPenalty(core.TimerState) {}

// cancelledEngineState drives a real Engine through touch-down then cancel
// with inspection disabled and returns the state carried by the CANCELLING
// cue: a Stopped state with no solve span — the "pressed and let go before
// committing" case. (The engine's own current state after the cancel is the
// rolled-back UNUSED one.)
func cancelledEngineState(t *testing.T) core.TimerState {
	t.Helper()
	eng := core.NewEngine(core.NewRealClock(), core.Prototype{HoldToStartEnabled: true}, noopHandler{}, nil)
	capture := &cancelCapture{}
	eng.AddListener(capture)
	eng.Start()
	t.Cleanup(eng.Stop)
	eng.Wake()
	eng.OnTouchDown()
	eng.Cancel()
	eng.State() // returns once the queued commands have been processed
	return capture.state
}

func TestSolveToaster_IgnoresNonStoppedStates(t *testing.T) {
	rt := &recordingToaster{}
	n := NewSolveToaster(rt, nil)
	eng := core.NewEngine(core.NewRealClock(), core.Prototype{}, noopHandler{}, nil)
	n.OnTimerSet(eng.State()) // Unused, not Stopped
	require.Zero(t, rt.calls)
}

func TestSolveToaster_CancelledHasNoSolveSpan(t *testing.T) {
	rt := &recordingToaster{}
	n := NewSolveToaster(rt, nil)
	n.OnTimerSet(cancelledEngineState(t))
	require.Equal(t, 1, rt.calls)
	require.Equal(t, "cancelled", rt.body)
}

func TestSolveToaster_NotifyErrorIsSwallowed(t *testing.T) {
	rt := &recordingToaster{err: errors.New("no notification daemon")}
	n := NewSolveToaster(rt, nil)
	require.NotPanics(t, func() { n.OnTimerSet(cancelledEngineState(t)) })
}

func TestSolveToaster_CueCallbacksAreNoops(t *testing.T) {
	rt := &recordingToaster{}
	n := NewSolveToaster(rt, nil)
	st := cancelledEngineState(t)
	require.NotPanics(t, func() {
		n.OnTimerCue(core.CueCancelling, st)
		n.OnTimerPenalty(st)
	})
	require.Zero(t, rt.calls)
}

func TestFormatMillis_SubMinuteHasNoMinutesField(t *testing.T) {
	require.Equal(t, "12.281s", formatMillis(12281))
}

func TestFormatMillis_OverAMinuteIncludesMinutes(t *testing.T) {
	require.Equal(t, "1:02.500", formatMillis(62500))
}
