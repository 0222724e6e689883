// Package notify turns engine cues and finished solves into the two kinds
// of output a desktop cubing timer owes the user that the terminal UI
// itself cannot: an OS toast for a completed solve, and short audio cues
// for countdown warnings, grounded on the teacher's beeep wrapper.
package notify

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/cubeware/cubetimer/internal/core"
)

// Toaster fires a single OS-level desktop notification.
type Toaster interface {
	Notify(title, body string) error
}

type beeepToaster struct{}

func (beeepToaster) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// NewToaster returns the production Toaster.
func NewToaster() Toaster { return beeepToaster{} }

// SolveToaster adapts a Toaster into a core.TimerEventListener that
// announces every finished solve, mirroring the teacher's SetOnAdvance
// callback wiring a single notification per phase change.
type SolveToaster struct {
	toaster Toaster
	log     *zap.SugaredLogger
}

func NewSolveToaster(toaster Toaster, log *zap.SugaredLogger) *SolveToaster {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SolveToaster{toaster: toaster, log: log}
}

func (n *SolveToaster) OnTimerCue(c core.Cue, state core.TimerState) {}

func (n *SolveToaster) OnTimerSet(state core.TimerState) {
	if state.Stage() != core.Stopped {
		return
	}
	body := "cancelled"
	if state.SolveStartedAt().Valid() || state.InspectionStoppedAt().Valid() {
		switch {
		case state.Penalties().IsDNF():
			body = "DNF"
		case state.Penalties().Pre.PlusTwoMillis() > 0 || state.Penalties().Post.PlusTwoMillis() > 0:
			body = formatMillis(state.CommittedTimeMs(0)) + " (+2)"
		default:
			body = formatMillis(state.CommittedTimeMs(0))
		}
	}
	if err := n.toaster.Notify("Solve complete", body); err != nil {
		n.log.Debugw("toast notify failed", "err", err)
	}
}

func (n *SolveToaster) OnTimerPenalty(state core.TimerState) {}

func formatMillis(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	minutes := d / time.Minute
	seconds := (d % time.Minute).Seconds()
	if minutes > 0 {
		return fmt.Sprintf("%d:%06.3f", minutes, seconds)
	}
	return fmt.Sprintf("%.3fs", seconds)
}
