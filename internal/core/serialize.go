package core

import (
	"bytes"
	"encoding/gob"

	"github.com/go-faster/errors"
)

// wireState is TimerState's persisted shape (spec §6): gob cannot encode
// unexported fields, so this is the exported mirror written to and read
// from the blob. The Solve handle is never carried across a restore: a
// restored attempt has no handle, so committing it applies its result to
// no record and OnSolveAttemptStop is not called for it.
type wireState struct {
	Stage                Stage
	InspectionDurationMs int64
	HoldToStartEnabled   bool
	InspectionStartedAt  Instant
	InspectionStoppedAt  Instant
	SolveStartedAt       Instant
	SolveStoppedAt       Instant
	Penalties            EncodedPenalties
	RefreshPeriodMs      int64
	PendingCues          []Cue
}

func toWire(s TimerState) wireState {
	pending := make([]Cue, 0, len(s.pendingCues))
	for _, c := range allCues {
		if s.pendingCues.pending(c) {
			pending = append(pending, c)
		}
	}
	return wireState{
		Stage:                s.stage,
		InspectionDurationMs: s.inspectionDurationMs,
		HoldToStartEnabled:   s.holdToStartEnabled,
		InspectionStartedAt:  s.inspectionStartedAt,
		InspectionStoppedAt:  s.inspectionStoppedAt,
		SolveStartedAt:       s.solveStartedAt,
		SolveStoppedAt:       s.solveStoppedAt,
		Penalties:            s.penalties.Encode(),
		RefreshPeriodMs:      s.refreshPeriodMs,
		PendingCues:          pending,
	}
}

func fromWire(w wireState) TimerState {
	cues := newCueSet()
	for c := range cues {
		delete(cues, c)
	}
	cues.reload(w.PendingCues...)
	return TimerState{
		stage:                w.Stage,
		inspectionDurationMs: w.InspectionDurationMs,
		holdToStartEnabled:   w.HoldToStartEnabled,
		inspectionStartedAt:  w.InspectionStartedAt,
		inspectionStoppedAt:  w.InspectionStoppedAt,
		solveStartedAt:       w.SolveStartedAt,
		solveStoppedAt:       w.SolveStoppedAt,
		penalties:            DecodePenalties(w.Penalties),
		refreshPeriodMs:      w.RefreshPeriodMs,
		pendingCues:          cues,
	}
}

type wireJointState struct {
	Prototype   Prototype
	Current     wireState
	HasPrevious bool
	Previous    wireState
}

// Serialize snapshots the engine's JointState for persistence across a
// process restart (spec §6). It is safe to call while awake. Instants are
// stored as raw readings of this engine's Clock and Restore applies no
// translation to them, so against a different Clock (a RealClock in a new
// process starts again at zero) elapsed and remaining times are computed
// from the old readings as they are, not advanced by the wall-time gap.
func (e *Engine) Serialize() ([]byte, error) {
	var w wireJointState
	e.queue.RunSync(func() {
		w.Prototype = e.joint.Prototype()
		w.Current = toWire(e.joint.Current())
		if e.joint.HasPrevious() {
			w.HasPrevious = true
			w.Previous = toWire(e.joint.Previous())
		}
	})
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, errors.Wrap(err, "encode joint state")
	}
	return buf.Bytes(), nil
}

// Restore replaces the engine's JointState with the one encoded in blob.
// Per spec §7 it is a programming error to restore into an awake engine,
// since that would silently discard whatever attempt is in flight without
// running its cancel/stop protocol; callers must Sleep first.
func (e *Engine) Restore(blob []byte) error {
	var w wireJointState
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&w); err != nil {
		panic(&FatalError{err: errors.Wrap(err, "decode joint state")})
	}
	var restoreErr error
	e.queue.RunSync(func() {
		if e.awake {
			restoreErr = newFatal("cannot restore into an awake engine")
			return
		}
		joint := &JointState{prototype: w.Prototype, current: fromWire(w.Current)}
		if w.HasPrevious {
			prev := fromWire(w.Previous)
			joint.previous = &prev
		}
		e.joint = joint
	})
	if restoreErr != nil {
		panic(restoreErr)
	}
	return nil
}
