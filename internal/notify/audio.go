package notify

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/cubeware/cubetimer/internal/core"
)

// sampleRate matches the teacher pack's vi-fighter audio engine default;
// speaker.Init is idempotent-ish in practice but only ever called once per
// process by AudioPlayer.
const sampleRate = beep.SampleRate(44100)

// tone generates a short sine beep, grounded on vi-fighter's oscillator
// (audio/effects.go) stripped down to the one waveform this timer needs.
type tone struct {
	freq     float64
	phase    float64
	duration int
	position int
}

func newTone(freqHz float64, d time.Duration) beep.Streamer {
	return &tone{freq: freqHz, duration: sampleRate.N(d)}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.position >= t.duration {
			return i, false
		}
		val := math.Sin(2 * math.Pi * t.phase)
		samples[i][0], samples[i][1] = val, val
		t.phase += t.freq / float64(sampleRate)
		t.phase -= math.Floor(t.phase)
		t.position++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// AudioPlayer drives short beeps off engine cues: countdown warnings and
// the overrun alarm get rising pitches, SOLVE_STARTED gets a confirmation
// tick. One at a time; a later cue cuts off whatever is still playing,
// grounded on AudioEngine.processCommand's "stop current, play next".
type AudioPlayer struct {
	mu      sync.Mutex
	enabled bool
	ctrl    *beep.Ctrl
	log     *zap.SugaredLogger
}

func NewAudioPlayer(log *zap.SugaredLogger) (*AudioPlayer, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &AudioPlayer{enabled: true, log: log}, nil
}

func (a *AudioPlayer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

var cueTone = map[core.Cue]float64{
	core.CueInspection7sRemaining: 660,
	core.CueInspection3sRemaining: 880,
	core.CueInspectionTimeOverrun: 1320,
	core.CueSolveStarted:          990,
}

func (a *AudioPlayer) OnTimerCue(c core.Cue, state core.TimerState) {
	freq, ok := cueTone[c]
	if !ok {
		return
	}
	a.play(freq, 120*time.Millisecond)
}

func (a *AudioPlayer) OnTimerSet(state core.TimerState)     {}
func (a *AudioPlayer) OnTimerPenalty(state core.TimerState) {}

func (a *AudioPlayer) play(freqHz float64, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.enabled {
		return
	}
	speaker.Lock()
	if a.ctrl != nil {
		a.ctrl.Paused = true
	}
	ctrl := &beep.Ctrl{Streamer: newTone(freqHz, d)}
	a.ctrl = ctrl
	speaker.Unlock()
	speaker.Play(ctrl)
}
