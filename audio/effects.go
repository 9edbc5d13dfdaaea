// Package audio plays short synthesized cues for game events.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog/log"

	"torus-snake/game"
)

const (
	sampleRate = beep.SampleRate(44100)
	volume     = 0.35
)

// sweep is a sine tone gliding linearly from one frequency to another, with
// a short fade-out so it ends without a click.
type sweep struct {
	from, to float64
	phase    float64
	pos      int
	total    int
	fade     int
	rate     beep.SampleRate
}

func newSweep(from, to float64, d time.Duration, rate beep.SampleRate) *sweep {
	total := rate.N(d)
	return &sweep{
		from:  from,
		to:    to,
		total: total,
		fade:  total / 5,
		rate:  rate,
	}
}

func (s *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.pos >= s.total {
			return i, i > 0
		}
		progress := float64(s.pos) / float64(s.total)
		freq := s.from + (s.to-s.from)*progress

		val := math.Sin(2 * math.Pi * s.phase)
		if remaining := s.total - s.pos; s.fade > 0 && remaining < s.fade {
			val *= float64(remaining) / float64(s.fade)
		}
		samples[i][0] = val
		samples[i][1] = val

		s.phase += freq / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.pos++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Nom is the rising chirp played when the snake eats
func Nom() beep.Streamer {
	return withVolume(newSweep(440, 880, 90*time.Millisecond, sampleRate), volume)
}

// OhOh is the falling two-note cue played when a scored game ends
func OhOh() beep.Streamer {
	return withVolume(beep.Seq(
		newSweep(523.25, 493.88, 180*time.Millisecond, sampleRate),
		beep.Silence(sampleRate.N(60*time.Millisecond)),
		newSweep(392, 329.63, 320*time.Millisecond, sampleRate),
	), volume)
}

// Effects is a game.Presenter that turns events into sounds. Until Init
// succeeds it stays silent.
type Effects struct {
	mu   sync.Mutex
	play func(beep.Streamer)
}

var _ game.Presenter = (*Effects)(nil)

func NewEffects() *Effects {
	return &Effects{}
}

// Init opens the audio device
func (e *Effects) Init() error {
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return err
	}
	e.mu.Lock()
	e.play = func(s beep.Streamer) { speaker.Play(s) }
	e.mu.Unlock()
	log.Debug().Int("rate", int(sampleRate)).Msg("audio initialized")
	return nil
}

func (e *Effects) emit(s beep.Streamer) {
	e.mu.Lock()
	play := e.play
	e.mu.Unlock()
	if play != nil {
		play(s)
	}
}

func (e *Effects) Present(f game.Frame) {
	if f.Ate {
		e.emit(Nom())
	}
}

func (e *Effects) GameOver(s game.Summary) {
	if s.Score > 0 {
		e.emit(OhOh())
	}
}

// Close stops anything still playing
func (e *Effects) Close() {
	e.mu.Lock()
	active := e.play != nil
	e.play = nil
	e.mu.Unlock()
	if active {
		speaker.Clear()
		speaker.Close()
	}
}
