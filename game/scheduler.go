package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"torus-snake/game/manager"
	"torus-snake/game/types"
)

// DirectionSource yields the direction in effect when a tick fires
type DirectionSource interface {
	Direction() types.Direction
}

// Presenter receives frames and end-of-game notices on the tick goroutine.
// Implementations must not call Start or Stop from either method.
type Presenter interface {
	Present(Frame)
	GameOver(Summary)
}

// Presenters fans out to several presenters in order
type Presenters []Presenter

func (ps Presenters) Present(f Frame) {
	for _, p := range ps {
		p.Present(f)
	}
}

func (ps Presenters) GameOver(s Summary) {
	for _, p := range ps {
		p.GameOver(s)
	}
}

// ScoreRecorder persists a final score
type ScoreRecorder interface {
	RecordScore(ctx context.Context, sessionID string, score int, at time.Time) error
}

const defaultRecordTimeout = 5 * time.Second

// Scheduler drives a Session at a fixed rate. At most one tick loop exists
// at a time; ticks from a cancelled loop are discarded. A loop that ended a
// session stays current until the next Start or Stop, which wait for it to
// finish delivering the game over.
type Scheduler struct {
	ctl sync.Mutex // serializes Start and Stop

	mu      sync.Mutex
	session *Session
	run     *run

	source        DirectionSource
	interval      time.Duration
	clock         Clock
	presenter     Presenters
	recorder      ScoreRecorder
	recordTimeout time.Duration
}

type run struct {
	ticker   Ticker
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (r *run) cancel() {
	r.stopOnce.Do(func() { close(r.stop) })
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithPresenter(p ...Presenter) Option {
	return func(s *Scheduler) { s.presenter = append(s.presenter, p...) }
}

func WithRecorder(r ScoreRecorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

func WithRecordTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.recordTimeout = d }
}

func NewScheduler(session *Session, source DirectionSource, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		session:       session,
		source:        source,
		interval:      interval,
		clock:         SystemClock{},
		recordTimeout: defaultRecordTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a new session, abandoning any session still running. Frame 0
// is presented before Start returns.
func (s *Scheduler) Start() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.halt()

	s.mu.Lock()
	if err := s.session.Reset(s.clock.Now()); err != nil {
		s.mu.Unlock()
		return err
	}
	r := &run{
		ticker: s.clock.NewTicker(s.interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.run = r
	frame := s.session.Frame(false)
	s.mu.Unlock()

	log.Info().
		Str("session", frame.SessionID).
		Stringer("head", frame.Snake[0]).
		Stringer("fruit", frame.Fruit).
		Dur("interval", s.interval).
		Msg("session started")

	s.presenter.Present(frame)
	go s.loop(r)
	return nil
}

// Stop cancels the tick loop. An Alive session returns to Idle unscored.
func (s *Scheduler) Stop() {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.halt()

	s.mu.Lock()
	s.session.Abandon()
	s.mu.Unlock()
}

// halt cancels the current loop and waits for it to exit
func (s *Scheduler) halt() {
	s.mu.Lock()
	r := s.run
	s.run = nil
	s.mu.Unlock()

	if r == nil {
		return
	}
	r.cancel()
	<-r.done
}

// Snapshot returns the current session state
func (s *Scheduler) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Frame(false)
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.State
}

func (s *Scheduler) loop(r *run) {
	defer close(r.done)
	defer r.ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C():
			if !s.tick(r) {
				return
			}
		}
	}
}

// tick reports whether the loop should keep running
func (s *Scheduler) tick(r *run) bool {
	// read before locking: a source may itself take a Snapshot
	dir := s.source.Direction()
	if !dir.Valid() {
		dir = types.None
	}

	s.mu.Lock()
	if s.run != r {
		s.mu.Unlock()
		return false
	}
	res := s.session.Step(dir, s.clock.Now())
	live := res.Outcome != manager.SelfCollision
	var frame Frame
	if live {
		frame = s.session.Frame(res.Outcome == manager.Grew)
	}
	var summary Summary
	if res.Ended {
		summary = s.session.Summary(res.Reason)
	}
	s.mu.Unlock()

	if live {
		log.Debug().
			Uint64("tick", frame.Tick).
			Stringer("dir", dir).
			Stringer("outcome", res.Outcome).
			Int("score", frame.Score).
			Msg("tick")
		s.presenter.Present(frame)
	}
	if res.Ended {
		s.finish(summary)
		return false
	}
	return true
}

// finish announces the end of a session and records a positive score once
func (s *Scheduler) finish(sum Summary) {
	log.Info().
		Str("session", sum.SessionID).
		Int("score", sum.Score).
		Uint64("ticks", sum.Ticks).
		Str("reason", string(sum.Reason)).
		Msg("game over")

	s.presenter.GameOver(sum)

	if sum.Score <= 0 || s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.recordTimeout)
	defer cancel()
	if err := s.recorder.RecordScore(ctx, sum.SessionID, sum.Score, sum.EndedAt); err != nil {
		log.Error().Err(err).Str("session", sum.SessionID).Int("score", sum.Score).Msg("failed to record score")
	}
}

// AddPresenter registers more presenters. Call it before the first Start.
func (s *Scheduler) AddPresenter(p ...Presenter) {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.presenter = append(s.presenter, p...)
}
