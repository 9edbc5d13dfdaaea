package game

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"torus-snake/game/entity"
	"torus-snake/game/manager"
	"torus-snake/game/types"
)

const testInterval = 500 * time.Millisecond

type fixedSource struct {
	d atomic.Int32
}

func (f *fixedSource) Direction() types.Direction { return types.Direction(f.d.Load()) }
func (f *fixedSource) set(d types.Direction)      { f.d.Store(int32(d)) }

type chanPresenter struct {
	frames chan Frame
	overs  chan Summary
}

func newChanPresenter() *chanPresenter {
	return &chanPresenter{
		frames: make(chan Frame, 64),
		overs:  make(chan Summary, 8),
	}
}

func (p *chanPresenter) Present(f Frame)    { p.frames <- f }
func (p *chanPresenter) GameOver(s Summary) { p.overs <- s }

type countingRecorder struct {
	mu     sync.Mutex
	scores []int
	called chan struct{}
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{called: make(chan struct{}, 8)}
}

func (r *countingRecorder) RecordScore(_ context.Context, _ string, score int, _ time.Time) error {
	r.mu.Lock()
	r.scores = append(r.scores, score)
	r.mu.Unlock()
	r.called <- struct{}{}
	return nil
}

func (r *countingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scores)
}

func waitFrame(t *testing.T, p *chanPresenter) Frame {
	t.Helper()
	select {
	case f := <-p.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func waitOver(t *testing.T, p *chanPresenter) Summary {
	t.Helper()
	select {
	case s := <-p.overs:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for game over")
		return Summary{}
	}
}

func expectNoFrame(t *testing.T, p *chanPresenter) {
	t.Helper()
	select {
	case f := <-p.frames:
		t.Fatalf("unexpected frame %+v", f)
	case <-time.After(50 * time.Millisecond):
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(time.Millisecond)
	}
}

type harness struct {
	sched *Scheduler
	clock *ManualClock
	src   *fixedSource
	pres  *chanPresenter
	rec   *countingRecorder
}

func newHarness(w, h int) *harness {
	hs := &harness{
		clock: NewManualClock(epoch),
		src:   &fixedSource{},
		pres:  newChanPresenter(),
		rec:   newCountingRecorder(),
	}
	session := NewSession(manager.NewFoodManager(types.Grid{Width: w, Height: h}, 5))
	hs.sched = NewScheduler(session, hs.src, testInterval,
		WithClock(hs.clock),
		WithPresenter(hs.pres),
		WithRecorder(hs.rec),
	)
	return hs
}

func TestSchedulerStartPresentsFrameZero(t *testing.T) {
	hs := newHarness(10, 10)
	if hs.sched.State() != Idle {
		t.Fatalf("state before start = %v", hs.sched.State())
	}
	if err := hs.sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer hs.sched.Stop()

	f := waitFrame(t, hs.pres)
	if f.Tick != 0 || f.Score != 0 || f.State != Alive || len(f.Snake) != 1 {
		t.Errorf("frame zero = %+v", f)
	}
}

func TestSchedulerTicksFollowDirection(t *testing.T) {
	hs := newHarness(10, 10)
	hs.src.set(types.Right)
	if err := hs.sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer hs.sched.Stop()
	f0 := waitFrame(t, hs.pres)

	// keep fruit out of the way so the snake only moves
	hs.sched.mu.Lock()
	hs.sched.session.Fruit = types.Point{X: (f0.Snake[0].X + 5) % 10, Y: (f0.Snake[0].Y + 5) % 10}
	hs.sched.mu.Unlock()

	hs.clock.Advance(testInterval)
	f1 := waitFrame(t, hs.pres)
	want := types.Point{X: (f0.Snake[0].X + 1) % 10, Y: f0.Snake[0].Y}
	if f1.Tick != 1 || f1.Snake[0] != want {
		t.Errorf("tick %d head %v, want tick 1 head %v", f1.Tick, f1.Snake[0], want)
	}

	hs.src.set(types.Down)
	hs.clock.Advance(testInterval)
	f2 := waitFrame(t, hs.pres)
	want = types.Point{X: want.X, Y: (want.Y + 1) % 10}
	if f2.Snake[0] != want {
		t.Errorf("head %v, want %v", f2.Snake[0], want)
	}
}

func TestSchedulerSelfCollision(t *testing.T) {
	hs := newHarness(10, 10)
	hs.src.set(types.Up)
	if err := hs.sched.Start(); err != nil {
		t.Fatal(err)
	}
	waitFrame(t, hs.pres)

	hs.sched.mu.Lock()
	hs.sched.session.Snake = entity.Snake{{X: 5, Y: 5}, {X: 4, Y: 5}, {X: 5, Y: 5}}
	hs.sched.session.Score = 2
	hs.sched.session.Fruit = types.Point{X: 1, Y: 1}
	hs.sched.mu.Unlock()

	hs.clock.Advance(testInterval)
	sum := waitOver(t, hs.pres)
	if sum.Score != 2 || sum.Reason != ReasonSelfCollision {
		t.Errorf("summary = %+v", sum)
	}
	expectNoFrame(t, hs.pres)

	<-hs.rec.called
	eventually(t, func() bool { return hs.clock.Active() == 0 }, "ticker still armed after death")

	hs.clock.Advance(testInterval)
	expectNoFrame(t, hs.pres)
	if n := hs.rec.count(); n != 1 {
		t.Errorf("recorded %d times, want 1", n)
	}
	if hs.sched.State() != Dead {
		t.Errorf("state = %v, want dead", hs.sched.State())
	}
	if got := hs.sched.Snapshot().Score; got != 2 {
		t.Errorf("snapshot score = %d", got)
	}
}

func TestSchedulerBoardCleared(t *testing.T) {
	hs := newHarness(2, 1)
	hs.src.set(types.Left)
	if err := hs.sched.Start(); err != nil {
		t.Fatal(err)
	}
	waitFrame(t, hs.pres)

	hs.clock.Advance(testInterval)
	f := waitFrame(t, hs.pres)
	if !f.Ate || f.Score != 1 || f.State != Dead {
		t.Errorf("final frame = %+v", f)
	}
	sum := waitOver(t, hs.pres)
	if sum.Reason != ReasonBoardCleared || sum.Score != 1 {
		t.Errorf("summary = %+v", sum)
	}
	<-hs.rec.called
}

func TestSchedulerStopCancelsTicker(t *testing.T) {
	hs := newHarness(10, 10)
	if err := hs.sched.Start(); err != nil {
		t.Fatal(err)
	}
	waitFrame(t, hs.pres)

	hs.sched.Stop()
	if hs.clock.Active() != 0 {
		t.Errorf("%d tickers armed after stop", hs.clock.Active())
	}
	if hs.sched.State() != Idle {
		t.Errorf("state = %v, want idle", hs.sched.State())
	}
	hs.clock.Advance(testInterval)
	expectNoFrame(t, hs.pres)
	if hs.rec.count() != 0 {
		t.Error("abandoned session was recorded")
	}

	// stopping twice is harmless
	hs.sched.Stop()
}

func TestSchedulerRestartKeepsOneLoop(t *testing.T) {
	hs := newHarness(10, 10)
	if err := hs.sched.Start(); err != nil {
		t.Fatal(err)
	}
	first := waitFrame(t, hs.pres)
	if err := hs.sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer hs.sched.Stop()
	second := waitFrame(t, hs.pres)

	if first.SessionID == second.SessionID {
		t.Error("restart reused the session id")
	}
	if hs.clock.Active() != 1 {
		t.Fatalf("%d tickers armed, want 1", hs.clock.Active())
	}

	hs.clock.Advance(testInterval)
	f := waitFrame(t, hs.pres)
	if f.SessionID != second.SessionID || f.Tick != 1 {
		t.Errorf("frame from %s tick %d", f.SessionID, f.Tick)
	}
	expectNoFrame(t, hs.pres)
}

func TestFinishSkipsZeroScore(t *testing.T) {
	hs := newHarness(10, 10)
	hs.sched.finish(Summary{SessionID: "s", Score: 0})
	waitOver(t, hs.pres)
	if hs.rec.count() != 0 {
		t.Error("zero score was recorded")
	}

	hs.sched.finish(Summary{SessionID: "s", Score: 3})
	waitOver(t, hs.pres)
	if hs.rec.count() != 1 {
		t.Error("positive score not recorded")
	}
}

// gatePresenter holds the game over until released and logs delivery order
type gatePresenter struct {
	mu      sync.Mutex
	events  []string
	entered chan struct{}
	release chan struct{}
}

func (g *gatePresenter) log(e string) {
	g.mu.Lock()
	g.events = append(g.events, e)
	g.mu.Unlock()
}

func (g *gatePresenter) Present(f Frame) { g.log("frame " + f.SessionID) }

func (g *gatePresenter) GameOver(s Summary) {
	g.entered <- struct{}{}
	<-g.release
	g.log("over " + s.SessionID)
}

func (g *gatePresenter) snapshot() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.events...)
}

func TestSchedulerStartWaitsForGameOver(t *testing.T) {
	hs := newHarness(10, 10)
	gate := &gatePresenter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	hs.sched.AddPresenter(gate)
	hs.src.set(types.Up)
	if err := hs.sched.Start(); err != nil {
		t.Fatal(err)
	}
	first := waitFrame(t, hs.pres)

	hs.sched.mu.Lock()
	hs.sched.session.Snake = entity.Snake{{X: 5, Y: 5}, {X: 4, Y: 5}, {X: 5, Y: 5}}
	hs.sched.session.Score = 2
	hs.sched.mu.Unlock()

	hs.clock.Advance(testInterval)
	select {
	case <-gate.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("game over never delivered")
	}

	started := make(chan error, 1)
	go func() { started <- hs.sched.Start() }()
	select {
	case <-started:
		t.Fatal("Start returned while the previous game over was still being delivered")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	if err := <-started; err != nil {
		t.Fatal(err)
	}
	defer hs.sched.Stop()

	events := gate.snapshot()
	if len(events) != 3 {
		t.Fatalf("events = %v", events)
	}
	old := first.SessionID
	if events[0] != "frame "+old || events[1] != "over "+old ||
		!strings.HasPrefix(events[2], "frame ") || events[2] == "frame "+old {
		t.Errorf("delivery order = %v", events)
	}
	<-hs.rec.called
}
