package ui

import (
	"math"
	"sync"

	"torus-snake/game"
)

const (
	maxScores = 200 // scores kept for the history graph
)

// View is everything a renderer needs for one draw
type View struct {
	Frame   game.Frame
	Last    *game.Summary
	Scores  []int
	Best    int
	Games   int
	Average float64
	Version uint64
}

// Latest is a game.Presenter that keeps the most recent frame for render
// loops running on their own goroutine.
type Latest struct {
	mu      sync.Mutex
	view    View
	total   int
	version uint64
}

var _ game.Presenter = (*Latest)(nil)

func NewLatest() *Latest {
	return &Latest{}
}

// Seed preloads the score history and the all-time best, e.g. from a score
// store
func (l *Latest) Seed(history []int, best int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range history {
		l.record(s)
	}
	l.view.Best = max(l.view.Best, best)
}

func (l *Latest) Present(f game.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f.SessionID != l.view.Frame.SessionID {
		l.view.Last = nil
	}
	l.view.Frame = f
	l.version++
}

// GameOver ignores summaries of a session other than the one on screen
func (l *Latest) GameOver(s game.Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s.SessionID != l.view.Frame.SessionID {
		return
	}
	l.view.Last = &s
	l.view.Frame.State = game.Dead
	if s.Score > 0 {
		l.record(s.Score)
	}
	l.version++
}

// record must be called with mu held
func (l *Latest) record(score int) {
	l.view.Scores = append(l.view.Scores, score)
	if len(l.view.Scores) > maxScores {
		l.view.Scores = l.view.Scores[len(l.view.Scores)-maxScores:]
	}
	l.total += score
	l.view.Games++
	l.view.Best = max(l.view.Best, score)
	l.view.Average = float64(l.total) / float64(l.view.Games)
}

// View returns a copy safe to use without holding any lock
func (l *Latest) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := l.view
	v.Version = l.version
	v.Frame.Snake = append(v.Frame.Snake[:0:0], v.Frame.Snake...)
	v.Scores = append(v.Scores[:0:0], v.Scores...)
	if v.Last != nil {
		last := *v.Last
		v.Last = &last
	}
	return v
}

// Color is an 8-bit RGB triple shared by all renderers
type Color struct {
	R, G, B uint8
}

var (
	TileLight  = Color{0xff, 0xf9, 0xee}
	TileDark   = Color{0xfb, 0xf0, 0xdd}
	HeadColor  = Color{0x00, 0x80, 0x00}
	EyeColor   = Color{0x00, 0x00, 0x00}
	FruitColor = Color{0xff, 0x14, 0x93}
	TextColor  = Color{0x33, 0x33, 0x33}
)

// TileColor gives the checkerboard shade of a cell
func TileColor(x, y int) Color {
	if (x+y)%2 == 0 {
		return TileDark
	}
	return TileLight
}

// SegmentHue is the hue in degrees of body segment i, head being 0
func SegmentHue(i int) float64 {
	return float64((i*10 + 100) % 360)
}

// SegmentColor colours body segment i at full saturation and 30% lightness
func SegmentColor(i int) Color {
	return HSL(SegmentHue(i), 1, 0.3)
}

// HSL converts hue in degrees, saturation and lightness in [0,1] to RGB
func HSL(h, s, l float64) Color {
	c := (1 - math.Abs(2*l-1)) * s
	hp := math.Mod(h, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	to8 := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return Color{to8(r), to8(g), to8(b)}
}
