package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"torus-snake/game"
	"torus-snake/game/types"
)

// Controls connects a front end to the running game
type Controls struct {
	Steer func(key string) bool
	Start func() error
	View  func() View
}

// Terminal draws the board with two character cells per tile
type Terminal struct {
	screen tcell.Screen
	grid   types.Grid
	ctl    Controls
}

func NewTerminal(grid types.Grid, ctl Controls) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return newTerminal(screen, grid, ctl), nil
}

func newTerminal(screen tcell.Screen, grid types.Grid, ctl Controls) *Terminal {
	screen.HideCursor()
	return &Terminal{screen: screen, grid: grid, ctl: ctl}
}

func style(fg, bg Color) tcell.Style {
	return tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(int32(fg.R), int32(fg.G), int32(fg.B))).
		Background(tcell.NewRGBColor(int32(bg.R), int32(bg.G), int32(bg.B)))
}

// Run redraws at about 30 fps and handles keys until q, Escape, Ctrl-C or
// ctx is cancelled.
func (t *Terminal) Run(ctx context.Context) {
	defer t.screen.Fini()

	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	var drawn uint64
	t.draw(t.ctl.View())
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if !t.handle(ev) {
				return
			}
		case <-ticker.C:
			v := t.ctl.View()
			if v.Version != drawn {
				t.draw(v)
				drawn = v.Version
			}
		}
	}
}

// handle reports whether the loop should continue
func (t *Terminal) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			t.start()
			return true
		case tcell.KeyUp:
			t.ctl.Steer("ArrowUp")
		case tcell.KeyDown:
			t.ctl.Steer("ArrowDown")
		case tcell.KeyLeft:
			t.ctl.Steer("ArrowLeft")
		case tcell.KeyRight:
			t.ctl.Steer("ArrowRight")
		case tcell.KeyRune:
			switch r := ev.Rune(); r {
			case 'q':
				return false
			case ' ':
				t.start()
			default:
				t.ctl.Steer(string(r))
			}
		}
	case *tcell.EventResize:
		t.screen.Sync()
		t.draw(t.ctl.View())
	}
	return true
}

func (t *Terminal) start() {
	if t.ctl.View().Frame.State == game.Alive {
		return
	}
	if err := t.ctl.Start(); err != nil {
		log.Error().Err(err).Msg("start session")
	}
}

func (t *Terminal) draw(v View) {
	t.screen.Clear()

	for x := 0; x < t.grid.Width; x++ {
		for y := 0; y < t.grid.Height; y++ {
			bg := TileColor(x, y)
			t.put(types.Point{X: x, Y: y}, "  ", style(bg, bg))
		}
	}

	if v.Frame.SessionID != "" {
		bg := TileColor(v.Frame.Fruit.X, v.Frame.Fruit.Y)
		t.put(v.Frame.Fruit, "()", style(FruitColor, bg))
		for i := len(v.Frame.Snake) - 1; i > 0; i-- {
			seg := SegmentColor(i)
			t.put(v.Frame.Snake[i], "  ", style(seg, seg))
		}
		if len(v.Frame.Snake) > 0 {
			t.put(v.Frame.Snake[0], "••", style(EyeColor, HeadColor))
		}
	}

	plain := tcell.StyleDefault
	row := t.grid.Height + 1
	t.text(0, row, fmt.Sprintf("Score: %d   Best: %d   Games: %d", v.Frame.Score, v.Best, v.Games), plain)
	if v.Frame.State != game.Alive {
		row++
		if v.Last != nil {
			t.text(0, row, fmt.Sprintf("Game over! Score %d", v.Last.Score), plain.Bold(true))
			row++
		}
		t.text(0, row, "Play Snake: Space or Enter to start, q to quit", plain)
	}
	t.screen.Show()
}

func (t *Terminal) put(p types.Point, s string, st tcell.Style) {
	for i, r := range []rune(s) {
		t.screen.SetContent(p.X*2+i, p.Y, r, nil, st)
	}
}

func (t *Terminal) text(x, y int, s string, st tcell.Style) {
	for i, r := range []rune(s) {
		t.screen.SetContent(x+i, y, r, nil, st)
	}
}
