package ui

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"torus-snake/game"
	"torus-snake/game/types"
)

func newSimTerminal(t *testing.T, ctl Controls) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	if err := sim.Init(); err != nil {
		t.Fatal(err)
	}
	sim.SetSize(40, 20)
	t.Cleanup(sim.Fini)
	return newTerminal(sim, types.Grid{Width: 10, Height: 10}, ctl), sim
}

func TestTerminalDrawsBoard(t *testing.T) {
	term, sim := newSimTerminal(t, Controls{})
	term.draw(View{Frame: game.Frame{
		SessionID: "s",
		Snake:     []types.Point{{X: 3, Y: 2}, {X: 2, Y: 2}},
		Fruit:     types.Point{X: 7, Y: 5},
		Score:     1,
		State:     game.Alive,
	}})

	if r, _, _, _ := sim.GetContent(6, 2); r != '•' {
		t.Errorf("head cell = %q", r)
	}
	if r, _, _, _ := sim.GetContent(14, 5); r != '(' {
		t.Errorf("fruit cell = %q", r)
	}
	if r, _, _, _ := sim.GetContent(0, 11); r != 'S' {
		t.Errorf("score line starts with %q", r)
	}
}

func TestTerminalKeys(t *testing.T) {
	var steered []string
	starts := 0
	state := game.Idle
	term, _ := newSimTerminal(t, Controls{
		Steer: func(k string) bool { steered = append(steered, k); return true },
		Start: func() error { starts++; state = game.Alive; return nil },
		View:  func() View { return View{Frame: game.Frame{State: state}} },
	})

	if !term.handle(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone)) {
		t.Fatal("arrow key ended the loop")
	}
	term.handle(tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone))
	if len(steered) != 2 || steered[0] != "ArrowLeft" || steered[1] != "j" {
		t.Errorf("steered = %v", steered)
	}

	term.handle(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	term.handle(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	if starts != 1 {
		t.Errorf("starts = %d, want 1 (second press while alive)", starts)
	}

	if term.handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("q did not quit")
	}
	if term.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("escape did not quit")
	}
}
