package input

import (
	"torus-snake/game"
	"torus-snake/game/types"
)

// Autopilot is a DirectionSource that steers greedily toward the fruit.
// It reads the board through snapshot on every tick.
type Autopilot struct {
	snapshot func() game.Frame
}

func NewAutopilot(snapshot func() game.Frame) *Autopilot {
	return &Autopilot{snapshot: snapshot}
}

func (a *Autopilot) Direction() types.Direction {
	return Steer(a.snapshot())
}

// Steer picks the move that gets closest to the fruit without entering a
// cell the body will still occupy after the move. Ties keep the current
// heading, then turn left, then right. With every move blocked it keeps
// the heading.
func Steer(f game.Frame) types.Direction {
	if len(f.Snake) == 0 {
		return types.None
	}
	head := f.Snake[0]
	heading := headingOf(f.Grid, f.Snake)

	candidates := []types.Direction{heading, heading.TurnLeft(), heading.TurnRight()}
	if heading == types.None {
		candidates = types.Directions[:]
	}

	best := types.None
	bestDist := -1
	for _, d := range candidates {
		next := f.Grid.Normalize(head.Add(d.Vector()))
		if blocked(f, next) {
			continue
		}
		dist := f.Grid.WrappedDistance(next, f.Fruit)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = d, dist
		}
	}
	if best == types.None {
		return heading
	}
	return best
}

// headingOf infers the last move from the first two segments
func headingOf(grid types.Grid, snake []types.Point) types.Direction {
	if len(snake) < 2 {
		return types.None
	}
	for _, d := range types.Directions {
		if grid.Normalize(snake[1].Add(d.Vector())) == snake[0] {
			return d
		}
	}
	return types.None
}

// blocked reports whether moving the head to p bites the body. The tail
// cell frees up unless the move eats.
func blocked(f game.Frame, p types.Point) bool {
	body := f.Snake
	if p != f.Fruit {
		body = body[:len(body)-1]
	}
	for _, s := range body {
		if s == p {
			return true
		}
	}
	return false
}
