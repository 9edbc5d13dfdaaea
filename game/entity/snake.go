package entity

import (
	"torus-snake/game/types"
)

// Snake is the ordered body, head first and tail last. The empty snake is the
// dead sentinel.
type Snake []types.Point

func NewSnake(startPos types.Point) Snake {
	return Snake{startPos}
}

// Head returns the first segment. It panics on a dead snake.
func (s Snake) Head() types.Point {
	return s[0]
}

// Score is the number of fruit eaten so far
func (s Snake) Score() int {
	if len(s) == 0 {
		return 0
	}
	return len(s) - 1
}

// Clone returns a copy that shares no backing array with s
func (s Snake) Clone() Snake {
	out := make(Snake, len(s))
	copy(out, s)
	return out
}

// IsDead reports whether s is the empty sentinel
func IsDead(s Snake) bool {
	return len(s) == 0
}

// IsEating reports whether target equals any of positions. It doubles as the
// head-on-fruit and head-on-body test.
func IsEating(positions []types.Point, target types.Point) bool {
	for _, p := range positions {
		if p == target {
			return true
		}
	}
	return false
}

// Advance computes the snake after one tick. The self-collision check runs on
// the pre-move body, so a head that already sits on its body returns the
// empty snake whatever the direction or fruit. Advance never modifies snake.
func Advance(grid types.Grid, snake Snake, fruit types.Point, dir types.Direction) Snake {
	if IsDead(snake) {
		return Snake{}
	}

	head := snake[0]
	if IsEating(snake[1:], head) {
		return Snake{}
	}

	newHead := grid.Normalize(head.Add(dir.Vector()))

	next := make(Snake, 0, len(snake)+1)
	next = append(next, newHead)
	next = append(next, snake...)

	// Remove old tail unless the new head lands on the fruit
	if newHead != fruit {
		next = next[:len(next)-1]
	}
	return next
}
