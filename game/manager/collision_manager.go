package manager

import (
	"torus-snake/game/entity"
	"torus-snake/game/types"
)

// Outcome classifies what a single tick did to the snake
type Outcome int

const (
	Moved Outcome = iota
	Grew
	SelfCollision
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Grew:
		return "grew"
	case SelfCollision:
		return "self_collision"
	default:
		return "unknown"
	}
}

type CollisionManager struct {
	grid types.Grid
}

func NewCollisionManager(grid types.Grid) *CollisionManager {
	return &CollisionManager{
		grid: grid,
	}
}

// Step runs the transition and classifies its result
func (cm *CollisionManager) Step(snake entity.Snake, food types.Point, dir types.Direction) (entity.Snake, Outcome) {
	next := entity.Advance(cm.grid, snake, food, dir)
	return next, cm.Resolve(snake, next, food)
}

// Resolve compares the snake before and after a tick
func (cm *CollisionManager) Resolve(prev, next entity.Snake, food types.Point) Outcome {
	if entity.IsDead(next) {
		return SelfCollision
	}
	if len(next) > len(prev) || entity.IsEating(next, food) {
		return Grew
	}
	return Moved
}
