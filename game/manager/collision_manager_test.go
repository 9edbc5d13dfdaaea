package manager

import (
	"testing"

	"torus-snake/game/entity"
	"torus-snake/game/types"
)

func TestCollisionManagerStep(t *testing.T) {
	cm := NewCollisionManager(types.Grid{Width: 10, Height: 10})

	tests := []struct {
		name  string
		snake entity.Snake
		food  types.Point
		dir   types.Direction
		want  Outcome
		len   int
	}{
		{"moved", entity.Snake{{X: 2, Y: 2}}, types.Point{X: 4, Y: 4}, types.Right, Moved, 1},
		{"grew", entity.Snake{{X: 3, Y: 4}, {X: 2, Y: 4}}, types.Point{X: 4, Y: 4}, types.Right, Grew, 3},
		{"bitten", entity.Snake{{X: 5, Y: 5}, {X: 4, Y: 5}, {X: 5, Y: 5}}, types.Point{X: 1, Y: 1}, types.Up, SelfCollision, 0},
		{"idle", entity.Snake{{X: 0, Y: 0}}, types.Point{X: 1, Y: 1}, types.None, Moved, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, got := cm.Step(tt.snake, tt.food, tt.dir)
			if got != tt.want {
				t.Errorf("outcome = %v, want %v", got, tt.want)
			}
			if len(next) != tt.len {
				t.Errorf("len = %d, want %d", len(next), tt.len)
			}
		})
	}
}
