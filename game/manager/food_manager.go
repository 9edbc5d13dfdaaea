package manager

import (
	"errors"
	"time"

	"golang.org/x/exp/rand"

	"torus-snake/game/entity"
	"torus-snake/game/types"
)

// MaxSpawnDraws bounds rejection sampling before falling back to a scan of the
// free cells
const MaxSpawnDraws = 64

var ErrBoardFull = errors.New("no free cell left for food")

type FoodManager struct {
	grid types.Grid
	rng  *rand.Rand
}

// NewFoodManager uses a seeded source so sessions can be replayed; seed 0
// seeds from the clock.
func NewFoodManager(grid types.Grid, seed uint64) *FoodManager {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &FoodManager{
		grid: grid,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (fm *FoodManager) Grid() types.Grid {
	return fm.grid
}

func (fm *FoodManager) intn(n int) int {
	return fm.rng.Intn(n)
}

// RandomPosition draws x and y independently and uniformly. It is also used
// for the first snake segment.
func (fm *FoodManager) RandomPosition() types.Point {
	return types.Point{
		X: fm.intn(fm.grid.Width),
		Y: fm.intn(fm.grid.Height),
	}
}

// Respawn places food on a cell not covered by the snake. Uniform over the
// free cells in both the sampling and the fallback path.
func (fm *FoodManager) Respawn(snake entity.Snake) (types.Point, error) {
	for i := 0; i < MaxSpawnDraws; i++ {
		food := fm.RandomPosition()
		if !entity.IsEating(snake, food) {
			return food, nil
		}
	}

	occupied := make(map[types.Point]struct{}, len(snake))
	for _, p := range snake {
		occupied[p] = struct{}{}
	}
	free := make([]types.Point, 0, fm.grid.Cells()-len(occupied))
	for y := 0; y < fm.grid.Height; y++ {
		for x := 0; x < fm.grid.Width; x++ {
			p := types.Point{X: x, Y: y}
			if _, ok := occupied[p]; !ok {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		return types.Point{}, ErrBoardFull
	}
	return free[fm.intn(len(free))], nil
}
