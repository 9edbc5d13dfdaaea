package types

import (
	"errors"
	"fmt"
	"strings"
)

// Grid represents the game grid dimensions
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Point is a grid cell (column X, row Y). Rows grow downward.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Game constants
const (
	DefaultWidth  = 10
	DefaultHeight = 10
)

var ErrInvalidGrid = errors.New("invalid grid")

// Validate rejects grids that cannot act as a modulus.
func (g Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGrid, g.Width, g.Height)
	}
	return nil
}

// Cells returns the number of cells on the board
func (g Grid) Cells() int {
	return g.Width * g.Height
}

// Contains reports whether p is already normalized onto the grid
func (g Grid) Contains(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Normalize maps any integer pair onto the torus: leaving one edge re-enters
// at the opposite one.
func (g Grid) Normalize(p Point) Point {
	return Point{X: mod(p.X, g.Width), Y: mod(p.Y, g.Height)}
}

func mod(n, m int) int {
	return ((n % m) + m) % m
}

// Add returns the component-wise sum of two points
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is a requested movement, None until the first input arrives
type Direction int

const (
	None Direction = iota
	Up
	Right
	Down
	Left
)

var directionNames = [...]string{"none", "up", "right", "down", "left"}

// Valid reports whether d is one of the five known directions
func (d Direction) Valid() bool {
	return d >= None && d <= Left
}

// Vector converts a Direction into a unit displacement
func (d Direction) Vector() Point {
	switch d {
	case Up:
		return Point{X: 0, Y: -1}
	case Right:
		return Point{X: 1, Y: 0}
	case Down:
		return Point{X: 0, Y: 1}
	case Left:
		return Point{X: -1, Y: 0}
	default:
		return Point{X: 0, Y: 0}
	}
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection accepts the names produced by String, case-insensitively
func ParseDirection(s string) (Direction, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range directionNames {
		if n == name {
			return Direction(i), nil
		}
	}
	return None, fmt.Errorf("unknown direction %q", s)
}

// Directions lists the four moving directions in clockwise order
var Directions = [4]Direction{Up, Right, Down, Left}

// TurnLeft rotates a quarter turn counter-clockwise
func (d Direction) TurnLeft() Direction {
	switch d {
	case Up:
		return Left
	case Right:
		return Up
	case Down:
		return Right
	case Left:
		return Down
	default:
		return d
	}
}

// TurnRight rotates a quarter turn clockwise
func (d Direction) TurnRight() Direction {
	switch d {
	case Up:
		return Right
	case Right:
		return Down
	case Down:
		return Left
	case Left:
		return Up
	default:
		return d
	}
}

// WrappedDistance is the Manhattan distance between two cells on the torus
func (g Grid) WrappedDistance(a, b Point) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	return min(dx, g.Width-dx) + min(dy, g.Height-dy)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
