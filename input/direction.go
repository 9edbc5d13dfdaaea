package input

import (
	"math"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"torus-snake/game/types"
)

// Holder stores the most recent direction. Writers and the tick loop may
// touch it from different goroutines.
type Holder struct {
	d atomic.Int32
}

func NewHolder() *Holder {
	return &Holder{}
}

// Direction implements game.DirectionSource
func (h *Holder) Direction() types.Direction {
	return types.Direction(h.d.Load())
}

// Set replaces the held direction; unknown values reset it to None
func (h *Holder) Set(d types.Direction) {
	if !d.Valid() {
		d = types.None
	}
	h.d.Store(int32(d))
}

// Key maps a key name onto the holder. Unknown keys leave it untouched.
func (h *Holder) Key(name string) bool {
	d, ok := KeyDirection(name)
	if !ok {
		log.Debug().Str("key", name).Msg("key ignored")
		return false
	}
	h.Set(d)
	return true
}

// Tilt maps device orientation angles onto the holder
func (h *Holder) Tilt(gamma, beta float64) {
	h.Set(TiltDirection(gamma, beta))
}

var keyDirections = map[string]types.Direction{
	"arrowup":    types.Up,
	"arrowright": types.Right,
	"arrowdown":  types.Down,
	"arrowleft":  types.Left,
	"up":         types.Up,
	"right":      types.Right,
	"down":       types.Down,
	"left":       types.Left,
	"w":          types.Up,
	"d":          types.Right,
	"s":          types.Down,
	"a":          types.Left,
	"k":          types.Up,
	"l":          types.Right,
	"j":          types.Down,
	"h":          types.Left,
}

// KeyDirection resolves arrow, wasd and hjkl key names
func KeyDirection(name string) (types.Direction, bool) {
	d, ok := keyDirections[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// TiltDirection picks the dominant axis of a device tilt. gamma is the
// left-to-right angle, beta front-to-back.
func TiltDirection(gamma, beta float64) types.Direction {
	if math.Abs(gamma) > math.Abs(beta) {
		if gamma > 0 {
			return types.Right
		}
		return types.Left
	}
	if beta > 0 {
		return types.Down
	}
	return types.Up
}
