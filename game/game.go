package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"torus-snake/game/entity"
	"torus-snake/game/manager"
	"torus-snake/game/types"
)

// State is the lifecycle of a session
type State int

const (
	Idle State = iota
	Alive
	Dead
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Alive:
		return "alive"
	case Dead:
		return "dead"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "idle":
		*s = Idle
	case "alive":
		*s = Alive
	case "dead":
		*s = Dead
	default:
		return fmt.Errorf("unknown state %q", b)
	}
	return nil
}

// EndReason explains why a session left Alive
type EndReason string

const (
	ReasonSelfCollision EndReason = "self_collision"
	ReasonBoardCleared  EndReason = "board_cleared"
)

// Frame is the state handed to presenters after a live tick
type Frame struct {
	SessionID string        `json:"session"`
	Tick      uint64        `json:"tick"`
	Grid      types.Grid    `json:"grid"`
	Snake     []types.Point `json:"snake"`
	Fruit     types.Point   `json:"fruit"`
	Score     int           `json:"score"`
	State     State         `json:"state"`
	Ate       bool          `json:"ate"`
}

// Summary describes a finished session
type Summary struct {
	SessionID string        `json:"session"`
	Score     int           `json:"score"`
	Ticks     uint64        `json:"ticks"`
	Duration  time.Duration `json:"duration"`
	Reason    EndReason     `json:"reason"`
	EndedAt   time.Time     `json:"endedAt"`
}

// Session holds one playthrough. It is not safe for concurrent use; the
// Scheduler owns it.
type Session struct {
	ID        string
	Grid      types.Grid
	Snake     entity.Snake
	Fruit     types.Point
	State     State
	Score     int
	Ticks     uint64
	StartTime time.Time
	EndTime   time.Time

	food      *manager.FoodManager
	collision *manager.CollisionManager
}

// StepResult reports what a tick did
type StepResult struct {
	Outcome manager.Outcome
	Ended   bool
	Reason  EndReason
}

func NewSession(food *manager.FoodManager) *Session {
	grid := food.Grid()
	return &Session{
		Grid:      grid,
		State:     Idle,
		food:      food,
		collision: manager.NewCollisionManager(grid),
	}
}

// Reset starts a fresh playthrough: one random segment, food off the snake,
// score zero.
func (s *Session) Reset(now time.Time) error {
	snake := entity.NewSnake(s.food.RandomPosition())
	fruit, err := s.food.Respawn(snake)
	if err != nil {
		return fmt.Errorf("place initial food: %w", err)
	}

	s.ID = uuid.New().String()
	s.Snake = snake
	s.Fruit = fruit
	s.State = Alive
	s.Score = 0
	s.Ticks = 0
	s.StartTime = now
	s.EndTime = time.Time{}
	return nil
}

// Step advances the session by one tick. A fatal tick leaves Snake and Score
// exactly as they were before it.
func (s *Session) Step(dir types.Direction, now time.Time) StepResult {
	if s.State != Alive {
		return StepResult{Outcome: manager.Moved}
	}
	s.Ticks++

	next, outcome := s.collision.Step(s.Snake, s.Fruit, dir)
	if outcome == manager.SelfCollision {
		s.end(now)
		return StepResult{Outcome: outcome, Ended: true, Reason: ReasonSelfCollision}
	}

	s.Snake = next
	s.Score = next.Score()

	if entity.IsEating(next, s.Fruit) {
		fruit, err := s.food.Respawn(next)
		if errors.Is(err, manager.ErrBoardFull) {
			s.end(now)
			return StepResult{Outcome: outcome, Ended: true, Reason: ReasonBoardCleared}
		}
		s.Fruit = fruit
	}
	return StepResult{Outcome: outcome}
}

func (s *Session) end(now time.Time) {
	s.State = Dead
	s.EndTime = now
}

// Abandon drops an unfinished session without scoring it
func (s *Session) Abandon() {
	if s.State == Alive {
		s.State = Idle
	}
}

// Frame copies the session into a presenter-owned value
func (s *Session) Frame(ate bool) Frame {
	return Frame{
		SessionID: s.ID,
		Tick:      s.Ticks,
		Grid:      s.Grid,
		Snake:     s.Snake.Clone(),
		Fruit:     s.Fruit,
		Score:     s.Score,
		State:     s.State,
		Ate:       ate,
	}
}

func (s *Session) Summary(reason EndReason) Summary {
	return Summary{
		SessionID: s.ID,
		Score:     s.Score,
		Ticks:     s.Ticks,
		Duration:  s.EndTime.Sub(s.StartTime),
		Reason:    reason,
		EndedAt:   s.EndTime,
	}
}
