package pong

import (
	"log/slog"
	"math"
)

// Rand is the random source the engine draws serve directions and bounce
// jitter from. *rand.Rand from golang.org/x/exp/rand satisfies it.
type Rand interface {
	Float64() float64
}

// Hooks are invoked synchronously from Step. Any of them may be nil.
type Hooks struct {
	OnHit1  func()
	OnHit2  func()
	OnScore func(side int)
}

type Engine struct {
	State  GameState
	params Params
	rng    Rand
}

func NewEngine(params Params, rng Rand) *Engine {
	e := &Engine{params: params, rng: rng}
	e.Serve(0)
	return e
}

func (e *Engine) Params() Params {
	return e.params
}

// Serve puts the ball back in the middle heading towards player (1 or 2).
// Any other value picks a direction at random.
func (e *Engine) Serve(player int) {
	var direction float64
	switch player {
	case 1:
		direction = -1
	case 2:
		direction = 1
	default:
		direction = math.Floor(e.rng.Float64()*2)*2 - 1
	}

	e.State = GameState{
		BallX:  0.5,
		BallY:  0.5,
		BallVX: serveSpeedX * direction,
		BallVY: serveSpeedY,
		P1Y:    0.5,
		P2Y:    0.5,
	}
	slog.Debug("serve", slog.Int("player", player), slog.Float64("vx", e.State.BallVX))
}

// MirrorMod folds a onto [0, b] as if the axis were mirrored at 0 and b.
// The sign is -1 when the fold reversed direction.
func MirrorMod(a, b float64) (float64, float64) {
	c := math.Mod(a, 2*b)
	if c < 0 {
		c += 2 * b
	}
	if c < b {
		return c, 1
	}
	return 2*b - c, -1
}

// Step advances the table by dt seconds. Paddles move first, then the ball
// travels in a straight line, bounces off the walls, and is tested against
// the left and then the right paddle plane.
func (e *Engine) Step(dt float64, action1, action2 Action, hooks Hooks) {
	p := e.params
	s := &e.State

	s.P1Y += dt * p.PaddleSpeed * float64(action1-1)
	s.P2Y += dt * p.PaddleSpeed * float64(action2-1)
	s.P1Y = math.Min(1-p.PaddleLength, math.Max(0, s.P1Y))
	s.P2Y = math.Min(1-p.PaddleLength, math.Max(0, s.P2Y))

	prevX, prevY := s.BallX, s.BallY
	s.BallX += s.BallVX * dt
	s.BallY += s.BallVY * dt

	var flipY float64
	s.BallY, flipY = MirrorMod(s.BallY-p.BallRadius, 1-2*p.BallRadius)
	s.BallY += p.BallRadius
	s.BallVY *= flipY

	if prevX != s.BallX {
		plane := p.PaddleX + p.BallRadius
		contactY := (prevY-s.BallY)/(prevX-s.BallX)*(plane-s.BallX) + s.BallY - s.P1Y
		if prevX > plane && plane > s.BallX && e.inReach(contactY) {
			e.bounce(plane, contactY)
			slog.Debug("paddle hit", slog.Int("side", 1), slog.Float64("contact", contactY))
			if hooks.OnHit1 != nil {
				hooks.OnHit1()
			}
		}

		plane = 1 - p.PaddleX - p.BallRadius
		// Recomputed from the possibly reflected position of the left check.
		contactY = (prevY-s.BallY)/(prevX-s.BallX)*(plane-s.BallX) + s.BallY - s.P2Y
		if prevX < plane && plane < s.BallX && e.inReach(contactY) {
			e.bounce(plane, contactY)
			slog.Debug("paddle hit", slog.Int("side", 2), slog.Float64("contact", contactY))
			if hooks.OnHit2 != nil {
				hooks.OnHit2()
			}
		}
	}

	if s.BallX < 0 {
		e.score(2, hooks)
	} else if s.BallX > 1 {
		e.score(1, hooks)
	}
}

func (e *Engine) inReach(contactY float64) bool {
	r := e.params.BallRadius
	return -r <= contactY && contactY <= e.params.PaddleLength+r
}

// bounce reflects the ball about the paddle plane at x and sets the vertical
// speed from where along the paddle it landed.
func (e *Engine) bounce(x, contactY float64) {
	p := e.params
	s := &e.State
	s.BallX = 2*x - s.BallX
	s.BallVX *= -1
	offset := contactY / (p.PaddleLength + 2*p.BallRadius)
	s.BallVY = math.Abs(s.BallVX) * (offset - 0.5 + bounceJitter*e.rng.Float64()) / 0.5 * p.MaxVerticalSpeed
}

func (e *Engine) score(side int, hooks Hooks) {
	slog.Debug("point scored", slog.Int("side", side))
	if hooks.OnScore != nil {
		hooks.OnScore(side)
	}
	e.Serve(0)
}
