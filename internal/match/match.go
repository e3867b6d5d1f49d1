// Package match drives one game: it asks both policies for an action every
// frame, steps the physics, and keeps score.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"nnpong/internal/policy"
	"nnpong/internal/pong"
	"nnpong/internal/wire"
)

type Options struct {
	// ScoreLimit ends the match when a side reaches it. Zero plays forever.
	ScoreLimit int
	// Observe collects per-layer activations from network policies into
	// every frame.
	Observe bool
}

// Match methods may be called from any goroutine, Tick holds the lock for
// the whole frame so swaps and resets land between frames.
type Match struct {
	ID      uuid.UUID
	mu      sync.Mutex
	engine  *pong.Engine
	players [2]policy.Policy
	score   [2]int
	winner  int
	seq     uint64
	opts    Options
}

func New(engine *pong.Engine, p1, p2 policy.Policy, opts Options) *Match {
	return &Match{
		ID:      uuid.New(),
		engine:  engine,
		players: [2]policy.Policy{p1, p2},
		opts:    opts,
	}
}

// SetPolicy replaces side's policy from the next frame on.
func (m *Match) SetPolicy(side int, p policy.Policy) error {
	if side != 1 && side != 2 {
		return fmt.Errorf("no side %d", side)
	}
	m.mu.Lock()
	m.players[side-1] = p
	m.mu.Unlock()
	slog.Debug("policy replaced", slog.String("match", m.ID.String()), slog.Int("side", side))
	return nil
}

func (m *Match) State() pong.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.State
}

func (m *Match) Score() [2]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

func (m *Match) ResetScore() {
	m.mu.Lock()
	m.score = [2]int{}
	m.winner = 0
	m.mu.Unlock()
}

// Winner is the side that reached the score limit, or 0.
func (m *Match) Winner() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.winner
}

func (m *Match) action(side int, state pong.GameState, frame *wire.Frame) (pong.Action, error) {
	p := m.players[side-1]
	if o, ok := p.(policy.Observable); ok && m.opts.Observe {
		return o.Act(state, func(layers [][]float64) {
			frame.Activations[side-1] = layers
		})
	}
	return p.Action(state)
}

// Tick plays one frame of dt seconds. A policy error aborts the frame
// before the table moves.
func (m *Match) Tick(dt float64) (wire.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame := wire.Frame{MatchID: m.ID.String()}
	if m.winner != 0 {
		return frame, fmt.Errorf("match %s is over, player %d won", m.ID, m.winner)
	}

	state := m.engine.State
	for side := 1; side <= 2; side++ {
		a, err := m.action(side, state, &frame)
		if err != nil {
			return frame, fmt.Errorf("player %d: %w", side, err)
		}
		frame.Actions[side-1] = a
	}

	m.engine.Step(dt, frame.Actions[0], frame.Actions[1], pong.Hooks{
		OnHit1: func() {
			frame.Hit[0] = true
			m.players[0].Reset()
		},
		OnHit2: func() {
			frame.Hit[1] = true
			m.players[1].Reset()
		},
		OnScore: func(side int) {
			frame.Scorer = side
			m.score[side-1]++
			slog.Debug("score", slog.String("match", m.ID.String()), slog.Int("side", side), slog.Any("score", m.score))
			if m.opts.ScoreLimit > 0 && m.score[side-1] >= m.opts.ScoreLimit {
				m.winner = side
			}
		},
	})

	m.seq++
	frame.Seq = m.seq
	frame.State = m.engine.State
	frame.Score = m.score
	frame.Winner = m.winner
	return frame, nil
}

// Run ticks the match on interval using the measured wall time between
// ticks as dt, sending every frame to out. It returns nil once a side wins,
// or the context's error when cancelled.
func (m *Match) Run(ctx context.Context, interval time.Duration, out chan<- wire.Frame) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("match started", slog.String("match", m.ID.String()))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			frame, err := m.Tick(dt)
			if err != nil {
				return err
			}

			select {
			case out <- frame:
			case <-ctx.Done():
				return ctx.Err()
			}

			if frame.Winner != 0 {
				slog.Info("match over", slog.String("match", m.ID.String()), slog.Int("winner", frame.Winner), slog.Any("score", frame.Score))
				return nil
			}
		}
	}
}
