// Package policy holds the paddle controllers. Each side of a match owns one
// Policy and the match may swap it between frames.
package policy

import (
	"fmt"

	"nnpong/internal/matrix"
	"nnpong/internal/nn"
	"nnpong/internal/pong"
)

type Policy interface {
	Action(state pong.GameState) (pong.Action, error)
	// Reset is called after this side hits the ball.
	Reset()
}

// Observable policies can report their per-layer activations for a frame.
type Observable interface {
	Act(state pong.GameState, observe nn.Observer) (pong.Action, error)
}

// Heuristic chases the ball with a per-life aiming error: it lines up the
// paddle centre plus bias with the ball, so it over or undershoots by up to
// half a paddle.
type Heuristic struct {
	side   int
	length float64
	bias   float64
	rng    pong.Rand
}

func NewHeuristic(side int, paddleLength float64, rng pong.Rand) *Heuristic {
	h := &Heuristic{side: side, length: paddleLength, rng: rng}
	h.Reset()
	return h
}

func (h *Heuristic) Reset() {
	h.bias = (h.rng.Float64() - 0.5) * h.length
}

func (h *Heuristic) Bias() float64 {
	return h.bias
}

// Action never holds, the paddle is always moving.
func (h *Heuristic) Action(state pong.GameState) (pong.Action, error) {
	if state.PaddleY(h.side)+h.length/2+h.bias > state.BallY {
		return pong.Down, nil
	}
	return pong.Up, nil
}

// Network scores the three actions with a pre-trained feed-forward net.
type Network struct {
	side    int
	weights *nn.WeightSet
}

// NewNetwork builds a scorer from a flat weight vector laid out for nn.Topology.
func NewNetwork(side int, flat []float64) (*Network, error) {
	ws, err := nn.NewWeightSet(nn.Topology, flat)
	if err != nil {
		return nil, err
	}
	return NewNetworkFromWeights(side, ws), nil
}

// NewNetworkFromWeights shares ws, which is never written after construction.
func NewNetworkFromWeights(side int, ws *nn.WeightSet) *Network {
	return &Network{side: side, weights: ws}
}

func (n *Network) Action(state pong.GameState) (pong.Action, error) {
	return n.Act(state, nil)
}

func (n *Network) Act(state pong.GameState, observe nn.Observer) (pong.Action, error) {
	in, err := matrix.New(state.Observation(n.side), 1, 5)
	if err != nil {
		return pong.Hold, err
	}
	idx, err := n.weights.Forward(in, observe)
	if err != nil {
		return pong.Hold, fmt.Errorf("side %d forward pass: %w", n.side, err)
	}
	return pong.Action(idx), nil
}

func (n *Network) Reset() {}

// InputSource is whatever collects player input, a keyboard in the client.
type InputSource interface {
	Held(side int) pong.Action
}

// Human passes the input collector's current action straight through.
type Human struct {
	side  int
	input InputSource
}

func NewHuman(side int, input InputSource) *Human {
	return &Human{side: side, input: input}
}

func (h *Human) Action(pong.GameState) (pong.Action, error) {
	a := h.input.Held(h.side)
	if !a.Valid() {
		return pong.Hold, fmt.Errorf("side %d input produced action %d", h.side, a)
	}
	return a, nil
}

func (h *Human) Reset() {}
