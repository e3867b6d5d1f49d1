package match

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/exp/rand"

	"nnpong/internal/config"
	"nnpong/internal/nn"
	"nnpong/internal/policy"
	"nnpong/internal/pong"
	"nnpong/internal/weights"
	"nnpong/internal/wire"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

type scripted struct {
	action pong.Action
	err    error
	resets int
}

func (s *scripted) Action(pong.GameState) (pong.Action, error) { return s.action, s.err }
func (s *scripted) Reset()                                     { s.resets++ }

func TestTickHitResetsHitter(t *testing.T) {
	e := pong.NewEngine(pong.DefaultParams(), fixedRand(0))
	e.State = pong.GameState{BallX: 0.12, BallY: 0.55, BallVX: -0.4, P1Y: 0.5, P2Y: 0.5}
	p1, p2 := &scripted{action: pong.Hold}, &scripted{action: pong.Up}
	m := New(e, p1, p2, Options{})

	frame, err := m.Tick(0.05)
	if err != nil {
		t.Fatal(err)
	}
	if !frame.Hit[0] || frame.Hit[1] {
		t.Errorf("hits %v, want [true false]", frame.Hit)
	}
	if p1.resets != 1 || p2.resets != 0 {
		t.Errorf("resets %d/%d, want 1/0", p1.resets, p2.resets)
	}
	if frame.Actions != [2]pong.Action{pong.Hold, pong.Up} {
		t.Errorf("actions %v", frame.Actions)
	}
	if frame.Seq != 1 || frame.MatchID != m.ID.String() {
		t.Errorf("frame header %d %q", frame.Seq, frame.MatchID)
	}
	if frame.State != m.State() {
		t.Errorf("frame state %+v differs from match state %+v", frame.State, m.State())
	}
}

func TestTickScoreAndLimit(t *testing.T) {
	e := pong.NewEngine(pong.DefaultParams(), fixedRand(0.9))
	p1, p2 := &scripted{action: pong.Hold}, &scripted{action: pong.Hold}
	m := New(e, p1, p2, Options{ScoreLimit: 2})

	for i := 1; i <= 2; i++ {
		e.State = pong.GameState{BallX: 0.99, BallY: 0.5, BallVX: 0.4, P1Y: 0.5, P2Y: 0.5}
		frame, err := m.Tick(0.1)
		if err != nil {
			t.Fatal(err)
		}
		if frame.Scorer != 1 || frame.Score != [2]int{i, 0} {
			t.Fatalf("tick %d: scorer %d score %v", i, frame.Scorer, frame.Score)
		}
		if p1.resets != 0 {
			t.Fatal("scoring reset a policy")
		}
		if i == 2 && frame.Winner != 1 {
			t.Errorf("winner %d, want 1", frame.Winner)
		}
	}

	if _, err := m.Tick(0.01); err == nil {
		t.Error("ticking a finished match succeeded")
	}
	m.ResetScore()
	if m.Score() != [2]int{} || m.Winner() != 0 {
		t.Errorf("reset left score %v winner %d", m.Score(), m.Winner())
	}
}

func TestTickPolicyError(t *testing.T) {
	e := pong.NewEngine(pong.DefaultParams(), fixedRand(0))
	before := e.State
	boom := errors.New("boom")
	m := New(e, &scripted{}, &scripted{err: boom}, Options{})
	if _, err := m.Tick(0.1); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if e.State != before {
		t.Error("state moved after a policy error")
	}
}

func TestSetPolicy(t *testing.T) {
	e := pong.NewEngine(pong.DefaultParams(), fixedRand(0))
	m := New(e, &scripted{action: pong.Hold}, &scripted{action: pong.Hold}, Options{})
	if err := m.SetPolicy(2, &scripted{action: pong.Down}); err != nil {
		t.Fatal(err)
	}
	frame, err := m.Tick(0.01)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Actions[1] != pong.Down {
		t.Errorf("action %v after swap, want down", frame.Actions[1])
	}
	if err := m.SetPolicy(3, &scripted{}); err == nil {
		t.Error("side 3 accepted")
	}
}

func TestTickObserve(t *testing.T) {
	net, err := policy.NewNetwork(2, make([]float64, nn.ParamCount(nn.Topology)))
	if err != nil {
		t.Fatal(err)
	}
	e := pong.NewEngine(pong.DefaultParams(), fixedRand(0))

	m := New(e, &scripted{action: pong.Hold}, net, Options{Observe: true})
	frame, err := m.Tick(0.01)
	if err != nil {
		t.Fatal(err)
	}
	if len(frame.Activations[0]) != 0 || len(frame.Activations[1]) != 3 {
		t.Errorf("activations %d/%d layers, want 0/3", len(frame.Activations[0]), len(frame.Activations[1]))
	}

	m = New(e, &scripted{action: pong.Hold}, net, Options{})
	frame, _ = m.Tick(0.01)
	if len(frame.Activations[1]) != 0 {
		t.Error("activations collected without Observe")
	}
}

func TestRun(t *testing.T) {
	e := pong.NewEngine(pong.DefaultParams(), rand.New(rand.NewSource(1)))
	h1 := policy.NewHeuristic(1, 0.1, rand.New(rand.NewSource(2)))
	h2 := policy.NewHeuristic(2, 0.1, rand.New(rand.NewSource(3)))
	m := New(e, h1, h2, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan wire.Frame)
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond, out) }()

	var last uint64
	for i := 0; i < 5; i++ {
		f := <-out
		if f.Seq != last+1 {
			t.Fatalf("frame seq %d after %d", f.Seq, last)
		}
		last = f.Seq
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestSwapAndResetWhileRunning(t *testing.T) {
	e := pong.NewEngine(pong.DefaultParams(), fixedRand(0.9))
	m := New(e, &scripted{action: pong.Hold}, &scripted{action: pong.Hold}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan wire.Frame)
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond, out) }()

	<-out
	if err := m.SetPolicy(1, &scripted{action: pong.Up}); err != nil {
		t.Fatal(err)
	}
	m.ResetScore()

	// the swap lands on the next frame at the latest
	var f wire.Frame
	for i := 0; i < 3; i++ {
		f = <-out
	}
	if f.Actions[0] != pong.Up {
		t.Errorf("action %v after swap, want up", f.Actions[0])
	}
	cancel()
	<-done
}

func TestNextKind(t *testing.T) {
	cases := []struct {
		kind    string
		network bool
		want    string
	}{
		{config.KindHeuristic, true, config.KindNetwork},
		{config.KindHeuristic, false, config.KindHuman},
		{config.KindNetwork, true, config.KindHuman},
		{config.KindHuman, true, config.KindHeuristic},
		{"", false, config.KindHeuristic},
	}
	for _, c := range cases {
		if got := NextKind(c.kind, c.network); got != c.want {
			t.Errorf("NextKind(%q, %v) = %q, want %q", c.kind, c.network, got, c.want)
		}
	}
}

func TestNewPolicy(t *testing.T) {
	params := pong.DefaultParams()
	tbl, err := weights.Decode(strings.NewReader(`{"w": [[` + strings.TrimSuffix(strings.Repeat("0,", 203), ",") + `]]}`))
	if err != nil {
		t.Fatal(err)
	}

	p, err := NewPolicy(1, config.Player{Kind: config.KindHeuristic}, params, nil, fixedRand(0.5), nil)
	if _, ok := p.(*policy.Heuristic); !ok || err != nil {
		t.Errorf("heuristic: %T %v", p, err)
	}
	p, err = NewPolicy(2, config.Player{Kind: config.KindNetwork, WeightsID: "w"}, params, tbl, nil, nil)
	if _, ok := p.(*policy.Network); !ok || err != nil {
		t.Errorf("network: %T %v", p, err)
	}
	if _, err = NewPolicy(2, config.Player{Kind: config.KindNetwork, WeightsID: "nope"}, params, tbl, nil, nil); !errors.Is(err, weights.ErrUnknownID) {
		t.Errorf("unknown id: %v", err)
	}
	if _, err = NewPolicy(2, config.Player{Kind: config.KindNetwork, WeightsID: "w"}, params, nil, nil, nil); err == nil {
		t.Error("network without table accepted")
	}
	if _, err = NewPolicy(1, config.Player{Kind: config.KindHuman}, params, nil, nil, nil); err == nil {
		t.Error("human without input accepted")
	}
	if _, err = NewPolicy(1, config.Player{Kind: "oracle"}, params, nil, nil, nil); err == nil {
		t.Error("unknown kind accepted")
	}
}
