package pong

// Params holds the physical constants of the table. Everything is measured
// in the unit square, speeds in units per second.
type Params struct {
	PaddleWidth      float64 `json:"paddleWidth" toml:"paddleWidth"`
	PaddleLength     float64 `json:"paddleLength" toml:"paddleLength"`
	PaddleX          float64 `json:"paddleX" toml:"paddleX"`
	BallRadius       float64 `json:"ballRadius" toml:"ballRadius"`
	PaddleSpeed      float64 `json:"paddleSpeed" toml:"paddleSpeed"`
	MaxVerticalSpeed float64 `json:"maxVerticalSpeed" toml:"maxVerticalSpeed"`
}

func DefaultParams() Params {
	return Params{
		PaddleWidth:      0.05,
		PaddleLength:     0.1,
		PaddleX:          0.1,
		BallRadius:       0.0125,
		PaddleSpeed:      0.35,
		MaxVerticalSpeed: 1,
	}
}

const (
	serveSpeedX  = 0.4
	serveSpeedY  = -0.2
	bounceJitter = 0.05
)

// Action is a paddle command for one frame.
type Action int

const (
	Down Action = iota // towards decreasing Y
	Hold
	Up // towards increasing Y
)

func (a Action) Valid() bool {
	return a >= Down && a <= Up
}

func (a Action) String() string {
	switch a {
	case Down:
		return "down"
	case Hold:
		return "hold"
	case Up:
		return "up"
	default:
		return "invalid"
	}
}

// GameState is the continuous state of one match. P1Y and P2Y are the top
// edges of the left and right paddles.
type GameState struct {
	BallX  float64
	BallY  float64
	BallVX float64
	BallVY float64
	P1Y    float64
	P2Y    float64
}

// PaddleY returns side's paddle position. Side 2 is the right paddle, any
// other side reads the left one, the same way Observation treats it.
func (s GameState) PaddleY(side int) float64 {
	if side == 2 {
		return s.P2Y
	}
	return s.P1Y
}

// Observation is the feature row a side's scorer sees. Side 1 gets the table
// mirrored horizontally so one set of weights plays either side.
func (s GameState) Observation(side int) []float64 {
	if side == 2 {
		return []float64{s.P2Y, s.BallX, s.BallY, s.BallVX, s.BallVY}
	}
	return []float64{s.P1Y, 1 - s.BallX, s.BallY, -s.BallVX, s.BallVY}
}
