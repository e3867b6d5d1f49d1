package match

import (
	"fmt"

	"nnpong/internal/config"
	"nnpong/internal/policy"
	"nnpong/internal/pong"
	"nnpong/internal/weights"
)

// NewPolicy builds the policy a config entry asks for. table may be nil when
// no side uses a network, input may be nil when no side is human.
func NewPolicy(side int, pc config.Player, params pong.Params, table *weights.Table, rng pong.Rand, input policy.InputSource) (policy.Policy, error) {
	switch pc.Kind {
	case config.KindHeuristic:
		return policy.NewHeuristic(side, params.PaddleLength, rng), nil
	case config.KindNetwork:
		if table == nil {
			return nil, fmt.Errorf("player %d: no weight table loaded", side)
		}
		ws, err := table.WeightSet(pc.WeightsID)
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", side, err)
		}
		return policy.NewNetworkFromWeights(side, ws), nil
	case config.KindHuman:
		if input == nil {
			return nil, fmt.Errorf("player %d: human player without an input source", side)
		}
		return policy.NewHuman(side, input), nil
	default:
		return nil, fmt.Errorf("player %d: unknown kind %q", side, pc.Kind)
	}
}

// NeedsWeights reports whether either player is a network.
func NeedsWeights(c config.Configuration) bool {
	return c.Player1.Kind == config.KindNetwork || c.Player2.Kind == config.KindNetwork
}

// NextKind is the policy kind after kind in the order heuristic, nn, human.
// nn is skipped when withNetwork is false.
func NextKind(kind string, withNetwork bool) string {
	switch kind {
	case config.KindHeuristic:
		if withNetwork {
			return config.KindNetwork
		}
		return config.KindHuman
	case config.KindNetwork:
		return config.KindHuman
	default:
		return config.KindHeuristic
	}
}
