package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"nnpong/internal/pong"
)

var Config = Default()

const (
	KindHeuristic = "heuristic"
	KindNetwork   = "nn"
	KindHuman     = "human"
)

type Player struct {
	Kind      string `json:"kind" toml:"kind"`
	WeightsID string `json:"weightsId" toml:"weightsId"`
}

type Configuration struct {
	LogLevel    int         `json:"logLevel" toml:"logLevel"`
	ListenAddr  string      `json:"listenAddr" toml:"listenAddr"`
	TickRate    int         `json:"tickRate" toml:"tickRate"`
	ScoreLimit  int         `json:"scoreLimit" toml:"scoreLimit"`
	Seed        uint64      `json:"seed" toml:"seed"`
	WeightsPath string      `json:"weightsPath" toml:"weightsPath"`
	Physics     pong.Params `json:"physics" toml:"physics"`
	Player1     Player      `json:"player1" toml:"player1"`
	Player2     Player      `json:"player2" toml:"player2"`
}

func Default() Configuration {
	return Configuration{
		LogLevel:    int(slog.LevelInfo),
		ListenAddr:  "127.0.0.1:42069",
		TickRate:    64,
		WeightsPath: "weights.json",
		Physics:     pong.DefaultParams(),
		Player1:     Player{Kind: KindHeuristic},
		Player2:     Player{Kind: KindHeuristic},
	}
}

// Parse reads a configuration file on top of the defaults. Files ending in
// .toml are TOML, anything else is JSON.
func Parse(path string) (Configuration, error) {
	c := Default()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, &c); err != nil {
			return Default(), fmt.Errorf("reading %s: %w", path, err)
		}
	} else {
		cf, err := os.ReadFile(path)
		if err != nil {
			return Default(), err
		}
		if err := json.Unmarshal(cf, &c); err != nil {
			return Default(), fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if err := c.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c Configuration) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tickRate must be positive, got %d", c.TickRate)
	}
	if c.ScoreLimit < 0 {
		return fmt.Errorf("scoreLimit must not be negative, got %d", c.ScoreLimit)
	}
	p := c.Physics
	if p.PaddleLength <= 0 || p.PaddleLength >= 1 {
		return fmt.Errorf("physics.paddleLength must be in (0, 1), got %v", p.PaddleLength)
	}
	if p.BallRadius <= 0 || p.BallRadius >= 0.5 {
		return fmt.Errorf("physics.ballRadius must be in (0, 0.5), got %v", p.BallRadius)
	}
	for i, pl := range []Player{c.Player1, c.Player2} {
		switch pl.Kind {
		case KindHeuristic, KindHuman:
		case KindNetwork:
			if pl.WeightsID == "" {
				return fmt.Errorf("player%d: kind %q needs a weightsId", i+1, pl.Kind)
			}
		default:
			return fmt.Errorf("player%d: unknown kind %q", i+1, pl.Kind)
		}
	}
	return nil
}

// LoadConfig sets Config from path, or config.json when path is empty. On
// any failure the defaults are kept.
func LoadConfig(path string) {
	if path == "" {
		path = "config.json"
	}

	c, err := Parse(path)
	if err != nil {
		slog.Info("failed to read configuration, using default config instead...", slog.Any("error", err))
	}

	Config = c
}
