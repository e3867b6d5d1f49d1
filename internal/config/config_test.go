package config

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseJSON(t *testing.T) {
	path := write(t, "config.json", `{
		"logLevel": -4,
		"scoreLimit": 11,
		"physics": {"paddleLength": 0.2},
		"player1": {"kind": "nn", "weightsId": "gen42"}
	}`)
	c, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.LogLevel != -4 || c.ScoreLimit != 11 {
		t.Errorf("got %+v", c)
	}
	if c.Physics.PaddleLength != 0.2 || c.Physics.BallRadius != 0.0125 {
		t.Errorf("physics %+v, want defaults with paddleLength overridden", c.Physics)
	}
	if c.Player1.WeightsID != "gen42" || c.Player2.Kind != KindHeuristic {
		t.Errorf("players %+v %+v", c.Player1, c.Player2)
	}
	if c.TickRate != 64 {
		t.Errorf("tickRate %d, want default 64", c.TickRate)
	}
}

func TestParseTOML(t *testing.T) {
	path := write(t, "config.toml", `
listenAddr = "0.0.0.0:9000"
seed = 99

[physics]
paddleSpeed = 0.5

[player2]
kind = "human"
`)
	c, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.ListenAddr != "0.0.0.0:9000" || c.Seed != 99 {
		t.Errorf("got %+v", c)
	}
	if c.Physics.PaddleSpeed != 0.5 || c.Physics.PaddleX != 0.1 {
		t.Errorf("physics %+v", c.Physics)
	}
	if c.Player2.Kind != KindHuman {
		t.Errorf("player2 %+v", c.Player2)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown kind":    `{"player1": {"kind": "oracle"}}`,
		"nn without id":   `{"player2": {"kind": "nn"}}`,
		"zero tick rate":  `{"tickRate": 0}`,
		"huge paddle":     `{"physics": {"paddleLength": 1.5}}`,
		"not json at all": `logLevel: 3`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(write(t, "config.json", body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadConfigFallsBack(t *testing.T) {
	LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if Config != Default() {
		t.Errorf("Config = %+v, want defaults", Config)
	}
}
