package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/exp/rand"

	"nnpong/internal/config"
	"nnpong/internal/lobby"
	"nnpong/internal/match"
	"nnpong/internal/pong"
	"nnpong/internal/weights"
	"nnpong/internal/wire"
)

func main() {
	if len(os.Args) == 1 {
		config.LoadConfig("")
	} else {
		config.LoadConfig(os.Args[1])
	}
	c := config.Config

	slog.SetLogLoggerLevel(slog.Level(c.LogLevel))
	fmt.Println("Starting nnpong server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l := lobby.CreateLobby()
	go func() {
		if err := l.Listen(ctx, c.ListenAddr); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal(err)
		}
	}()

	if err := serve(ctx, c, l); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	fmt.Println("Server stopped")
}

// serve plays matches back to back and broadcasts every frame.
func serve(ctx context.Context, c config.Configuration, l *lobby.Lobby) error {
	if c.Player1.Kind == config.KindHuman || c.Player2.Kind == config.KindHuman {
		return errors.New("the server only runs computer players, use the client's local mode to play")
	}

	var table *weights.Table
	if match.NeedsWeights(c) {
		var err error
		table, err = weights.Load(c.WeightsPath)
		if err != nil {
			return err
		}
		slog.Info("loaded weights", slog.String("path", c.WeightsPath), slog.Any("ids", table.IDs()))
	}

	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))

	for {
		p1, err := match.NewPolicy(1, c.Player1, c.Physics, table, rng, nil)
		if err != nil {
			return err
		}
		p2, err := match.NewPolicy(2, c.Player2, c.Physics, table, rng, nil)
		if err != nil {
			return err
		}
		m := match.New(pong.NewEngine(c.Physics, rng), p1, p2, match.Options{ScoreLimit: c.ScoreLimit, Observe: true})

		frames := make(chan wire.Frame)
		done := make(chan error, 1)
		go func() {
			done <- m.Run(ctx, time.Second/time.Duration(c.TickRate), frames)
			close(frames)
		}()
		for f := range frames {
			l.Broadcast(f)
		}
		if err := <-done; err != nil {
			return err
		}
	}
}
