package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"os"
	"time"

	"golang.org/x/exp/rand"

	"nnpong/internal/ansii"
	"nnpong/internal/config"
	"nnpong/internal/match"
	"nnpong/internal/pong"
	"nnpong/internal/renderer"
	"nnpong/internal/weights"
	"nnpong/internal/wire"
)

// Usage: client [local] [config path]
//
// In local mode R resets the score and 1 / 2 cycle that side between the
// heuristic, network and keyboard players.
func main() {
	args := os.Args[1:]
	local := len(args) > 0 && args[0] == "local"
	if local {
		args = args[1:]
	}
	if len(args) == 0 {
		config.LoadConfig("")
	} else {
		config.LoadConfig(args[0])
	}
	c := config.Config

	slog.SetLogLoggerLevel(slog.Level(c.LogLevel))
	fmt.Println("Welcome to nnpong!")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prev, err := ansii.MakeTermRaw()
	if err != nil {
		fmt.Println("Failed to make terminal raw")
		return
	}
	os.Stdout.WriteString(string(ansii.Screen.HideCursor))

	keyboard := renderer.NewKeyboard()

	// Input handler
	go func() {
		buf := make([]byte, 3)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				cancel()
				return
			}
			if keyboard.Press(renderer.Decode(buf[:n])) {
				cancel()
				return
			}
		}
	}()

	if local {
		err = playLocal(ctx, c, keyboard)
	} else {
		err = spectate(ctx, c)
	}

	os.Stdout.WriteString(string(ansii.Screen.ShowCursor))
	ansii.RestoreTerm(prev)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func playLocal(ctx context.Context, c config.Configuration, keyboard *renderer.Keyboard) error {
	var table *weights.Table
	if match.NeedsWeights(c) {
		var err error
		table, err = weights.Load(c.WeightsPath)
		if err != nil {
			return err
		}
	} else if t, err := weights.Load(c.WeightsPath); err == nil {
		// Optional: lets either side be swapped to a network mid-game.
		table = t
	}

	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))
	// Seeds for swapped-in policies, only read on this goroutine.
	seeds := rand.New(rand.NewSource(seed + 1))

	players := [2]config.Player{c.Player1, c.Player2}
	p1, err := match.NewPolicy(1, players[0], c.Physics, table, rng, keyboard)
	if err != nil {
		return err
	}
	p2, err := match.NewPolicy(2, players[1], c.Physics, table, rng, keyboard)
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

	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return <-done
			}
			renderer.Render(f, c.Physics)

		case cmd := <-keyboard.Commands():
			if cmd == renderer.ResetScore {
				m.ResetScore()
				continue
			}

			side := 1
			if cmd == renderer.Swap2 {
				side = 2
			}
			pc := players[side-1]
			pc.Kind = match.NextKind(pc.Kind, table != nil && len(table.IDs()) > 0)
			if pc.Kind == config.KindNetwork && pc.WeightsID == "" {
				pc.WeightsID = table.IDs()[0]
			}
			p, err := match.NewPolicy(side, pc, c.Physics, table, rand.New(rand.NewSource(seeds.Uint64())), keyboard)
			if err != nil {
				slog.Error("swapping policy", slog.Int("side", side), slog.Any("error", err))
				continue
			}
			if err := m.SetPolicy(side, p); err != nil {
				return err
			}
			players[side-1] = pc
		}
	}
}

func spectate(ctx context.Context, c config.Configuration) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.ListenAddr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.ListenAddr, err)
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	r := bufio.NewReader(conn)
	for {
		f, err := wire.ReadFrame(r)
		if err == io.EOF {
			return errors.New("server closed the connection")
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		renderer.Render(f, c.Physics)
	}
}
