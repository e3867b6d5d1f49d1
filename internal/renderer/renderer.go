package renderer

import (
	"fmt"
	"os"
	"strings"

	"nnpong/internal/ansii"
	"nnpong/internal/pong"
	"nnpong/internal/wire"
)

// statusLines are kept free below the table for the score line.
const statusLines = 2

// Render draws f over the whole terminal.
func Render(f wire.Frame, params pong.Params) {
	var b strings.Builder
	Draw(&b, ansii.GetTermSize(), f, params)
	os.Stdout.WriteString(b.String())
}

// Draw writes the escape sequences for one frame: paddles, ball, score and
// the activations of any network players.
func Draw(b *strings.Builder, c ansii.Canvas, f wire.Frame, params pong.Params) {
	table := ansii.Canvas{Width: c.Width, Height: max(c.Height-statusLines, 1)}
	s := f.State

	b.WriteString(string(ansii.Screen.ClearScreen))

	ansii.DrawRect(b, table, ansii.Offset{X: params.PaddleX - params.PaddleWidth, Y: s.P1Y},
		params.PaddleWidth, params.PaddleLength, paddleStyle(f.Hit[0]))
	ansii.DrawRect(b, table, ansii.Offset{X: 1 - params.PaddleX, Y: s.P2Y},
		params.PaddleWidth, params.PaddleLength, paddleStyle(f.Hit[1]))
	ansii.DrawRect(b, table, ansii.Offset{X: s.BallX - params.BallRadius, Y: s.BallY - params.BallRadius},
		2*params.BallRadius, 2*params.BallRadius, ansii.Colors.Yellow)

	drawNetwork(b, 1, 1, f.Activations[0])
	drawNetwork(b, max(c.Width-longestLayer(f.Activations[1])+1, 1), 1, f.Activations[1])

	status, style := fmt.Sprintf("%d : %d", f.Score[0], f.Score[1]), ansii.Styles.Bold
	if f.Winner != 0 {
		status, style = fmt.Sprintf("%s  player %d wins", status, f.Winner), ansii.Colors.Red
	}
	ansii.WriteAt(b, max((c.Width-len(status))/2, 1), table.Height+1, status, style)
	ansii.WriteAt(b, 1, table.Height+2, "q to quit", ansii.Styles.Plain)
}

func paddleStyle(hit bool) ansii.ANSI {
	if hit {
		return ansii.Colors.Purple
	}
	return ansii.Colors.Cyan
}

// drawNetwork prints one row of shaded cells per layer starting at (x, y).
func drawNetwork(b *strings.Builder, x, y int, layers [][]float64) {
	for i, layer := range layers {
		var row strings.Builder
		for _, v := range layer {
			row.WriteString(ansii.Shade(v))
		}
		ansii.WriteAt(b, x, y+i, row.String(), ansii.Colors.Green)
	}
}

func longestLayer(layers [][]float64) int {
	n := 0
	for _, l := range layers {
		n = max(n, len(l))
	}
	return n
}
