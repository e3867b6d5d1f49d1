package ansii

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

type ANSI string

const (
	reset       ANSI = "\033[0m"
	plain       ANSI = ""
	bold        ANSI = "\033[1m"
	red         ANSI = "\033[31m"
	green       ANSI = "\033[32m"
	yellow      ANSI = "\033[33m"
	purple      ANSI = "\033[35m"
	cyan        ANSI = "\033[36m"
	clearScreen ANSI = "\033[2J"
	hideCursor  ANSI = "\033[?25l"
	showCursor  ANSI = "\033[?25h"
)

// Offset is a point in the unit square, (0,0) is the top left.
type Offset struct {
	X float64
	Y float64
}

// Canvas is the terminal area a unit square is stretched over.
type Canvas struct {
	Width  int
	Height int
}

type style struct {
	Reset ANSI
	Plain ANSI
	Bold  ANSI
}

type color struct {
	Red    ANSI
	Green  ANSI
	Yellow ANSI
	Purple ANSI
	Cyan   ANSI
}

type screen struct {
	ClearScreen ANSI
	HideCursor  ANSI
	ShowCursor  ANSI
}

type ascii struct {
	Block string
	Shade []string
}

var (
	Styles = style{Bold: bold, Reset: reset, Plain: plain}
	Colors = color{Red: red, Green: green, Yellow: yellow, Purple: purple, Cyan: cyan}
	Screen = screen{ClearScreen: clearScreen, HideCursor: hideCursor, ShowCursor: showCursor}
	Blocks = ascii{Block: "█", Shade: []string{" ", "░", "▒", "▓", "█"}}
)

// GetTermSize falls back to 80x24 when stdout is not a terminal.
func GetTermSize() Canvas {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		slog.Debug("could not read terminal size", slog.Any("error", err))
		return Canvas{Width: 80, Height: 24}
	}
	return Canvas{Width: width, Height: height}
}

func MakeTermRaw() (*term.State, error) {
	return term.MakeRaw(int(os.Stdin.Fd()))
}

func RestoreTerm(prev *term.State) error {
	return term.Restore(int(os.Stdin.Fd()), prev)
}

// PlaceCursor moves to 1-based terminal cell (X, Y).
func (s screen) PlaceCursor(X, Y int) ANSI {
	return ANSI(fmt.Sprintf("\033[%d;%dH", Y, X))
}

// Cell maps a unit-square point to a 1-based terminal cell, clamped to the canvas.
func (c Canvas) Cell(o Offset) (int, int) {
	x := int(math.Floor(o.X*float64(c.Width))) + 1
	y := int(math.Floor(o.Y*float64(c.Height))) + 1
	return min(max(x, 1), c.Width), min(max(y, 1), c.Height)
}

// DrawRect fills the cells covered by a width x height rectangle whose top
// left corner is offset, all in unit-square coordinates. Every rectangle
// covers at least one cell.
func DrawRect(builder *strings.Builder, c Canvas, offset Offset, width, height float64, style ANSI) {
	x0, y0 := c.Cell(offset)
	x1, y1 := c.Cell(Offset{X: offset.X + width, Y: offset.Y + height})
	x1, y1 = max(x1-1, x0), max(y1-1, y0)

	builder.WriteString(string(style))
	for y := y0; y <= y1; y++ {
		builder.WriteString(string(Screen.PlaceCursor(x0, y)))
		builder.WriteString(strings.Repeat(Blocks.Block, x1-x0+1))
	}
	builder.WriteString(string(Styles.Reset))
}

// Shade picks a block glyph for v in [0,1].
func Shade(v float64) string {
	i := int(math.Round(v * float64(len(Blocks.Shade)-1)))
	return Blocks.Shade[min(max(i, 0), len(Blocks.Shade)-1)]
}

func WriteAt(builder *strings.Builder, x, y int, text string, style ANSI) {
	builder.WriteString(string(Screen.PlaceCursor(x, y)))
	builder.WriteString(string(style))
	builder.WriteString(text)
	builder.WriteString(string(Styles.Reset))
}
