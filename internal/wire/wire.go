// Package wire encodes match frames in protobuf wire format for the
// spectator stream. Frames are length-delimited on the connection.
package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"nnpong/internal/pong"
)

var ErrMalformed = errors.New("malformed frame")

// MaxFrameSize bounds a single frame read off a connection.
const MaxFrameSize = 64 << 10

// Frame is everything a spectator needs to draw one tick of a match.
type Frame struct {
	MatchID string
	Seq     uint64
	State   pong.GameState
	Score   [2]int
	Actions [2]pong.Action
	Hit     [2]bool
	// Scorer is the side that scored on this tick, 0 for none.
	Scorer int
	// Winner is set on the final frame of a match with a score limit.
	Winner int
	// Activations per side, empty for sides without a network policy.
	Activations [2][][]float64
}

const (
	fieldMatchID protowire.Number = iota + 1
	fieldSeq
	fieldBallX
	fieldBallY
	fieldBallVX
	fieldBallVY
	fieldP1Y
	fieldP2Y
	fieldScore1
	fieldScore2
	fieldAction1
	fieldAction2
	fieldHit1
	fieldHit2
	fieldScorer
	fieldWinner
	fieldLayer1
	fieldLayer2
)

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendLayers(b []byte, num protowire.Number, layers [][]float64) []byte {
	for _, layer := range layers {
		packed := make([]byte, 0, 8*len(layer))
		for _, v := range layer {
			packed = protowire.AppendFixed64(packed, math.Float64bits(v))
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

func Encode(f Frame) []byte {
	var b []byte
	if f.MatchID != "" {
		b = protowire.AppendTag(b, fieldMatchID, protowire.BytesType)
		b = protowire.AppendString(b, f.MatchID)
	}
	b = appendVarint(b, fieldSeq, f.Seq)
	b = appendDouble(b, fieldBallX, f.State.BallX)
	b = appendDouble(b, fieldBallY, f.State.BallY)
	b = appendDouble(b, fieldBallVX, f.State.BallVX)
	b = appendDouble(b, fieldBallVY, f.State.BallVY)
	b = appendDouble(b, fieldP1Y, f.State.P1Y)
	b = appendDouble(b, fieldP2Y, f.State.P2Y)
	b = appendVarint(b, fieldScore1, uint64(f.Score[0]))
	b = appendVarint(b, fieldScore2, uint64(f.Score[1]))
	b = appendVarint(b, fieldAction1, uint64(f.Actions[0]))
	b = appendVarint(b, fieldAction2, uint64(f.Actions[1]))
	b = appendVarint(b, fieldHit1, protowire.EncodeBool(f.Hit[0]))
	b = appendVarint(b, fieldHit2, protowire.EncodeBool(f.Hit[1]))
	b = appendVarint(b, fieldScorer, uint64(f.Scorer))
	b = appendVarint(b, fieldWinner, uint64(f.Winner))
	b = appendLayers(b, fieldLayer1, f.Activations[0])
	b = appendLayers(b, fieldLayer2, f.Activations[1])
	return b
}

func Decode(b []byte) (Frame, error) {
	var f Frame
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return f, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			d := math.Float64frombits(v)
			switch num {
			case fieldBallX:
				f.State.BallX = d
			case fieldBallY:
				f.State.BallY = d
			case fieldBallVX:
				f.State.BallVX = d
			case fieldBallVY:
				f.State.BallVY = d
			case fieldP1Y:
				f.State.P1Y = d
			case fieldP2Y:
				f.State.P2Y = d
			}

		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldSeq:
				f.Seq = v
			case fieldScore1:
				f.Score[0] = int(v)
			case fieldScore2:
				f.Score[1] = int(v)
			case fieldAction1:
				f.Actions[0] = pong.Action(v)
			case fieldAction2:
				f.Actions[1] = pong.Action(v)
			case fieldHit1:
				f.Hit[0] = protowire.DecodeBool(v)
			case fieldHit2:
				f.Hit[1] = protowire.DecodeBool(v)
			case fieldScorer:
				f.Scorer = int(v)
			case fieldWinner:
				f.Winner = int(v)
			}

		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldMatchID:
				f.MatchID = string(v)
			case fieldLayer1, fieldLayer2:
				layer, err := decodePacked(v)
				if err != nil {
					return f, err
				}
				side := int(num - fieldLayer1)
				f.Activations[side] = append(f.Activations[side], layer)
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return f, nil
}

func decodePacked(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: packed layer of %d bytes", ErrMalformed, len(b))
	}
	out := make([]float64, 0, len(b)/8)
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		out = append(out, math.Float64frombits(v))
		b = b[n:]
	}
	return out, nil
}

// WriteFrame writes f prefixed with its varint length.
func WriteFrame(w io.Writer, f Frame) error {
	_, err := w.Write(protowire.AppendBytes(nil, Encode(f)))
	return err
}

func ReadFrame(r *bufio.Reader) (Frame, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return Frame{}, err
	}
	if size > MaxFrameSize {
		return Frame{}, fmt.Errorf("%w: frame of %d bytes", ErrMalformed, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Frame{}, err
	}
	return Decode(buf)
}
