// Package nn runs the fixed-topology feed-forward scorer used by the
// network policy. Weights are pre-trained and supplied as one flat vector.
package nn

import (
	"errors"
	"fmt"
	"slices"

	"nnpong/internal/matrix"
)

var ErrConfiguration = errors.New("weight vector does not match topology")

// Topology is input features, two hidden layers, action logits.
var Topology = []int{5, 10, 10, 3}

// ParamCount is the flat vector length a topology needs: a dims[i]xdims[i+1]
// weight block followed by a dims[i+1] bias row per transition.
func ParamCount(dims []int) int {
	n := 0
	for i := 0; i+1 < len(dims); i++ {
		n += (dims[i] + 1) * dims[i+1]
	}
	return n
}

// WeightSet is read-only once built and may be shared between any number
// of networks.
type WeightSet struct {
	dims    []int
	weights []*matrix.Matrix
	biases  []*matrix.Matrix
}

func NewWeightSet(dims []int, flat []float64) (*WeightSet, error) {
	if len(dims) < 2 {
		return nil, fmt.Errorf("%w: topology needs at least two layers, got %v", ErrConfiguration, dims)
	}
	if want := ParamCount(dims); len(flat) != want {
		return nil, fmt.Errorf("%w: got %d values, want %d for %v", ErrConfiguration, len(flat), want, dims)
	}

	ws := &WeightSet{
		dims:    slices.Clone(dims),
		weights: make([]*matrix.Matrix, len(dims)-1),
		biases:  make([]*matrix.Matrix, len(dims)-1),
	}
	for i, j := 0, 0; i < len(dims)-1; i++ {
		l1, l2 := dims[i], dims[i+1]
		w, err := matrix.New(slices.Clone(flat[j:j+l1*l2]), l1, l2)
		if err != nil {
			return nil, err
		}
		b, err := matrix.New(slices.Clone(flat[j+l1*l2:j+l1*l2+l2]), 1, l2)
		if err != nil {
			return nil, err
		}
		ws.weights[i] = w
		ws.biases[i] = b
		j += (l1 + 1) * l2
	}
	return ws, nil
}

func (ws *WeightSet) Dims() []int {
	return slices.Clone(ws.dims)
}

// Observer receives one slice per layer transition: hidden activations
// rescaled from tanh's [-1,1] to [0,1], then the output probabilities.
type Observer func(layers [][]float64)

// Forward runs input (1 x dims[0]) through every layer and returns the index
// of the most probable output. observe may be nil.
func (ws *WeightSet) Forward(input *matrix.Matrix, observe Observer) (int, error) {
	var values [][]float64
	if observe != nil {
		values = make([][]float64, 0, len(ws.weights))
	}

	y := input
	last := len(ws.weights) - 1
	for i := range ws.weights {
		var err error
		y, err = matrix.MatMul(y, ws.weights[i])
		if err != nil {
			return 0, fmt.Errorf("layer %d weights: %w", i, err)
		}
		y, err = matrix.MatAdd(y, ws.biases[i])
		if err != nil {
			return 0, fmt.Errorf("layer %d bias: %w", i, err)
		}

		if i != last {
			y.Activate()
			if observe != nil {
				v := make([]float64, len(y.Data))
				for k, x := range y.Data {
					v[k] = x*0.5 + 0.5
				}
				values = append(values, v)
			}
			continue
		}

		y.Softmax()
		if observe != nil {
			values = append(values, slices.Clone(y.Data))
		}
	}

	if observe != nil {
		observe(values)
	}
	return y.ArgMax(), nil
}
