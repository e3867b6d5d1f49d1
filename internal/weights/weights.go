// Package weights decodes the pre-trained weight table. Every entry is
// validated against nn.Topology while loading, so a Table that loaded
// successfully only hands out usable weight sets.
package weights

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"nnpong/internal/nn"
)

var ErrUnknownID = errors.New("unknown weights id")

// Table maps an identifier to its weight set. It is not modified after
// Decode returns and can be read from any goroutine.
type Table struct {
	sets map[string]*nn.WeightSet
	ids  []string
}

// Decode reads a JSON object of the form {"id": [[w0, w1, ...]], ...}. Only
// the first vector of each entry is used.
func Decode(r io.Reader) (*Table, error) {
	raw := map[string][][]float64{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding weight table: %w", err)
	}

	t := &Table{sets: make(map[string]*nn.WeightSet, len(raw))}
	for id, vectors := range raw {
		if len(vectors) == 0 {
			return nil, fmt.Errorf("weights %q: %w: entry is empty", id, nn.ErrConfiguration)
		}
		ws, err := nn.NewWeightSet(nn.Topology, vectors[0])
		if err != nil {
			return nil, fmt.Errorf("weights %q: %w", id, err)
		}
		t.sets[id] = ws
		t.ids = append(t.ids, id)
	}
	sort.Strings(t.ids)

	slog.Debug("loaded weight table", slog.Int("entries", len(t.ids)))
	return t, nil
}

func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// IDs returns the identifiers in sorted order.
func (t *Table) IDs() []string {
	return append([]string(nil), t.ids...)
}

func (t *Table) WeightSet(id string) (*nn.WeightSet, error) {
	ws, ok := t.sets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	return ws, nil
}
