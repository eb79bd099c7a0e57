package tensor

import (
	"fmt"
	"sync"

	"github.com/google/btree"

	"tensordep/internal/model"
)

// Cell is one entry of the low-rank tensor. A coordinate of -1 leaves its
// mode unconstrained.
type Cell struct {
	Coords []int
	Value  float64
}

func lessCoords(a, b Cell) bool {
	for i := range a.Coords {
		if i >= len(b.Coords) {
			return false
		}
		if a.Coords[i] != b.Coords[i] {
			return a.Coords[i] < b.Coords[i]
		}
	}
	return len(a.Coords) < len(b.Coords)
}

// LowRankParam is the sparse tensor sink filled by the router. Entries are
// kept ordered by coordinates; writing an existing coordinate adds to it.
// It is safe for concurrent use.
type LowRankParam struct {
	mu    sync.Mutex
	modes int
	cells *btree.BTreeG[Cell]
}

func NewLowRankParam(modes int) *LowRankParam {
	return &LowRankParam{modes: modes, cells: btree.NewG[Cell](16, lessCoords)}
}

func (p *LowRankParam) Modes() int {
	return p.modes
}

// PutEntry adds value at coords.
func (p *LowRankParam) PutEntry(coords []int, value float64) error {
	if len(coords) != p.modes {
		return fmt.Errorf("entry has %d coordinates, tensor has %d modes", len(coords), p.modes)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	key := Cell{Coords: coords}
	if old, ok := p.cells.Get(key); ok {
		old.Value += value
		p.cells.ReplaceOrInsert(old)
		return nil
	}
	p.cells.ReplaceOrInsert(Cell{Coords: append([]int(nil), coords...), Value: value})
	return nil
}

func (p *LowRankParam) Get(coords ...int) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cell, ok := p.cells.Get(Cell{Coords: coords})
	return cell.Value, ok
}

func (p *LowRankParam) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cells.Len()
}

func (p *LowRankParam) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cells.Clear(false)
}

// Cells returns the entries in ascending coordinate order.
func (p *LowRankParam) Cells() []Cell {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Cell, 0, p.cells.Len())
	p.cells.Ascend(func(c Cell) bool {
		out = append(out, Cell{Coords: append([]int(nil), c.Coords...), Value: c.Value})
		return true
	})
	return out
}

// Records converts the entries to their persisted form.
func (p *LowRankParam) Records() []model.TensorCell {
	cells := p.Cells()
	out := make([]model.TensorCell, len(cells))
	for i, c := range cells {
		out[i] = model.TensorCell{Coords: c.Coords, Value: c.Value}
	}
	return out
}

// Load replaces the entries with persisted cells.
func (p *LowRankParam) Load(cells []model.TensorCell) error {
	p.Reset()
	for _, c := range cells {
		if err := p.PutEntry(c.Coords, c.Value); err != nil {
			return err
		}
	}
	return nil
}
