package tensor

import (
	"fmt"

	"tensordep/internal/feature"
	"tensordep/internal/model"
)

// Weights are the learned parameters indexed by hashed id.
type Weights interface {
	Weight(space feature.Space, id int) (float64, bool)
}

// DenseWeights holds one weight per id of each space. A nil slice means the
// space has no weights.
type DenseWeights struct {
	Arc     []float64
	Labeled []float64
}

func (w DenseWeights) Weight(space feature.Space, id int) (float64, bool) {
	params := w.Arc
	if space == feature.LabeledSpace {
		params = w.Labeled
	}
	if id < 0 || id >= len(params) {
		return 0, false
	}
	return params[id], true
}

// SparseWeights holds only the ids a training run produced.
type SparseWeights struct {
	arc     map[int]float64
	labeled map[int]float64
}

func NewSparseWeights() *SparseWeights {
	return &SparseWeights{arc: make(map[int]float64), labeled: make(map[int]float64)}
}

// SparseWeightsFrom builds weights from persisted records of both spaces.
func SparseWeightsFrom(arc, labeled []model.WeightRecord) (*SparseWeights, error) {
	w := NewSparseWeights()
	for _, r := range arc {
		if err := w.Set(feature.ArcSpace, r.ID, r.Value); err != nil {
			return nil, err
		}
	}
	for _, r := range labeled {
		if err := w.Set(feature.LabeledSpace, r.ID, r.Value); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *SparseWeights) Set(space feature.Space, id int, value float64) error {
	if id < 0 {
		return fmt.Errorf("negative parameter id %d", id)
	}
	switch space {
	case feature.ArcSpace:
		w.arc[id] = value
	case feature.LabeledSpace:
		w.labeled[id] = value
	default:
		return fmt.Errorf("unknown space %s", space)
	}
	return nil
}

func (w *SparseWeights) Weight(space feature.Space, id int) (float64, bool) {
	params := w.arc
	if space == feature.LabeledSpace {
		params = w.labeled
	}
	v, ok := params[id]
	return v, ok
}

func (w *SparseWeights) Len() int {
	return len(w.arc) + len(w.labeled)
}
