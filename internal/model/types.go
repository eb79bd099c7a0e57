package model

import (
	"errors"
	"fmt"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Instance is one dependency tree. Index 0 is the artificial root token.
// WordVecIDs and TransIDs use -1 for tokens without an embedding or a
// trained-language word; nil slices mean no token has one.
type Instance struct {
	Lang       int   `json:"lang"`
	Forms      []int `json:"forms"`
	POS        []int `json:"pos"`
	Heads      []int `json:"heads"`
	Labels     []int `json:"labels"`
	WordVecIDs []int `json:"word_vec_ids,omitempty"`
	TransIDs   []int `json:"trans_ids,omitempty"`
}

func (inst Instance) Len() int { return len(inst.POS) }

func (inst Instance) WordVecID(i int) int {
	if inst.WordVecIDs == nil {
		return -1
	}
	return inst.WordVecIDs[i]
}

func (inst Instance) TransID(i int) int {
	if inst.TransIDs == nil {
		return -1
	}
	return inst.TransIDs[i]
}

func (inst Instance) Validate() error {
	n := len(inst.POS)
	if n < 2 {
		return errors.New("instance needs a root and at least one token")
	}
	check := func(name string, s []int, optional bool) error {
		if s == nil && optional {
			return nil
		}
		if len(s) != n {
			return fmt.Errorf("%s has %d entries, want %d", name, len(s), n)
		}
		return nil
	}
	if err := check("forms", inst.Forms, true); err != nil {
		return err
	}
	if err := check("heads", inst.Heads, false); err != nil {
		return err
	}
	if err := check("labels", inst.Labels, true); err != nil {
		return err
	}
	if err := check("word_vec_ids", inst.WordVecIDs, true); err != nil {
		return err
	}
	if err := check("trans_ids", inst.TransIDs, true); err != nil {
		return err
	}
	for m := 1; m < n; m++ {
		h := inst.Heads[m]
		if h < 0 || h >= n || h == m {
			return fmt.Errorf("token %d has invalid head %d", m, h)
		}
	}
	return nil
}

// CodecWidths mirrors the bit layout a registry was built with.
type CodecWidths struct {
	TagNumBits     int `json:"tag_num_bits"`
	WordNumBits    int `json:"word_num_bits"`
	DepNumBits     int `json:"dep_num_bits"`
	FlagBits       int `json:"flag_bits"`
	NumArcFeatBits int `json:"num_arc_feat_bits"`
}

type CodeRecord struct {
	Code   int64 `json:"code"`
	Spaces uint8 `json:"spaces"`
}

// RegistrySnapshot is a frozen code registry.
type RegistrySnapshot struct {
	VersionedRecord
	ID               string       `json:"id"`
	CreatedAtUTC     string       `json:"created_at_utc"`
	Topology         string       `json:"topology"`
	ArcSpaceSize     int          `json:"arc_space_size"`
	LabeledSpaceSize int          `json:"labeled_space_size"`
	Widths           CodecWidths  `json:"widths"`
	Instances        int          `json:"instances"`
	Codes            []CodeRecord `json:"codes"`
}

type TensorCell struct {
	Coords []int   `json:"coords"`
	Value  float64 `json:"value"`
}

// TensorSnapshot is the routed content of a low-rank tensor.
type TensorSnapshot struct {
	VersionedRecord
	ID         string       `json:"id"`
	RegistryID string       `json:"registry_id"`
	Topology   string       `json:"topology"`
	Modes      int          `json:"modes"`
	Cells      []TensorCell `json:"cells"`
}

// ActivationSnapshot stores the active cells of every parameter node,
// keyed by node path.
type ActivationSnapshot struct {
	VersionedRecord
	RegistryID string           `json:"registry_id"`
	Nodes      map[string][]int `json:"nodes"`
}

type RunSummary struct {
	VersionedRecord
	RunID        string `json:"run_id"`
	RegistryID   string `json:"registry_id"`
	TensorID     string `json:"tensor_id"`
	Topology     string `json:"topology"`
	CreatedAtUTC string `json:"created_at_utc"`
	Codes        int    `json:"codes"`
	Written      int    `json:"written"`
	Pruned       int    `json:"pruned"`
	Skipped      int    `json:"skipped"`
}

// WeightRecord is one learned weight exchanged with the training loop.
type WeightRecord struct {
	ID    int     `json:"id"`
	Value float64 `json:"value"`
}

// Bundle is the hand-off unit written to snapshot files: a frozen registry
// with its activation state and, once routed, the tensor.
type Bundle struct {
	VersionedRecord
	Registry   RegistrySnapshot    `json:"registry"`
	Activation *ActivationSnapshot `json:"activation,omitempty"`
	Tensor     *TensorSnapshot     `json:"tensor,omitempty"`
}
