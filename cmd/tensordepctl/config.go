package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/docker/go-units"

	"tensordep/internal/typology"
	"tensordep/internal/wordvec"
	"tensordep/pkg/tensordep"
)

// loadOptionsFromConfig reads a JSON client configuration. Paths to the
// typology and word-vector tables are loaded eagerly.
func loadOptionsFromConfig(path string) (tensordep.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tensordep.Options{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return tensordep.Options{}, err
	}

	var opts tensordep.Options
	if v, ok := asString(raw["topology"]); ok {
		opts.Topology = v
	}
	if v, ok := asBool(raw["direct"]); ok {
		opts.Features.Direct = v
	}
	if v, ok := asBool(raw["learn_label"]); ok {
		opts.Features.LearnLabel = v
	}
	if v, ok := asBool(raw["lexical"]); ok {
		opts.Features.Lexical = v
	}
	if v, ok := asBool(raw["supervised"]); ok {
		opts.Features.Supervised = v
	}
	if v, ok := asInt(raw["target_lang"]); ok {
		opts.Features.TargetLang = v
	}
	if v, ok := asInt(raw["pos_num"]); ok {
		opts.Features.PosNum = v
	}
	if v, ok := asInt(raw["label_num"]); ok {
		opts.Features.LabelNum = v
	}
	if v, ok := asInt(raw["word_num"]); ok {
		opts.WordNum = v
	}
	if v, ok := asInt(raw["emb_dim"]); ok {
		opts.EmbDim = v
	}
	if v, ok := asInt(raw["trans_num"]); ok {
		opts.TransNum = v
	}
	if v, ok, err := asSize(raw["arc_space_size"]); err != nil {
		return tensordep.Options{}, fmt.Errorf("arc_space_size: %w", err)
	} else if ok {
		opts.ArcSpaceSize = v
	}
	if v, ok, err := asSize(raw["labeled_space_size"]); err != nil {
		return tensordep.Options{}, fmt.Errorf("labeled_space_size: %w", err)
	} else if ok {
		opts.LabeledSpaceSize = v
	}
	if v, ok := asString(raw["store"]); ok {
		opts.StoreKind = v
	}
	if v, ok := asString(raw["db_path"]); ok {
		opts.DBPath = v
	}

	if v, ok := asString(raw["typology"]); ok && v != "" {
		table, err := typology.Load(v)
		if err != nil {
			return tensordep.Options{}, fmt.Errorf("typology: %w", err)
		}
		opts.Typology = table
	}
	if v, ok := asString(raw["word_vectors"]); ok && v != "" {
		vectors, err := wordvec.Load(v)
		if err != nil {
			return tensordep.Options{}, fmt.Errorf("word vectors: %w", err)
		}
		opts.WordVectors = vectors
	}
	return opts, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

// asSize accepts a plain number or a human size such as "116M".
func asSize(v any) (int, bool, error) {
	if n, ok := asInt(v); ok {
		return n, true, nil
	}
	s, ok := asString(v)
	if !ok {
		return 0, false, nil
	}
	n, err := parseSize(s)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func parseSize(s string) (int, error) {
	n, err := units.FromHumanSize(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be > 0, got %q", s)
	}
	return int(n), nil
}
