package tensordep

import (
	"errors"
	"fmt"
	"log/slog"

	"tensordep/internal/feature"
	"tensordep/internal/storage"
	"tensordep/internal/tensor"
	"tensordep/internal/typology"
	"tensordep/internal/wordvec"
)

const (
	defaultDBPath  = "tensordep.db"
	defaultWordNum = 1<<16 - 1
)

// Options configure a Client. Features.PosNum and Features.LabelNum are the
// corpus alphabet sizes; the other Features fields select template families.
type Options struct {
	Topology string
	Features feature.Config

	// WordNum bounds the word ids carried by lexical and supervised codes.
	WordNum          int
	ArcSpaceSize     int
	LabeledSpaceSize int
	// EmbDim defaults to the dimension of WordVectors.
	EmbDim   int
	TransNum int

	Typology    *typology.Table
	WordVectors *wordvec.Table

	// Store overrides StoreKind and DBPath. The caller keeps ownership.
	Store     storage.Store
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.WordNum <= 0 {
		o.WordNum = defaultWordNum
	}
	if o.ArcSpaceSize <= 0 {
		o.ArcSpaceSize = feature.DefaultSpaceSize
	}
	if o.LabeledSpaceSize <= 0 {
		o.LabeledSpaceSize = feature.DefaultSpaceSize
	}
	if o.EmbDim <= 0 && o.WordVectors != nil {
		o.EmbDim = o.WordVectors.Dim()
	}
	if o.DBPath == "" {
		o.DBPath = defaultDBPath
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// validate checks the configuration errors reported at startup.
func (o Options) validate() (tensor.Topology, error) {
	top, err := tensor.ParseTopology(o.Topology)
	if err != nil {
		return 0, err
	}
	if err := o.Features.Validate(); err != nil {
		return 0, err
	}
	if err := tensor.CheckPairing(top, o.Features); err != nil {
		return 0, err
	}
	if top.CrossLingual() && o.Typology == nil {
		return 0, fmt.Errorf("%s topology needs a typology table", top)
	}
	if o.Features.Lexical && o.EmbDim <= 0 && o.TransNum <= 0 {
		return 0, errors.New("lexical templates need word vectors or a trained-word alphabet")
	}
	return top, nil
}

// widths sizes the codec for the alphabets of o.
func (o Options) widths() feature.Widths {
	maxTag := o.Features.PosNum + 1
	if o.Typology != nil {
		maxTag = max(maxTag, o.Typology.ClassNum()+o.Typology.FamilyNum()+1)
		for ft := typology.FeatureType(0); ft < typology.NumFeatureTypes; ft++ {
			maxTag = max(maxTag, o.Typology.NumberOfValues(ft)+1)
		}
	}
	maxWord := max(o.WordNum, o.EmbDim, o.TransNum+1)
	return feature.WidthsFor(maxTag, maxWord, o.Features.LabelNum)
}

func (o Options) treeConfig(top tensor.Topology) tensor.TreeConfig {
	var table feature.Typology
	if o.Typology != nil {
		table = o.Typology
	}
	tc := tensor.TreeConfigFor(top, o.Features, table)
	tc.EmbDim = o.EmbDim
	tc.TransNum = o.TransNum
	return tc
}

func (o Options) openStore() (storage.Store, bool, error) {
	if o.Store != nil {
		return o.Store, false, nil
	}
	kind := o.StoreKind
	if kind == "" {
		kind = storage.DefaultStoreKind()
	}
	store, err := storage.NewStore(kind, o.DBPath)
	if err != nil {
		return nil, false, err
	}
	return store, true, nil
}
