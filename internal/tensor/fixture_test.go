package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tensordep/internal/feature"
	"tensordep/internal/model"
	"tensordep/internal/typology"
	"tensordep/internal/wordvec"
)

const (
	testPosNum   = 12
	testLabelNum = 8
	testRootPOS  = 9
	testEmbDim   = 3
	testTransNum = 8
)

func testTypology(t *testing.T) *typology.Table {
	t.Helper()
	table, err := typology.NewTable(2, 3, [typology.NumFeatureTypes]int{3, 3, 3, 3, 3}, []typology.Language{
		{ID: 0, Name: "en", Class: 0, Family: 0, Features: [typology.NumFeatureTypes]int{0, 0, 0, 1, 0}},
		{ID: 1, Name: "ja", Class: 1, Family: 2, Features: [typology.NumFeatureTypes]int{2, 1, 1, 0, 2}},
	})
	require.NoError(t, err)
	return table
}

func testVectors(t *testing.T) *wordvec.Table {
	t.Helper()
	vectors, err := wordvec.NewTable(testEmbDim)
	require.NoError(t, err)
	for lang := 0; lang < 2; lang++ {
		for id := 0; id < 4; id++ {
			require.NoError(t, vectors.Put(lang, id, []float64{0.1 * float64(id+1), -0.2, 0.3}))
		}
	}
	return vectors
}

// sentence has a subject, a pronoun object, an adpositional phrase, an
// adjective and a genitive noun.
func sentence(lang int) model.Instance {
	return model.Instance{
		Lang:       lang,
		Forms:      []int{0, 1, 2, 3, 4, 5, 6, 7},
		POS:        []int{testRootPOS, feature.PosNoun, feature.PosVerb, feature.PosPron, feature.PosAdp, feature.PosNoun, feature.PosAdj, feature.PosNoun},
		Heads:      []int{-1, 2, 0, 2, 2, 4, 5, 5},
		Labels:     []int{0, feature.LabelSbj, 1, feature.LabelDobj, 6, 7, 6, 7},
		WordVecIDs: []int{-1, 0, 1, -1, 2, 3, -1, 0},
		TransIDs:   []int{-1, 3, 4, 5, -1, 6, 7, 3},
	}
}

type fixture struct {
	builder *feature.Builder
	space   *feature.FeatureSpace
	tree    *Tree
	act     *Activator
	router  *Router
}

func newFixture(t *testing.T, top Topology, cfg feature.Config) *fixture {
	t.Helper()
	cfg.PosNum = testPosNum
	cfg.LabelNum = testLabelNum
	cfg.Direct = !top.CrossLingual()

	table := testTypology(t)
	space, err := feature.NewFeatureSpace(1<<20, 1<<19)
	require.NoError(t, err)
	codec := feature.MustCodec(feature.WidthsFor(testPosNum+1, 1000, testLabelNum))
	b, err := feature.NewBuilder(cfg, codec, space, table, testVectors(t))
	require.NoError(t, err)

	tc := TreeConfigFor(top, cfg, table)
	tc.EmbDim = testEmbDim
	tc.TransNum = testTransNum
	tree, err := NewTree(tc)
	require.NoError(t, err)

	act, err := NewActivator(tree, b)
	require.NoError(t, err)
	router, err := NewRouter(tree, codec, space, table)
	require.NoError(t, err)
	return &fixture{builder: b, space: space, tree: tree, act: act, router: router}
}

// register builds the gold-arc features of inst without activating cells.
func (f *fixture) register(t *testing.T, inst model.Instance) {
	t.Helper()
	for m := 1; m < inst.Len(); m++ {
		h := inst.Heads[m]
		_, err := f.builder.CreateArcFeatures(inst, h, m)
		require.NoError(t, err)
		_, err = f.builder.CreateArcLabelFeatures(inst, h, m, inst.Labels[m])
		require.NoError(t, err)
	}
}

func (f *fixture) observe(t *testing.T, insts ...model.Instance) {
	t.Helper()
	for _, inst := range insts {
		f.register(t, inst)
		require.NoError(t, f.act.Observe(inst))
	}
}

// weightsFor gives every registered id the same weight.
func weightsFor(space *feature.FeatureSpace, value float64) *SparseWeights {
	w := NewSparseWeights()
	for _, e := range space.Codes() {
		for _, sp := range []feature.Space{feature.ArcSpace, feature.LabeledSpace} {
			if e.Spaces&sp != 0 {
				_ = w.Set(sp, space.ID(sp, e.Code), value)
			}
		}
	}
	return w
}
