package tensordep

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tensordep/internal/feature"
	"tensordep/internal/model"
	"tensordep/internal/storage"
	"tensordep/internal/tensor"
	"tensordep/internal/typology"
)

const (
	testPosNum   = 12
	testLabelNum = 8
	testRootPOS  = 9
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

func sentence(lang int) model.Instance {
	return model.Instance{
		Lang:   lang,
		Forms:  []int{0, 1, 2, 3, 4, 5, 6, 7},
		POS:    []int{testRootPOS, feature.PosNoun, feature.PosVerb, feature.PosPron, feature.PosAdp, feature.PosNoun, feature.PosAdj, feature.PosNoun},
		Heads:  []int{-1, 2, 0, 2, 2, 4, 5, 5},
		Labels: []int{0, feature.LabelSbj, 1, feature.LabelDobj, 6, 7, 6, 7},
	}
}

func testOptions(t *testing.T, store storage.Store) Options {
	t.Helper()
	return Options{
		Topology: "hierarchical",
		Features: feature.Config{
			LearnLabel: true,
			PosNum:     testPosNum,
			LabelNum:   testLabelNum,
		},
		ArcSpaceSize:     1 << 20,
		LabeledSpaceSize: 1 << 19,
		Typology:         testTypology(t),
		Store:            store,
	}
}

// uniformWeights gives every registered id the same weight.
func uniformWeights(space *feature.FeatureSpace, value float64) *tensor.SparseWeights {
	w := tensor.NewSparseWeights()
	for _, e := range space.Codes() {
		for _, sp := range []feature.Space{feature.ArcSpace, feature.LabeledSpace} {
			if e.Spaces&sp != 0 {
				_ = w.Set(sp, space.ID(sp, e.Code), value)
			}
		}
	}
	return w
}

func observedClient(t *testing.T, store storage.Store) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(testOptions(t, store))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Init(ctx))
	require.NoError(t, c.Observe(ctx, sentence(0), sentence(1)))
	return c
}

func TestClientRouteAndRuns(t *testing.T) {
	ctx := context.Background()
	c := observedClient(t, storage.NewMemoryStore())
	require.Positive(t, c.Space().NumCodes())

	_, err := c.Route(ctx, uniformWeights(c.Space(), 0.5))
	require.True(t, errors.Is(err, tensor.ErrRegistryOpen))

	c.Freeze()
	require.True(t, errors.Is(c.Observe(ctx, sentence(0)), feature.ErrRegistryFrozen))

	res, err := c.Route(ctx, uniformWeights(c.Space(), 0.5))
	require.NoError(t, err)
	require.Equal(t, c.Space().NumCodes(), res.Run.Codes)
	require.Positive(t, res.Run.Written)
	require.Equal(t, c.RegistryID(), res.Run.RegistryID)
	require.Equal(t, "hierarchical", res.Run.Topology)
	require.Equal(t, 10, res.Tensor.Modes())

	runs, err := c.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, res.Run.RunID, runs[0].RunID)

	stored, err := c.Tensor(ctx, res.Run.TensorID)
	require.NoError(t, err)
	require.Equal(t, res.Tensor.Cells(), stored.Cells())

	_, err = c.Tensor(ctx, "missing")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestClientSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := observedClient(t, store)

	require.True(t, errors.Is(c.Save(ctx), tensor.ErrRegistryOpen))
	c.Freeze()
	require.NoError(t, c.Save(ctx))
	first, err := c.Route(ctx, uniformWeights(c.Space(), 0.25))
	require.NoError(t, err)

	loaded, err := Load(ctx, testOptions(t, store), c.RegistryID())
	require.NoError(t, err)
	require.Equal(t, c.RegistryID(), loaded.RegistryID())
	require.True(t, loaded.Space().Frozen())
	require.Equal(t, c.Space().Codes(), loaded.Space().Codes())
	require.Equal(t, c.Tree().Root.ActiveSets(), loaded.Tree().Root.ActiveSets())

	again, err := loaded.Route(ctx, uniformWeights(loaded.Space(), 0.25))
	require.NoError(t, err)
	require.Equal(t, first.Tensor.Cells(), again.Tensor.Cells())

	_, err = Load(ctx, testOptions(t, store), "missing")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestClientExportImport(t *testing.T) {
	ctx := context.Background()
	c := observedClient(t, storage.NewMemoryStore())
	c.Freeze()
	first, err := c.Route(ctx, uniformWeights(c.Space(), 1))
	require.NoError(t, err)

	for _, name := range []string{"bundle.json", "bundle.lz4", "bundle.xz"} {
		path := filepath.Join(t.TempDir(), name)
		n, err := c.Export(path, "")
		require.NoError(t, err, name)
		require.Positive(t, n, name)

		imported, err := Import(testOptions(t, storage.NewMemoryStore()), path)
		require.NoError(t, err, name)
		require.Equal(t, c.Space().Codes(), imported.Space().Codes(), name)
		require.Equal(t, c.Codec().Widths(), imported.Codec().Widths(), name)

		b, err := imported.Snapshot()
		require.NoError(t, err, name)
		require.NotNil(t, b.Tensor, name)
		require.Equal(t, first.Tensor.Records(), b.Tensor.Cells, name)
	}
}

func TestRestoreRejectsOtherTopology(t *testing.T) {
	c := observedClient(t, storage.NewMemoryStore())
	c.Freeze()
	b, err := c.Snapshot()
	require.NoError(t, err)

	opts := testOptions(t, storage.NewMemoryStore())
	opts.Topology = "tmultiway"
	_, err = Restore(opts, b)
	require.True(t, errors.Is(err, tensor.ErrTopologyMismatch))

	opts.Topology = ""
	restored, err := Restore(opts, b)
	require.NoError(t, err)
	require.Equal(t, tensor.Hierarchical, restored.Topology())
}

func TestClientInspect(t *testing.T) {
	c := observedClient(t, storage.NewMemoryStore())
	c.Freeze()
	codec := c.Codec()

	// en is class 0, so the class slot holds 1.
	code := codec.PackPPP(feature.HP_MP, feature.PosVerb+1, feature.PosNoun+1, 0) | codec.TypoSlot(1)
	info, err := c.Inspect(code)
	require.NoError(t, err)
	require.Equal(t, feature.HP_MP, info.Template)
	require.Equal(t, []int{feature.PosVerb + 1, feature.PosNoun + 1, 1}, info.Args)
	require.True(t, info.Registered)
	require.NotZero(t, info.Spaces&feature.ArcSpace)
	require.Equal(t, c.Space().ID(feature.ArcSpace, code), info.ArcID)
	require.True(t, info.Routed)
	require.Len(t, info.Coords, 10)

	_, err = c.Inspect(0)
	require.True(t, errors.Is(err, tensor.ErrTopologyMismatch))
}

func TestNewRejectsBadOptions(t *testing.T) {
	opts := testOptions(t, nil)
	opts.Topology = "threeway"
	_, err := New(opts)
	require.True(t, errors.Is(err, tensor.ErrTopologyMismatch))

	opts = testOptions(t, nil)
	opts.Typology = nil
	_, err = New(opts)
	require.Error(t, err)

	opts = testOptions(t, nil)
	opts.Topology = "pentaway"
	_, err = New(opts)
	require.True(t, errors.Is(err, tensor.ErrUnsupportedTopology))

	opts = testOptions(t, nil)
	opts.Features.Lexical = true
	_, err = New(opts)
	require.Error(t, err)

	opts = testOptions(t, nil)
	opts.StoreKind = "etcd"
	_, err = New(opts)
	require.Error(t, err)
}

func TestObserveRejectsUnlabeledInstances(t *testing.T) {
	c := observedClient(t, storage.NewMemoryStore())
	inst := sentence(0)
	inst.Labels = nil
	require.Error(t, c.Observe(context.Background(), inst))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, errors.Is(c.Observe(ctx, sentence(0)), context.Canceled))
}
