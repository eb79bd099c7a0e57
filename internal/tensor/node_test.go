package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tensordep/internal/feature"
)

func treeConfig(top Topology) TreeConfig {
	tc := TreeConfig{
		Topology:   top,
		PosNum:     testPosNum,
		LabelNum:   testLabelNum,
		ClassNum:   2,
		FamilyNum:  3,
		EmbDim:     testEmbDim,
		TransNum:   testTransNum,
		LearnLabel: true,
		Lexical:    top.CrossLingual(),
	}
	for i := range tc.Values {
		tc.Values[i] = 3
	}
	return tc
}

func paths(n *Node) []string {
	var out []string
	n.Walk(func(path string, _ *Node) {
		out = append(out, path)
	})
	return out
}

func TestThreewayLayout(t *testing.T) {
	tree, err := NewTree(treeConfig(Threeway))
	require.NoError(t, err)

	p := testPosNum
	require.Equal(t, []int{1, 1 + p, 1 + 2*p, 1 + 3*p, 1 + 3*p + p*p}, tree.Head.Bias)
	require.Equal(t, 1+3*p+2*p*p, tree.Head.Size)
	require.Equal(t, []int{1}, tree.Dist.Bias)
	require.Equal(t, 1+2*feature.DistanceMagnitudes, tree.Dist.Size)
	require.Equal(t, 1+testLabelNum, tree.Label.Size)
	require.Nil(t, tree.HeadCtx)
	require.Equal(t, []string{"root", "root/head", "root/mod", "root/dist", "root/label"}, paths(tree.Root))
}

func TestMultiwayLayoutWithoutLabels(t *testing.T) {
	tc := treeConfig(Multiway)
	tc.LearnLabel = false
	tree, err := NewTree(tc)
	require.NoError(t, err)

	require.Nil(t, tree.Label)
	require.Equal(t, []int{1, 1 + testPosNum}, tree.HeadCtx.Bias)
	require.Equal(t, []string{"root", "root/head", "root/mod", "root/head_ctx", "root/mod_ctx", "root/dist"}, paths(tree.Root))
}

func TestHierarchicalLayout(t *testing.T) {
	tree, err := NewTree(treeConfig(Hierarchical))
	require.NoError(t, err)

	p, d := testPosNum, feature.DistanceMagnitudes
	require.Equal(t, []int{1, 3, 6, 6 + 2*p, 6 + 5*p, 6 + 7*p}, tree.HeadCtx.Bias)
	require.Equal(t, 6+10*p, tree.HeadCtx.Size)
	require.Equal(t, []int{1, 3, 6, 6 + d, 6 + d + 4*d}, tree.Dist.Bias)

	// Word-order nodes have no bias cell.
	require.Equal(t, []int{0, 6, 12, 18}, tree.Typo.Bias)
	require.Equal(t, 24, tree.Typo.Size)
	require.Equal(t, []int{0, 12, 24, 36}, tree.SVO.Bias)
	require.Equal(t, []int{1, 1 + testEmbDim}, tree.HeadLex.Bias)

	require.Equal(t, []string{
		"root",
		"root/lexical",
		"root/lexical/head_lex",
		"root/lexical/mod_lex",
		"root/delexical",
		"root/delexical/head_ctx",
		"root/delexical/mod_ctx",
		"root/delexical/arc",
		"root/delexical/arc/label",
		"root/delexical/arc/typo",
		"root/delexical/arc/typo/head",
		"root/delexical/arc/typo/mod",
		"root/delexical/arc/typo/dist",
	}, paths(tree.Root))
}

func TestHierarchicalLayoutWithoutLabelsOrLexicon(t *testing.T) {
	tc := treeConfig(Hierarchical)
	tc.LearnLabel = false
	tc.Lexical = false
	tree, err := NewTree(tc)
	require.NoError(t, err)

	require.Nil(t, tree.SVO)
	require.Nil(t, tree.Label)
	require.Nil(t, tree.HeadLex)
	require.Equal(t, "delexical", tree.Root.Name)
	require.Contains(t, paths(tree.Root), "delexical/typo/dist")
}

func TestTMultiwayLayout(t *testing.T) {
	tree, err := NewTree(treeConfig(TMultiway))
	require.NoError(t, err)

	require.Equal(t, []int{1, 13, 25, 37, 49, 55, 61, 67}, tree.Typo.Bias)
	require.Equal(t, 73, tree.Typo.Size)
	require.Nil(t, tree.SVO)
	require.Len(t, tree.Root.Children, 9)
}

func TestTreeConfigValidate(t *testing.T) {
	tc := treeConfig(Hierarchical)
	tc.ClassNum = 0
	_, err := NewTree(tc)
	require.Error(t, err)

	tc = treeConfig(TMultiway)
	tc.LabelNum = 0
	_, err = NewTree(tc)
	require.Error(t, err)

	tc = treeConfig(Topology(42))
	_, err = NewTree(tc)
	require.ErrorIs(t, err, ErrUnsupportedTopology)

	tc = treeConfig(Threeway)
	tc.ClassNum, tc.FamilyNum = 0, 0
	_, err = NewTree(tc)
	require.NoError(t, err)
}

func TestNodeActivation(t *testing.T) {
	n := newNode("head", true, 3, 4)
	require.Equal(t, 8, n.Size)

	fv := &feature.Vector{}
	fv.Add(0, 1)
	fv.Add(5, 0.25)
	require.NoError(t, n.Activate(fv))
	require.True(t, n.IsActive(5))
	require.False(t, n.IsActive(4))
	require.False(t, n.IsActive(-1))
	require.Equal(t, []int{0, 5}, n.ActiveIndices())
	require.Equal(t, 2, n.NumActive())

	bad := &feature.Vector{}
	bad.Add(8, 1)
	require.Error(t, n.Activate(bad))
}

func TestActiveSetsRoundTrip(t *testing.T) {
	f := newFixture(t, Hierarchical, feature.Config{LearnLabel: true, Lexical: true})
	f.observe(t, sentence(0), sentence(1))
	sets := f.tree.Root.ActiveSets()
	require.NotEmpty(t, sets["root/delexical/arc/typo/dist"])

	fresh, err := NewTree(f.tree.Config)
	require.NoError(t, err)
	require.NoError(t, fresh.Root.RestoreActive(sets))
	require.Equal(t, sets, fresh.Root.ActiveSets())

	delete(sets, "root/lexical")
	require.Error(t, fresh.Root.RestoreActive(sets))

	sets = f.tree.Root.ActiveSets()
	sets["root/extra"] = []int{0}
	require.Error(t, fresh.Root.RestoreActive(sets))
}

func TestActivatorRejectsMismatchedBuilder(t *testing.T) {
	f := newFixture(t, Threeway, feature.Config{})
	tree, err := NewTree(treeConfig(Hierarchical))
	require.NoError(t, err)

	_, err = NewActivator(tree, f.builder)
	require.ErrorIs(t, err, ErrTopologyMismatch)
	require.ErrorIs(t, CheckPairing(Multiway, feature.Config{}), ErrTopologyMismatch)
	require.NoError(t, CheckPairing(TMultiway, feature.Config{}))
}

func TestActivatorNeedsLabelsWhenLearned(t *testing.T) {
	f := newFixture(t, Multiway, feature.Config{LearnLabel: true})
	inst := sentence(0)
	inst.Labels = nil
	require.Error(t, f.act.Observe(inst))
}
