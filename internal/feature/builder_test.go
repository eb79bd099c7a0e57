package feature

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tensordep/internal/model"
	"tensordep/internal/typology"
	"tensordep/internal/wordvec"
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
		{ID: 1, Name: "ja", Class: 1, Family: 2, Features: [typology.NumFeatureTypes]int{2, 1, 1, 0, 0}},
	})
	require.NoError(t, err)
	return table
}

func testBuilder(t *testing.T, cfg Config, vectors WordVectors) (*Builder, *FeatureSpace) {
	t.Helper()
	cfg.PosNum = testPosNum
	cfg.LabelNum = testLabelNum
	space, err := NewFeatureSpace(DefaultSpaceSize, DefaultSpaceSize)
	require.NoError(t, err)
	codec := MustCodec(WidthsFor(testPosNum+1, 1000, testLabelNum))
	b, err := NewBuilder(cfg, codec, space, testTypology(t), vectors)
	require.NoError(t, err)
	return b, space
}

// rootNounVerb is a noun subject attached to a verb attached to the root.
func rootNounVerb(lang int) model.Instance {
	return model.Instance{
		Lang:   lang,
		Forms:  []int{0, 10, 11},
		POS:    []int{testRootPOS, PosNoun, PosVerb},
		Heads:  []int{-1, 2, 0},
		Labels: []int{0, LabelSbj, 0},
	}
}

func requireHasID(t *testing.T, fv *Vector, id int, what string) {
	t.Helper()
	require.Contains(t, fv.IDs(), id, what)
}

func TestCreateArcFeaturesEndToEnd(t *testing.T) {
	b, space := testBuilder(t, Config{Direct: true}, nil)
	c := b.Codec()
	inst := rootNounVerb(0)

	fv, err := b.CreateArcFeatures(inst, 2, 1)
	require.NoError(t, err)
	require.Positive(t, fv.Len())

	hp, mp := int64(PosVerb+1), int64(PosNoun+1)
	dist := int64(BinDist(2-1) + 1)
	for _, code := range []int64{
		c.PackP(HP, hp),
		c.PackP(MP, mp),
		c.PackPP(HP_MP, hp, mp),
	} {
		require.Equal(t, 0, c.DistanceOf(code))
		requireHasID(t, fv, space.ID(ArcSpace, code), c.TemplateOf(code).String())
		requireHasID(t, fv, space.ID(ArcSpace, code|dist), c.TemplateOf(code).String()+"+dist")
	}
	for _, e := range fv.Entries {
		require.GreaterOrEqual(t, e.ID, 0)
		require.Less(t, e.ID, space.Size(ArcSpace))
	}

	other := inst
	other.POS = []int{testRootPOS, PosAdj, PosAdp}
	ofv, err := b.CreateArcFeatures(other, 2, 1)
	require.NoError(t, err)
	require.NotContains(t, ofv.IDs(), space.ID(ArcSpace, c.PackPP(HP_MP, hp, mp)))

	var found bool
	for _, e := range space.Codes() {
		if e.Code == c.PackPP(HP_MP, hp, mp) {
			found = true
			require.Equal(t, ArcSpace, e.Spaces)
		}
	}
	require.True(t, found)
}

func TestCreateArcLabelFeatures(t *testing.T) {
	b, space := testBuilder(t, Config{Direct: true, LearnLabel: true}, nil)
	c := b.Codec()
	inst := rootNounVerb(0)

	fv, err := b.CreateArcLabelFeatures(inst, 2, 1, LabelSbj)
	require.NoError(t, err)
	code := c.PackP(HP, PosVerb+1) | c.LabelTag(LabelSbj)
	requireHasID(t, fv, space.ID(LabeledSpace, code), "labeled HP")
	require.Equal(t, LabelSbj+1, c.LabelOf(code))

	for _, e := range space.Codes() {
		require.Equal(t, LabeledSpace, e.Spaces)
		require.Equal(t, LabelSbj+1, c.LabelOf(e.Code))
	}

	_, err = b.CreateArcLabelFeatures(inst, 2, 1, testLabelNum)
	require.Error(t, err)
}

func TestCreateArcLabelFeaturesWithoutLabels(t *testing.T) {
	b, space := testBuilder(t, Config{Direct: true}, nil)
	fv, err := b.CreateArcLabelFeatures(rootNounVerb(0), 2, 1, LabelSbj)
	require.NoError(t, err)
	require.Zero(t, fv.Len())
	require.Zero(t, space.NumCodes())
}

func TestCrossLingualFeaturesCarryClassAndFamily(t *testing.T) {
	b, space := testBuilder(t, Config{LearnLabel: true}, nil)
	c := b.Codec()
	inst := rootNounVerb(1)

	fv, err := b.CreateArcFeatures(inst, 2, 1)
	require.NoError(t, err)

	hp := int64(PosVerb + 1)
	classCode := c.PackPP(HP, hp, 0) | c.TypoSlot(1+1)
	famCode := c.PackPP(HP, hp, 0) | c.TypoSlot(2+2+1)
	requireHasID(t, fv, space.ID(ArcSpace, classCode), "class slot")
	requireHasID(t, fv, space.ID(ArcSpace, famCode), "family slot")
	require.Equal(t, [2]int{int(hp), 2}, c.UnpackPP(classCode))
	require.Equal(t, [2]int{int(hp), 5}, c.UnpackPP(famCode))

	bare := c.PackPP(B_HP_MP, hp, PosNoun+1) | int64(BinDist(1)+1)
	requireHasID(t, fv, space.ID(ArcSpace, bare), "bare HP_MP")

	// Subject/object templates need the label.
	sv := c.PackP(SV_NOUN, 2+1) | int64(Direction(2, 1))
	require.NotContains(t, fv.IDs(), space.ID(ArcSpace, sv))

	lfv, err := b.CreateArcLabelFeatures(inst, 2, 1, LabelSbj)
	require.NoError(t, err)
	requireHasID(t, lfv, space.ID(LabeledSpace, sv|c.LabelTag(LabelSbj)), "SV_NOUN")
}

func TestTypoTemplateEmittedWithoutLabel(t *testing.T) {
	b, space := testBuilder(t, Config{}, nil)
	c := b.Codec()
	inst := model.Instance{
		Lang:  1,
		POS:   []int{testRootPOS, PosAdp, PosNoun},
		Heads: []int{-1, 0, 1},
	}
	fv, err := b.CreateArcFeatures(inst, 1, 2)
	require.NoError(t, err)
	code := c.PackP(ADP_NOUN, 1+1) | int64(Direction(1, 2))
	requireHasID(t, fv, space.ID(ArcSpace, code), "ADP_NOUN")
}

func TestLexicalTemplates(t *testing.T) {
	vectors, err := wordvec.NewTable(2)
	require.NoError(t, err)
	require.NoError(t, vectors.Put(0, 4, []float64{0.5, -0.25}))

	b, space := testBuilder(t, Config{Direct: true, Lexical: true}, vectors)
	c := b.Codec()
	inst := rootNounVerb(0)
	inst.WordVecIDs = []int{-1, 4, -1}
	inst.TransIDs = []int{-1, -1, 6}

	fv, err := b.CreateArcFeatures(inst, 2, 1)
	require.NoError(t, err)

	dist := int64(BinDist(1) + 1)
	modEmb := space.ID(ArcSpace, c.PackW(MOD_EMB, 1)|dist)
	var weight float64
	for _, e := range fv.Entries {
		if e.ID == modEmb {
			weight += e.Value
		}
	}
	require.InDelta(t, 0.5, weight, 1e-12)
	require.NotContains(t, fv.IDs(), space.ID(ArcSpace, c.PackW(MOD_EMB, 1)))

	hw := c.PackWP(HW_MP, 7, PosNoun+1)
	requireHasID(t, fv, space.ID(ArcSpace, hw), "HW_MP")

	plain, _ := testBuilder(t, Config{Direct: true}, vectors)
	pfv, err := plain.CreateArcFeatures(inst, 2, 1)
	require.NoError(t, err)
	require.Less(t, pfv.Len(), fv.Len())
}

func TestSupervisedTemplatesOnlyForTargetLanguage(t *testing.T) {
	b, space := testBuilder(t, Config{Direct: true, Supervised: true, TargetLang: 1}, nil)
	c := b.Codec()
	code := c.PackWW(L_HW_MW, 11+1, 10+1)

	fv, err := b.CreateArcFeatures(rootNounVerb(1), 2, 1)
	require.NoError(t, err)
	requireHasID(t, fv, space.ID(ArcSpace, code), "L_HW_MW")

	fv, err = b.CreateArcFeatures(rootNounVerb(0), 2, 1)
	require.NoError(t, err)
	require.NotContains(t, fv.IDs(), space.ID(ArcSpace, code))
}

func TestBuilderRejectsOutOfRangeArguments(t *testing.T) {
	b, _ := testBuilder(t, Config{Direct: true}, nil)

	inst := rootNounVerb(0)
	inst.POS = []int{testRootPOS, testPosNum + 3, PosVerb}
	_, err := b.CreateArcFeatures(inst, 2, 1)
	require.True(t, errors.Is(err, ErrTagOverflow))

	_, err = b.CreateArcFeatures(rootNounVerb(0), 1, 0)
	require.Error(t, err)
	_, err = b.CreateArcFeatures(rootNounVerb(0), 1, 1)
	require.Error(t, err)

	cross, _ := testBuilder(t, Config{}, nil)
	_, err = cross.CreateArcFeatures(rootNounVerb(7), 2, 1)
	require.True(t, errors.Is(err, typology.ErrUnknownLanguage))
}

func TestFrozenSpaceKeepsHashing(t *testing.T) {
	b, space := testBuilder(t, Config{Direct: true}, nil)
	_, err := b.CreateArcFeatures(rootNounVerb(0), 2, 1)
	require.NoError(t, err)
	before := space.NumCodes()
	space.Freeze()

	inst := rootNounVerb(0)
	inst.POS = []int{testRootPOS, PosAdj, PosAdp}
	fv, err := b.CreateArcFeatures(inst, 2, 1)
	require.NoError(t, err)
	require.Positive(t, fv.Len())
	require.Equal(t, before, space.NumCodes())
}

func TestNodeFeatures(t *testing.T) {
	b, _ := testBuilder(t, Config{LearnLabel: true}, nil)

	_, err := b.SVOFeatures(PosNoun, PosNoun, LabelSbj, 0, 0, []int{0, 12, 24, 36})
	require.True(t, errors.Is(err, ErrTemplateDomain))

	// ja: SV value 2, subject after the verb, passive variant.
	fv, err := b.SVOFeatures(PosVerb, PosNoun, LabelSbjPass, 6, 1, []int{0, 12, 24, 36})
	require.NoError(t, err)
	require.Equal(t, []int{2*4 + 1*2 + 1}, fv.IDs())

	fv, err = b.TypoFeatures(PosVerb, PosNoun, 0, 1, []int{0, 6, 12, 18})
	require.NoError(t, err)
	require.Zero(t, fv.Len())

	fv, err = b.TypoFeatures(PosNoun, PosAdj, 0, 1, []int{0, 6, 12, 18})
	require.NoError(t, err)
	require.Equal(t, []int{18}, fv.IDs())

	fv, err = b.DirDistTypoFeatures(7, 1, []int{1, 3, 6, 11, 31})
	require.NoError(t, err)
	require.Equal(t, []int{0, 2, 5, 8, 11 + 10 + 7, 31 + 20 + 7}, fv.IDs())

	left, right := ContextPOS(rootNounVerb(0), 2)
	require.Equal(t, PosNoun, left)
	require.Equal(t, TokenEnd, right)
}
