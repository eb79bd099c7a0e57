package feature

import "tensordep/internal/typology"

// typed adds code once with the language class in its last tag field and
// once with the language family.
func (a *arc) typed(code int64, value float64) {
	a.add(code|a.class, value)
	a.add(code|a.fam, value)
}

func (a *arc) typedBoth(code int64, value float64) {
	a.typed(code, value)
	a.typed(code|a.attDist, value)
}

// addCrossLingual emits the delexical templates with a trailing
// class/family slot so that weights are shared across related languages.
func (b *Builder) addCrossLingual(a *arc, labeled bool) {
	c := b.codec

	a.typed(c.PackPP(ATTDIST, 0, 0)|a.attDist, 1)

	a.typedBoth(c.PackPP(HP, a.hp, 0), 1)
	a.typedBoth(c.PackPP(MP, a.mp, 0), 1)
	a.typedBoth(c.PackPPP(HP_MP, a.hp, a.mp, 0), 1)

	a.typedBoth(c.PackPPPP(HPp_HP_MP, a.hpp, a.hp, a.mp, 0), 1)
	a.typedBoth(c.PackPPPP(HP_HPn_MP, a.hp, a.hpn, a.mp, 0), 1)
	a.typedBoth(c.PackPPPP(HP_MPp_MP, a.hp, a.mpp, a.mp, 0), 1)
	a.typedBoth(c.PackPPPP(HP_MP_MPn, a.hp, a.mp, a.mpn, 0), 1)

	a.typedBoth(c.PackPPPPP(HPp_HP_MP_MPn, a.hpp, a.hp, a.mp, a.mpn, 0), 1)
	a.typedBoth(c.PackPPPPP(HP_HPn_MP_MPn, a.hp, a.hpn, a.mp, a.mpn, 0), 1)
	a.typedBoth(c.PackPPPPP(HP_HPn_MPp_MP, a.hp, a.hpn, a.mpp, a.mp, 0), 1)
	a.typedBoth(c.PackPPPPP(HPp_HP_MPp_MP, a.hpp, a.hp, a.mpp, a.mp, 0), 1)

	for _, bp := range a.bps {
		a.typed(c.PackPPPP(HP_BP_MP, a.hp, bp, a.mp, 0), 1)
	}

	for i, v := range a.hvec {
		a.typedBoth(c.PackWP(HEAD_EMB, int64(i+1), 0), v)
	}
	for i, v := range a.mvec {
		code := c.PackWP(MOD_EMB, int64(i+1), 0)
		if labeled {
			a.typed(code, v)
		}
		a.typed(code|a.attDist, v)
	}

	if a.htrans > 0 {
		a.typedBoth(c.PackWPPP(HW_HP_MP, a.htrans, a.hp, a.mp, 0), 1)
		a.typedBoth(c.PackWPP(HW_MP, a.htrans, a.mp, 0), 1)
	}
	if a.mtrans > 0 {
		a.typedBoth(c.PackWPPP(MW_HP_MP, a.mtrans, a.hp, a.mp, 0), 1)
		a.typedBoth(c.PackWPP(MW_HP, a.mtrans, a.hp, 0), 1)
	}
}

// addBare emits templates keyed by the undirected distance only.
func (b *Builder) addBare(a *arc, labeled bool) {
	c := b.codec
	dist := int64(BinDist(abs(a.h-a.m)) + 1)

	a.add(c.PackP(DIST, 0)|dist, 1)
	for _, code := range []int64{
		c.PackP(B_HP, a.hp),
		c.PackP(B_MP, a.mp),
		c.PackPP(B_HP_MP, a.hp, a.mp),
	} {
		a.add(code, 1)
		a.add(code|dist, 1)
	}
	if labeled {
		return
	}
	for i, v := range a.hvec {
		code := c.PackW(B_HEAD_EMB, int64(i+1))
		a.add(code, v)
		a.add(code|dist, v)
	}
}

// addSelective emits the word-order templates that only apply to specific
// head/modifier POS pairs. Subject and object templates need the label.
func (b *Builder) addSelective(a *arc, labeled bool) {
	c := b.codec
	dir := int64(Direction(a.h, a.m))
	hp, mp := a.inst.POS[a.h], a.inst.POS[a.m]
	value := func(ft typology.FeatureType) int64 {
		return a.tag(a.lang.Features[ft] + 1)
	}

	if labeled {
		if t, ft, ok := SVOTemplate(hp, mp, a.lbl); ok {
			a.add(c.PackP(t, value(ft))|dir, 1)
		}
	}
	if t, ft, ok := TypoTemplate(hp, mp); ok {
		a.add(c.PackP(t, value(ft))|dir, 1)
	}
}

// SVOTemplate returns the subject/object word-order template that applies
// to a (head POS, modifier POS, label) triple.
func SVOTemplate(hp, mp, label int) (Template, typology.FeatureType, bool) {
	if hp != PosVerb {
		return TemplateNone, 0, false
	}
	subject := label == LabelSbj || label == LabelSbjPass
	object := label == LabelDobj || label == LabelIobj
	switch {
	case mp == PosNoun && subject:
		return SV_NOUN, typology.SV, true
	case mp == PosPron && subject:
		return SV_PRON, typology.SV, true
	case mp == PosNoun && object:
		return VO_NOUN, typology.VO, true
	case mp == PosPron && object:
		return VO_PRON, typology.VO, true
	}
	return TemplateNone, 0, false
}

// TypoTemplate returns the adposition, genitive or adjective word-order
// template that applies to a (head POS, modifier POS) pair.
func TypoTemplate(hp, mp int) (Template, typology.FeatureType, bool) {
	switch {
	case hp == PosAdp && mp == PosNoun:
		return ADP_NOUN, typology.Prep, true
	case hp == PosAdp && mp == PosPron:
		return ADP_PRON, typology.Prep, true
	case hp == PosNoun && mp == PosNoun:
		return GEN, typology.Gen, true
	case hp == PosNoun && mp == PosAdj:
		return ADJ, typology.Adj, true
	}
	return TemplateNone, 0, false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// WordOrderFeature returns the typological feature read by a selective
// template.
func WordOrderFeature(t Template) (typology.FeatureType, bool) {
	switch t {
	case SV_NOUN, SV_PRON:
		return typology.SV, true
	case VO_NOUN, VO_PRON:
		return typology.VO, true
	case ADP_NOUN, ADP_PRON:
		return typology.Prep, true
	case GEN:
		return typology.Gen, true
	case ADJ:
		return typology.Adj, true
	}
	return 0, false
}
