package feature

import (
	"fmt"

	"tensordep/internal/model"
	"tensordep/internal/typology"
)

// The functions below build node-local vectors: entry ids index a parameter
// node's own range, laid out by the node's bias offsets. Index 0 is the
// node's bias cell unless noted otherwise.

var (
	svoBlock  = map[Template]int{SV_NOUN: 0, SV_PRON: 1, VO_NOUN: 2, VO_PRON: 3}
	typoBlock = map[Template]int{ADP_NOUN: 0, ADP_PRON: 1, GEN: 2, ADJ: 3}
)

func wordOrderDir(bin int) int {
	if bin < DistanceMagnitudes {
		return 0
	}
	return 1
}

// SVOCode is the composite index of a subject/object word-order value:
// value, then direction, then the passive/indirect variant.
func SVOCode(v, dir int, secondary bool) int {
	code := v*4 + dir*2
	if secondary {
		code++
	}
	return code
}

// TypoCode is the composite index of an adposition, genitive or adjective
// word-order value and its direction.
func TypoCode(v, dir int) int {
	return v*2 + dir
}

// SVOSecondary reports whether label selects the passive subject or the
// indirect object cell.
func SVOSecondary(label int) bool {
	return label == LabelSbjPass || label == LabelIobj
}

// SVOBlock is the block of a subject/object template within a word-order node.
func SVOBlock(t Template) (int, bool) {
	block, ok := svoBlock[t]
	return block, ok
}

// TypoBlock is the block of an adposition, genitive or adjective template
// within a word-order node that holds no subject/object blocks.
func TypoBlock(t Template) (int, bool) {
	block, ok := typoBlock[t]
	return block, ok
}

func (b *Builder) lang(id int) (typology.Language, error) {
	if b.typo == nil {
		return typology.Language{}, fmt.Errorf("no typology table for language %d", id)
	}
	return b.typo.Language(id)
}

func (b *Builder) ppCode(p0, p1 int) int {
	return p0*b.cfg.PosNum + p1
}

func boundaryPOS(inst model.Instance, i int) int {
	switch {
	case i < 0:
		return TokenStart
	case i >= inst.Len():
		return TokenEnd
	}
	return inst.POS[i]
}

// ContextPOS returns the POS ids left and right of token i.
func ContextPOS(inst model.Instance, i int) (int, int) {
	return boundaryPOS(inst, i-1), boundaryPOS(inst, i+1)
}

// ThreewayPOSFeatures covers token i's POS, its neighbours and the two
// neighbour pairs.
func (b *Builder) ThreewayPOSFeatures(inst model.Instance, i int, bias []int) *Vector {
	p0 := inst.POS[i]
	left, right := ContextPOS(inst, i)
	fv := &Vector{}
	fv.Add(0, 1)
	fv.Add(bias[0]+p0, 1)
	fv.Add(bias[1]+left, 1)
	fv.Add(bias[2]+right, 1)
	fv.Add(bias[3]+b.ppCode(left, p0), 1)
	fv.Add(bias[4]+b.ppCode(p0, right), 1)
	return fv
}

func (b *Builder) DirDistFeatures(bin int, bias []int) *Vector {
	fv := &Vector{}
	fv.Add(0, 1)
	fv.Add(bias[0]+bin, 1)
	return fv
}

// DirDistTypoFeatures covers the class and family cells, the undirected
// distance and the directed distance crossed with class and family.
func (b *Builder) DirDistTypoFeatures(bin, langID int, bias []int) (*Vector, error) {
	lang, err := b.lang(langID)
	if err != nil {
		return nil, err
	}
	d := DistanceMagnitudes
	undirected := bin
	if bin >= d {
		undirected = bin - d
	}
	fv := &Vector{}
	fv.Add(0, 1)
	fv.Add(bias[0]+lang.Class, 1)
	fv.Add(bias[1]+lang.Family, 1)
	fv.Add(bias[2]+undirected, 1)
	fv.Add(bias[3]+lang.Class*2*d+bin, 1)
	fv.Add(bias[4]+lang.Family*2*d+bin, 1)
	return fv, nil
}

func (b *Builder) LabelFeatures(label int, bias []int) *Vector {
	fv := &Vector{}
	fv.Add(0, 1)
	fv.Add(bias[0]+label, 1)
	return fv
}

func (b *Builder) POSFeatures(p int, bias []int) *Vector {
	fv := &Vector{}
	fv.Add(0, 1)
	fv.Add(bias[0]+p, 1)
	return fv
}

// LexicalFeatures covers the embedding dimensions of token i, weighted by
// the embedding, and its trained-language word.
func (b *Builder) LexicalFeatures(inst model.Instance, i int, bias []int) *Vector {
	fv := &Vector{}
	fv.Add(0, 1)
	if id := inst.WordVecID(i); id >= 0 && b.vectors != nil {
		if vec, ok := b.vectors.WordVec(inst.Lang, id); ok {
			for j, v := range vec {
				fv.Add(bias[0]+j, v)
			}
		}
	}
	if t := inst.TransID(i); t >= 0 {
		fv.Add(bias[1]+t, 1)
	}
	return fv
}

func (b *Builder) ContextFeatures(pp, np int, bias []int) *Vector {
	fv := &Vector{}
	fv.Add(0, 1)
	fv.Add(bias[0]+pp, 1)
	fv.Add(bias[1]+np, 1)
	return fv
}

// ContextTypoFeatures crosses the left and right context POS with the
// language class and family.
func (b *Builder) ContextTypoFeatures(pp, np, langID int, bias []int) (*Vector, error) {
	lang, err := b.lang(langID)
	if err != nil {
		return nil, err
	}
	n := b.cfg.PosNum
	fv := &Vector{}
	fv.Add(0, 1)
	fv.Add(bias[2]+lang.Class*n+pp, 1)
	fv.Add(bias[3]+lang.Family*n+pp, 1)
	fv.Add(bias[4]+lang.Class*n+np, 1)
	fv.Add(bias[5]+lang.Family*n+np, 1)
	return fv, nil
}

// SVOFeatures covers the subject/object word-order cell of a verb argument.
// The node has no bias cell. Pairs outside (VERB, NOUN|PRON) with a subject
// or object label are rejected with ErrTemplateDomain.
func (b *Builder) SVOFeatures(hp, mp, label, bin, langID int, bias []int) (*Vector, error) {
	t, ft, ok := SVOTemplate(hp, mp, label)
	if !ok {
		return nil, fmt.Errorf("%w: svo features for head pos %d, modifier pos %d, label %d", ErrTemplateDomain, hp, mp, label)
	}
	lang, err := b.lang(langID)
	if err != nil {
		return nil, err
	}
	fv := &Vector{}
	fv.Add(bias[svoBlock[t]]+SVOCode(lang.Features[ft], wordOrderDir(bin), SVOSecondary(label)), 1)
	return fv, nil
}

// TypoFeatures covers the adposition, genitive and adjective word-order
// cells. The node has no bias cell and the vector is empty for other pairs.
func (b *Builder) TypoFeatures(hp, mp, bin, langID int, bias []int) (*Vector, error) {
	fv := &Vector{}
	t, ft, ok := TypoTemplate(hp, mp)
	if !ok {
		return fv, nil
	}
	lang, err := b.lang(langID)
	if err != nil {
		return nil, err
	}
	fv.Add(bias[typoBlock[t]]+TypoCode(lang.Features[ft], wordOrderDir(bin)), 1)
	return fv, nil
}

// AllTypoFeatures is the flattened word-order node: the bias cell, the
// four subject/object blocks and the four adposition/genitive/adjective
// blocks.
func (b *Builder) AllTypoFeatures(hp, mp, label, bin, langID int, bias []int) (*Vector, error) {
	lang, err := b.lang(langID)
	if err != nil {
		return nil, err
	}
	dir := wordOrderDir(bin)
	fv := &Vector{}
	fv.Add(0, 1)
	if t, ft, ok := SVOTemplate(hp, mp, label); ok {
		fv.Add(bias[svoBlock[t]]+SVOCode(lang.Features[ft], dir, SVOSecondary(label)), 1)
	}
	if t, ft, ok := TypoTemplate(hp, mp); ok {
		fv.Add(bias[len(svoBlock)+typoBlock[t]]+TypoCode(lang.Features[ft], dir), 1)
	}
	return fv, nil
}
