package feature

import (
	"errors"
	"fmt"

	"tensordep/internal/model"
	"tensordep/internal/typology"
)

// Reserved alphabet ids seeded before any corpus is read.
const (
	TokenStart = 1
	TokenEnd   = 2
	TokenMid   = 3

	PosNoun = 4
	PosPron = 5
	PosAdj  = 6
	PosVerb = 7
	PosAdp  = 8

	LabelSbj     = 2
	LabelDobj    = 3
	LabelIobj    = 4
	LabelSbjPass = 5
)

var ErrTemplateDomain = errors.New("template applied outside its domain")

// Typology is the per-language typological lookup used by the
// cross-lingual templates.
type Typology interface {
	Language(id int) (typology.Language, error)
	ClassNum() int
	FamilyNum() int
	NumberOfValues(ft typology.FeatureType) int
}

// WordVectors looks up the embedding of a word in a language.
type WordVectors interface {
	WordVec(lang, id int) ([]float64, bool)
}

// Config selects which template families a Builder emits.
type Config struct {
	// Direct emits the delexical templates without typological slots.
	// Otherwise the cross-lingual, bare and selective families are emitted.
	Direct     bool `json:"direct"`
	LearnLabel bool `json:"learn_label"`
	// Lexical enables embedding and trained-word templates.
	Lexical    bool `json:"lexical"`
	Supervised bool `json:"supervised"`
	TargetLang int  `json:"target_lang"`
	PosNum     int  `json:"pos_num"`
	LabelNum   int  `json:"label_num"`
}

func (c Config) Validate() error {
	if c.PosNum <= PosAdp {
		return fmt.Errorf("pos alphabet of %d cannot hold the reserved tags", c.PosNum)
	}
	if c.LearnLabel && c.LabelNum <= LabelSbjPass {
		return fmt.Errorf("label alphabet of %d cannot hold the reserved labels", c.LabelNum)
	}
	return nil
}

// Builder turns arcs of an instance into sparse feature vectors.
type Builder struct {
	cfg     Config
	codec   Codec
	space   *FeatureSpace
	typo    Typology
	vectors WordVectors
}

// NewBuilder wires a builder. typo is required unless cfg.Direct is set;
// vectors may be nil, in which case embedding templates are never emitted.
func NewBuilder(cfg Config, codec Codec, space *FeatureSpace, typo Typology, vectors WordVectors) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if space == nil {
		return nil, errors.New("feature space is required")
	}
	if !cfg.Direct && typo == nil {
		return nil, errors.New("cross-lingual templates require a typology table")
	}
	if err := codec.CheckTag(cfg.PosNum); err != nil {
		return nil, fmt.Errorf("pos alphabet: %w", err)
	}
	if typo != nil {
		if err := codec.CheckTag(typo.ClassNum() + typo.FamilyNum()); err != nil {
			return nil, fmt.Errorf("typology slot: %w", err)
		}
	}
	return &Builder{cfg: cfg, codec: codec, space: space, typo: typo, vectors: vectors}, nil
}

func (b *Builder) Config() Config { return b.cfg }
func (b *Builder) Codec() Codec { return b.codec }
func (b *Builder) Space() *FeatureSpace { return b.space }
func (b *Builder) Typology() Typology { return b.typo }
func (b *Builder) WordVectors() WordVectors { return b.vectors }

// arc carries the per-arc arguments shared by every template family. The
// first range violation is kept in err and reported once the arc is built.
type arc struct {
	b     *Builder
	inst  model.Instance
	h, m  int
	space Space
	fv    *Vector
	err   error

	lbl     int
	tid     int64
	attDist int64

	hp, mp, hpp, hpn, mpp, mpn int64
	bps                        []int64

	hvec, mvec     []float64
	htrans, mtrans int64

	lang       typology.Language
	class, fam int64
}

func (b *Builder) newArc(inst model.Instance, h, m int, space Space, fv *Vector) *arc {
	a := &arc{b: b, inst: inst, h: h, m: m, space: space, fv: fv, lbl: -1}
	n := inst.Len()
	if h < 0 || h >= n || m <= 0 || m >= n || h == m {
		a.err = fmt.Errorf("invalid arc (%d,%d) in instance of length %d", h, m, n)
		return a
	}
	a.attDist = int64(BinDist(h-m) + 1)
	a.hp = a.pos(h)
	a.mp = a.pos(m)
	a.hpp = a.pos(h - 1)
	a.hpn = a.pos(h + 1)
	a.mpp = a.pos(m - 1)
	a.mpn = a.pos(m + 1)
	for i := min(h, m) + 1; i < max(h, m); i++ {
		a.bps = append(a.bps, a.pos(i))
	}
	a.hvec = a.embedding(h)
	a.mvec = a.embedding(m)
	a.htrans = a.trans(h)
	a.mtrans = a.trans(m)
	if b.typo != nil && !b.cfg.Direct {
		lang, err := b.typo.Language(inst.Lang)
		if err != nil {
			a.fail(err)
			return a
		}
		a.lang = lang
		a.class = b.codec.TypoSlot(lang.Class + 1)
		a.fam = b.codec.TypoSlot(lang.Family + b.typo.ClassNum() + 1)
	}
	if b.cfg.Supervised && inst.Lang == b.cfg.TargetLang {
		if len(inst.Forms) != n {
			a.fail(errors.New("supervised templates need word forms"))
			return a
		}
		a.word(inst.Forms[h] + 1)
		a.word(inst.Forms[m] + 1)
	}
	return a
}

// pos returns the shifted POS of token i, with sentence boundary markers
// outside the instance.
func (a *arc) pos(i int) int64 {
	var p int
	switch {
	case i < 0:
		p = TokenStart
	case i >= a.inst.Len():
		p = TokenEnd
	default:
		p = a.inst.POS[i]
	}
	if p < 0 || p >= a.b.cfg.PosNum {
		a.fail(fmt.Errorf("%w: pos id %d outside alphabet of %d", ErrTagOverflow, p, a.b.cfg.PosNum))
		return 0
	}
	return int64(p + 1)
}

func (a *arc) word(x int) int64 {
	if err := a.b.codec.CheckWord(x); err != nil {
		a.fail(err)
		return 0
	}
	return int64(x)
}

func (a *arc) tag(x int) int64 {
	if err := a.b.codec.CheckTag(x); err != nil {
		a.fail(err)
		return 0
	}
	return int64(x)
}

func (a *arc) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

func (a *arc) label(label int) {
	if label < 0 || (a.b.cfg.LabelNum > 0 && label >= a.b.cfg.LabelNum) || int64(label+1) > a.b.codec.depMask {
		a.fail(fmt.Errorf("label %d does not fit %d dependency bits", label, a.b.codec.w.DepNumBits))
		return
	}
	a.lbl = label
	a.tid = a.b.codec.LabelTag(label)
}

func (a *arc) add(code int64, value float64) {
	a.b.space.Add(a.space, code|a.tid, value, a.fv)
}

// both adds code bare and with the attachment distance suffix.
func (a *arc) both(code int64, value float64) {
	a.add(code, value)
	a.add(code|a.attDist, value)
}

// embedding returns the vector of token i, or nil when it has none.
func (a *arc) embedding(i int) []float64 {
	if !a.b.cfg.Lexical || a.b.vectors == nil {
		return nil
	}
	id := a.inst.WordVecID(i)
	if id < 0 {
		return nil
	}
	vec, ok := a.b.vectors.WordVec(a.inst.Lang, id)
	if !ok {
		return nil
	}
	if err := a.b.codec.CheckWord(len(vec)); err != nil {
		a.fail(fmt.Errorf("embedding dimension: %w", err))
		return nil
	}
	return vec
}

// trans returns the shifted trained-word id of token i, or 0 when absent.
func (a *arc) trans(i int) int64 {
	if !a.b.cfg.Lexical {
		return 0
	}
	id := a.inst.TransID(i)
	if id < 0 {
		return 0
	}
	return a.word(id + 1)
}

// CreateArcFeatures builds the unlabeled feature vector of arc (h, m).
func (b *Builder) CreateArcFeatures(inst model.Instance, h, m int) (*Vector, error) {
	fv := &Vector{}
	a := b.newArc(inst, h, m, ArcSpace, fv)
	if a.err != nil {
		return nil, a.err
	}
	b.emit(a, false)
	if a.err != nil {
		return nil, a.err
	}
	return fv, nil
}

// CreateArcLabelFeatures builds the labeled feature vector of arc (h, m)
// with the given label. It is empty unless labels are learned.
func (b *Builder) CreateArcLabelFeatures(inst model.Instance, h, m, label int) (*Vector, error) {
	fv := &Vector{}
	if !b.cfg.LearnLabel {
		return fv, nil
	}
	a := b.newArc(inst, h, m, LabeledSpace, fv)
	a.label(label)
	if a.err != nil {
		return nil, a.err
	}
	b.emit(a, true)
	if a.err != nil {
		return nil, a.err
	}
	return fv, nil
}

func (b *Builder) emit(a *arc, labeled bool) {
	if b.cfg.Supervised && a.inst.Lang == b.cfg.TargetLang {
		b.addSupervised(a)
	}
	if b.cfg.Direct {
		b.addDelexical(a, labeled)
		return
	}
	b.addCrossLingual(a, labeled)
	b.addBare(a, labeled)
	b.addSelective(a, labeled)
}
