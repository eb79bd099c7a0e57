package feature

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	ErrCodecWidth   = errors.New("codec bit widths exceed 64 bits")
	ErrTagOverflow  = errors.New("tag id exceeds tag bit width")
	ErrWordOverflow = errors.New("word id exceeds word bit width")
)

// DistanceBits is the width of the low suffix holding a distance bin or a
// direction marker. Label tags start right above it.
const DistanceBits = 4

// Widths are the bit widths of a code's fields.
type Widths struct {
	TagNumBits     int `json:"tag_num_bits"`
	WordNumBits    int `json:"word_num_bits"`
	DepNumBits     int `json:"dep_num_bits"`
	FlagBits       int `json:"flag_bits"`
	NumArcFeatBits int `json:"num_arc_feat_bits"`
}

// WidthsFor sizes a codec for the given alphabets. maxTag is the largest
// value stored in a tag field (POS ids, typological values and the
// class/family slot, all already shifted by one), maxWord the largest word
// field value, and labels the number of dependency labels.
func WidthsFor(maxTag, maxWord, labels int) Widths {
	dep := bits.Len(uint(labels))
	if dep == 0 {
		dep = 1
	}
	return Widths{
		TagNumBits:     max(bits.Len(uint(maxTag)), 1),
		WordNumBits:    max(bits.Len(uint(maxWord)), 1),
		DepNumBits:     dep,
		FlagBits:       DistanceBits + dep,
		NumArcFeatBits: bits.Len(uint(MaxTemplate)),
	}
}

// Codec packs template arguments into 64-bit feature codes and back.
type Codec struct {
	w Widths

	tagMask  int64
	wordMask int64
	tempMask int64
	depMask  int64
}

func NewCodec(w Widths) (Codec, error) {
	if err := w.Validate(); err != nil {
		return Codec{}, err
	}
	return Codec{
		w:        w,
		tagMask:  1<<w.TagNumBits - 1,
		wordMask: 1<<w.WordNumBits - 1,
		tempMask: 1<<w.NumArcFeatBits - 1,
		depMask:  1<<w.DepNumBits - 1,
	}, nil
}

// MustCodec is NewCodec for static configurations; it panics on error.
func MustCodec(w Widths) Codec {
	c, err := NewCodec(w)
	if err != nil {
		panic(err)
	}
	return c
}

func (w Widths) Validate() error {
	if w.TagNumBits <= 0 || w.WordNumBits <= 0 || w.DepNumBits <= 0 || w.NumArcFeatBits <= 0 {
		return fmt.Errorf("%w: widths must be positive: %+v", ErrCodecWidth, w)
	}
	if w.FlagBits < DistanceBits+w.DepNumBits {
		return fmt.Errorf("%w: flag bits %d cannot hold distance and label (%d)", ErrCodecWidth, w.FlagBits, DistanceBits+w.DepNumBits)
	}
	if bits.Len(uint(MaxTemplate)) > w.NumArcFeatBits {
		return fmt.Errorf("%w: %d template bits cannot hold template %d", ErrCodecWidth, w.NumArcFeatBits, MaxTemplate)
	}
	low := w.FlagBits + w.NumArcFeatBits
	widest := max(
		low+5*w.TagNumBits,
		low+w.WordNumBits+3*w.TagNumBits,
		low+2*w.WordNumBits+2*w.TagNumBits,
	)
	if widest > 64 {
		return fmt.Errorf("%w: widest code needs %d bits", ErrCodecWidth, widest)
	}
	return nil
}

func (c Codec) Widths() Widths { return c.w }

// CheckTag reports whether x fits a tag field.
func (c Codec) CheckTag(x int) error {
	if x < 0 || int64(x) > c.tagMask {
		return fmt.Errorf("%w: %d does not fit %d bits", ErrTagOverflow, x, c.w.TagNumBits)
	}
	return nil
}

// CheckWord reports whether x fits a word field.
func (c Codec) CheckWord(x int) error {
	if x < 0 || int64(x) > c.wordMask {
		return fmt.Errorf("%w: %d does not fit %d bits", ErrWordOverflow, x, c.w.WordNumBits)
	}
	return nil
}

// TypoSlot returns the pre-shifted mask OR'd into a code whose last tag
// argument was packed as zero.
func (c Codec) TypoSlot(x int) int64 {
	return (int64(x) << c.w.NumArcFeatBits) << c.w.FlagBits
}

// LabelTag returns the suffix for label id label. Zero is reserved for
// unlabeled codes.
func (c Codec) LabelTag(label int) int64 {
	return int64(label+1) << DistanceBits
}

func (c Codec) finish(t Template, acc int64) int64 {
	return ((acc << c.w.NumArcFeatBits) | int64(t)) << c.w.FlagBits
}

func (c Codec) PackP(t Template, x int64) int64 {
	return c.finish(t, x)
}

func (c Codec) PackPP(t Template, x, y int64) int64 {
	return c.finish(t, (x<<c.w.TagNumBits)|y)
}

func (c Codec) PackPPP(t Template, x, y, z int64) int64 {
	acc := (x << c.w.TagNumBits) | y
	acc = (acc << c.w.TagNumBits) | z
	return c.finish(t, acc)
}

func (c Codec) PackPPPP(t Template, x, y, z, w int64) int64 {
	acc := (x << c.w.TagNumBits) | y
	acc = (acc << c.w.TagNumBits) | z
	acc = (acc << c.w.TagNumBits) | w
	return c.finish(t, acc)
}

func (c Codec) PackPPPPP(t Template, x, y, z, w, v int64) int64 {
	acc := (x << c.w.TagNumBits) | y
	acc = (acc << c.w.TagNumBits) | z
	acc = (acc << c.w.TagNumBits) | w
	acc = (acc << c.w.TagNumBits) | v
	return c.finish(t, acc)
}

func (c Codec) PackW(t Template, x int64) int64 {
	return c.finish(t, x)
}

func (c Codec) PackWP(t Template, x, y int64) int64 {
	return c.finish(t, (x<<c.w.TagNumBits)|y)
}

func (c Codec) PackWW(t Template, x, y int64) int64 {
	return c.finish(t, (x<<c.w.WordNumBits)|y)
}

func (c Codec) PackWPP(t Template, x, y, z int64) int64 {
	acc := (x << c.w.TagNumBits) | y
	acc = (acc << c.w.TagNumBits) | z
	return c.finish(t, acc)
}

func (c Codec) PackWPPP(t Template, x, y, z, w int64) int64 {
	acc := (x << c.w.TagNumBits) | y
	acc = (acc << c.w.TagNumBits) | z
	acc = (acc << c.w.TagNumBits) | w
	return c.finish(t, acc)
}

func (c Codec) PackWWPP(t Template, x, y, z, w int64) int64 {
	acc := (x << c.w.WordNumBits) | y
	acc = (acc << c.w.TagNumBits) | z
	acc = (acc << c.w.TagNumBits) | w
	return c.finish(t, acc)
}

// args drops the suffix and template fields.
func (c Codec) args(code int64) int64 {
	return code >> (c.w.FlagBits + c.w.NumArcFeatBits)
}

func (c Codec) tag(acc int64, shift int) int {
	return int((acc >> (shift * c.w.TagNumBits)) & c.tagMask)
}

func (c Codec) UnpackP(code int64) [1]int {
	acc := c.args(code)
	return [1]int{c.tag(acc, 0)}
}

func (c Codec) UnpackPP(code int64) [2]int {
	acc := c.args(code)
	return [2]int{c.tag(acc, 1), c.tag(acc, 0)}
}

func (c Codec) UnpackPPP(code int64) [3]int {
	acc := c.args(code)
	return [3]int{c.tag(acc, 2), c.tag(acc, 1), c.tag(acc, 0)}
}

func (c Codec) UnpackPPPP(code int64) [4]int {
	acc := c.args(code)
	return [4]int{c.tag(acc, 3), c.tag(acc, 2), c.tag(acc, 1), c.tag(acc, 0)}
}

func (c Codec) UnpackPPPPP(code int64) [5]int {
	acc := c.args(code)
	return [5]int{c.tag(acc, 4), c.tag(acc, 3), c.tag(acc, 2), c.tag(acc, 1), c.tag(acc, 0)}
}

func (c Codec) UnpackW(code int64) [1]int {
	acc := c.args(code)
	return [1]int{int(acc & c.wordMask)}
}

func (c Codec) UnpackWP(code int64) [2]int {
	acc := c.args(code)
	return [2]int{int((acc >> c.w.TagNumBits) & c.wordMask), c.tag(acc, 0)}
}

func (c Codec) UnpackWW(code int64) [2]int {
	acc := c.args(code)
	return [2]int{int((acc >> c.w.WordNumBits) & c.wordMask), int(acc & c.wordMask)}
}

func (c Codec) UnpackWPP(code int64) [3]int {
	acc := c.args(code)
	return [3]int{int((acc >> (2 * c.w.TagNumBits)) & c.wordMask), c.tag(acc, 1), c.tag(acc, 0)}
}

func (c Codec) UnpackWPPP(code int64) [4]int {
	acc := c.args(code)
	return [4]int{int((acc >> (3 * c.w.TagNumBits)) & c.wordMask), c.tag(acc, 2), c.tag(acc, 1), c.tag(acc, 0)}
}

func (c Codec) UnpackWWPP(code int64) [4]int {
	acc := c.args(code)
	words := acc >> (2 * c.w.TagNumBits)
	return [4]int{
		int((words >> c.w.WordNumBits) & c.wordMask),
		int(words & c.wordMask),
		c.tag(acc, 1),
		c.tag(acc, 0),
	}
}

// TemplateOf extracts the template field.
func (c Codec) TemplateOf(code int64) Template {
	return Template((code >> c.w.FlagBits) & c.tempMask)
}

// DistanceOf extracts the distance or direction suffix; 0 means absent.
func (c Codec) DistanceOf(code int64) int {
	return int(code & (1<<DistanceBits - 1))
}

// LabelOf extracts the label tag; 0 means unlabeled, otherwise label id + 1.
func (c Codec) LabelOf(code int64) int {
	return int((code >> DistanceBits) & c.depMask)
}

// Decoded is a code split into its fields. Args holds the positional
// arguments in packing order for the given arity.
type Decoded struct {
	Code     int64
	Template Template
	Distance int
	Label    int
	Args     []int
}

// Decode splits code using arity a. Arities without a matching unpacker
// return an error.
func (c Codec) Decode(code int64, a Arity) (Decoded, error) {
	d := Decoded{
		Code:     code,
		Template: c.TemplateOf(code),
		Distance: c.DistanceOf(code),
		Label:    c.LabelOf(code),
	}
	switch a {
	case Arity{Tags: 1}:
		x := c.UnpackP(code)
		d.Args = x[:]
	case Arity{Tags: 2}:
		x := c.UnpackPP(code)
		d.Args = x[:]
	case Arity{Tags: 3}:
		x := c.UnpackPPP(code)
		d.Args = x[:]
	case Arity{Tags: 4}:
		x := c.UnpackPPPP(code)
		d.Args = x[:]
	case Arity{Tags: 5}:
		x := c.UnpackPPPPP(code)
		d.Args = x[:]
	case Arity{Words: 1}:
		x := c.UnpackW(code)
		d.Args = x[:]
	case Arity{Words: 1, Tags: 1}:
		x := c.UnpackWP(code)
		d.Args = x[:]
	case Arity{Words: 2}:
		x := c.UnpackWW(code)
		d.Args = x[:]
	case Arity{Words: 1, Tags: 2}:
		x := c.UnpackWPP(code)
		d.Args = x[:]
	case Arity{Words: 1, Tags: 3}:
		x := c.UnpackWPPP(code)
		d.Args = x[:]
	case Arity{Words: 2, Tags: 2}:
		x := c.UnpackWWPP(code)
		d.Args = x[:]
	default:
		return Decoded{}, fmt.Errorf("no unpacker for arity %s", a)
	}
	return d, nil
}
