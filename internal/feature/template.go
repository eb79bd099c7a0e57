package feature

import "fmt"

// Template identifies an arc feature template. Values are part of the code
// layout and must never be renumbered once codes have been persisted.
type Template int

const (
	TemplateNone Template = 0

	ATTDIST       Template = 1
	HP            Template = 2
	MP            Template = 3
	HP_MP         Template = 4
	HPp_HP_MP     Template = 5
	HP_HPn_MP     Template = 6
	HP_MPp_MP     Template = 7
	HP_MP_MPn     Template = 8
	HPp_HP_MP_MPn Template = 9
	HP_HPn_MP_MPn Template = 10
	HP_HPn_MPp_MP Template = 11
	HPp_HP_MPp_MP Template = 12
	HP_BP_MP      Template = 13

	HEAD_EMB Template = 14
	MOD_EMB  Template = 15
	HW_HP_MP Template = 16
	HW_MP    Template = 17
	MW_HP_MP Template = 18
	MW_HP    Template = 19

	DIST       Template = 20
	B_HP       Template = 21
	B_MP       Template = 22
	B_HP_MP    Template = 23
	B_HEAD_EMB Template = 24
	B_MOD_EMB  Template = 25

	ADP_NOUN Template = 26
	ADP_PRON Template = 27
	GEN      Template = 28
	ADJ      Template = 29
	SV_NOUN  Template = 30
	SV_PRON  Template = 31
	VO_NOUN  Template = 32
	VO_PRON  Template = 33

	L_CORE_HEAD_WORD Template = 34
	L_CORE_MOD_WORD  Template = 35
	L_HW_MW          Template = 36
	L_CORE_HEAD_POS  Template = 37
	L_CORE_MOD_POS   Template = 38
	L_HP_MP          Template = 39
	L_HP_BP_MP       Template = 40
	L_HPp_HP_MP_MPn  Template = 41
	L_HP_MP_MPn      Template = 42
	L_HPp_HP_MP      Template = 43
	L_HPp_MP_MPn     Template = 44
	L_HPp_HP_MPn     Template = 45
	L_HP_HPn_MPp_MP  Template = 46
	L_HP_MPp_MP      Template = 47
	L_HP_HPn_MP      Template = 48
	L_HPn_MPp_MP     Template = 49
	L_HP_HPn_MPp     Template = 50
	L_HPp_HP_MPp_MP  Template = 51
	L_HP_HPn_MP_MPn  Template = 52
	L_HW_MW_HP_MP    Template = 53
	L_MW_HP_MP       Template = 54
	L_HW_HP_MP       Template = 55
	L_MW_HP          Template = 56
	L_HW_MP          Template = 57
	L_HW_HP          Template = 58
	L_MW_MP          Template = 59
)

// Group classifies templates by the builder that emits them.
type Group int

const (
	GroupDelexical Group = iota
	GroupLexical
	GroupBare
	GroupSelective
	GroupSupervised
)

// Arity is the positional layout of a template's arguments in its
// direct (non-typological) form: Words leading word fields followed by Tags
// tag fields.
type Arity struct {
	Words int
	Tags  int
}

func (a Arity) String() string {
	s := ""
	for i := 0; i < a.Words; i++ {
		s += "W"
	}
	for i := 0; i < a.Tags; i++ {
		s += "P"
	}
	return s
}

// WithTypology is the arity once the trailing class/family slot is appended.
func (a Arity) WithTypology() Arity {
	return Arity{Words: a.Words, Tags: a.Tags + 1}
}

type TemplateInfo struct {
	Name  string
	Arity Arity
	Group Group
	// Typed templates carry the typological class/family slot when built in
	// cross-lingual mode.
	Typed bool
}

var templateTable = map[Template]TemplateInfo{
	ATTDIST:       {Name: "ATTDIST", Arity: Arity{Tags: 1}, Group: GroupDelexical, Typed: true},
	HP:            {Name: "HP", Arity: Arity{Tags: 1}, Group: GroupDelexical, Typed: true},
	MP:            {Name: "MP", Arity: Arity{Tags: 1}, Group: GroupDelexical, Typed: true},
	HP_MP:         {Name: "HP_MP", Arity: Arity{Tags: 2}, Group: GroupDelexical, Typed: true},
	HPp_HP_MP:     {Name: "HPp_HP_MP", Arity: Arity{Tags: 3}, Group: GroupDelexical, Typed: true},
	HP_HPn_MP:     {Name: "HP_HPn_MP", Arity: Arity{Tags: 3}, Group: GroupDelexical, Typed: true},
	HP_MPp_MP:     {Name: "HP_MPp_MP", Arity: Arity{Tags: 3}, Group: GroupDelexical, Typed: true},
	HP_MP_MPn:     {Name: "HP_MP_MPn", Arity: Arity{Tags: 3}, Group: GroupDelexical, Typed: true},
	HPp_HP_MP_MPn: {Name: "HPp_HP_MP_MPn", Arity: Arity{Tags: 4}, Group: GroupDelexical, Typed: true},
	HP_HPn_MP_MPn: {Name: "HP_HPn_MP_MPn", Arity: Arity{Tags: 4}, Group: GroupDelexical, Typed: true},
	HP_HPn_MPp_MP: {Name: "HP_HPn_MPp_MP", Arity: Arity{Tags: 4}, Group: GroupDelexical, Typed: true},
	HPp_HP_MPp_MP: {Name: "HPp_HP_MPp_MP", Arity: Arity{Tags: 4}, Group: GroupDelexical, Typed: true},
	HP_BP_MP:      {Name: "HP_BP_MP", Arity: Arity{Tags: 3}, Group: GroupDelexical, Typed: true},

	HEAD_EMB: {Name: "HEAD_EMB", Arity: Arity{Words: 1}, Group: GroupLexical, Typed: true},
	MOD_EMB:  {Name: "MOD_EMB", Arity: Arity{Words: 1}, Group: GroupLexical, Typed: true},
	HW_HP_MP: {Name: "HW_HP_MP", Arity: Arity{Words: 1, Tags: 2}, Group: GroupLexical, Typed: true},
	HW_MP:    {Name: "HW_MP", Arity: Arity{Words: 1, Tags: 1}, Group: GroupLexical, Typed: true},
	MW_HP_MP: {Name: "MW_HP_MP", Arity: Arity{Words: 1, Tags: 2}, Group: GroupLexical, Typed: true},
	MW_HP:    {Name: "MW_HP", Arity: Arity{Words: 1, Tags: 1}, Group: GroupLexical, Typed: true},

	DIST:       {Name: "DIST", Arity: Arity{Tags: 1}, Group: GroupBare},
	B_HP:       {Name: "B_HP", Arity: Arity{Tags: 1}, Group: GroupBare},
	B_MP:       {Name: "B_MP", Arity: Arity{Tags: 1}, Group: GroupBare},
	B_HP_MP:    {Name: "B_HP_MP", Arity: Arity{Tags: 2}, Group: GroupBare},
	B_HEAD_EMB: {Name: "B_HEAD_EMB", Arity: Arity{Words: 1}, Group: GroupBare},
	B_MOD_EMB:  {Name: "B_MOD_EMB", Arity: Arity{Words: 1}, Group: GroupBare},

	ADP_NOUN: {Name: "ADP_NOUN", Arity: Arity{Tags: 1}, Group: GroupSelective},
	ADP_PRON: {Name: "ADP_PRON", Arity: Arity{Tags: 1}, Group: GroupSelective},
	GEN:      {Name: "GEN", Arity: Arity{Tags: 1}, Group: GroupSelective},
	ADJ:      {Name: "ADJ", Arity: Arity{Tags: 1}, Group: GroupSelective},
	SV_NOUN:  {Name: "SV_NOUN", Arity: Arity{Tags: 1}, Group: GroupSelective},
	SV_PRON:  {Name: "SV_PRON", Arity: Arity{Tags: 1}, Group: GroupSelective},
	VO_NOUN:  {Name: "VO_NOUN", Arity: Arity{Tags: 1}, Group: GroupSelective},
	VO_PRON:  {Name: "VO_PRON", Arity: Arity{Tags: 1}, Group: GroupSelective},

	L_CORE_HEAD_WORD: {Name: "L_CORE_HEAD_WORD", Arity: Arity{Words: 1}, Group: GroupSupervised},
	L_CORE_MOD_WORD:  {Name: "L_CORE_MOD_WORD", Arity: Arity{Words: 1}, Group: GroupSupervised},
	L_HW_MW:          {Name: "L_HW_MW", Arity: Arity{Words: 2}, Group: GroupSupervised},
	L_CORE_HEAD_POS:  {Name: "L_CORE_HEAD_POS", Arity: Arity{Tags: 1}, Group: GroupSupervised},
	L_CORE_MOD_POS:   {Name: "L_CORE_MOD_POS", Arity: Arity{Tags: 1}, Group: GroupSupervised},
	L_HP_MP:          {Name: "L_HP_MP", Arity: Arity{Tags: 2}, Group: GroupSupervised},
	L_HP_BP_MP:       {Name: "L_HP_BP_MP", Arity: Arity{Tags: 3}, Group: GroupSupervised},
	L_HPp_HP_MP_MPn:  {Name: "L_HPp_HP_MP_MPn", Arity: Arity{Tags: 4}, Group: GroupSupervised},
	L_HP_MP_MPn:      {Name: "L_HP_MP_MPn", Arity: Arity{Tags: 3}, Group: GroupSupervised},
	L_HPp_HP_MP:      {Name: "L_HPp_HP_MP", Arity: Arity{Tags: 3}, Group: GroupSupervised},
	L_HPp_MP_MPn:     {Name: "L_HPp_MP_MPn", Arity: Arity{Tags: 3}, Group: GroupSupervised},
	L_HPp_HP_MPn:     {Name: "L_HPp_HP_MPn", Arity: Arity{Tags: 3}, Group: GroupSupervised},
	L_HP_HPn_MPp_MP:  {Name: "L_HP_HPn_MPp_MP", Arity: Arity{Tags: 4}, Group: GroupSupervised},
	L_HP_MPp_MP:      {Name: "L_HP_MPp_MP", Arity: Arity{Tags: 3}, Group: GroupSupervised},
	L_HP_HPn_MP:      {Name: "L_HP_HPn_MP", Arity: Arity{Tags: 3}, Group: GroupSupervised},
	L_HPn_MPp_MP:     {Name: "L_HPn_MPp_MP", Arity: Arity{Tags: 3}, Group: GroupSupervised},
	L_HP_HPn_MPp:     {Name: "L_HP_HPn_MPp", Arity: Arity{Tags: 3}, Group: GroupSupervised},
	L_HPp_HP_MPp_MP:  {Name: "L_HPp_HP_MPp_MP", Arity: Arity{Tags: 4}, Group: GroupSupervised},
	L_HP_HPn_MP_MPn:  {Name: "L_HP_HPn_MP_MPn", Arity: Arity{Tags: 4}, Group: GroupSupervised},
	L_HW_MW_HP_MP:    {Name: "L_HW_MW_HP_MP", Arity: Arity{Words: 2, Tags: 2}, Group: GroupSupervised},
	L_MW_HP_MP:       {Name: "L_MW_HP_MP", Arity: Arity{Words: 1, Tags: 2}, Group: GroupSupervised},
	L_HW_HP_MP:       {Name: "L_HW_HP_MP", Arity: Arity{Words: 1, Tags: 2}, Group: GroupSupervised},
	L_MW_HP:          {Name: "L_MW_HP", Arity: Arity{Words: 1, Tags: 1}, Group: GroupSupervised},
	L_HW_MP:          {Name: "L_HW_MP", Arity: Arity{Words: 1, Tags: 1}, Group: GroupSupervised},
	L_HW_HP:          {Name: "L_HW_HP", Arity: Arity{Words: 1, Tags: 1}, Group: GroupSupervised},
	L_MW_MP:          {Name: "L_MW_MP", Arity: Arity{Words: 1, Tags: 1}, Group: GroupSupervised},
}

// MaxTemplate is the largest assigned template value.
const MaxTemplate = L_MW_MP

// Info returns the static metadata for t.
func (t Template) Info() (TemplateInfo, bool) {
	info, ok := templateTable[t]
	return info, ok
}

func (t Template) Valid() bool {
	_, ok := templateTable[t]
	return ok
}

func (t Template) String() string {
	if info, ok := templateTable[t]; ok {
		return info.Name
	}
	return fmt.Sprintf("Template(%d)", int(t))
}

// ParseTemplate resolves a template by its name.
func ParseTemplate(name string) (Template, bool) {
	for t, info := range templateTable {
		if info.Name == name {
			return t, true
		}
	}
	return TemplateNone, false
}

// Templates lists every assigned template in ascending order.
func Templates() []Template {
	out := make([]Template, 0, len(templateTable))
	for t := ATTDIST; t <= MaxTemplate; t++ {
		if _, ok := templateTable[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
