package typology

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// FeatureType is a typological word-order attribute.
type FeatureType int

const (
	SV FeatureType = iota
	VO
	Prep
	Gen
	Adj
	NumFeatureTypes
)

var featureTypeNames = [NumFeatureTypes]string{"SV", "VO", "Prep", "Gen", "Adj"}

func (t FeatureType) String() string {
	if t < 0 || t >= NumFeatureTypes {
		return fmt.Sprintf("FeatureType(%d)", int(t))
	}
	return featureTypeNames[t]
}

func ParseFeatureType(name string) (FeatureType, bool) {
	for i, n := range featureTypeNames {
		if n == name {
			return FeatureType(i), true
		}
	}
	return 0, false
}

var ErrUnknownLanguage = errors.New("unknown language")

// Language is the typological profile of one language.
type Language struct {
	ID       int
	Name     string
	Class    int
	Family   int
	Features [NumFeatureTypes]int
}

// Table holds the typological profiles of every language in a corpus.
type Table struct {
	classNum  int
	familyNum int
	values    [NumFeatureTypes]int
	languages map[int]Language
}

func NewTable(classNum, familyNum int, values [NumFeatureTypes]int, languages []Language) (*Table, error) {
	if classNum <= 0 || familyNum <= 0 {
		return nil, fmt.Errorf("class and family counts must be positive: class=%d family=%d", classNum, familyNum)
	}
	t := &Table{
		classNum:  classNum,
		familyNum: familyNum,
		values:    values,
		languages: make(map[int]Language, len(languages)),
	}
	for ft, n := range values {
		if n <= 0 {
			return nil, fmt.Errorf("feature %s needs at least one value", FeatureType(ft))
		}
	}
	for _, lang := range languages {
		if _, dup := t.languages[lang.ID]; dup {
			return nil, fmt.Errorf("duplicate language id %d", lang.ID)
		}
		if lang.Class < 0 || lang.Class >= classNum {
			return nil, fmt.Errorf("language %d: class %d out of range [0,%d)", lang.ID, lang.Class, classNum)
		}
		if lang.Family < 0 || lang.Family >= familyNum {
			return nil, fmt.Errorf("language %d: family %d out of range [0,%d)", lang.ID, lang.Family, familyNum)
		}
		for ft, v := range lang.Features {
			if v < 0 || v >= values[ft] {
				return nil, fmt.Errorf("language %d: %s value %d out of range [0,%d)", lang.ID, FeatureType(ft), v, values[ft])
			}
		}
		t.languages[lang.ID] = lang
	}
	return t, nil
}

func (t *Table) ClassNum() int  { return t.classNum }
func (t *Table) FamilyNum() int { return t.familyNum }

// NumberOfValues is the number of distinct values feature ft takes.
func (t *Table) NumberOfValues(ft FeatureType) int {
	return t.values[ft]
}

func (t *Table) Language(id int) (Language, error) {
	lang, ok := t.languages[id]
	if !ok {
		return Language{}, fmt.Errorf("%w: %d", ErrUnknownLanguage, id)
	}
	return lang, nil
}

// LanguageIDs lists the known language ids in ascending order.
func (t *Table) LanguageIDs() []int {
	ids := make([]int, 0, len(t.languages))
	for id := range t.languages {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

type fileLanguage struct {
	ID       int            `json:"id"`
	Name     string         `json:"name"`
	Class    int            `json:"class"`
	Family   int            `json:"family"`
	Features map[string]int `json:"features"`
}

type fileTable struct {
	ClassNum  int            `json:"class_num"`
	FamilyNum int            `json:"family_num"`
	Values    map[string]int `json:"values"`
	Languages []fileLanguage `json:"languages"`
}

// Parse reads a table from its JSON form.
func Parse(data []byte) (*Table, error) {
	var raw fileTable
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode typology table: %w", err)
	}
	var values [NumFeatureTypes]int
	for name, n := range raw.Values {
		ft, ok := ParseFeatureType(name)
		if !ok {
			return nil, fmt.Errorf("unknown typological feature %q", name)
		}
		values[ft] = n
	}
	langs := make([]Language, 0, len(raw.Languages))
	for _, fl := range raw.Languages {
		lang := Language{ID: fl.ID, Name: fl.Name, Class: fl.Class, Family: fl.Family}
		for name, v := range fl.Features {
			ft, ok := ParseFeatureType(name)
			if !ok {
				return nil, fmt.Errorf("language %d: unknown typological feature %q", fl.ID, name)
			}
			lang.Features[ft] = v
		}
		langs = append(langs, lang)
	}
	return NewTable(raw.ClassNum, raw.FamilyNum, values, langs)
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
