package typology

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleTable = `{
  "class_num": 2,
  "family_num": 3,
  "values": {"SV": 3, "VO": 3, "Prep": 3, "Gen": 3, "Adj": 3},
  "languages": [
    {"id": 0, "name": "en", "class": 0, "family": 0, "features": {"SV": 0, "VO": 0, "Prep": 0, "Gen": 1, "Adj": 0}},
    {"id": 1, "name": "ja", "class": 1, "family": 2, "features": {"SV": 0, "VO": 1, "Prep": 1, "Gen": 0, "Adj": 0}}
  ]
}`

func TestParseTable(t *testing.T) {
	table, err := Parse([]byte(sampleTable))
	require.NoError(t, err)
	require.Equal(t, 2, table.ClassNum())
	require.Equal(t, 3, table.FamilyNum())
	require.Equal(t, 3, table.NumberOfValues(Prep))
	require.Equal(t, []int{0, 1}, table.LanguageIDs())

	ja, err := table.Language(1)
	require.NoError(t, err)
	require.Equal(t, "ja", ja.Name)
	require.Equal(t, 1, ja.Features[VO])
	require.Equal(t, 2, ja.Family)
}

func TestUnknownLanguage(t *testing.T) {
	table, err := Parse([]byte(sampleTable))
	require.NoError(t, err)
	_, err = table.Language(9)
	require.True(t, errors.Is(err, ErrUnknownLanguage))
}

func TestNewTableRejectsOutOfRangeValues(t *testing.T) {
	values := [NumFeatureTypes]int{2, 2, 2, 2, 2}
	_, err := NewTable(1, 1, values, []Language{{ID: 0, Features: [NumFeatureTypes]int{2}}})
	require.Error(t, err)

	_, err = NewTable(1, 1, values, []Language{{ID: 0, Class: 1}})
	require.Error(t, err)

	_, err = NewTable(1, 1, values, []Language{{ID: 0}, {ID: 0}})
	require.Error(t, err)
}

func TestParseRejectsUnknownFeature(t *testing.T) {
	_, err := Parse([]byte(`{"class_num":1,"family_num":1,"values":{"OV":2}}`))
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typology.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleTable), 0o644))
	table, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "SV", SV.String())
	en, err := table.Language(0)
	require.NoError(t, err)
	require.Equal(t, 1, en.Features[Gen])
}
