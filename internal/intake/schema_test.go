package intake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchema(t *testing.T) {
	s := DefaultSchema()
	require.Equal(t, 9, s.Count())
	assert.Equal(t, []string{
		"name", "role", "incidentDate", "incidentTime", "incidentType",
		"affectedSystems", "description", "impact", "actionsTaken",
	}, s.Keys())

	f, ok := s.FieldAt(0)
	require.True(t, ok)
	assert.True(t, f.Identity)

	_, ok = s.FieldAt(9)
	assert.False(t, ok)
	_, ok = s.FieldAt(-1)
	assert.False(t, ok)

	d, i, ok := s.Lookup("incidentDate")
	require.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, FormatDate, d.Format)
}

func TestFieldAtReturnsCopy(t *testing.T) {
	s := DefaultSchema()
	f, _ := s.FieldAt(1)
	f.Options[0] = "mutated"
	again, _ := s.FieldAt(1)
	assert.Equal(t, "Analyst", again.Options[0])
}

func TestNewSchemaRejects(t *testing.T) {
	id := Field{Key: "name", Identity: true}
	cases := []struct {
		name   string
		fields []Field
		err    error
	}{
		{"empty", nil, ErrEmptySchema},
		{"duplicate", []Field{id, {Key: "name"}}, ErrDuplicateField},
		{"format", []Field{id, {Key: "x", Format: "color"}}, ErrUnknownFormat},
		{"bounds", []Field{id, {Key: "x", MinLength: 5, MaxLength: 2}}, ErrInvalidBounds},
		{"no identity", []Field{{Key: "x"}}, ErrNoIdentityField},
		{"two identities", []Field{id, {Key: "y", Identity: true}}, ErrNoIdentityField},
		{"reserved", []Field{id, {Key: "evidence"}}, ErrReservedFieldKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSchema(tc.fields)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestRequiredWithoutMinimum(t *testing.T) {
	s, err := NewSchema([]Field{{Key: "name", Identity: true, Required: true}})
	require.NoError(t, err)
	f, _ := s.FieldAt(0)
	assert.Equal(t, 1, f.MinLength)
	assert.False(t, Validate(f, "   ").Accepted)
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intake.yaml")
	body := `
fields:
  - key: name
    prompt: Who are you?
    min_length: 3
    max_length: 50
    required: true
    identity: true
  - key: when
    prompt: When?
    format: date
    picker: date
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	require.Equal(t, 2, s.Count())
	f, _ := s.FieldAt(1)
	assert.Equal(t, FormatDate, f.Format)
	assert.Equal(t, PickerDate, f.Picker)

	def, err := LoadSchema("")
	require.NoError(t, err)
	assert.Equal(t, 9, def.Count())

	_, err = LoadSchema(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRepoSchemaFileMatchesDefault(t *testing.T) {
	s, err := LoadSchema("../../prompts/intake.yaml")
	require.NoError(t, err)
	def := DefaultSchema()
	require.Equal(t, def.Count(), s.Count())
	for i := 0; i < def.Count(); i++ {
		want, _ := def.FieldAt(i)
		got, _ := s.FieldAt(i)
		assert.Equal(t, want, got, want.Key)
	}
}
