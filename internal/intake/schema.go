package intake

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an optional structural constraint on an answer.
type Format string

const (
	FormatNone Format = ""
	FormatDate Format = "date"
	FormatTime Format = "time"
)

// Picker tells the chat UI which structured picker is relevant for a field.
type Picker string

const (
	PickerNone   Picker = ""
	PickerRole   Picker = "role"
	PickerDate   Picker = "date"
	PickerTime   Picker = "time"
	PickerChoice Picker = "choice"
)

var (
	ErrEmptySchema      = errors.New("intake schema has no fields")
	ErrDuplicateField   = errors.New("duplicate field key")
	ErrUnknownFormat    = errors.New("unknown field format")
	ErrNoIdentityField  = errors.New("intake schema needs exactly one identity field")
	ErrInvalidBounds    = errors.New("field minLength exceeds maxLength")
	ErrReservedFieldKey = errors.New("field key is reserved")
)

// Field is one question of the report. Fields are immutable once a Schema is built.
type Field struct {
	Key       string   `yaml:"key"`
	Prompt    string   `yaml:"prompt"`
	MinLength int      `yaml:"min_length"`
	MaxLength int      `yaml:"max_length"`
	Required  bool     `yaml:"required"`
	Format    Format   `yaml:"format"`
	Identity  bool     `yaml:"identity"`
	Picker    Picker   `yaml:"picker"`
	Options   []string `yaml:"options"`
}

// Schema is the fixed, ordered list of report fields.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema validates the field list and freezes it.
func NewSchema(fields []Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, ErrEmptySchema
	}
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	identities := 0
	for i, f := range fields {
		f.Key = strings.TrimSpace(f.Key)
		if f.Key == "" {
			return nil, fmt.Errorf("field %d: key is required", i)
		}
		if f.Key == evidenceKey {
			return nil, fmt.Errorf("field %q: %w", f.Key, ErrReservedFieldKey)
		}
		if _, dup := s.index[f.Key]; dup {
			return nil, fmt.Errorf("field %q: %w", f.Key, ErrDuplicateField)
		}
		switch f.Format {
		case FormatNone, FormatDate, FormatTime:
		default:
			return nil, fmt.Errorf("field %q format %q: %w", f.Key, f.Format, ErrUnknownFormat)
		}
		if f.MinLength < 0 || f.MaxLength < 0 {
			return nil, fmt.Errorf("field %q: negative length bound", f.Key)
		}
		if f.MaxLength > 0 && f.MinLength > f.MaxLength {
			return nil, fmt.Errorf("field %q: %w", f.Key, ErrInvalidBounds)
		}
		// required with no explicit minimum still rejects empty answers
		if f.Required && f.MinLength == 0 {
			f.MinLength = 1
		}
		if f.Identity {
			identities++
		}
		f.Options = append([]string(nil), f.Options...)
		s.index[f.Key] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	if identities != 1 {
		return nil, ErrNoIdentityField
	}
	return s, nil
}

// FieldAt returns the field at step index i.
func (s *Schema) FieldAt(i int) (Field, bool) {
	if s == nil || i < 0 || i >= len(s.fields) {
		return Field{}, false
	}
	f := s.fields[i]
	f.Options = append([]string(nil), f.Options...)
	return f, true
}

// Count returns the number of fields.
func (s *Schema) Count() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Keys returns field keys in schema order.
func (s *Schema) Keys() []string {
	out := make([]string, 0, s.Count())
	for _, f := range s.fields {
		out = append(out, f.Key)
	}
	return out
}

// Lookup finds a field by key.
func (s *Schema) Lookup(key string) (Field, int, bool) {
	i, ok := s.index[key]
	if !ok {
		return Field{}, -1, false
	}
	f, _ := s.FieldAt(i)
	return f, i, true
}

type schemaFile struct {
	Fields []Field `yaml:"fields"`
}

// LoadSchema reads a YAML schema file. An empty path yields DefaultSchema.
func LoadSchema(path string) (*Schema, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSchema(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intake schema: %w", err)
	}
	return ParseSchema(b)
}

// ParseSchema builds a Schema from YAML bytes.
func ParseSchema(b []byte) (*Schema, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("parse intake schema: %w", err)
	}
	return NewSchema(sf.Fields)
}

// DefaultFields is the built-in incident report.
var DefaultFields = []Field{
	{
		Key:       "name",
		Prompt:    "Let's file an incident report. First, what is your full name?",
		MinLength: 3, MaxLength: 50, Required: true, Identity: true,
	},
	{
		Key:       "role",
		Prompt:    "What is your role in the organization?",
		MinLength: 5, MaxLength: 40, Required: true,
		Picker:  PickerRole,
		Options: []string{"Analyst", "Engineer", "Manager", "Administrator", "Student", "Other"},
	},
	{
		Key:       "incidentDate",
		Prompt:    "On what date did the incident occur? (YYYY-MM-DD)",
		MinLength: 10, MaxLength: 10, Required: true,
		Format: FormatDate, Picker: PickerDate,
	},
	{
		Key:       "incidentTime",
		Prompt:    "At approximately what time did it happen? (HH:MM, 24-hour)",
		MinLength: 5, MaxLength: 5, Required: true,
		Format: FormatTime, Picker: PickerTime,
	},
	{
		Key:       "incidentType",
		Prompt:    "What type of incident is this?",
		MinLength: 3, MaxLength: 60, Required: true,
		Picker:  PickerChoice,
		Options: []string{"Phishing", "Malware", "Ransomware", "Data Breach", "Unauthorized Access", "Denial of Service", "Other"},
	},
	{
		Key:       "affectedSystems",
		Prompt:    "Which systems, accounts or devices are affected?",
		MinLength: 3, MaxLength: 200, Required: true,
	},
	{
		Key:       "description",
		Prompt:    "Please describe what happened in as much detail as you can.",
		MinLength: 20, MaxLength: 2000, Required: true,
	},
	{
		Key:       "impact",
		Prompt:    "What impact has the incident had so far?",
		MinLength: 5, MaxLength: 500, Required: true,
	},
	{
		Key:       "actionsTaken",
		Prompt:    "What actions have already been taken, if any?",
		MinLength: 3, MaxLength: 500, Required: true,
	},
}

// DefaultSchema returns the built-in schema. It panics only if DefaultFields is broken.
func DefaultSchema() *Schema {
	s, err := NewSchema(DefaultFields)
	if err != nil {
		panic(fmt.Sprintf("intake: default schema: %v", err))
	}
	return s
}
