package intake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	name := Field{Key: "name", MinLength: 3, MaxLength: 50, Required: true}
	date := Field{Key: "d", MinLength: 10, MaxLength: 10, Format: FormatDate}
	clock := Field{Key: "t", MinLength: 5, MaxLength: 5, Format: FormatTime}

	cases := []struct {
		name   string
		field  Field
		in     string
		ok     bool
		reason string
	}{
		{"short", name, "Al", false, "too short, minimum 3 characters."},
		{"short after trim", name, "  Al  ", false, "too short, minimum 3 characters."},
		{"empty", name, "", false, "too short, minimum 3 characters."},
		{"ok", name, "Alice", true, ""},
		{"long", name, strings.Repeat("a", 51), false, "too long, maximum 50 characters."},
		{"long counts untrimmed", Field{MaxLength: 5}, "abcd  ", false, "too long, maximum 5 characters."},
		{"multibyte counts runes", Field{MinLength: 3, MaxLength: 3}, "äöü", true, ""},
		{"date ok", date, "2024-03-15", true, ""},
		{"date shape only", date, "2024-13-40", true, ""},
		{"date slashes", date, "2024/03/15", false, "invalid date format."},
		{"date letters", date, "2024-0a-15", false, "invalid date format."},
		{"date too short wins over format", date, "2024-1-1", false, "too short, minimum 10 characters."},
		{"time ok", clock, "23:59", true, ""},
		{"time midnight", clock, "00:00", true, ""},
		{"time hour range", clock, "24:00", false, "invalid time format."},
		{"time minute range", clock, "12:60", false, "invalid time format."},
		{"time separator", clock, "12.30", false, "invalid time format."},
		{"no bounds", Field{}, "", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Validate(tc.field, tc.in)
			assert.Equal(t, tc.ok, v.Accepted)
			assert.Equal(t, tc.reason, v.Reason)
		})
	}
}
