package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClasses(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   string
	}{
		{"empty", nil, ""},
		{"strings", []any{"a", "b c"}, "a b c"},
		{"slices", []any{[]string{"a", "b"}, []any{"c", []string{"d"}}}, "a b c d"},
		{"skips nil and bools", []any{"a", nil, false, true, "b"}, "a b"},
		{"dedupes keeping first position", []any{"a b", "c a", "b"}, "a b c"},
		{"conditional", []any{"base", when(true, "on"), when(false, "off")}, "base on"},
		{"extra whitespace", []any{"  a \t b  "}, "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classes(tt.values...))
		})
	}
}
