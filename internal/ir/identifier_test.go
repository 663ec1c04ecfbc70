package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Identifier
	}{
		{"raw", "42", RawID("42")},
		{"raw with whitespace", "  42\n", RawID("42")},
		{"canonical", "ot:P2:otblid:7", CanonicalID("ot:P2:otblid:7")},
		{"canonical after trim", " ot:P2:otblid:7 ", CanonicalID("ot:P2:otblid:7")},
		{"prefix must lead", "x-ot:P2", RawID("x-ot:P2")},
		{"uppercase prefix is raw", "OT:P2:otblid:7", RawID("OT:P2:otblid:7")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseIdentifier(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIdentifierEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		_, ok := ParseIdentifier(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParseIdentifierNFC(t *testing.T) {
	decomposed, ok := ParseIdentifier("cafe\u0301")
	require.True(t, ok)
	composed, ok := ParseIdentifier("caf\u00e9")
	require.True(t, ok)

	assert.Equal(t, composed, decomposed)
}

func TestMustParseIdentifierPanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { MustParseIdentifier(" ") })
	assert.Equal(t, RawID("B1"), MustParseIdentifier("B1"))
}
