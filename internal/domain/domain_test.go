package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Example.COM", "example.com", false},
		{" https://Example.COM/pricing?x=1 ", "example.com", false},
		{"example.com:443", "example.com", false},
		{"example.com.", "example.com", false},
		{"bücher.de", "xn--bcher-kva.de", false},
		{"", "", true},
		{"localhost", "", true},
		{"foo..com", "", true},
		{"-bad.com", "", true},
		{"bad-.com", "", true},
		{"under_score.com", "", true},
	}

	for _, tc := range cases {
		got, err := Normalize(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "Normalize(%q) = %q", tc.in, got)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalize_Empty(t *testing.T) {
	t.Parallel()

	_, err := Normalize("   ")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestNormalizeAll(t *testing.T) {
	t.Parallel()

	got, err := NormalizeAll([]string{"B.com", "a.io", "b.COM", "https://a.io/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.com", "a.io"}, got)

	_, err = NormalizeAll([]string{"a.io", "nodot"})
	assert.Error(t, err)
}

func TestChunk(t *testing.T) {
	t.Parallel()

	names := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, Chunk(names, 2))
	assert.Equal(t, [][]string{names}, Chunk(names, 50))
	assert.Nil(t, Chunk(nil, 2))
	assert.Nil(t, Chunk(names, 0))

	chunks := Chunk(names, 2)
	chunks[0] = append(chunks[0], "z")
	assert.Equal(t, "c", names[2], "appending to a chunk must not clobber the next one")
}

func TestReadLines(t *testing.T) {
	t.Parallel()

	got, err := ReadLines(strings.NewReader("a.com\n\n  # comment\n b.io \r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.io"}, got)
}
