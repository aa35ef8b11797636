package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDecimalAndCharValues(t *testing.T) {
	s, err := Parse(strings.NewReader("10 72\n20 i\n30 10\n"))
	require.NoError(t, err)

	v, ok := s.ValueAt(10)
	require.True(t, ok)
	require.EqualValues(t, 72, v)

	v, ok = s.ValueAt(20)
	require.True(t, ok)
	require.EqualValues(t, 'i', v)

	v, ok = s.ValueAt(30)
	require.True(t, ok)
	require.EqualValues(t, '\n', v)

	_, ok = s.ValueAt(15)
	require.False(t, ok)
}

func TestParseSortsByTick(t *testing.T) {
	s, err := Parse(strings.NewReader("30 c\n10 a\n20 b\n"))
	require.NoError(t, err)
	require.Equal(t, 10, s.entries[0].tick)
	require.Equal(t, 20, s.entries[1].tick)
	require.Equal(t, 30, s.entries[2].tick)
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	s, err := Parse(strings.NewReader("\\ a comment\n\n10 5\n"))
	require.NoError(t, err)
	v, ok := s.ValueAt(10)
	require.True(t, ok)
	require.EqualValues(t, 5, v)
}

func TestParseRejectsMalformedLine(t *testing.T) {
	_, err := Parse(strings.NewReader("not-a-valid-line\n"))
	require.Error(t, err)
}
