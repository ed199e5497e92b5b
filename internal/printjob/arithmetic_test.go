package printjob

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innohassle/printhub/ipp"
)

func TestCountPapersToPrint(t *testing.T) {
	cases := []struct {
		pages      int
		pageRanges string
		numberUp   int
		sides      ipp.Sides
		copies     int
		want       int
	}{
		{10, "", 1, ipp.OneSided, 1, 10},
		{10, "1-4", 1, ipp.OneSided, 1, 4},
		{10, "1-4", 1, ipp.TwoSidedLongEdge, 1, 2},
		{10, "1-4", 4, ipp.OneSided, 1, 1},
		{10, "1-8", 4, ipp.OneSided, 1, 2},
		{10, "1-4", 1, ipp.OneSided, 2, 8},
		{10, "1-8", 4, ipp.TwoSidedLongEdge, 2, 2},
	}

	for _, c := range cases {
		got, err := CountPapersToPrint(c.pages, c.pageRanges, c.numberUp, c.sides, c.copies)
		require.NoError(t, err)
		require.Equalf(t, c.want, got, "pages=%d pageRanges=%q numberUp=%d sides=%s copies=%d",
			c.pages, c.pageRanges, c.numberUp, c.sides, c.copies)
	}
}

func TestCountPapersToPrintInvalidArgument(t *testing.T) {
	_, err := CountPapersToPrint(10, "", 0, ipp.OneSided, 1)
	require.Error(t, err)

	_, err = CountPapersToPrint(-1, "", 1, ipp.OneSided, 1)
	require.Error(t, err)
}

func TestSelectedPageCountOutOfBoundsContributesZero(t *testing.T) {
	n, err := selectedPageCount(10, "20")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestNormalizePageRangesIdempotent(t *testing.T) {
	inputs := []string{"1-4", "4-1", "1, 2-3", "a1b-4c", "--1--4--"}
	for _, in := range inputs {
		once, _, err := NormalizePageRanges(in)
		require.NoError(t, err)

		twice, changed, err := NormalizePageRanges(once)
		require.NoError(t, err)
		require.Equal(t, once, twice)
		require.False(t, changed)
	}
}

func TestNormalizePageRangesReversesDescending(t *testing.T) {
	got, changed, err := NormalizePageRanges("4-1")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, "1-4", got)
}

func TestNormalizePageRangesAmbiguousTripleFails(t *testing.T) {
	_, _, err := NormalizePageRanges("1-2-3")
	require.Error(t, err)
}

func TestNormalizePageRangesEmptyFails(t *testing.T) {
	_, _, err := NormalizePageRanges("abc")
	require.Error(t, err)
}
