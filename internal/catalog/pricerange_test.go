package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPriceRangesEqualWidth(t *testing.T) {
	ranges := BuildPriceRanges(100, 180, 5)
	require.Equal(t, []PriceRange{
		{Min: 100, Max: 116},
		{Min: 117, Max: 133},
		{Min: 134, Max: 150},
		{Min: 151, Max: 167},
		{Min: 168, Max: 180},
	}, ranges)
}

func TestBuildPriceRangesCoverage(t *testing.T) {
	ranges := BuildPriceRanges(100, 180, 5)

	// Every price in the spread belongs to exactly one bucket.
	for price := 100; price <= 180; price++ {
		hits := 0
		for _, r := range ranges {
			if r.Contains(price) {
				hits++
			}
		}
		require.Equal(t, 1, hits, "price %d", price)
	}
}

func TestBuildPriceRangesDegenerateSpread(t *testing.T) {
	require.Equal(t, []PriceRange{{Min: 100, Max: 100}}, BuildPriceRanges(100, 100, 5))
	require.Equal(t, []PriceRange{{Min: 50, Max: 40}}, BuildPriceRanges(50, 40, 5))
}

func TestBuildPriceRangesNarrowSpreadProducesFewerBuckets(t *testing.T) {
	ranges := BuildPriceRanges(10, 13, 5)
	// Step clamps to 1: 10-11, 12-13, then the walk runs past max.
	require.Equal(t, []PriceRange{
		{Min: 10, Max: 11},
		{Min: 12, Max: 13},
	}, ranges)

	require.Empty(t, BuildPriceRanges(10, 20, 0))
}

func TestBuildPriceRangesLastBucketEndsAtMax(t *testing.T) {
	ranges := BuildPriceRanges(0, 999, 5)
	require.Len(t, ranges, 5)
	require.Equal(t, 999, ranges[len(ranges)-1].Max)
	require.Equal(t, 0, ranges[0].Min)
}
