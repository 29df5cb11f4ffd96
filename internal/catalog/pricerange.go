package catalog

// PriceRange is one equal-width facet bucket. Bounds are inclusive.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether a price falls inside the bucket.
func (r PriceRange) Contains(price int) bool {
	return price >= r.Min && price <= r.Max
}

// BuildPriceRanges splits [min, max] into up to n equal-width buckets. A
// degenerate spread (min >= max) collapses to a single bucket, and the step
// never drops below one, so narrow spreads may produce fewer than n buckets.
// The last bucket is stretched to end exactly at max.
func BuildPriceRanges(min, max, n int) []PriceRange {
	if n <= 0 {
		return nil
	}
	if min >= max {
		return []PriceRange{{Min: min, Max: max}}
	}

	step := (max - min) / n
	if step < 1 {
		step = 1
	}

	ranges := make([]PriceRange, 0, n)
	start := min
	for i := 0; i < n; i++ {
		end := start + step
		if i == n-1 {
			end = max
		}
		ranges = append(ranges, PriceRange{Min: start, Max: end})
		start = end + 1
		if start > max {
			break
		}
	}
	return ranges
}
