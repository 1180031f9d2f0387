package diff

import "slices"

type match struct {
	x, y int
}

// myers returns the matched index pairs of a longest common subsequence of a
// and b, in ascending order.
func myers[T any](a, b []T, eq func(x, y T) bool) []match {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}

	limit := n + m
	offset := limit
	v := make([]int, 2*limit+2)
	var trace [][]int

search:
	for d := 0; d <= limit; d++ {
		trace = append(trace, slices.Clone(v))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && eq(a[x], b[y]) {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				break search
			}
		}
	}

	var matches []match
	x, y := n, m
	for d := len(trace) - 1; d >= 0; d-- {
		v := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := v[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			matches = append(matches, match{x: x, y: y})
		}
		if d > 0 {
			x, y = prevX, prevY
		}
	}

	slices.Reverse(matches)
	return matches
}
