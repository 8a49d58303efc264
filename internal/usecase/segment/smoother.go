package segment

import "sort"

// MedianFilter applies a sliding median of odd width window. Edges are
// padded by repeating the nearest value.
func MedianFilter(values []int, window int) []int {
	out := make([]int, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}

	half := window / 2
	buf := make([]int, window)
	for i := range values {
		for k := -half; k <= half; k++ {
			j := i + k
			if j < 0 {
				j = 0
			}
			if j >= len(values) {
				j = len(values) - 1
			}
			buf[k+half] = values[j]
		}
		sorted := append([]int(nil), buf...)
		sort.Ints(sorted)
		out[i] = sorted[half]
	}
	return out
}

// EnforceMinRun absorbs every maximal run shorter than minRun into the
// value of the run before it. A short first run is left as is.
func EnforceMinRun(values []int, minRun int) []int {
	out := make([]int, 0, len(values))
	for i := 0; i < len(values); {
		j := i + 1
		for j < len(values) && values[j] == values[i] {
			j++
		}
		v := values[i]
		if j-i < minRun && len(out) > 0 {
			v = out[len(out)-1]
		}
		for k := i; k < j; k++ {
			out = append(out, v)
		}
		i = j
	}
	return out
}

// Smooth runs the median filter followed by the minimum run rule
func Smooth(values []int, window, minRun int) []int {
	return EnforceMinRun(MedianFilter(values, window), minRun)
}
