package harness

// Permutations returns every ordering of values using Heap's algorithm. The
// input slice is not modified.
func Permutations(values []int64) [][]int64 {
	a := append([]int64(nil), values...)
	out := [][]int64{append([]int64(nil), a...)}

	c := make([]int, len(a))
	for i := 1; i < len(a); {
		if c[i] < i {
			if i%2 == 0 {
				a[0], a[i] = a[i], a[0]
			} else {
				a[c[i]], a[i] = a[i], a[c[i]]
			}
			out = append(out, append([]int64(nil), a...))
			c[i]++
			i = 1
		} else {
			c[i] = 0
			i++
		}
	}
	return out
}
