package taguchi

// Method names the experiment design actually used.
type Method string

const (
	MethodL9            Method = "orthogonal_L9"
	MethodL27           Method = "orthogonal_L27"
	MethodL25           Method = "orthogonal_L25"
	MethodL50           Method = "orthogonal_L50"
	MethodFullFactorial Method = "full_factorial"
	MethodRandom        Method = "random_sampling"
)

// Exact reports whether the design is deterministic. Random sampling is an
// approximation whose answer depends on the draws.
func (m Method) Exact() bool {
	return m != MethodRandom
}

// Orthogonal reports whether m is one of the precomputed arrays.
func (m Method) Orthogonal() bool {
	switch m {
	case MethodL9, MethodL27, MethodL25, MethodL50:
		return true
	}
	return false
}

// chooseMethod picks the smallest design covering params factors at levels levels.
func chooseMethod(levels, params int, ceiling int64, allowOrthogonal bool) Method {
	if allowOrthogonal {
		switch {
		case levels == 3 && params <= 4:
			return MethodL9
		case levels == 3 && params <= 13:
			return MethodL27
		case levels == 5 && params <= 6:
			return MethodL25
		case levels == 5 && params <= 12:
			return MethodL50
		}
	}
	if combinations(levels, params, ceiling) <= ceiling {
		return MethodFullFactorial
	}
	return MethodRandom
}

// combinations returns levels^params, saturating just above ceiling.
func combinations(levels, params int, ceiling int64) int64 {
	n := int64(1)
	for range params {
		n *= int64(levels)
		if n > ceiling {
			return ceiling + 1
		}
	}
	return n
}

// orthogonalArray returns the rows of the named design truncated to params columns.
func orthogonalArray(m Method, params int) [][]int {
	var full [][]int
	switch m {
	case MethodL9:
		full = galoisArray(3, 2)
	case MethodL27:
		full = galoisArray(3, 3)
	case MethodL25:
		full = galoisArray(5, 2)
	case MethodL50:
		full = l50()
	default:
		return nil
	}
	out := make([][]int, len(full))
	for i, row := range full {
		out[i] = row[:params:params]
	}
	return out
}

// galoisArray builds the strength-2 array OA(p^n, (p^n-1)/(p-1), p) for prime p.
// Column j is the dot product of the row's base-p digits with a coefficient
// vector whose last nonzero entry is 1. For p=3, n=2 this is the textbook L9.
func galoisArray(p, n int) [][]int {
	var coeffs [][]int
	for last := 0; last < n; last++ {
		// enumerate all prefixes c[0..last-1] in lexicographic order
		prefixes := 1
		for range last {
			prefixes *= p
		}
		for k := 0; k < prefixes; k++ {
			c := make([]int, n)
			c[last] = 1
			rem := k
			for i := last - 1; i >= 0; i-- {
				c[i] = rem % p
				rem /= p
			}
			coeffs = append(coeffs, c)
		}
	}

	rows := 1
	for range n {
		rows *= p
	}

	out := make([][]int, rows)
	digits := make([]int, n)
	for r := 0; r < rows; r++ {
		rem := r
		for i := n - 1; i >= 0; i-- {
			digits[i] = rem % p
			rem /= p
		}
		row := make([]int, len(coeffs))
		for j, c := range coeffs {
			v := 0
			for i := range n {
				v += c[i] * digits[i]
			}
			row[j] = v % p
		}
		out[r] = row
	}
	return out
}

// l50 is a 50-run, 12-column, 5-level design made of two shifted L25 blocks.
// Every column is balanced; columns 0-5 are pairwise balanced, the rest only
// approximately so.
func l50() [][]int {
	out := make([][]int, 50)
	for r := range 50 {
		h := r / 25
		a := (r % 25) / 5
		b := r % 5

		row := make([]int, 12)
		row[0] = b
		for j := range 5 {
			row[1+j] = (a + j*b + h*j*j) % 5
		}
		for j := range 6 {
			row[6+j] = (2*a + j*b + h*(j+1)) % 5
		}
		out[r] = row
	}
	return out
}
