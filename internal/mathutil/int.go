package mathutil

// IntMin returns the smaller of two ints
func IntMin(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// IntMax returns the larger of two ints
func IntMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// IntSign returns -1, 0, or 1 based on sign
func IntSign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// FloorDiv divides rounding towards negative infinity. b must be positive.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// CeilDiv divides rounding towards positive infinity. b must be positive.
func CeilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}
