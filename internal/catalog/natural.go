package catalog

import "strings"

// CompareSegments orders two name segments naturally. It returns -1, 0 or +1.
//
// Both strings are split into alternating runs of ASCII digits and
// non-digits. Digit runs compare by magnitude, non-digit runs by byte order,
// and a non-digit run sorts before a digit run at the same position. When
// one run sequence is a prefix of the other the shorter one comes first.
// Digit runs that differ only in leading zeros ("01" and "1") are ordered by
// their literal text, but only when nothing else tells the strings apart.
func CompareSegments(a, b string) int {
	tie := 0
	for a != "" && b != "" {
		var ra, rb string
		ra, a = nextRun(a)
		rb, b = nextRun(b)

		da, db := isDigit(ra[0]), isDigit(rb[0])
		switch {
		case da && db:
			c, lit := compareNumeric(ra, rb)
			if c != 0 {
				return c
			}
			if tie == 0 {
				tie = lit
			}
		case da:
			return 1
		case db:
			return -1
		default:
			if c := strings.Compare(ra, rb); c != 0 {
				return c
			}
		}
	}

	switch {
	case a == "" && b == "":
		return tie
	case a == "":
		return -1
	default:
		return 1
	}
}

// ComparePaths orders two dot-separated paths segment by segment.
func ComparePaths(a, b string) int {
	for {
		sa, restA, moreA := strings.Cut(a, ".")
		sb, restB, moreB := strings.Cut(b, ".")
		if c := CompareSegments(sa, sb); c != 0 {
			return c
		}
		switch {
		case !moreA && !moreB:
			return 0
		case !moreA:
			return -1
		case !moreB:
			return 1
		}
		a, b = restA, restB
	}
}

func nextRun(s string) (run, rest string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

// compareNumeric compares two digit runs by magnitude. lit is the literal
// ordering used as a tie-break for equal magnitudes.
func compareNumeric(a, b string) (c, lit int) {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	switch {
	case len(ta) < len(tb):
		return -1, 0
	case len(ta) > len(tb):
		return 1, 0
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c, 0
	}
	return 0, strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
