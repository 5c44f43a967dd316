// Package natsort orders filenames so that a numeric run just before the
// extension compares as an integer ("img2.png" before "img10.png").
package natsort

import (
	"slices"
	"strings"
)

type parts struct {
	suffix string
	digits string
	ext    string
}

// split decomposes name into the text before the numeric run, the numeric
// run itself and the extension starting at the last dot.
func split(name string) parts {
	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		base, ext = name[:i], name[i:]
	}
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	return parts{
		suffix: base[:i],
		digits: base[i:],
		ext:    ext,
	}
}

// Compare returns a negative number when x sorts before y, a positive number
// when it sorts after and zero when both are the same name. Numeric runs are
// only compared as integers when the rest of both names match; every other
// case, including equal integer values written differently, falls back to a
// plain byte-wise comparison.
func Compare(x, y string) int {
	if x == y {
		return 0
	}
	px, py := split(x), split(y)
	if px.suffix == py.suffix && px.ext == py.ext && px.digits != "" && py.digits != "" {
		if c := compareDigits(px.digits, py.digits); c != 0 {
			return c
		}
	}
	return strings.Compare(x, y)
}

// Less reports whether x sorts before y.
func Less(x, y string) bool {
	return Compare(x, y) < 0
}

// Sort sorts names in place in natural order.
func Sort(names []string) {
	slices.SortStableFunc(names, Compare)
}

// compareDigits compares two non-empty digit runs by integer value without
// parsing, so runs of any length are handled.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
