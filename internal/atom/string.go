package atom

import (
	"strings"
	"unicode/utf8"

	"symkernel/internal/value"
)

// stringRepr is the backing representation of a String's extent, chosen at
// construction time. Go strings are UTF-8, so the three tiers are built
// around UTF-8 graphemes instead of UTF-16 code units: ascii (1 byte == 1
// grapheme, no table needed), simple (every rune is a single-codepoint
// grapheme, an offset table maps grapheme index -> byte offset in O(1)),
// and complex (some grapheme is a multi-rune cluster, a combining mark or
// similar, so the offset table also tracks cluster length). Cluster
// boundaries are detected at combining-mark granularity, not via full
// Unicode text segmentation.
type stringRepr uint8

const (
	reprASCII stringRepr = iota
	reprSimple
	reprComplex
)

// extent is the immutable backing storage a View can share.
type extent struct {
	data    string
	repr    stringRepr
	offsets []int // grapheme index -> byte offset; nil for ascii
	lengths []int // per-grapheme byte length; nil unless repr == reprComplex
}

// String is an immutable Unicode text atom. A value may be a view into a
// larger extent: (extent, offset, length) are all measured in graphemes.
type String struct {
	ext    *extent
	offset int
	length int
}

// NewString builds a String atom, scanning s once to pick the cheapest
// backing representation.
func NewString(s string) *String {
	return &String{ext: buildExtent(s), offset: 0, length: graphemeCount(s)}
}

func buildExtent(s string) *extent {
	if isASCII(s) {
		return &extent{data: s, repr: reprASCII}
	}
	offsets := make([]int, 0, len(s))
	lengths := make([]int, 0, len(s))
	complex := false
	i := 0
	for i < len(s) {
		start := i
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		// Absorb trailing combining marks into the same grapheme cluster.
		for i < len(s) {
			r, sz := utf8.DecodeRuneInString(s[i:])
			if !isCombiningMark(r) {
				break
			}
			i += sz
			complex = true
		}
		offsets = append(offsets, start)
		lengths = append(lengths, i-start)
	}
	repr := reprSimple
	if complex {
		repr = reprComplex
	}
	return &extent{data: s, repr: repr, offsets: offsets, lengths: lengths}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// isCombiningMark approximates Unicode combining-mark status by category
// range checks rather than pulling in a full Unicode table dependency; it
// covers the common combining diacritical blocks.
func isCombiningMark(r rune) bool {
	switch {
	case r >= 0x0300 && r <= 0x036F: // Combining Diacritical Marks
		return true
	case r >= 0x1AB0 && r <= 0x1AFF:
		return true
	case r >= 0x1DC0 && r <= 0x1DFF:
		return true
	case r >= 0x20D0 && r <= 0x20FF: // Combining Diacritical Marks for Symbols
		return true
	case r >= 0xFE20 && r <= 0xFE2F: // Combining Half Marks
		return true
	default:
		return false
	}
}

func graphemeCount(s string) int {
	if isASCII(s) {
		return len(s)
	}
	n := 0
	i := 0
	for i < len(s) {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		for i < len(s) {
			r, sz := utf8.DecodeRuneInString(s[i:])
			if !isCombiningMark(r) {
				break
			}
			i += sz
		}
		n++
	}
	return n
}

// Len reports the number of graphemes in this view.
func (s *String) Len() int { return s.length }

// Slice returns a new View sharing the same extent.
func (s *String) Slice(begin, end int) *String {
	if begin < 0 || end > s.length || begin > end {
		panic("String.Slice: index out of range")
	}
	return &String{ext: s.ext, offset: s.offset + begin, length: end - begin}
}

// Value materializes this view as a plain Go string.
func (s *String) Value() string {
	switch s.ext.repr {
	case reprASCII:
		return s.ext.data[s.offset : s.offset+s.length]
	default:
		if s.length == 0 {
			return ""
		}
		startG := s.offset
		endG := s.offset + s.length - 1
		startByte := s.ext.offsets[startG]
		endByte := s.ext.offsets[endG] + s.ext.lengths[endG]
		return s.ext.data[startByte:endByte]
	}
}

func (s *String) Text() string { return s.Value() }

func (s *String) Kind() value.Kind  { return value.KindString }
func (s *String) HeadName() string  { return "String" }

func (s *String) Hash() uint64 {
	return hashCombine(kindSeedFor(byte(value.KindString)), hashString(s.Value()))
}

func (s *String) SameQ(other value.Value) bool {
	o, ok := other.(*String)
	return ok && s.Value() == o.Value()
}

// EqualFold reports case-insensitive equality, used by string pattern
// matching's case-insensitive mode.
func (s *String) EqualFold(o *String) bool {
	return strings.EqualFold(s.Value(), o.Value())
}
