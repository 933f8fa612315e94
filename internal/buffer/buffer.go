// Package buffer provides View, an immutable window over a shared string.
//
// A View is a value: copying it copies three words and never the bytes it
// covers. Every slicing operation returns a new View over the same backing
// storage, so a parser can hold on to any number of earlier positions and
// resume from them without re-reading or re-allocating input. The backing
// string stays alive for as long as any View or substring derived from it is
// reachable.
package buffer

import "strings"

// View is a window [pos, end) over src.
type View struct {
	src string
	pos int
	end int
}

// New returns a View covering all of s.
func New(s string) View {
	return View{src: s, end: len(s)}
}

// FromBytes copies b once into an immutable backing string and returns a View
// over it. Later writes to b are not observed by the View.
func FromBytes(b []byte) View {
	return New(string(b))
}

// Len returns the number of bytes in the view.
func (v View) Len() int { return v.end - v.pos }

// Empty reports whether the view has no bytes left.
func (v View) Empty() bool { return v.pos >= v.end }

// Pos returns the absolute byte offset of the view within its backing storage.
func (v View) Pos() int { return v.pos }

// String returns the bytes of the view. The result shares storage with the
// backing string.
func (v View) String() string { return v.src[v.pos:v.end] }

// At returns the i-th byte of the view and whether i was in range.
func (v View) At(i int) (byte, bool) {
	if i < 0 || i >= v.Len() {
		return 0, false
	}
	return v.src[v.pos+i], true
}

// Peek returns the first byte of the view and whether there was one.
func (v View) Peek() (byte, bool) {
	if v.Empty() {
		return 0, false
	}
	return v.src[v.pos], true
}

// Take returns the first n bytes of the view. n is clamped to [0, Len()].
func (v View) Take(n int) View {
	n = v.clamp(n)
	return View{src: v.src, pos: v.pos, end: v.pos + n}
}

// Skip returns the view without its first n bytes. n is clamped to [0, Len()].
func (v View) Skip(n int) View {
	n = v.clamp(n)
	return View{src: v.src, pos: v.pos + n, end: v.end}
}

// Split returns the first n bytes and the rest. n is clamped to [0, Len()].
func (v View) Split(n int) (head, tail View) {
	return v.Take(n), v.Skip(n)
}

// Offset returns the distance in bytes from v to other. Both views must come
// from the same backing storage; the result is negative if other starts
// before v.
func (v View) Offset(other View) int {
	return other.pos - v.pos
}

// Equal reports whether both views hold the same bytes.
func (v View) Equal(other View) bool {
	return v.String() == other.String()
}

// HasPrefix reports whether the view starts with lit.
func (v View) HasPrefix(lit string) bool {
	return strings.HasPrefix(v.String(), lit)
}

// HasPrefixFold reports whether the view starts with lit, ignoring ASCII case.
func (v View) HasPrefixFold(lit string) bool {
	if v.Len() < len(lit) {
		return false
	}
	for i := 0; i < len(lit); i++ {
		if lower(v.src[v.pos+i]) != lower(lit[i]) {
			return false
		}
	}
	return true
}

// Index returns the index of the first occurrence of sub in the view, or -1.
func (v View) Index(sub string) int {
	return strings.Index(v.String(), sub)
}

// IndexByte returns the index of the first occurrence of c in the view, or -1.
func (v View) IndexByte(c byte) int {
	return strings.IndexByte(v.String(), c)
}

// IndexFunc returns the index of the first byte satisfying f, or -1.
func (v View) IndexFunc(f func(byte) bool) int {
	for i := v.pos; i < v.end; i++ {
		if f(v.src[i]) {
			return i - v.pos
		}
	}
	return -1
}

// Span returns the length of the longest prefix whose bytes all satisfy f.
func (v View) Span(f func(byte) bool) int {
	i := v.IndexFunc(func(c byte) bool { return !f(c) })
	if i < 0 {
		return v.Len()
	}
	return i
}

func (v View) clamp(n int) int {
	switch {
	case n < 0:
		return 0
	case n > v.Len():
		return v.Len()
	default:
		return n
	}
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
