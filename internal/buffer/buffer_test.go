package buffer

import (
	"testing"
)

func TestViewSlicing(t *testing.T) {
	v := New("SELECT field FROM table")

	head, tail := v.Split(6)
	if head.String() != "SELECT" {
		t.Errorf("expected head %q, got %q", "SELECT", head.String())
	}
	if tail.String() != " field FROM table" {
		t.Errorf("expected tail %q, got %q", " field FROM table", tail.String())
	}
	if tail.Pos() != 6 {
		t.Errorf("expected tail at offset 6, got %d", tail.Pos())
	}
	if got := v.Offset(tail); got != 6 {
		t.Errorf("expected offset 6, got %d", got)
	}
	if got := tail.Offset(v); got != -6 {
		t.Errorf("expected offset -6, got %d", got)
	}

	// Views are values; slicing one never disturbs another.
	again := v.Take(6)
	if !again.Equal(head) {
		t.Errorf("expected %q to equal %q", again.String(), head.String())
	}
	if v.Len() != 22 {
		t.Errorf("expected original view to keep length 22, got %d", v.Len())
	}
}

func TestViewClamp(t *testing.T) {
	v := New("abc")

	tests := []struct {
		name string
		got  View
		want string
	}{
		{name: "take negative", got: v.Take(-1), want: ""},
		{name: "take past end", got: v.Take(10), want: "abc"},
		{name: "skip past end", got: v.Skip(10), want: ""},
		{name: "skip negative", got: v.Skip(-3), want: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tt.got.String())
			}
		})
	}

	if !v.Skip(3).Empty() {
		t.Error("expected empty view after skipping everything")
	}
	if _, ok := v.Skip(3).Peek(); ok {
		t.Error("expected Peek on empty view to report false")
	}
}

func TestViewEqualIgnoresPosition(t *testing.T) {
	a := New("xx foo").Skip(3)
	b := New("foo")
	if !a.Equal(b) {
		t.Errorf("expected %q and %q to be equal", a.String(), b.String())
	}
	if a.Pos() == b.Pos() {
		t.Error("expected different offsets for equal content")
	}
}

func TestViewPrefix(t *testing.T) {
	v := New("SeLeCt *")
	if !v.HasPrefixFold("select") {
		t.Error("expected case-insensitive prefix match")
	}
	if v.HasPrefix("select") {
		t.Error("expected case-sensitive prefix mismatch")
	}
	if v.HasPrefixFold("select * from") {
		t.Error("expected no match for prefix longer than view")
	}
}

func TestViewSearch(t *testing.T) {
	v := New("it''s a 'quoted' word").Skip(2)

	if got := v.Index("''"); got != 0 {
		t.Errorf("expected Index 0, got %d", got)
	}
	if got := v.IndexByte('w'); got != 15 {
		t.Errorf("expected IndexByte 15, got %d", got)
	}
	if got := v.IndexByte('z'); got != -1 {
		t.Errorf("expected IndexByte -1, got %d", got)
	}
	isQuote := func(c byte) bool { return c == '\'' }
	if got := v.Span(isQuote); got != 2 {
		t.Errorf("expected Span 2, got %d", got)
	}
	if got := v.Skip(2).IndexFunc(isQuote); got != 4 {
		t.Errorf("expected IndexFunc 4, got %d", got)
	}
	if got := New("''").Span(isQuote); got != 2 {
		t.Errorf("expected Span over whole view, got %d", got)
	}
}

func TestFromBytesDetachesInput(t *testing.T) {
	b := []byte("select")
	v := FromBytes(b)
	b[0] = 'X'
	if v.String() != "select" {
		t.Errorf("expected view to be unaffected by writes to input, got %q", v.String())
	}
}

func TestAt(t *testing.T) {
	v := New("xabc").Skip(1)
	tests := []struct {
		i    int
		want byte
		ok   bool
	}{
		{i: 0, want: 'a', ok: true},
		{i: 2, want: 'c', ok: true},
		{i: 3},
		{i: -1},
	}
	for _, tt := range tests {
		if got, ok := v.At(tt.i); got != tt.want || ok != tt.ok {
			t.Errorf("At(%d) = %q, %v; want %q, %v", tt.i, got, ok, tt.want, tt.ok)
		}
	}
}
