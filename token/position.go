// Package token defines source positions and the lexical token kinds shared
// by the PJS scanner, parser and AST.
package token

import (
	"fmt"
	"sort"
)

// Position describes a printable source location.
type Position struct {
	Filename string
	Offset   int // byte offset, starting at 0
	Line     int // starting at 1
	Column   int // starting at 1
}

// IsValid reports whether the position has a known line.
func (pos Position) IsValid() bool { return pos.Line > 0 }

func (pos Position) String() string {
	s := pos.Filename
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Pos is a compact source position: an offset into a *File. The zero Pos
// (NoPos) carries no file and is always invalid.
type Pos struct {
	file   *File
	offset int
}

// NoPos is the zero value for Pos; it has no position information.
var NoPos Pos

// IsValid reports whether p is a position within some File.
func (p Pos) IsValid() bool { return p.file != nil }

// Position expands p into a full, human-readable Position.
func (p Pos) Position() Position {
	if p.file == nil {
		return Position{}
	}
	return p.file.position(p.offset)
}

// Compare orders two positions first by file name, then by offset. It exists
// so error lists can be sorted deterministically.
func (p Pos) Compare(q Pos) int {
	pp, qp := p.Position(), q.Position()
	if pp.Filename != qp.Filename {
		if pp.Filename < qp.Filename {
			return -1
		}
		return 1
	}
	switch {
	case pp.Offset < qp.Offset:
		return -1
	case pp.Offset > qp.Offset:
		return 1
	default:
		return 0
	}
}

// A File tracks line-start offsets for one source file so that byte offsets
// can be translated to line/column pairs on demand.
type File struct {
	name  string
	size  int
	lines []int // offset of start of each line; lines[0] == 0
}

// NewFile creates a File named name holding size bytes of source.
func NewFile(name string, size int) *File {
	return &File{name: name, size: size, lines: []int{0}}
}

// Name returns the file's name.
func (f *File) Name() string { return f.name }

// Size returns the number of bytes in the file.
func (f *File) Size() int { return f.size }

// AddLine records that a new line begins at offset. Offsets must be added in
// increasing order; out-of-order or duplicate calls are ignored.
func (f *File) AddLine(offset int) {
	if n := len(f.lines); (n == 0 || f.lines[n-1] < offset) && offset <= f.size {
		f.lines = append(f.lines, offset)
	}
}

// Pos returns the Pos for the given byte offset within f.
func (f *File) Pos(offset int) Pos {
	if offset < 0 || offset > f.size {
		offset = 0
	}
	return Pos{file: f, offset: offset}
}

// Offset returns the byte offset of p if p belongs to f, else -1.
func (f *File) Offset(p Pos) int {
	if p.file != f {
		return -1
	}
	return p.offset
}

func (f *File) position(offset int) Position {
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return Position{
		Filename: f.name,
		Offset:   offset,
		Line:     i + 1,
		Column:   offset - f.lines[i] + 1,
	}
}
