package scan

// Reader is a cursor over an immutable string. Positions are rune indices.
//
// Reader does no bounds checking of its own. Callers are expected to check
// CanRead before calling Peek, Skip or Next, and reading past the end panics.
type Reader struct {
	s      []rune
	Cursor int
}

func NewReader(s string) *Reader {
	return &Reader{s: []rune(s)}
}

func (r *Reader) String() string {
	return string(r.s)
}

func (r *Reader) Len() int {
	return len(r.s)
}

func (r *Reader) Remaining() int {
	return len(r.s) - r.Cursor
}

func (r *Reader) CanRead() bool {
	return r.CanReadN(1)
}

func (r *Reader) CanReadN(n int) bool {
	return r.Cursor+n <= len(r.s)
}

func (r *Reader) Peek() rune {
	return r.s[r.Cursor]
}

func (r *Reader) PeekAt(offset int) rune {
	return r.s[r.Cursor+offset]
}

func (r *Reader) Skip() {
	r.Cursor++
}

func (r *Reader) SkipN(n int) {
	r.Cursor += n
}

func (r *Reader) Next() rune {
	c := r.s[r.Cursor]
	r.Cursor++

	return c
}

func (r *Reader) NextAfter(skip int) rune {
	r.Cursor += skip

	return r.Next()
}

// IndexOf returns the absolute index of the first ch at or after the cursor,
// or -1.
func (r *Reader) IndexOf(ch rune) int {
	for i := r.Cursor; i < len(r.s); i++ {
		if r.s[i] == ch {
			return i
		}
	}

	return -1
}

func (r *Reader) Read(size int) string {
	if size > r.Remaining() {
		size = r.Remaining()
	}

	s := string(r.s[r.Cursor : r.Cursor+size])
	r.Cursor += size

	return s
}

func (r *Reader) ReadRest() string {
	return r.Read(r.Remaining())
}

// Slice returns the text between two absolute positions.
func (r *Reader) Slice(start, end int) string {
	return string(r.s[start:end])
}

func (r *Reader) Copy() *Reader {
	return &Reader{s: r.s, Cursor: r.Cursor}
}
