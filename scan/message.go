package scan

// PlayerMessage is a chat line of the form "[hh:mm:ss] [TAG] Name: message".
// The tag is optional; TagStart is -1 when there is none.
type PlayerMessage struct {
	Tag          string
	TagStart     int
	Name         string
	NameStart    int
	Message      string
	MessageStart int
}

func (m *PlayerMessage) HasTag() bool {
	return m.TagStart >= 0
}

const (
	timestampLen = len("[00:00:00] ")
	tagLen       = 3
)

// ParsePlayerMessage tokenizes a chat line. It returns nil and false at the
// first failed expectation.
//
// A tag is optional, but once a line starts a tag with '[' the tag must be
// well formed. "[00:00:00] [TA hello" fails outright rather than being read
// as an untagged message. Chat display code depends on that failure mode, so
// it is kept even though it is stricter than the tag being optional implies.
func ParsePlayerMessage(line string) (*PlayerMessage, bool) {
	r := NewReader(line)

	if !r.CanReadN(timestampLen) {
		return nil, false
	}

	if !expect(r, '[') || !skipAny(r, 2) || !expect(r, ':') || !skipAny(r, 2) || !expect(r, ':') || !skipAny(r, 2) || !expect(r, ']') || !expect(r, ' ') {
		return nil, false
	}

	m := &PlayerMessage{TagStart: -1}

	if r.CanRead() && r.Peek() == '[' {
		if !r.CanReadN(tagLen + 3) {
			return nil, false
		}

		r.Skip()
		m.TagStart = r.Cursor
		m.Tag = r.Read(tagLen)

		if !expect(r, ']') || !expect(r, ' ') {
			return nil, false
		}
	}

	colon := r.IndexOf(':')
	if colon == -1 || colon == r.Cursor {
		return nil, false
	}

	m.NameStart = r.Cursor
	m.Name = r.Read(colon - r.Cursor)

	if !r.CanReadN(2) {
		return nil, false
	}

	if !expect(r, ':') || !expect(r, ' ') {
		return nil, false
	}

	m.MessageStart = r.Cursor
	m.Message = r.ReadRest()

	return m, true
}

func expect(r *Reader, c rune) bool {
	if !r.CanRead() || r.Peek() != c {
		return false
	}

	r.Skip()

	return true
}

func skipAny(r *Reader, n int) bool {
	if !r.CanReadN(n) {
		return false
	}

	r.SkipN(n)

	return true
}
