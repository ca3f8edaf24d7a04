package chat

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/davidbalbert/chatline/ahocorasick"
	"github.com/davidbalbert/chatline/catalog"
	"github.com/davidbalbert/chatline/scan"
)

// Detection is an item name found in a chat line. Start and End are rune
// positions in the full line. A trailing plural or possessive "s" is
// included in the span.
type Detection struct {
	Item  catalog.Item
	Text  string
	Start int
	End   int
}

type snapshot struct {
	index   *catalog.Index
	matcher *ahocorasick.Matcher
}

// Detector finds item names in player messages. The matcher is rebuilt
// from scratch whenever the catalog changes and swapped in atomically, so
// detection never sees a half-built automaton.
type Detector struct {
	current atomic.Pointer[snapshot]
}

func NewDetector(idx *catalog.Index) *Detector {
	d := &Detector{}
	d.Rebuild(idx)

	return d
}

// lower lowercases s one rune at a time so rune positions are unchanged.
func lower(s string) string {
	return strings.Map(unicode.ToLower, s)
}

func (d *Detector) Rebuild(idx *catalog.Index) {
	if idx == nil {
		idx = catalog.NewIndex(nil)
	}

	m := ahocorasick.New()
	for _, name := range idx.Names() {
		m.Insert(lower(name))
	}
	m.BuildFailureLinks()

	d.current.Store(&snapshot{index: idx, matcher: m})
}

// Follow rebuilds the matcher every time store changes, until ctx is done.
func (d *Detector) Follow(ctx context.Context, store *catalog.Store) error {
	// -1 is never a valid sequence number, so the first call returns the
	// current index right away.
	idx, seq := store.AwaitChange(ctx, -1)
	for {
		if ctx.Err() != nil {
			return nil
		}

		if idx != d.current.Load().index {
			d.Rebuild(idx)
		}

		idx, seq = store.AwaitChange(ctx, seq)
	}
}

// Detect tokenizes line as a player message and returns the items named in
// its message. ok is false if line is not a player message.
func (d *Detector) Detect(line string) (msg *scan.PlayerMessage, detections []Detection, ok bool) {
	msg, ok = scan.ParsePlayerMessage(line)
	if !ok {
		return nil, nil, false
	}

	detections = d.DetectText(msg.Message)
	for i := range detections {
		detections[i].Start += msg.MessageStart
		detections[i].End += msg.MessageStart
	}

	return msg, detections, true
}

// DetectText finds item names anywhere in text.
func (d *Detector) DetectText(text string) []Detection {
	snap := d.current.Load()
	haystack := lower(text)

	matches := snap.matcher.Search(haystack, true)
	matches = ahocorasick.FilterBoundaries(haystack, matches)

	r := scan.NewReader(text)

	var detections []Detection
	for _, m := range matches {
		item, ok := snap.index.Lookup(m.Word)
		if !ok {
			continue
		}

		detections = append(detections, Detection{
			Item:  item,
			Text:  r.Slice(m.Start, m.End),
			Start: m.Start,
			End:   m.End,
		})
	}

	return detections
}
