package catalog

import (
	"github.com/davidbalbert/chatline/commands"
	"github.com/davidbalbert/chatline/scan"
)

const DefaultMaxSuggestions = 10

// Argument matches an item name. Item names may contain spaces, so the
// longest name that the remaining input starts with wins.
type Argument struct {
	source         func() *Index
	maxSuggestions int
}

// NewArgument returns an item argument that reads the index from source on
// every call, so catalog reloads are picked up without re-registering.
func NewArgument(source func() *Index, maxSuggestions int) *Argument {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}

	return &Argument{source: source, maxSuggestions: maxSuggestions}
}

// Static returns a source that always yields idx.
func Static(idx *Index) func() *Index {
	return func() *Index { return idx }
}

func (a *Argument) Parse(r *scan.Reader) (any, error) {
	idx := a.source()
	start := r.Cursor

	var best Item
	bestEnd := -1

	// Candidate names end where a token ends.
	c := r.Copy()
	for {
		for c.CanRead() && c.Peek() != ' ' {
			c.Skip()
		}

		if c.Cursor > start {
			if item, ok := idx.Lookup(r.Slice(start, c.Cursor)); ok {
				best, bestEnd = item, c.Cursor
			}
		}

		if !c.CanRead() {
			break
		}
		c.Skip()
	}

	if bestEnd < 0 {
		c = r.Copy()
		for c.CanRead() && c.Peek() != ' ' {
			c.Skip()
		}

		value := r.Slice(start, c.Cursor)
		if value == "" {
			return nil, commands.Errorf(commands.ErrorInvalidValue, r, "", "expected item name")
		}

		return nil, commands.Errorf(commands.ErrorUnknownValue, r, value, "unknown item %q", value)
	}

	r.Cursor = bestEnd

	return best, nil
}

func (a *Argument) ListSuggestions(c *commands.Context, b *commands.SuggestionsBuilder) commands.Suggestions {
	for _, item := range a.source().Prefix(b.Remaining(), a.maxSuggestions) {
		b.Suggest(item.Name)
	}

	return b.Build()
}

func (a *Argument) Examples() []string {
	return []string{"stone", "iron sword"}
}
