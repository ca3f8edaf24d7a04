package catalog

import (
	"sort"
	"strings"

	"github.com/davidbalbert/chatline/commands"
)

// Item is a named thing from the game's item list. Handle is opaque to us
// and passed back to the host unchanged.
type Item struct {
	Name   string `yaml:"name"`
	Handle string `yaml:"id"`
}

type entry struct {
	folded string
	item   Item
}

// Index answers exact and prefix lookups over item names without regard to
// case. It is immutable once built.
type Index struct {
	sorted []entry
	exact  map[string]Item
}

// NewIndex builds an index over items. When two items fold to the same name
// the first one wins.
func NewIndex(items []Item) *Index {
	idx := &Index{
		exact: make(map[string]Item, len(items)),
	}

	for _, item := range items {
		folded := commands.Fold(item.Name)
		if folded == "" {
			continue
		}

		if _, ok := idx.exact[folded]; ok {
			continue
		}

		idx.exact[folded] = item
		idx.sorted = append(idx.sorted, entry{folded: folded, item: item})
	}

	sort.Slice(idx.sorted, func(i, j int) bool {
		return idx.sorted[i].folded < idx.sorted[j].folded
	})

	return idx
}

func (idx *Index) Len() int {
	return len(idx.sorted)
}

// Items returns every item ordered by folded name.
func (idx *Index) Items() []Item {
	items := make([]Item, len(idx.sorted))
	for i, e := range idx.sorted {
		items[i] = e.item
	}

	return items
}

func (idx *Index) Lookup(name string) (Item, bool) {
	item, ok := idx.exact[commands.Fold(name)]
	return item, ok
}

// Prefix returns up to limit items whose names start with prefix, in folded
// name order. A limit of zero or less means no limit.
func (idx *Index) Prefix(prefix string, limit int) []Item {
	folded := commands.Fold(prefix)

	i := sort.Search(len(idx.sorted), func(i int) bool {
		return idx.sorted[i].folded >= folded
	})

	var items []Item
	for ; i < len(idx.sorted) && strings.HasPrefix(idx.sorted[i].folded, folded); i++ {
		if limit > 0 && len(items) == limit {
			break
		}

		items = append(items, idx.sorted[i].item)
	}

	return items
}

// Names returns every item name, for building a matcher.
func (idx *Index) Names() []string {
	names := make([]string, len(idx.sorted))
	for i, e := range idx.sorted {
		names[i] = e.item.Name
	}

	return names
}
