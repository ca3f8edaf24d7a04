package chat

import (
	"sort"
	"strings"
	"sync"

	"github.com/davidbalbert/chatline/commands"
	"github.com/davidbalbert/chatline/scan"
	"golang.org/x/exp/maps"
)

// IgnoreList is the set of players whose messages the host should hide.
// Names are compared case-insensitively; the spelling used when the player
// was added is kept for display.
type IgnoreList struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewIgnoreList() *IgnoreList {
	return &IgnoreList{names: make(map[string]string)}
}

// Add reports whether name was newly added.
func (l *IgnoreList) Add(name string) bool {
	key := commands.Fold(name)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.names[key]; ok {
		return false
	}
	l.names[key] = name

	return true
}

// Remove reports whether name was on the list.
func (l *IgnoreList) Remove(name string) bool {
	key := commands.Fold(name)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.names[key]; !ok {
		return false
	}
	delete(l.names, key)

	return true
}

func (l *IgnoreList) Contains(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.names[commands.Fold(name)]
	return ok
}

// Lookup returns the spelling name was added with.
func (l *IgnoreList) Lookup(name string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	display, ok := l.names[commands.Fold(name)]
	return display, ok
}

// List returns the ignored names sorted case-insensitively.
func (l *IgnoreList) List() []string {
	l.mu.RLock()
	keys := maps.Keys(l.names)
	names := make([]string, len(keys))
	sort.Strings(keys)
	for i, k := range keys {
		names[i] = l.names[k]
	}
	l.mu.RUnlock()

	return names
}

// ignoredArgument matches a name that is currently on an IgnoreList. It
// lets "ignore remove" work for players that have dropped out of the
// known-player cache.
type ignoredArgument struct {
	list *IgnoreList
}

func (a ignoredArgument) Parse(r *scan.Reader) (any, error) {
	start := r.Cursor

	v, err := commands.Word().Parse(r)
	if err != nil {
		return nil, err
	}
	name := v.(string)

	display, ok := a.list.Lookup(name)
	if !ok {
		r.Cursor = start
		return nil, commands.Errorf(commands.ErrorUnknownValue, r, name, "you are not ignoring %s", name)
	}

	return display, nil
}

func (a ignoredArgument) ListSuggestions(c *commands.Context, b *commands.SuggestionsBuilder) commands.Suggestions {
	prefix := b.RemainingFolded()
	for _, name := range a.list.List() {
		if strings.HasPrefix(commands.Fold(name), prefix) {
			b.Suggest(name)
		}
	}

	return b.Build()
}

func (a ignoredArgument) Examples() []string {
	return []string{"Steve"}
}
