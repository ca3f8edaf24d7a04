package players

import (
	"sync"

	"github.com/davidbalbert/chatline/commands"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const DefaultCapacity = 25

// KnownUsernames remembers the most recently seen player names. When full,
// adding a new name evicts the one seen longest ago. Names compare without
// regard to case; the spelling last seen is kept.
//
// Lookups take the read lock so that suggestions can be computed while names
// are being validated elsewhere. Add and Reset take the write lock.
type KnownUsernames struct {
	mu       sync.RWMutex
	capacity int
	recent   *simplelru.LRU[string, string] // folded name -> spelling
	current  string
}

func newRecent(capacity int) *simplelru.LRU[string, string] {
	lru, err := simplelru.NewLRU[string, string](capacity, nil)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}

	return lru
}

func NewKnownUsernames(capacity int) *KnownUsernames {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &KnownUsernames{
		capacity: capacity,
		recent:   newRecent(capacity),
	}
}

func (k *KnownUsernames) Capacity() int {
	return k.capacity
}

// AddKnownUsername marks name as the most recently seen player. The current
// user is never added.
func (k *KnownUsernames) AddKnownUsername(name string) {
	if name == "" {
		return
	}

	key := commands.Fold(name)

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.current != "" && key == commands.Fold(k.current) {
		return
	}

	k.recent.Add(key, name)
}

// ResetKnownUsernames forgets every name and records baseline as the current
// user, typically on login.
func (k *KnownUsernames) ResetKnownUsernames(baseline string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.recent.Purge()
	k.current = baseline
}

func (k *KnownUsernames) Current() string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return k.current
}

// IsCurrent reports whether name is the current user.
func (k *KnownUsernames) IsCurrent(name string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return k.current != "" && commands.Fold(name) == commands.Fold(k.current)
}

// Lookup returns the known spelling of name. The current user counts as
// known.
func (k *KnownUsernames) Lookup(name string) (string, bool) {
	key := commands.Fold(name)

	k.mu.RLock()
	defer k.mu.RUnlock()

	if name, ok := k.recent.Peek(key); ok {
		return name, true
	}

	if k.current != "" && key == commands.Fold(k.current) {
		return k.current, true
	}

	return "", false
}

// Names returns the known names, most recent first. The current user is not
// included.
func (k *KnownUsernames) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	keys := k.recent.Keys() // oldest first
	names := make([]string, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if name, ok := k.recent.Peek(keys[i]); ok {
			names = append(names, name)
		}
	}

	return names
}

func (k *KnownUsernames) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return k.recent.Len()
}
