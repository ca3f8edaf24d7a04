// Package ahocorasick implements multi-pattern substring search.
//
// Patterns are inserted into a trie, failure links are computed once, and
// searches then run in time linear in the text plus the number of matches.
// Trie nodes live in a single slice and refer to each other by index.
package ahocorasick

import (
	"sort"
)

const root = 0

type node struct {
	next map[rune]int
	fail int

	// indices into Matcher.words, own terminals first, then everything
	// inherited along the failure chain
	output []int
}

type Match struct {
	Word  string
	Start int
	End   int
}

func (m Match) Len() int {
	return m.End - m.Start
}

type Matcher struct {
	nodes []node
	words []string
	lens  []int
	built bool
}

func New() *Matcher {
	return &Matcher{
		nodes: []node{{}},
	}
}

// NewFromWords inserts every word and builds failure links.
func NewFromWords(words ...string) *Matcher {
	m := New()
	for _, w := range words {
		m.Insert(w)
	}
	m.BuildFailureLinks()

	return m
}

// Insert adds a pattern. All patterns must be inserted before
// BuildFailureLinks is called.
func (m *Matcher) Insert(word string) {
	if m.built {
		panic("ahocorasick: Insert called after BuildFailureLinks")
	}

	runes := []rune(word)
	if len(runes) == 0 {
		return
	}

	n := root
	for _, c := range runes {
		child, ok := m.nodes[n].next[c]
		if !ok {
			child = len(m.nodes)
			m.nodes = append(m.nodes, node{})

			if m.nodes[n].next == nil {
				m.nodes[n].next = make(map[rune]int)
			}
			m.nodes[n].next[c] = child
		}

		n = child
	}

	for _, i := range m.nodes[n].output {
		if m.words[i] == word {
			return
		}
	}

	m.nodes[n].output = append(m.nodes[n].output, len(m.words))
	m.words = append(m.words, word)
	m.lens = append(m.lens, len(runes))
}

func (m *Matcher) BuildFailureLinks() {
	if m.built {
		panic("ahocorasick: BuildFailureLinks called twice")
	}
	m.built = true

	queue := make([]int, 0, len(m.nodes))

	for _, child := range m.nodes[root].next {
		m.nodes[child].fail = root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for c, v := range m.nodes[u].next {
			f := m.nodes[u].fail
			for f != root {
				if _, ok := m.nodes[f].next[c]; ok {
					break
				}
				f = m.nodes[f].fail
			}

			if target, ok := m.nodes[f].next[c]; ok && target != v {
				m.nodes[v].fail = target
			} else {
				m.nodes[v].fail = root
			}

			// u is dequeued before v, and fail(v) is shallower than v, so
			// its output is already complete.
			inherited := m.nodes[m.nodes[v].fail].output
			if len(inherited) > 0 {
				out := make([]int, 0, len(m.nodes[v].output)+len(inherited))
				out = append(out, m.nodes[v].output...)
				out = append(out, inherited...)
				m.nodes[v].output = out
			}

			queue = append(queue, v)
		}
	}
}

func (m *Matcher) Words() []string {
	return m.words
}

// Search reports every occurrence of every pattern in text. Positions are
// rune indices. With unique set, overlapping matches are resolved
// longest-leftmost: matches are ordered by start, longer first, and a match
// is kept only if it starts at or after the end of the last kept match.
func (m *Matcher) Search(text string, unique bool) []Match {
	if !m.built {
		panic("ahocorasick: Search called before BuildFailureLinks")
	}

	var matches []Match

	n := root
	i := 0
	for _, c := range text {
		for {
			if next, ok := m.nodes[n].next[c]; ok {
				n = next
				break
			}

			if n == root {
				break
			}

			n = m.nodes[n].fail
		}

		for _, w := range m.nodes[n].output {
			start := i - m.lens[w] + 1
			matches = append(matches, Match{
				Word:  m.words[w],
				Start: start,
				End:   start + m.lens[w],
			})
		}

		i++
	}

	if !unique {
		return matches
	}

	return longestLeftmost(matches)
}

func longestLeftmost(matches []Match) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}

		return matches[i].Len() > matches[j].Len()
	})

	var kept []Match
	lastEnd := 0
	for _, m := range matches {
		if m.Start >= lastEnd {
			kept = append(kept, m)
			lastEnd = m.End
		}
	}

	return kept
}
