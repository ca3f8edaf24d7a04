package ahocorasick

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilterBoundariesExtendsPlural(t *testing.T) {
	haystack := "the cats are here"
	m := NewFromWords("cat")

	raw := m.Search(haystack, true)
	got := FilterBoundaries(haystack, raw)
	want := []Match{{Word: "cat", Start: 4, End: 8}}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("matches mismatch (-want +got):\n%s", diff)
	}

	if raw[0].End != 7 {
		t.Fatalf("input match was modified: %+v", raw[0])
	}
}

func TestFilterBoundariesRejectsInsideWord(t *testing.T) {
	haystack := "concatenate"
	m := NewFromWords("cat")

	raw := m.Search(haystack, true)
	if len(raw) != 1 {
		t.Fatalf("expected raw match, got %v", raw)
	}

	if got := FilterBoundaries(haystack, raw); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestFilterBoundaries(t *testing.T) {
	tests := []struct {
		haystack string
		word     string
		want     []Match
	}{
		{"cat", "cat", []Match{{"cat", 0, 3}}},
		{"a cat.", "cat", []Match{{"cat", 2, 5}}},
		{"(cat)", "cat", []Match{{"cat", 1, 4}}},
		{"[cat]", "cat", []Match{{"cat", 1, 4}}},
		{"{cat}", "cat", []Match{{"cat", 1, 4}}},
		{"/cat/", "cat", []Match{{"cat", 1, 4}}},
		{"cat's toy", "cat", []Match{{"cat", 0, 3}}},
		{"cat? cat! cat,", "cat", []Match{{"cat", 0, 3}, {"cat", 5, 8}, {"cat", 10, 13}}},
		{"cats", "cat", []Match{{"cat", 0, 4}}},
		{"cats.", "cat", []Match{{"cat", 0, 4}}},
		{"catss", "cat", nil},
		{"catsup", "cat", nil},
		{"cattle", "cat", nil},
		{"bobcat", "cat", nil},
		{"-cat", "cat", nil},
		{"glass", "glass", []Match{{"glass", 0, 5}}},
		{"glasss", "glass", nil},
		{"bus stop", "bus", []Match{{"bus", 0, 3}}},
	}

	for _, test := range tests {
		m := NewFromWords(test.word)
		got := FilterBoundaries(test.haystack, m.Search(test.haystack, true))

		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Fatalf("%q: matches mismatch (-want +got):\n%s", test.haystack, diff)
		}
	}
}
