package commands

import (
	"github.com/davidbalbert/chatline/scan"
)

// Range is a half-open span of rune positions in the input.
type Range struct {
	Start int
	End   int
}

func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Suggestion is a candidate replacement for the text at Range.
type Suggestion struct {
	Text    string
	Range   Range
	Tooltip string
}

// Apply returns input with the suggestion's range replaced by its text.
func (s Suggestion) Apply(input string) string {
	runes := []rune(input)
	if s.Range.Start == 0 && s.Range.End == len(runes) {
		return s.Text
	}

	return string(runes[:s.Range.Start]) + s.Text + string(runes[s.Range.End:])
}

type Suggestions struct {
	Range Range
	List  []Suggestion
}

func (s Suggestions) IsEmpty() bool {
	return len(s.List) == 0
}

// Texts returns the suggestion texts in order.
func (s Suggestions) Texts() []string {
	texts := make([]string, len(s.List))
	for i, sug := range s.List {
		texts[i] = sug.Text
	}

	return texts
}

// mergeSuggestions concatenates suggestion lists in the order given,
// dropping duplicates and widening the range to cover all of them.
func mergeSuggestions(input string, all []Suggestions) Suggestions {
	var merged Suggestions
	seen := make(map[Suggestion]bool)

	first := true
	for _, s := range all {
		for _, sug := range s.List {
			if seen[sug] {
				continue
			}
			seen[sug] = true

			if first {
				merged.Range = sug.Range
				first = false
			} else {
				if sug.Range.Start < merged.Range.Start {
					merged.Range.Start = sug.Range.Start
				}
				if sug.Range.End > merged.Range.End {
					merged.Range.End = sug.Range.End
				}
			}

			merged.List = append(merged.List, sug)
		}
	}

	if first {
		return Suggestions{}
	}

	// Expand every suggestion to the merged range so they all replace the
	// same text.
	runes := []rune(input)
	for i, sug := range merged.List {
		if sug.Range == merged.Range {
			continue
		}

		text := string(runes[merged.Range.Start:sug.Range.Start]) + sug.Text + string(runes[sug.Range.End:merged.Range.End])
		merged.List[i] = Suggestion{Text: text, Range: merged.Range, Tooltip: sug.Tooltip}
	}

	return merged
}

// SuggestionsBuilder collects suggestions for the token that starts at
// Start in Input. Input is already truncated at the cursor.
type SuggestionsBuilder struct {
	Input string
	Start int

	remaining string
	result    []Suggestion
}

func NewSuggestionsBuilder(input string, start int) *SuggestionsBuilder {
	r := scan.NewReader(input)

	return &SuggestionsBuilder{
		Input:     input,
		Start:     start,
		remaining: r.Slice(start, r.Len()),
	}
}

// Remaining is the partially typed token, case preserved.
func (b *SuggestionsBuilder) Remaining() string {
	return b.remaining
}

// RemainingFolded is Remaining in folded case.
func (b *SuggestionsBuilder) RemainingFolded() string {
	return Fold(b.remaining)
}

func (b *SuggestionsBuilder) Suggest(text string) *SuggestionsBuilder {
	return b.SuggestWithTooltip(text, "")
}

func (b *SuggestionsBuilder) SuggestWithTooltip(text, tooltip string) *SuggestionsBuilder {
	if text == b.remaining {
		return b
	}

	b.result = append(b.result, Suggestion{
		Text:    text,
		Range:   Range{Start: b.Start, End: len([]rune(b.Input))},
		Tooltip: tooltip,
	})

	return b
}

func (b *SuggestionsBuilder) Build() Suggestions {
	if len(b.result) == 0 {
		return Suggestions{}
	}

	return Suggestions{
		Range: b.result[0].Range,
		List:  b.result,
	}
}
