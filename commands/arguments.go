package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davidbalbert/chatline/scan"
	"golang.org/x/exp/constraints"
)

// ArgumentType parses and suggests values for an argument node.
// Implementations must be safe for concurrent use: suggestions are computed
// off the dispatching goroutine.
type ArgumentType interface {
	// Parse consumes the argument from r. On failure it returns a
	// *SyntaxError positioned at the offending text.
	Parse(r *scan.Reader) (any, error)
	ListSuggestions(c *Context, b *SuggestionsBuilder) Suggestions
	Examples() []string
}

func isUnquotedChar(c rune) bool {
	return c >= '0' && c <= '9' ||
		c >= 'A' && c <= 'Z' ||
		c >= 'a' && c <= 'z' ||
		c == '_' || c == '-' ||
		c == '.' || c == '+'
}

// readToken reads up to the next separator.
func readToken(r *scan.Reader) string {
	start := r.Cursor
	for r.CanRead() && r.Peek() != ' ' {
		r.Skip()
	}

	return r.Slice(start, r.Cursor)
}

type wordArgument struct{}

// Word matches a single unquoted word made of letters, digits and _-.+
func Word() ArgumentType {
	return wordArgument{}
}

func (wordArgument) Parse(r *scan.Reader) (any, error) {
	start := r.Cursor
	for r.CanRead() && r.Peek() != ' ' {
		if !isUnquotedChar(r.Peek()) {
			bad := r.Cursor
			r.Cursor = start
			token := readToken(r)
			r.Cursor = bad

			return nil, Errorf(ErrorInvalidValue, r, token, "invalid character %q in word", r.Peek())
		}
		r.Skip()
	}

	if r.Cursor == start {
		return nil, Errorf(ErrorInvalidValue, r, "", "expected word")
	}

	return r.Slice(start, r.Cursor), nil
}

func (wordArgument) ListSuggestions(c *Context, b *SuggestionsBuilder) Suggestions {
	return Suggestions{}
}

func (wordArgument) Examples() []string {
	return []string{"word", "words_with_underscores"}
}

type greedyStringArgument struct{}

// GreedyString consumes the rest of the input, spaces included.
func GreedyString() ArgumentType {
	return greedyStringArgument{}
}

func (greedyStringArgument) Parse(r *scan.Reader) (any, error) {
	return r.ReadRest(), nil
}

func (greedyStringArgument) ListSuggestions(c *Context, b *SuggestionsBuilder) Suggestions {
	return Suggestions{}
}

func (greedyStringArgument) Examples() []string {
	return []string{"word", "words with spaces", "and symbols!"}
}

// IntegerArgument accepts whole numbers in [Min, Max].
type IntegerArgument[T constraints.Integer] struct {
	Min T
	Max T
}

func Integer[T constraints.Integer](min, max T) *IntegerArgument[T] {
	if min > max {
		panic("integer argument: min > max")
	}

	return &IntegerArgument[T]{Min: min, Max: max}
}

func (a *IntegerArgument[T]) Parse(r *scan.Reader) (any, error) {
	start := r.Cursor
	for r.CanRead() && (r.Peek() >= '0' && r.Peek() <= '9' || r.Peek() == '-') {
		r.Skip()
	}

	s := r.Slice(start, r.Cursor)
	if s == "" {
		return nil, Errorf(ErrorInvalidValue, r, "", "expected integer")
	}

	v, inRange, ok := convertInteger[T](s)
	r.Cursor = start
	if !ok {
		return nil, Errorf(ErrorInvalidValue, r, s, "invalid integer %q", s)
	}

	// Values T cannot hold are beyond whichever bound their sign points at.
	negative := strings.HasPrefix(s, "-")

	if (!inRange && negative) || (inRange && v < a.Min) {
		return nil, Errorf(ErrorOutOfRange, r, s, "integer must not be less than %d, found %s", a.Min, s)
	}

	if !inRange || v > a.Max {
		return nil, Errorf(ErrorOutOfRange, r, s, "integer must not be more than %d, found %s", a.Max, s)
	}

	r.SkipN(len(s))

	return v, nil
}

// convertInteger parses s as a T. inRange is false when s is a valid integer
// that T cannot represent.
func convertInteger[T constraints.Integer](s string) (v T, inRange bool, ok bool) {
	if strings.HasPrefix(s, "-") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false, isRangeErr(err)
		}

		v = T(n)
		return v, int64(v) == n && v < 0, true
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false, isRangeErr(err)
	}

	v = T(n)
	return v, uint64(v) == n && v >= 0, true
}

func isRangeErr(err error) bool {
	nerr, ok := err.(*strconv.NumError)
	return ok && nerr.Err == strconv.ErrRange
}

func (a *IntegerArgument[T]) ListSuggestions(c *Context, b *SuggestionsBuilder) Suggestions {
	return Suggestions{}
}

func (a *IntegerArgument[T]) Examples() []string {
	return []string{fmt.Sprint(a.Min), fmt.Sprint(a.Max)}
}

// EnumArgument matches one of a fixed set of words, ignoring case. The
// parsed value is the canonical spelling.
type EnumArgument struct {
	values []string
	folded map[string]string
}

func Enum(values ...string) *EnumArgument {
	folded := make(map[string]string, len(values))
	for _, v := range values {
		folded[Fold(v)] = v
	}

	return &EnumArgument{values: values, folded: folded}
}

func (a *EnumArgument) Parse(r *scan.Reader) (any, error) {
	start := r.Cursor
	token := readToken(r)

	v, ok := a.folded[Fold(token)]
	if !ok {
		r.Cursor = start
		return nil, Errorf(ErrorUnknownValue, r, token, "unknown value %q", token)
	}

	return v, nil
}

func (a *EnumArgument) ListSuggestions(c *Context, b *SuggestionsBuilder) Suggestions {
	prefix := b.RemainingFolded()
	for _, v := range a.values {
		if strings.HasPrefix(Fold(v), prefix) {
			b.Suggest(v)
		}
	}

	return b.Build()
}

func (a *EnumArgument) Examples() []string {
	return a.values
}
