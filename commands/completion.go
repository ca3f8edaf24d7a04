package commands

import (
	"context"
	"strings"

	"github.com/davidbalbert/chatline/scan"
)

// suggestionContext finds the node whose children should be asked for
// suggestions at cursor, and where the token being completed starts.
func (d *Dispatcher) suggestionContext(parse *ParseResults, cursor int) (NodeID, int) {
	last, ok := parse.last()
	if !ok {
		return Root, 0
	}

	if last.Range.End < cursor {
		return d.effective(last.Node), last.Range.End + 1
	}

	for _, pn := range parse.Nodes {
		if pn.Range.Start <= cursor && cursor <= pn.Range.End {
			return pn.Parent, pn.Range.Start
		}
	}

	return last.Parent, parse.Range().Start
}

// Suggestions lists completions for the token under cursor. Literal
// children come before argument children, each in registration order, and
// the results are concatenated without re-sorting. Suggestions with
// different ranges are widened to a common one.
func (d *Dispatcher) Suggestions(parse *ParseResults, cursor int) Suggestions {
	r := scan.NewReader(parse.Input)
	if cursor > r.Len() {
		cursor = r.Len()
	}
	truncated := r.Slice(0, cursor)

	parent, start := d.suggestionContext(parse, cursor)
	if start > cursor {
		start = cursor
	}

	c := newContext(parse)

	var all []Suggestions
	for _, id := range d.nodes[parent].children() {
		if !d.nodes[id].canUse(parse.Source) {
			continue
		}

		b := NewSuggestionsBuilder(truncated, start)
		all = append(all, d.listSuggestions(id, c, b))
	}

	// An argument may span several words, like an item name. If the cursor
	// is past the last one, it may still be being typed.
	if last, ok := parse.last(); ok && last.Range.End < cursor && d.nodes[last.Node].kind == kindArgument {
		b := NewSuggestionsBuilder(truncated, last.Range.Start)
		all = append(all, d.listSuggestions(last.Node, c, b))
	}

	return mergeSuggestions(truncated, all)
}

func (d *Dispatcher) listSuggestions(id NodeID, c *Context, b *SuggestionsBuilder) (s Suggestions) {
	n := &d.nodes[id]

	if n.kind == kindLiteral {
		if strings.HasPrefix(Fold(n.name), b.RemainingFolded()) {
			b.SuggestWithTooltip(n.name, n.description)
		}

		return b.Build()
	}

	defer func() {
		if p := recover(); p != nil {
			d.logger.Warn("argument suggestions panicked", "argument", n.name, "panic", p)
			s = Suggestions{}
		}
	}()

	return n.argType.ListSuggestions(c, b)
}

// Completion is everything an editor needs to assist with a partial
// command: concrete suggestions, usage hints when there are none, and the
// error the input currently has, if any.
type Completion struct {
	Input       string
	Cursor      int
	Suggestions Suggestions
	Usage       []string
	Err         *SyntaxError
}

// Complete parses input and computes suggestions for cursor. It checks ctx
// after parsing, after collecting suggestions and after building usage
// hints. If ctx is done at any of those points the partial work is dropped
// and ctx.Err() is returned.
func (d *Dispatcher) Complete(ctx context.Context, input string, cursor int, source Sender) (Completion, error) {
	parse := d.Parse(input, source)
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}

	suggestions := d.Suggestions(parse, cursor)
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}

	comp := Completion{
		Input:       input,
		Cursor:      cursor,
		Suggestions: suggestions,
		Err:         d.classify(parse, cursor, suggestions),
	}

	if suggestions.IsEmpty() {
		comp.Usage = d.usageHints(parse)
	}

	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}

	return comp, nil
}

func (d *Dispatcher) classify(parse *ParseResults, cursor int, suggestions Suggestions) *SyntaxError {
	atEnd := cursor >= parse.Reader.Len()

	if len(parse.Errors) > 0 {
		if !atEnd {
			return nil
		}

		for _, e := range parse.Errors {
			if e.Err.Kind != ErrorLiteralMismatch {
				return e.Err
			}
		}

		first := parse.Errors[0].Err
		return newSyntaxError(ErrorUnknownCommand, parse.Input, first.Cursor, first.Value, "unknown command %q", first.Value)
	}

	// A lone trailing separator is the normal state while typing.
	if !parse.Reader.CanRead() || (parse.Reader.Remaining() == 1 && parse.Reader.Peek() == ' ') || !suggestions.IsEmpty() {
		return nil
	}

	token := peekToken(parse.Reader)
	if len(parse.Nodes) == 0 {
		return Errorf(ErrorUnknownCommand, parse.Reader, token, "unknown command %q", token)
	}

	return Errorf(ErrorUnknownArgument, parse.Reader, token, "unknown argument %q", token)
}

// usageHints renders one usage line per argument child of the last matched
// node. Literal continuations are left to suggestions.
func (d *Dispatcher) usageHints(parse *ParseResults) []string {
	parent := Root
	prefix := ""
	if last, ok := parse.last(); ok {
		parent = d.effective(last.Node)
		r := scan.NewReader(parse.Input)
		prefix = r.Slice(parse.Range().Start, last.Range.End) + " "
	}

	var hints []string
	for _, id := range d.nodes[parent].arguments {
		if !d.nodes[id].canUse(parse.Source) {
			continue
		}

		hints = append(hints, prefix+d.Usage(id, parse.Source))
	}

	return hints
}
