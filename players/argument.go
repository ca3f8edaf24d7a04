package players

import (
	"strings"

	"github.com/davidbalbert/chatline/commands"
	"github.com/davidbalbert/chatline/scan"
)

// Argument matches the name of a player that has been seen recently.
type Argument struct {
	known     *KnownUsernames
	allowSelf bool
}

// NewArgument returns a player argument backed by known. Unless allowSelf is
// set, naming the current user is an error and the current user is never
// suggested.
func NewArgument(known *KnownUsernames, allowSelf bool) *Argument {
	return &Argument{known: known, allowSelf: allowSelf}
}

func (a *Argument) Parse(r *scan.Reader) (any, error) {
	start := r.Cursor

	v, err := commands.Word().Parse(r)
	if err != nil {
		return nil, err
	}
	name := v.(string)

	canonical, ok := a.known.Lookup(name)
	if !ok {
		r.Cursor = start
		return nil, commands.Errorf(commands.ErrorUnknownValue, r, name, "unknown player %q", name)
	}

	if !a.allowSelf && a.known.IsCurrent(name) {
		r.Cursor = start
		return nil, commands.Errorf(commands.ErrorSelfTarget, r, name, "you cannot target yourself")
	}

	return canonical, nil
}

func (a *Argument) ListSuggestions(c *commands.Context, b *commands.SuggestionsBuilder) commands.Suggestions {
	prefix := b.RemainingFolded()

	for _, name := range a.known.Names() {
		if strings.HasPrefix(commands.Fold(name), prefix) {
			b.Suggest(name)
		}
	}

	if current := a.known.Current(); a.allowSelf && current != "" {
		if strings.HasPrefix(commands.Fold(current), prefix) {
			b.Suggest(current)
		}
	}

	return b.Build()
}

func (a *Argument) Examples() []string {
	return []string{"Steve", "alex_01"}
}
