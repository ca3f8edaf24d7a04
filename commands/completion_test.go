package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/davidbalbert/chatline/scan"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func complete(t *testing.T, d *Dispatcher, input string, cursor int) Completion {
	t.Helper()

	comp, err := d.Complete(context.Background(), input, cursor, nil)
	if err != nil {
		t.Fatal(err)
	}

	return comp
}

func TestCompleteEmptyInput(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "", 0)

	want := []string{"help", "whisper", "w", "ignore"}
	if diff := cmp.Diff(want, comp.Suggestions.Texts()); diff != "" {
		t.Fatalf("suggestions mismatch (-want +got):\n%s", diff)
	}

	if comp.Suggestions.Range != (Range{Start: 0, End: 0}) {
		t.Fatalf("unexpected range %+v", comp.Suggestions.Range)
	}
}

func TestCompleteLiteralPrefix(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "w", 1)

	require.Equal(t, []string{"whisper"}, comp.Suggestions.Texts())
	require.Equal(t, Range{Start: 0, End: 1}, comp.Suggestions.Range)
	require.Nil(t, comp.Err)
}

func TestCompleteIgnoresCase(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "IG", 2)

	require.Equal(t, []string{"ignore"}, comp.Suggestions.Texts())
}

func TestCompleteArgument(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "whisper b", 9)

	require.Equal(t, []string{"bob", "Bobby"}, comp.Suggestions.Texts())
	require.Equal(t, Range{Start: 8, End: 9}, comp.Suggestions.Range)

	// The partial name does not parse yet, and that is reported alongside
	// the suggestions.
	require.NotNil(t, comp.Err)
	require.ErrorIs(t, comp.Err, ErrUnknownValue)
}

func TestCompleteThroughRedirect(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "w al", 4)

	require.Equal(t, []string{"alice"}, comp.Suggestions.Texts())
	require.Equal(t, Range{Start: 2, End: 4}, comp.Suggestions.Range)
}

func TestCompleteMidInput(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "whisper bob hi", 3)

	require.Equal(t, []string{"whisper"}, comp.Suggestions.Texts())
	require.Equal(t, Range{Start: 0, End: 3}, comp.Suggestions.Range)
	require.Equal(t, "whisper", comp.Suggestions.List[0].Apply("whi"))
}

func TestCompleteAfterSeparator(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "ignore ", 7)

	require.Equal(t, []string{"add", "remove", "list"}, comp.Suggestions.Texts())
	require.Nil(t, comp.Err)
}

func TestCompleteUsageHints(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "whisper", 7)

	require.True(t, comp.Suggestions.IsEmpty())
	require.Equal(t, []string{"whisper <target> <message>"}, comp.Usage)
	require.Nil(t, comp.Err)

	comp = complete(t, d, "w", 1)
	require.Nil(t, comp.Usage)
}

func TestCompleteUsageSkipsLiterals(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "ignore add ", 11)

	require.True(t, comp.Suggestions.IsEmpty())
	require.Equal(t, []string{"ignore add <player>"}, comp.Usage)

	comp = complete(t, d, "ignore", 6)
	require.Empty(t, comp.Usage)
}

func TestCompleteUnknownCommand(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "zzz", 3)

	require.True(t, comp.Suggestions.IsEmpty())
	require.NotNil(t, comp.Err)
	require.Equal(t, ErrorUnknownCommand, comp.Err.Kind)
	require.Equal(t, 0, comp.Err.Cursor)
	require.Equal(t, "zzz", comp.Err.Value)
	require.ErrorIs(t, comp.Err, ErrGrammarMismatch)
}

func TestCompleteUnknownArgument(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "help me now", 11)

	require.NotNil(t, comp.Err)
	require.Equal(t, ErrorUnknownArgument, comp.Err.Kind)
	require.Equal(t, 8, comp.Err.Cursor)
	require.Equal(t, "now", comp.Err.Value)
}

func TestCompleteErrorsOnlyAtEnd(t *testing.T) {
	d := chatTree(t)
	comp := complete(t, d, "zzz", 1)

	require.Nil(t, comp.Err)
}

func TestCompleteCancelled(t *testing.T) {
	d := chatTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	comp, err := d.Complete(ctx, "whisper b", 9, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Completion{}, comp)
}

// cancellingArgument cancels the request while suggestions are being
// collected.
type cancellingArgument struct {
	cancel context.CancelFunc
}

func (a *cancellingArgument) Parse(r *scan.Reader) (any, error) {
	return r.ReadRest(), nil
}

func (a *cancellingArgument) ListSuggestions(c *Context, b *SuggestionsBuilder) Suggestions {
	a.cancel()
	return b.Suggest("anything").Build()
}

func (a *cancellingArgument) Examples() []string {
	return nil
}

func TestCompleteCancelledDuringSuggestions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(quietLogger())
	d.MustRegister(Literal("slow").Then(Argument("x", &cancellingArgument{cancel: cancel}).Executes(ok)))

	comp, err := d.Complete(ctx, "slow ", 5, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	if !comp.Suggestions.IsEmpty() {
		t.Fatalf("expected no partial suggestions, got %v", comp.Suggestions.Texts())
	}
}

func TestCompleteTrailingSpaceAfterRedirect(t *testing.T) {
	d := chatTree(t)

	full := complete(t, d, "whisper ", 8)
	alias := complete(t, d, "w ", 2)

	require.Nil(t, full.Err)
	require.Nil(t, alias.Err)
	require.Equal(t, full.Suggestions.Texts(), alias.Suggestions.Texts())
	require.Equal(t, []string{"alice", "bob", "Bobby"}, alias.Suggestions.Texts())
	require.Equal(t, Range{Start: 2, End: 2}, alias.Suggestions.Range)
}
