package main

import (
	"context"
	"strings"
	"testing"

	"github.com/davidbalbert/chatline/rpc"
	"github.com/google/go-cmp/cmp"
)

type fakeClient struct {
	login      string
	shutdown   bool
	dispatched []string
	suggest    rpc.Completion
}

func (f *fakeClient) GetVersion(ctx context.Context) (string, error) {
	return "0.1.0", nil
}

func (f *fakeClient) Shutdown(ctx context.Context) error {
	f.shutdown = true
	return nil
}

func (f *fakeClient) OpenSession(ctx context.Context) (string, error) {
	return "s", nil
}

func (f *fakeClient) CloseSession(ctx context.Context, session string) error {
	return nil
}

func (f *fakeClient) Dispatch(ctx context.Context, session, line string) (rpc.DispatchResult, error) {
	f.dispatched = append(f.dispatched, line)

	switch {
	case !strings.HasPrefix(line, "/"):
		return rpc.DispatchResult{}, nil
	case line == "/bad":
		return rpc.DispatchResult{IsCommand: true, Error: "unknown command"}, nil
	default:
		return rpc.DispatchResult{IsCommand: true, Executed: true, Success: true, Output: []string{"ran " + line}}, nil
	}
}

func (f *fakeClient) Suggest(ctx context.Context, session, line string, cursor int) (rpc.Completion, error) {
	return f.suggest, nil
}

func (f *fakeClient) Observe(ctx context.Context, line string) (rpc.Observation, error) {
	return rpc.Observation{
		IsMessage: true,
		Name:      "Bob",
		Message:   "selling stone",
		Ignored:   true,
		Detections: []rpc.Detection{
			{Name: "Stone", Handle: "stone", Text: "stone", Start: 24, End: 29},
		},
	}, nil
}

func (f *fakeClient) Login(ctx context.Context, username string) error {
	f.login = username
	return nil
}

func (f *fakeClient) Detect(ctx context.Context, text string) ([]rpc.Detection, error) {
	return nil, nil
}

// fakeTerm is a writeFder whose Fd is not a terminal.
type fakeTerm struct {
	strings.Builder
}

func (f *fakeTerm) Fd() uintptr {
	return ^uintptr(0)
}

func newTestCLI() (*CLI, *fakeClient) {
	client := &fakeClient{}
	return NewCLI(context.Background(), client, "s"), client
}

func TestBuiltInQuitCommands(t *testing.T) {
	for _, line := range []string{":quit", ":exit"} {
		cli, _ := newTestCLI()
		cli.running = true

		cli.runLine(line, &strings.Builder{})

		if cli.running {
			t.Fatalf("%s: CLI should not be running", line)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	cli, client := newTestCLI()

	w := &strings.Builder{}
	cli.runLine("  ", w)

	if w.String() != "" {
		t.Fatalf("Unexpected output: %s", w.String())
	}

	if len(client.dispatched) != 0 {
		t.Fatalf("nothing should have been dispatched, got %v", client.dispatched)
	}
}

func TestRemoteCommand(t *testing.T) {
	cli, _ := newTestCLI()

	w := &strings.Builder{}
	cli.runLine("/help", w)
	cli.runLine("hello everyone", w)
	cli.runLine("/bad", w)

	want := "ran /help\n(chat) hello everyone\n% unknown command\n"
	if w.String() != want {
		t.Fatalf("expected %q, got %q", want, w.String())
	}
}

func TestLocalCommands(t *testing.T) {
	cli, client := newTestCLI()

	w := &strings.Builder{}
	cli.runLine(":login Steve", w)

	if client.login != "Steve" {
		t.Fatalf("expected login as Steve, got %q", client.login)
	}

	cli.runLine(":version", w)
	cli.runLine(":bogus", w)

	lines := strings.Split(strings.TrimSuffix(w.String(), "\n"), "\n")
	if lines[0] != "logged in as Steve" || lines[1] != "chatlined 0.1.0" {
		t.Fatalf("unexpected output: %q", lines)
	}

	if !strings.HasPrefix(lines[2], "% unknown command") {
		t.Fatalf("expected unknown command, got %q", lines[2])
	}
}

func TestObserveShowsDetections(t *testing.T) {
	cli, _ := newTestCLI()

	w := &strings.Builder{}
	cli.runLine(":observe [00:00:00] Bob: selling stone", w)

	got := strings.Split(strings.TrimSuffix(w.String(), "\n"), "\n")
	if got[0] != "Bob (ignored): selling stone" {
		t.Fatalf("unexpected first line %q", got[0])
	}

	if len(got) != 4 || !strings.HasPrefix(got[3], "Stone") || !strings.HasSuffix(got[3], "24-29") {
		t.Fatalf("unexpected table %q", got[1:])
	}
}

func TestShutdownStopsCLI(t *testing.T) {
	cli, client := newTestCLI()
	cli.running = true

	cli.runLine(":shutdown", &strings.Builder{})

	if !client.shutdown || cli.running {
		t.Fatal("expected the daemon to be shut down and the CLI to stop")
	}
}

func TestTabCompletesSingleSuggestion(t *testing.T) {
	cli, client := newTestCLI()
	client.suggest = rpc.Completion{
		Start:       1,
		End:         3,
		Suggestions: []rpc.Suggestion{{Text: "whisper", Start: 1, End: 3}},
	}

	line, pos, ok := cli.autocomplete(&fakeTerm{}, "/wh", 3, '\t')
	if !ok {
		t.Fatal("expected completion")
	}

	if line != "/whisper " || pos != 9 {
		t.Fatalf("expected %q at 9, got %q at %d", "/whisper ", line, pos)
	}
}

func TestTabCompletesCommonPrefix(t *testing.T) {
	cli, client := newTestCLI()
	client.suggest = rpc.Completion{
		Start: 7,
		End:   8,
		Suggestions: []rpc.Suggestion{
			{Text: "Iron Ore", Start: 7, End: 8},
			{Text: "Iron Sword", Start: 7, End: 8},
		},
	}

	w := &fakeTerm{}
	line, pos, ok := cli.autocomplete(w, "/price i", 8, '\t')
	if !ok {
		t.Fatal("expected completion")
	}

	if line != "/price Iron " || pos != 12 {
		t.Fatalf("expected %q at 12, got %q at %d", "/price Iron ", line, pos)
	}

	// A second tab lists the options.
	_, _, ok = cli.autocomplete(w, line, pos, '\t')
	if ok {
		t.Fatal("listing options should not change the line")
	}

	if !strings.Contains(w.String(), "Iron Ore") || !strings.Contains(w.String(), "Iron Sword") {
		t.Fatalf("expected options to be listed, got %q", w.String())
	}
}

func TestTabCompletesLocalCommands(t *testing.T) {
	cli, _ := newTestCLI()

	line, pos, ok := cli.autocomplete(&fakeTerm{}, ":sh", 3, '\t')
	if !ok {
		t.Fatal("expected completion")
	}

	if line != ":shutdown " || pos != 10 {
		t.Fatalf("expected %q at 10, got %q at %d", ":shutdown ", line, pos)
	}
}

func TestQuestionMarkDescribes(t *testing.T) {
	cli, client := newTestCLI()
	client.suggest = rpc.Completion{
		Usage:       []string{"/whisper <player> <message>"},
		ErrorCursor: -1,
	}

	w := &fakeTerm{}
	_, _, ok := cli.autocomplete(w, "/whisper ", 9, '?')
	if !ok {
		t.Fatal("? should keep the line")
	}

	want := "chatlinec> /whisper \n  /whisper <player> <message>\n"
	if w.String() != want {
		t.Fatalf("expected %q, got %q", want, w.String())
	}
}

func TestApplySuggestionMultibyte(t *testing.T) {
	line, pos := applySuggestion("/price é", 7, 8, "Épée")
	if line != "/price Épée" || pos != 11 {
		t.Fatalf("got %q at %d", line, pos)
	}

	if off := byteOffset(line, pos); off != len(line) {
		t.Fatalf("expected byte offset %d, got %d", len(line), off)
	}
}

func TestCommonPrefixLen(t *testing.T) {
	if n := commonPrefixLen("Iron Ore", "Iron Sword"); n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}

	if n := commonPrefixLen("épée", "épi"); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}

	if n := commonPrefixLen(); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestWrapWidth(t *testing.T) {
	got := wrapWidth(21, 0, []string{"alpha", "beta", "gamma", "delta", "eps"})
	want := []string{
		"alpha  gamma  eps",
		"beta   delta",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("wrap mismatch (-want +got):\n%s", diff)
	}
}

func TestTabulate(t *testing.T) {
	rows := [][]string{{"Stone", "stone"}, {"Épée", "sword"}}

	got, err := tabulate(rows, []string{"Name", "Id"}, func(r []string) []string { return r })
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"Name    Id",
		"-----   -----",
		"Stone   stone",
		"Épée    sword",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}

	_, err = tabulate(rows, []string{"Name"}, func(r []string) []string { return r })
	if err == nil {
		t.Fatal("expected column count error")
	}
}

func TestRowsFor(t *testing.T) {
	if n := rowsFor("short\n", 80); n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}

	if n := rowsFor(strings.Repeat("x", 170)+"\n", 80); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}
