package commands

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recorder struct {
	lines []string
}

func (r *recorder) Send(line string) {
	r.lines = append(r.lines, line)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ok(c *Context) (int, error) {
	return 1, nil
}

// dumpTree renders the subtree at id in the same shape the tree shapes in
// these tests are written in:
//
//	literal:help*[argument:command*],literal:w->whisper
//
// A trailing * marks an executable node. Whitespace in specs is ignored.
func dumpTree(d *Dispatcher, id NodeID) string {
	n := &d.nodes[id]

	var b strings.Builder
	b.WriteString(n.id())

	if n.executor != nil {
		b.WriteString("*")
	}

	if n.redirect != NoNode {
		b.WriteString("->")
		if n.redirect == Root {
			b.WriteString("root")
		} else {
			b.WriteString(d.nodes[n.redirect].name)
		}
	}

	children := n.children()
	if len(children) > 0 {
		b.WriteString("[")
		for i, child := range children {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(dumpTree(d, child))
		}
		b.WriteString("]")
	}

	return b.String()
}

func assertTree(t *testing.T, shape string, d *Dispatcher) {
	t.Helper()

	want := strings.Join(strings.Fields(shape), "")
	got := dumpTree(d, Root)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

// chatTree registers a small command set used across the tests.
func chatTree(t *testing.T) *Dispatcher {
	t.Helper()

	d := NewDispatcher(quietLogger())

	d.MustRegister(Literal("help").Executes(ok).Then(
		Argument("command", Word()).Executes(ok),
	))

	whisper := d.MustRegister(Literal("whisper").Then(
		Argument("target", Enum("alice", "bob", "Bobby")).Then(
			Argument("message", GreedyString()).Executes(func(c *Context) (int, error) {
				c.Reply("%s <- %s", Get[string](c, "target"), Get[string](c, "message"))
				return 1, nil
			}),
		),
	))

	d.MustRegister(Literal("w").Redirect(whisper))

	d.MustRegister(Literal("ignore").Then(
		Literal("add").Then(Argument("player", Word()).Executes(ok)),
		Literal("remove").Then(Argument("player", Word()).Executes(ok)),
		Literal("list").Executes(ok),
	))

	return d
}

func TestChatTreeShape(t *testing.T) {
	d := chatTree(t)

	shape := `
		root[
			literal:help*[argument:command*],
			literal:whisper[argument:target[argument:message*]],
			literal:w->whisper,
			literal:ignore[
				literal:add[argument:player*],
				literal:remove[argument:player*],
				literal:list*
			]
		]
	`

	assertTree(t, shape, d)
}
