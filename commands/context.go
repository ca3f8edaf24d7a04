package commands

import (
	"fmt"

	"github.com/davidbalbert/chatline/scan"
)

// Sender is whoever invoked a command. Output is delivered a line at a time;
// how it is rendered is up to the implementation.
type Sender interface {
	Send(line string)
}

// SenderFunc adapts a function to a Sender.
type SenderFunc func(line string)

func (f SenderFunc) Send(line string) {
	f(line)
}

// Executor runs a fully parsed command. The returned int is a result code
// that is passed back to the caller of Execute.
type Executor func(c *Context) (int, error)

// ParsedNode records a node matched during a parse. Parent is the node whose
// children were being tried when Node matched. After a redirect, Parent is the
// redirect target rather than the alias.
type ParsedNode struct {
	Node   NodeID
	Parent NodeID
	Range  Range
}

type ParsedArgument struct {
	Range Range
	Value any
}

// NodeError is the error a single child produced at the position where the
// parse stopped.
type NodeError struct {
	Node NodeID
	Err  *SyntaxError
}

type ParseResults struct {
	Input     string
	Source    Sender
	Nodes     []ParsedNode
	Arguments map[string]ParsedArgument

	// Reader is positioned where parsing stopped.
	Reader *scan.Reader
	Errors []NodeError
}

// Consumed reports whether the whole input was matched.
func (p *ParseResults) Consumed() bool {
	return !p.Reader.CanRead()
}

// Range covers every matched node.
func (p *ParseResults) Range() Range {
	if len(p.Nodes) == 0 {
		return Range{Start: 0, End: 0}
	}

	return Range{Start: p.Nodes[0].Range.Start, End: p.Nodes[len(p.Nodes)-1].Range.End}
}

func (p *ParseResults) last() (ParsedNode, bool) {
	if len(p.Nodes) == 0 {
		return ParsedNode{}, false
	}

	return p.Nodes[len(p.Nodes)-1], true
}

// Context is what executors and suggestion providers see: the sender, the
// input and the arguments bound so far.
type Context struct {
	Source Sender
	Input  string
	Nodes  []ParsedNode

	args map[string]ParsedArgument
}

func newContext(p *ParseResults) *Context {
	return &Context{
		Source: p.Source,
		Input:  p.Input,
		Nodes:  p.Nodes,
		args:   p.Arguments,
	}
}

// Has reports whether an argument named name was bound.
func (c *Context) Has(name string) bool {
	_, ok := c.args[name]
	return ok
}

func (c *Context) Argument(name string) (ParsedArgument, bool) {
	arg, ok := c.args[name]
	return arg, ok
}

// Reply sends a formatted line back to the source.
func (c *Context) Reply(format string, args ...any) {
	if c.Source == nil {
		return
	}

	c.Source.Send(fmt.Sprintf(format, args...))
}

// Get returns the value bound to name. It panics if the argument is missing
// or has a different type, both of which are bugs in the command definition.
func Get[T any](c *Context, name string) T {
	arg, ok := c.args[name]
	if !ok {
		panic(fmt.Sprintf("no argument named %q", name))
	}

	v, ok := arg.Value.(T)
	if !ok {
		panic(fmt.Sprintf("argument %q is %T, not %T", name, arg.Value, v))
	}

	return v
}

// Lookup is like Get but reports missing optional arguments instead of
// panicking.
func Lookup[T any](c *Context, name string) (T, bool) {
	var zero T

	arg, ok := c.args[name]
	if !ok {
		return zero, false
	}

	v, ok := arg.Value.(T)
	if !ok {
		return zero, false
	}

	return v, true
}
