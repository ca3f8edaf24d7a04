package commands

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/davidbalbert/chatline/scan"
)

// Dispatcher owns the command tree. Commands are registered at startup;
// after that the tree is only read, so Parse, Execute and Complete may be
// called from any goroutine.
type Dispatcher struct {
	mu     sync.Mutex
	nodes  []node
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	root := node{
		kind:     kindRoot,
		redirect: NoNode,
		byName:   make(map[string]NodeID),
	}

	return &Dispatcher{
		nodes:  []node{root},
		logger: logger,
	}
}

// Result describes a command that ran. Err is the executor's own failure,
// which is never a syntax error.
type Result struct {
	Executed bool
	Code     int
	Err      error
}

// Dispatch parses and executes input.
func (d *Dispatcher) Dispatch(input string, source Sender) (Result, error) {
	return d.Execute(d.Parse(input, source))
}

// Parse matches input against the tree without running anything.
func (d *Dispatcher) Parse(input string, source Sender) *ParseResults {
	sofar := &ParseResults{
		Input:     input,
		Source:    source,
		Arguments: make(map[string]ParsedArgument),
	}

	return d.parseNodes(Root, scan.NewReader(input), sofar)
}

func (p *ParseResults) copy() *ParseResults {
	c := *p
	c.Nodes = append([]ParsedNode(nil), p.Nodes...)
	c.Arguments = make(map[string]ParsedArgument, len(p.Arguments))
	for k, v := range p.Arguments {
		c.Arguments[k] = v
	}
	c.Errors = nil

	return &c
}

func peekToken(r *scan.Reader) string {
	return readToken(r.Copy())
}

func (d *Dispatcher) parseNodes(parent NodeID, original *scan.Reader, sofar *ParseResults) *ParseResults {
	var errs []NodeError
	var potentials []*ParseResults

	start := original.Cursor
	n := &d.nodes[parent]
	token := peekToken(original)

	candidates := n.arguments
	if id, ok := n.byName[token]; ok && d.nodes[id].kind == kindLiteral {
		candidates = []NodeID{id}
	} else {
		for _, id := range n.literals {
			if !d.nodes[id].canUse(sofar.Source) {
				continue
			}

			serr := newSyntaxError(ErrorLiteralMismatch, original.String(), start, token, "expected %q", d.nodes[id].name)
			errs = append(errs, NodeError{Node: id, Err: serr})
		}
	}

	for _, id := range candidates {
		child := &d.nodes[id]
		if !child.canUse(sofar.Source) {
			continue
		}

		r := original.Copy()
		value, err := d.parseNode(id, r)
		if err == nil && r.CanRead() && r.Peek() != ' ' {
			err = Errorf(ErrorExpectedSeparator, r, peekToken(r), "expected whitespace to end one argument, but found trailing data")
		}

		if err != nil {
			errs = append(errs, NodeError{Node: id, Err: err})
			continue
		}

		c := sofar.copy()
		rng := Range{Start: start, End: r.Cursor}
		c.Nodes = append(c.Nodes, ParsedNode{Node: id, Parent: parent, Range: rng})
		if child.kind == kindArgument {
			c.Arguments[child.name] = ParsedArgument{Range: rng, Value: value}
		}

		// Only move past the separator when something follows it, so a
		// trailing space after an alias reads the same as after its target.
		if r.CanReadN(2) {
			r.Skip()

			if child.redirect != NoNode {
				return d.parseNodes(child.redirect, r, c)
			}

			potentials = append(potentials, d.parseNodes(id, r, c))
		} else {
			c.Reader = r
			potentials = append(potentials, c)
		}
	}

	if len(potentials) > 0 {
		sort.SliceStable(potentials, func(i, j int) bool {
			return better(potentials[i], potentials[j])
		})

		return potentials[0]
	}

	result := sofar.copy()
	result.Reader = original
	result.Errors = errs

	return result
}

// better orders candidate parses: fully consumed first, then the one that
// got furthest, then the one with fewer errors.
func better(a, b *ParseResults) bool {
	if a.Consumed() != b.Consumed() {
		return a.Consumed()
	}

	if a.Reader.Cursor != b.Reader.Cursor {
		return a.Reader.Cursor > b.Reader.Cursor
	}

	return len(a.Errors) < len(b.Errors)
}

// parseNode consumes a single node from r.
func (d *Dispatcher) parseNode(id NodeID, r *scan.Reader) (value any, serr *SyntaxError) {
	n := &d.nodes[id]
	start := r.Cursor

	if n.kind == kindLiteral {
		r.SkipN(len([]rune(n.name)))
		return nil, nil
	}

	defer func() {
		if p := recover(); p != nil {
			d.logger.Warn("argument parser panicked", "argument", n.name, "panic", p)
			r.Cursor = start
			value, serr = nil, Errorf(ErrorInvalidValue, r, peekToken(r), "could not parse argument: %v", p)
		}
	}()

	v, err := n.argType.Parse(r)
	if err != nil {
		if e, ok := AsSyntaxError(err); ok {
			return nil, e
		}

		r.Cursor = start
		return nil, Errorf(ErrorInvalidValue, r, peekToken(r), "%v", err)
	}

	return v, nil
}

// Execute runs the command matched by parse. Syntax errors are returned as
// err. Failures inside the executor, including panics, are logged and
// reported in Result.Err.
func (d *Dispatcher) Execute(parse *ParseResults) (Result, error) {
	if parse.Reader.CanRead() {
		switch {
		case len(parse.Errors) == 1:
			return Result{}, parse.Errors[0].Err
		case len(parse.Nodes) == 0:
			return Result{}, Errorf(ErrorUnknownCommand, parse.Reader, peekToken(parse.Reader), "unknown command")
		default:
			return Result{}, Errorf(ErrorUnknownArgument, parse.Reader, peekToken(parse.Reader), "incorrect argument for command")
		}
	}

	var exec Executor
	if last, ok := parse.last(); ok {
		exec = d.executor(last.Node)
	}

	if exec == nil {
		return Result{}, Errorf(ErrorIncompleteCommand, parse.Reader, "", "incomplete command")
	}

	code, err := d.run(exec, newContext(parse))

	return Result{Executed: true, Code: code, Err: err}, nil
}

func (d *Dispatcher) run(exec Executor, c *Context) (code int, err error) {
	defer func() {
		if p := recover(); p != nil {
			code, err = 0, fmt.Errorf("command panicked: %v", p)
		}

		if err != nil {
			d.logger.Error("command failed", "input", c.Input, "err", err)
		}
	}()

	return exec(c)
}
