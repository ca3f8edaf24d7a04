package commands

import (
	"fmt"
)

// NodeID is a handle into a Dispatcher's node arena.
type NodeID int

const (
	Root   NodeID = 0
	NoNode NodeID = -1
)

type nodeKind int

const (
	kindRoot nodeKind = iota
	kindLiteral
	kindArgument
)

func (k nodeKind) String() string {
	switch k {
	case kindRoot:
		return "root"
	case kindLiteral:
		return "literal"
	case kindArgument:
		return "argument"
	default:
		panic("unreachable")
	}
}

// Predicate decides whether a sender may use a node.
type Predicate func(s Sender) bool

type node struct {
	kind        nodeKind
	name        string
	argType     ArgumentType
	description string
	executor    Executor
	redirect    NodeID
	requires    Predicate

	// literals and arguments are kept in registration order.
	literals  []NodeID
	arguments []NodeID
	byName    map[string]NodeID
}

func (n *node) id() string {
	switch n.kind {
	case kindRoot:
		return "root"
	case kindLiteral:
		return "literal:" + n.name
	case kindArgument:
		return "argument:" + n.name
	default:
		panic("unreachable")
	}
}

func (n *node) children() []NodeID {
	children := make([]NodeID, 0, len(n.literals)+len(n.arguments))
	children = append(children, n.literals...)
	children = append(children, n.arguments...)

	return children
}

func (n *node) clone() node {
	c := *n
	c.literals = append([]NodeID(nil), n.literals...)
	c.arguments = append([]NodeID(nil), n.arguments...)
	c.byName = make(map[string]NodeID, len(n.byName))
	for k, v := range n.byName {
		c.byName[k] = v
	}

	return c
}

func (n *node) canUse(s Sender) bool {
	return n.requires == nil || n.requires(s)
}

// usageText is how the node appears in a usage line.
func (n *node) usageText() string {
	switch n.kind {
	case kindLiteral:
		return n.name
	case kindArgument:
		return "<" + n.name + ">"
	default:
		return ""
	}
}

// Builder describes a node and its subtree before registration.
type Builder struct {
	kind        nodeKind
	name        string
	argType     ArgumentType
	description string
	executor    Executor
	redirect    NodeID
	requires    Predicate
	children    []*Builder
}

func Literal(name string) *Builder {
	return &Builder{kind: kindLiteral, name: name, redirect: NoNode}
}

func Argument(name string, t ArgumentType) *Builder {
	return &Builder{kind: kindArgument, name: name, argType: t, redirect: NoNode}
}

func (b *Builder) Then(children ...*Builder) *Builder {
	b.children = append(b.children, children...)
	return b
}

func (b *Builder) Executes(fn Executor) *Builder {
	b.executor = fn
	return b
}

// Redirect makes the node an alias: once it matches, parsing continues with
// the children of target.
func (b *Builder) Redirect(target NodeID) *Builder {
	b.redirect = target
	return b
}

func (b *Builder) Requires(p Predicate) *Builder {
	b.requires = p
	return b
}

func (b *Builder) Describe(description string) *Builder {
	b.description = description
	return b
}

// Register merges b into the tree under the root and returns the id of the
// top-level node. Nodes with the same name are merged. Registration is all or
// nothing: on error the tree is unchanged.
func (d *Dispatcher) Register(b *Builder) (NodeID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	nodes := make([]node, len(d.nodes))
	for i := range d.nodes {
		nodes[i] = d.nodes[i].clone()
	}

	id, err := merge(&nodes, Root, b, b.name)
	if err != nil {
		return NoNode, err
	}

	d.nodes = nodes

	return id, nil
}

// MustRegister is like Register but panics on error.
func (d *Dispatcher) MustRegister(b *Builder) NodeID {
	id, err := d.Register(b)
	if err != nil {
		panic(err)
	}

	return id
}

func merge(nodes *[]node, parent NodeID, b *Builder, path string) (NodeID, error) {
	if b.kind == kindRoot {
		return NoNode, fmt.Errorf("%s: cannot register a root node", path)
	}

	if b.name == "" {
		return NoNode, fmt.Errorf("%s: node has no name", path)
	}

	if b.kind == kindArgument && b.argType == nil {
		return NoNode, fmt.Errorf("%s: argument %q has no type", path, b.name)
	}

	if b.redirect != NoNode {
		if len(b.children) > 0 {
			return NoNode, fmt.Errorf("%s: redirect node %q cannot have children", path, b.name)
		}

		if b.redirect < 0 || int(b.redirect) >= len(*nodes) {
			return NoNode, fmt.Errorf("%s: unknown redirect target %d", path, b.redirect)
		}
	}

	id, exists := (*nodes)[parent].byName[b.name]
	if exists {
		existing := &(*nodes)[id]

		if existing.kind != b.kind {
			return NoNode, fmt.Errorf("%s: %s conflicts with existing %s", path, b.kind, existing.kind)
		}

		if existing.executor != nil && b.executor != nil {
			return NoNode, fmt.Errorf("%s: conflicting executors", path)
		}

		if existing.redirect != NoNode || b.redirect != NoNode {
			return NoNode, fmt.Errorf("%s: cannot merge redirect node", path)
		}

		if b.executor != nil {
			existing.executor = b.executor
		}

		if b.description != "" {
			existing.description = b.description
		}

		if b.requires != nil {
			existing.requires = b.requires
		}
	} else {
		id = NodeID(len(*nodes))
		*nodes = append(*nodes, node{
			kind:        b.kind,
			name:        b.name,
			argType:     b.argType,
			description: b.description,
			executor:    b.executor,
			redirect:    b.redirect,
			requires:    b.requires,
			byName:      make(map[string]NodeID),
		})

		p := &(*nodes)[parent]
		p.byName[b.name] = id
		if b.kind == kindLiteral {
			p.literals = append(p.literals, id)
		} else {
			p.arguments = append(p.arguments, id)
		}
	}

	for _, child := range b.children {
		if _, err := merge(nodes, id, child, path+" "+child.name); err != nil {
			return NoNode, err
		}
	}

	return id, nil
}

// Find walks literal and argument names from the root.
func (d *Dispatcher) Find(path ...string) (NodeID, bool) {
	id := Root
	for _, name := range path {
		child, ok := d.nodes[id].byName[name]
		if !ok {
			return NoNode, false
		}
		id = child
	}

	return id, true
}

func (d *Dispatcher) Name(id NodeID) string {
	return d.nodes[id].name
}

func (d *Dispatcher) Description(id NodeID) string {
	return d.nodes[id].description
}

func (d *Dispatcher) IsLiteral(id NodeID) bool {
	return d.nodes[id].kind == kindLiteral
}

// RedirectTarget returns the node id redirects to, or NoNode.
func (d *Dispatcher) RedirectTarget(id NodeID) NodeID {
	return d.nodes[id].redirect
}

func (d *Dispatcher) Executable(id NodeID) bool {
	return d.executor(id) != nil
}

// Children returns literal children followed by argument children, each in
// registration order.
func (d *Dispatcher) Children(id NodeID) []NodeID {
	return d.nodes[id].children()
}

// effective resolves a redirect to its target.
func (d *Dispatcher) effective(id NodeID) NodeID {
	if r := d.nodes[id].redirect; r != NoNode {
		return r
	}

	return id
}

// executor is the node's own executor, falling back to its redirect target's.
func (d *Dispatcher) executor(id NodeID) Executor {
	n := &d.nodes[id]
	if n.executor != nil {
		return n.executor
	}

	if n.redirect != NoNode {
		return d.nodes[n.redirect].executor
	}

	return nil
}
