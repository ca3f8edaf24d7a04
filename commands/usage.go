package commands

import (
	"strings"
)

// Usage renders id and everything below it that has a single way forward,
// e.g. "<player> <message>". Where the path forks, the alternatives are
// listed as "(a|b)". Children of an executable node are shown as optional.
func (d *Dispatcher) Usage(id NodeID, source Sender) string {
	var b strings.Builder
	b.WriteString(d.nodes[id].usageText())

	for {
		n := &d.nodes[id]
		if n.redirect != NoNode {
			b.WriteString(" -> ")
			b.WriteString(d.redirectText(n.redirect))
			break
		}

		usable := d.usableChildren(id, source)
		if len(usable) == 0 {
			break
		}

		optional := n.executor != nil
		if len(usable) > 1 {
			b.WriteString(" ")
			b.WriteString(d.alternatives(usable, optional))
			break
		}

		b.WriteString(" ")
		b.WriteString(bracket(d.nodes[usable[0]].usageText(), optional))
		id = usable[0]
	}

	return b.String()
}

// SmartUsage returns a short usage line for each usable child of id, one
// level deep.
func (d *Dispatcher) SmartUsage(id NodeID, source Sender) map[NodeID]string {
	result := make(map[NodeID]string)
	optional := d.nodes[id].executor != nil

	for _, child := range d.nodes[id].children() {
		if usage, ok := d.smartUsage(child, source, optional, false); ok {
			result[child] = usage
		}
	}

	return result
}

func (d *Dispatcher) smartUsage(id NodeID, source Sender, optional, deep bool) (string, bool) {
	n := &d.nodes[id]
	if !n.canUse(source) {
		return "", false
	}

	self := bracket(n.usageText(), optional)
	if deep {
		return self, true
	}

	if n.redirect != NoNode {
		return self + " -> " + d.redirectText(n.redirect), true
	}

	childOptional := n.executor != nil
	usable := d.usableChildren(id, source)

	switch {
	case len(usable) == 1:
		if usage, ok := d.smartUsage(usable[0], source, childOptional, true); ok {
			return self + " " + usage, true
		}
	case len(usable) > 1:
		return self + " " + d.alternatives(usable, childOptional), true
	}

	return self, true
}

// AllUsage lists every executable path below id. With restricted set,
// nodes the source may not use are left out.
func (d *Dispatcher) AllUsage(id NodeID, source Sender, restricted bool) []string {
	var result []string
	d.allUsage(id, source, &result, "", restricted)

	return result
}

func (d *Dispatcher) allUsage(id NodeID, source Sender, result *[]string, prefix string, restricted bool) {
	n := &d.nodes[id]
	if restricted && !n.canUse(source) {
		return
	}

	if n.executor != nil && prefix != "" {
		*result = append(*result, prefix)
	}

	if n.redirect != NoNode {
		redirect := "-> " + d.redirectText(n.redirect)
		if prefix == "" {
			*result = append(*result, n.usageText()+" "+redirect)
		} else {
			*result = append(*result, prefix+" "+redirect)
		}

		return
	}

	for _, child := range n.children() {
		childPrefix := d.nodes[child].usageText()
		if prefix != "" {
			childPrefix = prefix + " " + childPrefix
		}

		d.allUsage(child, source, result, childPrefix, restricted)
	}
}

func (d *Dispatcher) usableChildren(id NodeID, source Sender) []NodeID {
	var usable []NodeID
	for _, child := range d.nodes[id].children() {
		if d.nodes[child].canUse(source) {
			usable = append(usable, child)
		}
	}

	return usable
}

func (d *Dispatcher) alternatives(ids []NodeID, optional bool) string {
	texts := make([]string, len(ids))
	for i, id := range ids {
		texts[i] = d.nodes[id].usageText()
	}

	if optional {
		return "[" + strings.Join(texts, "|") + "]"
	}

	return "(" + strings.Join(texts, "|") + ")"
}

func (d *Dispatcher) redirectText(target NodeID) string {
	if target == Root {
		return "..."
	}

	return d.nodes[target].usageText()
}

func bracket(s string, optional bool) string {
	if optional {
		return "[" + s + "]"
	}

	return s
}
