package chat

import (
	"fmt"
	"strings"

	"github.com/davidbalbert/chatline/catalog"
	"github.com/davidbalbert/chatline/commands"
	"github.com/davidbalbert/chatline/players"
)

// Registry registers top-level commands and remembers their names, which
// help and "did you mean" hints are built from.
type Registry struct {
	d     *commands.Dispatcher
	names []string
}

func NewRegistry(d *commands.Dispatcher) *Registry {
	return &Registry{d: d}
}

func (r *Registry) Register(b *commands.Builder) (commands.NodeID, error) {
	id, err := r.d.Register(b)
	if err != nil {
		return commands.NoNode, err
	}

	name := r.d.Name(id)
	for _, n := range r.names {
		if n == name {
			return id, nil
		}
	}
	r.names = append(r.names, name)

	return id, nil
}

func (r *Registry) MustRegister(b *commands.Builder) commands.NodeID {
	id, err := r.Register(b)
	if err != nil {
		panic(err)
	}

	return id
}

// Names returns top-level command names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Deps is what the built-in commands need from the rest of the program.
type Deps struct {
	Prefix         string
	Known          *players.KnownUsernames
	Ignored        *IgnoreList
	Catalog        *catalog.Store
	MaxSuggestions int
	AllowSelf      bool
}

// RegisterBuiltins adds whisper (aliased as w and msg), ignore, price,
// items and help.
func RegisterBuiltins(r *Registry, deps Deps) error {
	player := players.NewArgument(deps.Known, deps.AllowSelf)
	item := catalog.NewArgument(deps.Catalog.Index, deps.MaxSuggestions)

	whisper, err := r.Register(
		commands.Literal("whisper").
			Describe("send a private message").
			Then(commands.Argument("player", player).
				Then(commands.Argument("message", commands.GreedyString()).
					Executes(runWhisper))))
	if err != nil {
		return err
	}

	for _, alias := range []string{"w", "msg"} {
		b := commands.Literal(alias).Describe("alias for whisper").Redirect(whisper)
		if _, err := r.Register(b); err != nil {
			return err
		}
	}

	ignore := commands.Literal("ignore").
		Describe("hide messages from a player").
		Then(
			commands.Literal("add").
				Then(commands.Argument("player", players.NewArgument(deps.Known, false)).
					Executes(ignoreAdd(deps.Ignored))),
			commands.Literal("remove").
				Then(commands.Argument("player", ignoredArgument{deps.Ignored}).
					Executes(ignoreRemove(deps.Ignored))),
			commands.Literal("list").
				Executes(ignoreList(deps.Ignored)),
		)
	if _, err := r.Register(ignore); err != nil {
		return err
	}

	types := map[string]commands.ArgumentType{
		"ITEM":   item,
		"AMOUNT": commands.Integer(1, 999),
	}
	price, err := commands.Declare("price ITEM [AMOUNT]", types, runPrice)
	if err != nil {
		return err
	}
	if _, err := r.Register(price.Describe("look up an item")); err != nil {
		return err
	}

	items := commands.Literal("items").
		Describe("list items by name").
		Then(commands.Argument("prefix", commands.GreedyString()).
			Executes(listItems(deps.Catalog, deps.MaxSuggestions)))
	if _, err := r.Register(items); err != nil {
		return err
	}

	// help goes last so it can complete every other command's name.
	names := append(r.Names(), "help")
	help := commands.Literal("help").
		Describe("show usage").
		Executes(helpAll(r.d, deps.Prefix)).
		Then(commands.Argument("command", commands.Enum(names...)).
			Executes(helpCommand(r.d, deps.Prefix)))
	if _, err := r.Register(help); err != nil {
		return err
	}

	return nil
}

func runWhisper(c *commands.Context) (int, error) {
	player := commands.Get[string](c, "player")
	message := commands.Get[string](c, "message")

	c.Reply("-> %s: %s", player, message)

	return 1, nil
}

func ignoreAdd(list *IgnoreList) commands.Executor {
	return func(c *commands.Context) (int, error) {
		player := commands.Get[string](c, "player")

		if !list.Add(player) {
			c.Reply("already ignoring %s", player)
			return 0, nil
		}

		c.Reply("ignoring %s", player)
		return 1, nil
	}
}

func ignoreRemove(list *IgnoreList) commands.Executor {
	return func(c *commands.Context) (int, error) {
		player := commands.Get[string](c, "player")

		if !list.Remove(player) {
			c.Reply("not ignoring %s", player)
			return 0, nil
		}

		c.Reply("no longer ignoring %s", player)
		return 1, nil
	}
}

func ignoreList(list *IgnoreList) commands.Executor {
	return func(c *commands.Context) (int, error) {
		names := list.List()
		if len(names) == 0 {
			c.Reply("not ignoring anyone")
			return 0, nil
		}

		c.Reply("ignoring: %s", strings.Join(names, ", "))
		return len(names), nil
	}
}

func runPrice(c *commands.Context) (int, error) {
	item := commands.Get[catalog.Item](c, "item")

	amount := 1
	if c.Has("amount") {
		amount = commands.Get[int](c, "amount")
	}

	c.Reply("price check: %d x %s (%s)", amount, item.Name, item.Handle)

	return amount, nil
}

func listItems(store *catalog.Store, limit int) commands.Executor {
	return func(c *commands.Context) (int, error) {
		prefix := commands.Get[string](c, "prefix")

		items := store.Index().Prefix(prefix, limit)
		if len(items) == 0 {
			c.Reply("no items match %q", prefix)
			return 0, nil
		}

		names := make([]string, len(items))
		for i, item := range items {
			names[i] = item.Name
		}
		c.Reply("%s", strings.Join(names, ", "))

		return len(items), nil
	}
}

func helpAll(d *commands.Dispatcher, prefix string) commands.Executor {
	return func(c *commands.Context) (int, error) {
		lines := d.AllUsage(commands.Root, c.Source, true)
		for _, line := range lines {
			c.Reply("%s%s", prefix, line)
		}

		return len(lines), nil
	}
}

func helpCommand(d *commands.Dispatcher, prefix string) commands.Executor {
	return func(c *commands.Context) (int, error) {
		name := commands.Get[string](c, "command")

		id, ok := d.Find(name)
		if !ok {
			return 0, fmt.Errorf("no such command: %s", name)
		}

		if desc := d.Description(id); desc != "" {
			c.Reply("%s%s: %s", prefix, name, desc)
		}

		usage := d.SmartUsage(id, c.Source)
		if len(usage) == 0 {
			c.Reply("%s%s", prefix, d.Usage(id, c.Source))
			return 1, nil
		}

		for _, child := range d.Children(id) {
			if line, ok := usage[child]; ok {
				c.Reply("%s%s %s", prefix, name, line)
			}
		}

		return len(usage), nil
	}
}
