package main

import (
	"fmt"
	"strconv"

	"github.com/davidbalbert/chatline/commands"
	"github.com/davidbalbert/chatline/rpc"
)

func registerLocalCommands(cli *CLI) {
	stop := func(c *commands.Context) (int, error) {
		cli.running = false
		return 0, nil
	}

	cli.local.MustRegister(commands.Literal("quit").Describe("exit the console").Executes(stop))
	cli.local.MustRegister(commands.Literal("exit").Describe("exit the console").Executes(stop))

	cli.local.MustRegister(commands.Literal("help").Describe("list console commands").
		Executes(func(c *commands.Context) (int, error) {
			for _, line := range cli.local.AllUsage(commands.Root, c.Source, true) {
				c.Reply("%s%s", localPrefix, line)
			}
			return 0, nil
		}))

	cli.local.MustRegister(commands.Literal("version").Describe("show the daemon version").
		Executes(func(c *commands.Context) (int, error) {
			version, err := cli.client.GetVersion(cli.ctx)
			if err != nil {
				return 0, err
			}

			c.Reply("chatlined %s", version)
			return 0, nil
		}))

	cli.local.MustRegister(commands.Literal("shutdown").Describe("stop the daemon").
		Executes(func(c *commands.Context) (int, error) {
			if err := cli.client.Shutdown(cli.ctx); err != nil {
				return 0, err
			}

			cli.running = false
			return 0, nil
		}))

	cli.local.MustRegister(commands.MustDeclare("login NAME", map[string]commands.ArgumentType{
		"NAME": commands.Word(),
	}, func(c *commands.Context) (int, error) {
		name := commands.Get[string](c, "name")
		if err := cli.client.Login(cli.ctx, name); err != nil {
			return 0, err
		}

		c.Reply("logged in as %s", name)
		return 0, nil
	}).Describe("start a new game session"))

	cli.local.MustRegister(commands.MustDeclare("observe LINE", map[string]commands.ArgumentType{
		"LINE": commands.GreedyString(),
	}, func(c *commands.Context) (int, error) {
		obs, err := cli.client.Observe(cli.ctx, commands.Get[string](c, "line"))
		if err != nil {
			return 0, err
		}

		if !obs.IsMessage {
			c.Reply("not a player message")
			return 0, nil
		}

		who := obs.Name
		if obs.Ignored {
			who += " (ignored)"
		}
		c.Reply("%s: %s", who, obs.Message)

		return len(obs.Detections), replyDetections(c, obs.Detections)
	}).Describe("feed a chat line to the daemon"))

	cli.local.MustRegister(commands.MustDeclare("detect TEXT", map[string]commands.ArgumentType{
		"TEXT": commands.GreedyString(),
	}, func(c *commands.Context) (int, error) {
		detections, err := cli.client.Detect(cli.ctx, commands.Get[string](c, "text"))
		if err != nil {
			return 0, err
		}

		if len(detections) == 0 {
			c.Reply("no items found")
			return 0, nil
		}

		return len(detections), replyDetections(c, detections)
	}).Describe("find item names in text"))
}

func replyDetections(c *commands.Context, detections []rpc.Detection) error {
	if len(detections) == 0 {
		return nil
	}

	table, err := tabulate(detections, []string{"Item", "Id", "Text", "At"}, func(d rpc.Detection) []string {
		return []string{d.Name, d.Handle, d.Text, strconv.Itoa(d.Start) + "-" + strconv.Itoa(d.End)}
	})
	if err != nil {
		return fmt.Errorf("rendering detections: %w", err)
	}

	for _, row := range table {
		c.Reply("%s", row)
	}

	return nil
}
