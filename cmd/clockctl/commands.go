package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kaspanet/merkleclock/domain/clock"
	"github.com/kaspanet/merkleclock/domain/clock/event"
	"github.com/kaspanet/merkleclock/domain/clock/frontier"
)

type commandContext struct {
	clock  *clock.Clock
	stores *stores
}

type command struct {
	name        string
	parameters  []string
	description string
	execute     func(ctx context.Context, cc *commandContext, parameters []string) error
}

var commands = []*command{
	{
		name:        "append",
		parameters:  []string{"data"},
		description: "Create an event on top of the head and advance the head to it",
		execute:     appendCommand,
	},
	{
		name:        "advance",
		parameters:  []string{"cid"},
		description: "Advance the head to an event already in the store",
		execute:     advanceCommand,
	},
	{
		name:        "head",
		description: "Print the head",
		execute:     headCommand,
	},
	{
		name:        "show",
		parameters:  []string{"cid"},
		description: "Print the payload and parents of an event",
		execute:     showCommand,
	},
}

var commandsByName = func() map[string]*command {
	byName := make(map[string]*command, len(commands))
	for _, cmd := range commands {
		byName[cmd.name] = cmd
	}
	return byName
}()

func printCommands() {
	sorted := make([]*command, len(commands))
	copy(sorted, commands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })

	fmt.Fprintln(os.Stderr, "Commands:")
	for _, cmd := range sorted {
		usage := cmd.name
		for _, parameter := range cmd.parameters {
			usage += " <" + parameter + ">"
		}
		fmt.Fprintf(os.Stderr, "  %-20s %s\n", usage, cmd.description)
	}
}

func appendCommand(ctx context.Context, cc *commandContext, parameters []string) error {
	block, head, err := cc.clock.Append(ctx, []byte(parameters[0]))
	if err != nil {
		return err
	}
	fmt.Println(block.CID)
	printHead(head)
	return nil
}

func advanceCommand(ctx context.Context, cc *commandContext, parameters []string) error {
	id, err := frontier.ParseID(parameters[0])
	if err != nil {
		return err
	}
	head, err := cc.clock.Advance(ctx, id)
	if err != nil {
		return err
	}
	printHead(head)
	return nil
}

func headCommand(ctx context.Context, cc *commandContext, _ []string) error {
	head, err := cc.clock.Head(ctx)
	if err != nil {
		return err
	}
	printHead(head)
	return nil
}

func showCommand(ctx context.Context, cc *commandContext, parameters []string) error {
	id, err := frontier.ParseID(parameters[0])
	if err != nil {
		return err
	}
	evt, err := event.Get(ctx, cc.stores.blocks, id)
	if err != nil {
		return err
	}
	fmt.Printf("cid:     %s\n", id)
	fmt.Printf("data:    %q\n", evt.Data)
	fmt.Printf("parents: %s\n", strings.Join(frontier.Frontier(evt.Parents).Strings(), " "))
	return nil
}

func printHead(head frontier.Frontier) {
	fmt.Printf("head: %s\n", strings.Join(head.Strings(), " "))
}
