package shell

import (
	"fmt"
	"strings"
)

// CommandInfo holds metadata about a shell command.
type CommandInfo struct {
	Name        string   // Primary command name
	Aliases     []string // Alternative names
	Description string   // Short description shown by help
	Usage       string   // Example usage
	ShowInHelp  bool     // Whether to show in help output
}

// CommandRegistry lists every shell command in help order.
var CommandRegistry = []CommandInfo{
	{
		Name:        "shutdown",
		Aliases:     []string{"exit"},
		Description: "Shuts down Neptune OS",
		Usage:       "shutdown",
		ShowInHelp:  true,
	},
	{
		Name:        "processes",
		Description: "Shows the number of processes",
		Usage:       "processes",
		ShowInHelp:  true,
	},
	{
		Name:        "run",
		Description: "Runs a program",
		Usage:       "run",
		ShowInHelp:  true,
	},
	{
		Name:        "clear",
		Description: "Clears the console",
		Usage:       "clear",
		ShowInHelp:  true,
	},
	{
		Name:        "credits",
		Description: "List of people who helped with Neptune OS",
		Usage:       "credits",
		ShowInHelp:  true,
	},
	{
		Name:        "history",
		Description: "Shows recent calculations",
		Usage:       "history [clear]",
		ShowInHelp:  true,
	},
	{
		Name:        "calc",
		Description: "Runs the calculator on an expression",
		Usage:       "calc <expression>",
		ShowInHelp:  true,
	},
	{
		Name:        "help",
		Aliases:     []string{"commands"},
		Description: "Shows this list",
		Usage:       "help",
		ShowInHelp:  false,
	},
}

// FindCommand looks a command up by name or alias.
func FindCommand(name string) *CommandInfo {
	name = strings.ToLower(name)
	for i := range CommandRegistry {
		cmd := &CommandRegistry[i]
		if cmd.Name == name {
			return cmd
		}
		for _, alias := range cmd.Aliases {
			if alias == name {
				return cmd
			}
		}
	}
	return nil
}

// HelpText is the numbered command list printed by help.
func HelpText() string {
	var sb strings.Builder
	sb.WriteString("List of commands:\n")
	n := 0
	for _, cmd := range CommandRegistry {
		if !cmd.ShowInHelp {
			continue
		}
		n++
		fmt.Fprintf(&sb, "%d: %s (%s)\n", n, cmd.Name, cmd.Description)
	}
	return sb.String()
}

// HelpMarkdown is the help page in Markdown, for rich rendering.
func HelpMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# Neptune OS\n\n")
	sb.WriteString("## Commands\n\n")
	for _, cmd := range CommandRegistry {
		if !cmd.ShowInHelp {
			continue
		}
		fmt.Fprintf(&sb, "- `%s` %s", cmd.Usage, cmd.Description)
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&sb, " (also `%s`)", strings.Join(cmd.Aliases, "`, `"))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n## Calculator\n\n")
	sb.WriteString("Operators `+ - * / % ^`, prefix `-` and `~`, parentheses, ")
	sb.WriteString("`round(x)` and `ceil(x)`. Numbers may be decimal, `0x` hex, ")
	sb.WriteString("`0o` octal or `0b` binary.\n")
	return sb.String()
}

const credits = `Heres a list of people who helped with Neptune OS!
All of these usernames are github usernames.

Thepuppetqueen57: Made Neptune OS
No one has helped yet this command is just for if someone does
`
