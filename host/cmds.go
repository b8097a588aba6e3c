// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/cmd"

// A command describes one shell command and the handler that runs it.
type command struct {
	name        string
	brief       string
	description string
	usage       string
	handler     func(h *Host, args []string) error
}

var (
	commands []command
	cmds     *cmd.Tree
)

func init() {
	commands = []command{
		{
			name:        "help",
			brief:       "Display help for a command",
			description: "Display help for a command.",
			usage:       "help [<command>]",
			handler:     (*Host).cmdHelp,
		},
		{
			name:  "assemble",
			brief: "Assemble a source file",
			description: "Run the assembler on the specified file, producing an" +
				" object file and its attribute sidecar if successful. The" +
				" object file is named after the source file unless an output" +
				" file is given. A listing file is written too when the Listing" +
				" setting is enabled.",
			usage:   "assemble <filename> [<output>]",
			handler: (*Host).cmdAssemble,
		},
		{
			name:  "dump",
			brief: "Describe an object or binary file",
			description: "Display the header, relocation dictionary and entry" +
				" points of a relocatable object file, followed by a disassembly" +
				" of its code. Binary files are disassembled at the load address" +
				" recorded in their sidecar.",
			usage:   "dump <filename>",
			handler: (*Host).cmdDump,
		},
		{
			name:  "evaluate",
			brief: "Evaluate an expression",
			description: "Evaluate an assembler expression. Symbols defined by the" +
				" most recent assembly may be used.",
			usage:   "evaluate <expression>",
			handler: (*Host).cmdEvaluate,
		},
		{
			name:  "execute",
			brief: "Execute a script file",
			description: "Load a script file from disk and execute the shell" +
				" commands it contains.",
			usage:   "execute <filename>",
			handler: (*Host).cmdExecute,
		},
		{
			name:  "link",
			brief: "Link object files",
			description: "Link relocatable object files into a single program" +
				" loaded at the LinkOrigin setting, and write it with its" +
				" attribute sidecar.",
			usage:   "link <output> <object> [<object> ...]",
			handler: (*Host).cmdLink,
		},
		{
			name:  "listing",
			brief: "Display the last assembly listing",
			description: "Display the listing produced by the most recent" +
				" assembly. The Listing setting must be enabled when assembling.",
			usage:   "listing",
			handler: (*Host).cmdListing,
		},
		{
			name:        "quit",
			brief:       "Quit the program",
			description: "Quit the program.",
			usage:       "quit",
			handler:     (*Host).cmdQuit,
		},
		{
			name:  "set",
			brief: "Set a configuration variable",
			description: "Set the value of a configuration variable. To see the" +
				" current values of all configuration variables, type set" +
				" without any arguments.",
			usage:   "set [<var> <value>]",
			handler: (*Host).cmdSet,
		},
		{
			name:  "symbols",
			brief: "Display the last symbol table",
			description: "Display every symbol seen by the most recent assembly," +
				" with its value and flags.",
			usage:   "symbols",
			handler: (*Host).cmdSymbols,
		},
	}

	root := cmd.NewTree(cmd.TreeDescriptor{Name: "edasm"})
	for i := range commands {
		c := &commands[i]
		root.AddCommand(cmd.CommandDescriptor{
			Name:        c.name,
			Brief:       c.brief,
			Description: c.description,
			Usage:       c.usage,
			Data:        c,
		})
	}

	// Add command shortcuts.
	root.AddShortcut("a", "assemble")
	root.AddShortcut("d", "dump")
	root.AddShortcut("e", "evaluate")
	root.AddShortcut("l", "link")
	root.AddShortcut("q", "quit")
	root.AddShortcut("?", "help")

	cmds = root
}
