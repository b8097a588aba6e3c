// Copyright 2018 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host implements an interactive shell around the assembler, the
// linker and the disassembler.
//
// Within the shell it is possible to assemble source files, link the
// resulting object modules, inspect object files, view the listing and
// symbol table of the most recent assembly, evaluate expressions and change
// the settings used by each of these operations.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/edasm/asm"
	"github.com/beevik/edasm/cpu"
)

var errQuit = errors.New("quit")

// A Host holds the state of an interactive shell session.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	settings    *settings
	last        *asm.Result // most recent assembly
}

// New creates a new shell host.
func New() *Host {
	return &Host{
		settings: newSettings(),
	}
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive
	defer h.flush()

	if interactive {
		h.println()
	}
	h.run()
}

// Process commands until the input is exhausted or a quit command is
// entered. Report whether the session should end.
func (h *Host) run() (quit bool) {
	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			return false
		}
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}

		sel, err := cmds.Lookup(line)
		switch {
		case err == cmd.ErrNotFound:
			h.println("Command not found.")
			continue
		case err == cmd.ErrAmbiguous:
			h.println("Command is ambiguous.")
			continue
		case err != nil:
			h.printf("ERROR: %v.\n", err)
			continue
		}
		if sel.Command == nil {
			continue
		}

		c := sel.Command.Data.(*command)
		err = c.handler(h, sel.Args)
		switch {
		case err == errQuit:
			return true
		case err != nil:
			h.printf("ERROR: %v\n", err)
		}
	}
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
		h.flush()
	}
}

func (h *Host) arch() cpu.Architecture {
	arch, err := cpu.ParseArchitecture(h.settings.CPU)
	if err != nil {
		return cpu.CMOS
	}
	return arch
}

func (h *Host) cmdAssemble(args []string) error {
	if len(args) < 1 {
		h.displayUsage("assemble")
		return nil
	}

	src, out := args[0], ""
	if len(args) > 1 {
		out = args[1]
	}

	r, err := Assemble(h.output, src, out, h.settings.asmOptions(h.output))
	if r != nil {
		h.last = r
	}
	switch {
	case errors.Is(err, ErrFailed):
		h.println("Assembly failed.")
	case err != nil:
		return err
	default:
		if out == "" {
			out = OutputPath(src)
		}
		h.printf("Assembled '%s' to '%s'.\n", src, out)
	}
	return nil
}

func (h *Host) cmdLink(args []string) error {
	if len(args) < 2 {
		h.displayUsage("link")
		return nil
	}

	out, objs := args[0], args[1:]
	r, err := Link(h.output, out, objs, h.settings.linkOptions(h.output))
	switch {
	case errors.Is(err, ErrFailed):
		h.println("Link failed.")
	case err != nil:
		return err
	default:
		h.printf("Linked %d module(s) to '%s' at $%04X.\n", len(r.Modules), out, r.Attributes.AuxType)
	}
	return nil
}

func (h *Host) cmdDump(args []string) error {
	if len(args) < 1 {
		h.displayUsage("dump")
		return nil
	}
	defer h.flush()
	return Dump(h.output, args[0], h.arch())
}

func (h *Host) cmdEvaluate(args []string) error {
	if len(args) < 1 {
		h.displayUsage("evaluate")
		return nil
	}

	symbols := asm.NewSymbolTable()
	if h.last != nil {
		symbols = h.last.Artifacts.Symbols.Clone()
	}

	expr := strings.Join(args, " ")
	v, err := asm.Eval(expr, asm.EvalContext{Symbols: symbols})
	switch {
	case err != nil:
		h.printf("%v\n", err)
	case v.External:
		h.println("Expression refers to an external symbol.")
	case v.Undefined:
		h.println("Expression refers to an undefined symbol.")
	default:
		h.printf("$%04X (%d)\n", uint16(v.Value), v.Value)
	}
	return nil
}

func (h *Host) cmdExecute(args []string) error {
	if len(args) < 1 {
		h.displayUsage("execute")
		return nil
	}

	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	input, interactive := h.input, h.interactive
	h.input, h.interactive = bufio.NewScanner(file), false
	quit := h.run()
	h.input, h.interactive = input, interactive

	if quit {
		return errQuit
	}
	return nil
}

func (h *Host) cmdHelp(args []string) error {
	if len(args) == 0 {
		h.println("Commands:")
		for _, c := range commands {
			h.printf("    %-15s  %s\n", c.name, c.brief)
		}
		return nil
	}

	sel, err := cmds.Lookup(strings.Join(args, " "))
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	c := sel.Command.Data.(*command)
	h.printf("Syntax: %s\n\n", c.usage)
	h.printf("Description:\n%s\n\n", indentWrap(3, c.description))
	return nil
}

func (h *Host) cmdListing(args []string) error {
	switch {
	case h.last == nil:
		h.println("Nothing has been assembled.")
	case h.last.Artifacts.Listing == "":
		h.println("No listing. Set Listing to true and assemble again.")
	default:
		h.print(h.last.Artifacts.Listing)
		h.flush()
	}
	return nil
}

func (h *Host) cmdQuit(args []string) error {
	return errQuit
}

func (h *Host) cmdSet(args []string) error {
	switch len(args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayUsage("set")

	default:
		key, value := args[0], strings.Join(args[1:], " ")
		name, err := h.settings.Name(key)
		if err != nil {
			h.printf("Setting '%s' not found.\n", key)
			return nil
		}

		switch h.settings.Kind(key) {
		case reflect.String:
			var arch cpu.Architecture
			arch, err = cpu.ParseArchitecture(value)
			if err == nil {
				err = h.settings.Set(key, arch.String())
			}
		case reflect.Bool:
			var v bool
			v, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			var v asm.Value
			v, err = asm.Eval(value, asm.EvalContext{Symbols: asm.NewSymbolTable()})
			switch {
			case err != nil:
			case !v.Resolved() || v.Value < 0 || v.Value > 0xffff:
				err = fmt.Errorf("invalid value '%s'", value)
			default:
				err = h.settings.Set(key, v.Value)
			}
		}

		if err == nil {
			h.printf("Setting %s updated.\n", name)
		} else {
			h.printf("%v\n", err)
		}
	}
	return nil
}

func (h *Host) cmdSymbols(args []string) error {
	if h.last == nil {
		h.println("Nothing has been assembled.")
		return nil
	}
	defer h.flush()
	_, err := h.last.Artifacts.Symbols.WriteTo(h.output)
	return err
}

func (h *Host) displayUsage(name string) {
	for _, c := range commands {
		if c.name == name {
			h.printf("Syntax: %s\n", c.usage)
			return
		}
	}
}
