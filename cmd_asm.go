// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"

	"github.com/beevik/edasm/asm"
	"github.com/beevik/edasm/cpu"
	"github.com/beevik/edasm/host"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type asmFlags struct {
	out         string
	listing     bool
	origin      addressFlag
	cpu         string
	relocatable bool
	verbose     bool
}

func newAsmCmd() *cobra.Command {
	var f asmFlags
	c := &cobra.Command{
		Use:   "asm <file>...",
		Short: "Assemble source files",
		Long: `Asm assembles each source file into a binary file, or into a
relocatable object module when -r is given or the source contains a REL
directive. The output is named after the source file with an .obj
extension unless -o is given. With -l a listing is written next to the
output with an .lst extension.

Several source files may be assembled at once. Each is assembled
independently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsm(cmd, args, &f)
		},
	}

	c.Flags().StringVarP(&f.out, "output", "o", "", "output file (one source file only)")
	c.Flags().BoolVarP(&f.listing, "listing", "l", false, "write a listing file")
	c.Flags().Var(&f.origin, "origin", "origin used when the source has no ORG")
	c.Flags().StringVar(&f.cpu, "cpu", cpu.CMOS.String(), "target CPU, 6502 or 65C02")
	c.Flags().BoolVarP(&f.relocatable, "relocatable", "r", false, "produce relocatable object modules")
	c.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "trace both assembler passes")
	return c
}

func runAsm(cmd *cobra.Command, args []string, f *asmFlags) error {
	if f.out != "" && len(args) > 1 {
		return errors.New("-o cannot be used with more than one source file")
	}
	if _, err := cpu.ParseArchitecture(f.cpu); err != nil {
		return err
	}

	opts := asm.Options{
		Origin:      f.origin.get(),
		CPU:         f.cpu,
		Relocatable: f.relocatable,
		Listing:     f.listing,
		Verbose:     f.verbose,
	}

	// Output of each assembly is buffered and written in input order.
	logs := make([]bytes.Buffer, len(args))
	diags := make([]bytes.Buffer, len(args))

	var g errgroup.Group
	for i, src := range args {
		g.Go(func() error {
			o := opts
			o.Log = &logs[i]
			_, err := host.Assemble(&diags[i], src, f.out, o)
			return err
		})
	}
	err := g.Wait()

	for i := range args {
		cmd.OutOrStdout().Write(logs[i].Bytes())
		cmd.ErrOrStderr().Write(diags[i].Bytes())
	}
	return err
}
