// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/beevik/edasm/host"
	"github.com/beevik/edasm/link"
	"github.com/spf13/cobra"
)

func newLinkCmd() *cobra.Command {
	var (
		out     string
		origin  addressFlag
		verbose bool
	)

	c := &cobra.Command{
		Use:   "link <object>...",
		Short: "Link relocatable object modules",
		Long: `Link loads the object modules one after another starting at the
origin ($0800 unless --origin is given), resolves the external references
of each module against the entry points of the others, and writes the
combined program as a ProDOS system file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := link.Options{
				Origin:  origin.get(),
				Verbose: verbose,
				Log:     cmd.OutOrStdout(),
			}
			_, err := host.Link(cmd.ErrOrStderr(), out, args, opts)
			return err
		},
	}

	c.Flags().StringVarP(&out, "output", "o", "a.out", "output file")
	c.Flags().Var(&origin, "origin", "load address of the program")
	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace the link and print the load map")
	return c
}
