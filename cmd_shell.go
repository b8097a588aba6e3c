// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/beevik/edasm/host"
	"github.com/beevik/term"
	"github.com/spf13/cobra"
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell [<script>...]",
		Short: "Start the command shell",
		Long: `Shell runs the commands contained in each script file, then reads
commands from standard input. A prompt is shown only when standard input
is a terminal. Type help for a list of commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := host.New()

			// Run commands contained in command-line files.
			for _, filename := range args {
				file, err := os.Open(filename)
				if err != nil {
					return err
				}
				h.RunCommands(file, cmd.OutOrStdout(), false)
				file.Close()
			}

			// Run commands interactively.
			in := cmd.InOrStdin()
			interactive := false
			if f, ok := in.(*os.File); ok {
				interactive = term.IsTerminal(int(f.Fd()))
			}
			h.RunCommands(in, cmd.OutOrStdout(), interactive)
			return nil
		},
	}
}
