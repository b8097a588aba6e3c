// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/beevik/edasm/cpu"
	"github.com/beevik/edasm/host"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var cpuName string

	c := &cobra.Command{
		Use:   "dump <file>",
		Short: "Describe an object module or binary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := cpu.ParseArchitecture(cpuName)
			if err != nil {
				return err
			}
			return host.Dump(cmd.OutOrStdout(), args[0], arch)
		},
	}

	c.Flags().StringVar(&cpuName, "cpu", cpu.CMOS.String(), "CPU used to disassemble, 6502 or 65C02")
	return c
}
