// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// Architecture selects the CPU chip: 6502 or 65c02
type Architecture byte

const (
	// NMOS 6502 CPU
	NMOS Architecture = iota

	// CMOS 65c02 CPU
	CMOS
)

// String returns the conventional chip name of the architecture.
func (a Architecture) String() string {
	switch a {
	case NMOS:
		return "6502"
	case CMOS:
		return "65C02"
	default:
		return "unknown"
	}
}

var archTree = prefixtree.New[Architecture]()

func init() {
	archTree.Add("6502", NMOS)
	archTree.Add("nmos", NMOS)
	archTree.Add("65c02", CMOS)
	archTree.Add("cmos", CMOS)
}

// ParseArchitecture converts a CPU name such as "6502", "65C02", "nmos"
// or "cmos" into an Architecture. Unambiguous prefixes are accepted.
func ParseArchitecture(name string) (Architecture, error) {
	arch, err := archTree.FindValue(strings.ToLower(name))
	if err != nil {
		return NMOS, fmt.Errorf("invalid CPU type '%s' (expected 6502 or 65C02)", name)
	}
	return arch, nil
}
