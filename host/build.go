// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/edasm/asm"
	"github.com/beevik/edasm/link"
	"github.com/beevik/edasm/prodos"
)

// ErrFailed is returned when an assembly or link reports errors. The
// errors themselves have already been written out.
var ErrFailed = errors.New("failed")

// OutputPath returns the object file path used for a source file when no
// output path is given.
func OutputPath(src string) string {
	return replaceExt(src, ".obj")
}

// ListingPath returns the path of the listing written alongside an object
// file.
func ListingPath(out string) string {
	return replaceExt(out, ".lst")
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// Assemble assembles a source file, then writes the object file, its
// attribute sidecar and, if requested, its listing. Errors and warnings
// are written to w. If out is empty, OutputPath(src) is used.
func Assemble(w io.Writer, src, out string, opts asm.Options) (*asm.Result, error) {
	r, err := asm.AssembleFile(src, opts)
	if err != nil {
		return nil, err
	}

	printDiagnostics(w, src, r.Errors, r.Warnings)
	if !r.OK {
		return r, fmt.Errorf("%s: assembly %w with %d error(s)", src, ErrFailed, len(r.Errors))
	}

	if out == "" {
		out = OutputPath(src)
	}
	if err := os.WriteFile(out, r.Artifacts.ObjectBytes, 0644); err != nil {
		return r, err
	}
	if err := prodos.Write(out, r.Artifacts.Attributes); err != nil {
		return r, err
	}
	if opts.Listing {
		if err := os.WriteFile(ListingPath(out), []byte(r.Artifacts.Listing), 0644); err != nil {
			return r, err
		}
	}

	if opts.Verbose {
		kind := "binary"
		if r.Artifacts.Relocatable {
			kind = "relocatable"
		}
		fmt.Fprintf(w, "Assembled '%s' to %s '%s' (%d bytes).\n", src, kind, out, len(r.Artifacts.ObjectBytes))
	}
	return r, nil
}

// Link links object files into an executable, then writes the executable
// and its attribute sidecar. Errors and warnings are written to w.
func Link(w io.Writer, out string, objs []string, opts link.Options) (*link.Result, error) {
	r, err := link.LinkFiles(objs, opts)
	if err != nil {
		return nil, err
	}

	printDiagnostics(w, "", r.Errors, r.Warnings)
	if !r.OK {
		return r, fmt.Errorf("link %w with %d error(s)", ErrFailed, len(r.Errors))
	}

	if err := os.WriteFile(out, r.Executable, 0644); err != nil {
		return r, err
	}
	if err := prodos.Write(out, r.Attributes); err != nil {
		return r, err
	}

	if opts.Verbose {
		r.WriteMap(w)
		fmt.Fprintf(w, "Linked %d module(s) to '%s' at $%04X (%d bytes).\n", len(r.Modules), out, r.Attributes.AuxType, len(r.Executable))
	}
	return r, nil
}

func printDiagnostics(w io.Writer, file string, errs, warnings []string) {
	prefix := ""
	if file != "" {
		prefix = file + ": "
	}
	for _, e := range errs {
		fmt.Fprintf(w, "ERROR: %s%s\n", prefix, e)
	}
	for _, warn := range warnings {
		fmt.Fprintf(w, "Warning: %s%s\n", prefix, warn)
	}
}
