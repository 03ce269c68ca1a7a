// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package graphviz generates diagrams from dot input.
// Package graphviz renders Graphviz documents into files.
package graphviz

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Filetype is the format of the file Create writes.
type Filetype int

// Supported file types. DOT writes the generated document as is; the others
// run it through the "dot" program.
const (
	PDF Filetype = 1
	PNG Filetype = 2
	SVG Filetype = 3
	DOT Filetype = 4
)

var suffixes = map[string]Filetype{
	".pdf": PDF,
	".png": PNG,
	".svg": SVG,
	".dot": DOT,
	".gv":  DOT,
}

// Options control Create.
type Options struct {
	// Unless provided, Create will attempt to autodetect this from the filename.
	Filetype Filetype
}

// Create writes the document produced by 'generate' into 'filename'.
func Create(filename string, generate func(io.Writer) error, options Options) error {
	if options.Filetype == 0 {
		ft, ok := suffixes[strings.ToLower(filepath.Ext(filename))]
		if !ok {
			return fmt.Errorf("could not determine filetype from filename: %v", filename)
		}
		options.Filetype = ft
	}
	var format string
	switch options.Filetype {
	case PDF:
		format = "-Tpdf"
	case PNG:
		format = "-Tpng"
	case SVG:
		format = "-Tsvg"
	case DOT:
	default:
		return fmt.Errorf("unknown file type: %v", options.Filetype)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	if options.Filetype == DOT {
		if err := generate(file); err != nil {
			return err
		}
		return file.Close()
	}

	cmd := exec.Command("dot", format)
	cmd.Stdout = file
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	genErr := make(chan error, 1)
	go func() {
		defer stdin.Close()
		genErr <- generate(stdin)
	}()
	var errOut strings.Builder
	cmd.Stderr = &errOut
	err = cmd.Run()
	if gerr := <-genErr; gerr != nil {
		return errors.Wrap(gerr, "generating dot input")
	}
	if err != nil {
		return fmt.Errorf("error executing dot. Stderr: %v", errOut.String())
	}
	return nil
}
