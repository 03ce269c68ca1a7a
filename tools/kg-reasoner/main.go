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

// Command kg-reasoner answers the queries of a knowledge base file, applying
// its rules.
package main

import (
	"context"
	"os"
	"time"

	docopt "github.com/docopt/docopt-go"
	"github.com/pkg/errors"
	"github.com/pluraliseseverythings/grakn-sub001/util/debuglog"
	"github.com/pluraliseseverythings/grakn-sub001/util/profiling"
	"github.com/pluraliseseverythings/grakn-sub001/util/tracing"
	log "github.com/sirupsen/logrus"
)

const usage = `kg-reasoner is a command-line tool for querying a knowledge base with rules.

Usage:
  kg-reasoner [options] query KB [NAME...]
  kg-reasoner [options] list KB
  kg-reasoner [options] stats KB

Options:
  -c FILE, --config=FILE    Reasoner configuration file (JSON).
  --no-infer                Answer from the stored facts only.
  --materialise             Write the facts derived by rules into the graph.
  --explain                 Print how each answer was derived.
  --dot=FILE                Write the explanation of each query's first answer
                            to FILE (.dot, .gv, .svg, .png or .pdf). With more
                            than one query, the query name is added to FILE.
  --stats                   Print resolution statistics for each query.
  -t DUR, --timeout=DUR     Time limit for all the queries [default: 1m].
  --cpuprofile=FILE         Write a CPU profile of the run to FILE.

Examples:
  # Run every query in a file.
  kg-reasoner query kb/testdata/geo.yaml

  # Explain where Warsaw is.
  kg-reasoner --explain query kb/testdata/geo.yaml warsaw-locations

  # List the queries and rules of a file.
  kg-reasoner list kb/testdata/geo.yaml
`

type options struct {
	ConfigFile  string `docopt:"--config"`
	NoInfer     bool   `docopt:"--no-infer"`
	Materialise bool   `docopt:"--materialise"`
	Explain     bool   `docopt:"--explain"`
	DotFile     string `docopt:"--dot"`
	Stats       bool   `docopt:"--stats"`
	CPUProfile  string `docopt:"--cpuprofile"`
	// Timeout is never zero; it's set to 1 hour if the user passes 0s.
	Timeout       time.Duration
	TimeoutString string `docopt:"--timeout"`

	Filename string   `docopt:"KB"`
	Names    []string `docopt:"NAME"`

	Query bool `docopt:"query"`
	List  bool `docopt:"list"`
	Show  bool `docopt:"stats"`
}

func parseArgs() *options {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		log.Fatalf("Error parsing command-line arguments: %v", err)
	}
	var options options
	err = opts.Bind(&options)
	if err != nil {
		log.Fatalf("Error binding command-line arguments: %v\nfrom: %+v", err, opts)
	}
	if options.TimeoutString != "" {
		options.Timeout, err = time.ParseDuration(options.TimeoutString)
		if err != nil {
			log.Fatalf("Unable to parse timeout value: %v", err)
		}
	}
	if options.Timeout == 0 {
		options.Timeout = time.Hour
	}
	return &options
}

func main() {
	os.Exit(run())
}

// run executes the command and returns the process's exit code. It returns
// rather than exiting so that deferred calls finish the profile and the span.
func run() int {
	debuglog.Configure(debuglog.Options{})
	options := parseArgs()
	cfg, err := loadConfig(options)
	if err != nil {
		log.Errorf("Error loading configuration: %v", err)
		return 2
	}
	logOpts, err := debuglog.OptionsFromConfig(cfg.Logging)
	if err != nil {
		log.Errorf("Error loading configuration: %v", err)
		return 2
	}
	debuglog.Configure(logOpts)

	if options.CPUProfile != "" {
		stop, err := profiling.StartCPUProfile(options.CPUProfile)
		if err != nil {
			log.Errorf("Error starting CPU profile: %v", err)
			return 1
		}
		defer stop()
	}
	span, ctx := tracing.StartSpan(context.Background(), "kg-reasoner run", nil)
	defer span.Finish()
	ctx, cancelFunc := context.WithTimeout(ctx, options.Timeout)
	defer cancelFunc()

	switch {
	case options.Query:
		err = query(ctx, os.Stdout, cfg, options)
	case options.List:
		err = list(os.Stdout, options)
	case options.Show:
		err = showStats(os.Stdout, options)
	default:
		err = errors.New("command not implemented")
	}
	if err != nil {
		log.Errorf("Error: %v", err)
		return 1
	}
	return 0
}
