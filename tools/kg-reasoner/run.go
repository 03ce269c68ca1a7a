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

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/pluraliseseverythings/grakn-sub001/config"
	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/infer"
	"github.com/pluraliseseverythings/grakn-sub001/kb"
	"github.com/pluraliseseverythings/grakn-sub001/query/answer"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/util/graphviz"
	"github.com/pluraliseseverythings/grakn-sub001/util/stats"
	"github.com/pluraliseseverythings/grakn-sub001/util/table"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var fmtr = message.NewPrinter(language.English)

// loadConfig returns the configuration file's settings, overridden by the
// command-line flags.
func loadConfig(options *options) (*config.Reasoner, error) {
	cfg := config.Default()
	if options.ConfigFile != "" {
		var err error
		cfg, err = config.Load(options.ConfigFile)
		if err != nil {
			return nil, err
		}
	}
	if options.NoInfer {
		infer := false
		cfg.Infer = &infer
	}
	if options.Materialise {
		cfg.Materialise = true
	}
	return cfg, nil
}

// selectQueries returns the named queries, or all of them if no names are
// given.
func selectQueries(k *kb.KB, names []string) ([]kb.NamedQuery, error) {
	if len(names) == 0 {
		return k.Queries, nil
	}
	res := make([]kb.NamedQuery, len(names))
	for i, name := range names {
		q, ok := k.Query(name)
		if !ok {
			return nil, fmt.Errorf("no query named %q in knowledge base", name)
		}
		res[i] = kb.NamedQuery{Name: name, Query: q}
	}
	return res, nil
}

func query(ctx context.Context, w io.Writer, cfg *config.Reasoner, options *options) error {
	k, err := kb.Load(options.Filename)
	if err != nil {
		return err
	}
	queries, err := selectQueries(k, options.Names)
	if err != nil {
		return err
	}
	opts := infer.OptionsFromConfig(cfg)
	results := make([][]answer.Answer, len(queries))
	allStats := make([]infer.Stats, len(queries))
	if len(queries) > 1 && !options.Stats {
		qs := make([]*logic.Query, len(queries))
		for i, nq := range queries {
			qs[i] = nq.Query
		}
		results, err = infer.ResolveAll(ctx, k.Graph, k.Rules, qs, opts)
		if err != nil {
			return err
		}
	} else {
		for i, nq := range queries {
			it, err := infer.Resolve(ctx, k.Graph, k.Rules, nq.Query, opts)
			if err != nil {
				return errors.Wrapf(err, "query %v", nq.Name)
			}
			results[i], err = infer.Collect(it)
			if err != nil {
				return errors.Wrapf(err, "query %v", nq.Name)
			}
			allStats[i] = it.Stats()
		}
	}

	for i, nq := range queries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%v: %v\n", nq.Name, nq.Query)
		if err := printAnswers(w, k, nq.Query, results[i]); err != nil {
			return err
		}
		if options.Explain {
			for _, a := range results[i] {
				fmt.Fprintln(w)
				if err := answer.WriteTree(w, a); err != nil {
					return err
				}
			}
		}
		if options.Stats {
			fmt.Fprintln(w)
			if err := stats.PrettyPrint(w, allStats[i]); err != nil {
				return err
			}
		}
		if options.DotFile != "" && len(results[i]) > 0 {
			filename := dotFilename(options.DotFile, nq.Name, len(queries) > 1)
			first := results[i][0]
			err := graphviz.Create(filename, func(w io.Writer) error {
				return answer.WriteDot(w, first)
			}, graphviz.Options{})
			if err != nil {
				return errors.Wrapf(err, "writing %v", filename)
			}
			log.Infof("Wrote explanation of %v to %v", nq.Name, filename)
		}
	}
	if cfg.Materialise {
		fmt.Fprintln(w)
		return stats.PrettyPrintGraph(w, k.Graph.Stats())
	}
	return nil
}

// dotFilename returns 'filename', with 'name' inserted before its extension
// if 'multiple' is set.
func dotFilename(filename, name string, multiple bool) string {
	if !multiple {
		return filename
	}
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "-" + name + ext
}

// printAnswers writes the answers as a table with a column per answer
// variable.
func printAnswers(w io.Writer, k *kb.KB, q *logic.Query, answers []answer.Answer) error {
	vars := q.AnswerVars()
	t := make([][]string, 0, len(answers)+1)
	header := make([]string, len(vars))
	for i, v := range vars {
		header[i] = v.String()
	}
	t = append(t, header)
	rows := make([][]string, len(answers))
	for i, a := range answers {
		row := make([]string, len(vars))
		for j, v := range vars {
			if c, ok := a.Get(v); ok {
				row[j] = formatConcept(k, c)
			}
		}
		rows[i] = row
	}
	sort.Slice(rows, func(i, j int) bool {
		return strings.Join(rows[i], "\x00") < strings.Join(rows[j], "\x00")
	})
	t = append(t, rows...)
	table.PrettyPrint(w, t, table.HeaderRow|table.SkipEmpty)
	_, err := fmtr.Fprintf(w, "%d answers.\n", len(answers))
	return err
}

// formatConcept returns an attribute's value, an entity's name in the
// knowledge base file, or else the concept's ID and type.
func formatConcept(k *kb.KB, c graph.Concept) string {
	if c.Value.IsSet() {
		return c.Value.String()
	}
	if name := k.EntityName(c.ID); name != "" {
		return name
	}
	return c.String()
}

func list(w io.Writer, options *options) error {
	k, err := kb.Load(options.Filename)
	if err != nil {
		return err
	}
	t := [][]string{{"Query", "Pattern"}}
	for _, nq := range k.Queries {
		t = append(t, []string{nq.Name, nq.Query.String()})
	}
	table.PrettyPrint(w, t, table.HeaderRow|table.SkipEmpty)
	fmt.Fprintln(w)
	t = [][]string{{"Rule", "Definition"}}
	for _, r := range k.Rules {
		t = append(t, []string{r.ID, r.String()})
	}
	table.PrettyPrint(w, t, table.HeaderRow|table.SkipEmpty)
	return nil
}

func showStats(w io.Writer, options *options) error {
	k, err := kb.Load(options.Filename)
	if err != nil {
		return err
	}
	if err := stats.PrettyPrintGraph(w, k.Graph.Stats()); err != nil {
		return err
	}
	fmt.Fprintln(w)
	t := [][]string{{"Type", "Kind", "Instances"}}
	for _, typ := range k.Graph.Schema().Types() {
		t = append(t, []string{string(typ.Label), typ.Kind.String(), fmtr.Sprintf("%d", k.Graph.Count(typ.Label))})
	}
	table.PrettyPrint(w, t, table.HeaderRow|table.SkipEmpty)
	return nil
}
