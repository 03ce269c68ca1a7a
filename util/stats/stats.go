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

// Package stats formats resolution and graph statistics as tables.
package stats

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/pluraliseseverythings/grakn-sub001/graph/memgraph"
	"github.com/pluraliseseverythings/grakn-sub001/infer"
	"github.com/pluraliseseverythings/grakn-sub001/util/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var fmtr = message.NewPrinter(language.English)

func count(c int) string {
	return fmtr.Sprintf("%d", c)
}

// PrettyPrint writes a table describing a resolution run.
func PrettyPrint(w io.Writer, s infer.Stats) error {
	bw := bufio.NewWriter(w)
	t := [][]string{
		{"Resolution", "Value"},
		{"Run", s.RunID},
		{"Answers", count(s.Answers)},
		{"Iterations", count(s.Iterations)},
		{"Steps", count(s.Steps)},
		{"States", count(s.States)},
		{"Max depth", count(s.MaxDepth)},
		{"Rule applications", count(s.RuleApplications)},
		{"Sub-goals pruned", count(s.SubGoalsPruned)},
		{"Incomplete reads", count(s.IncompleteReads)},
		{"Materialised facts", count(s.Materialised)},
		{"Answer cache entries", count(s.AnswerCacheEntries)},
		{"Answer cache answers", count(s.AnswerCacheAnswers)},
		{"Structural cache hits", count(s.StructuralHits)},
		{"Structural cache misses", count(s.StructuralMisses)},
		{"Requires reiteration", fmt.Sprint(s.RequiresReiteration)},
		{"Elapsed", s.Elapsed.Round(time.Microsecond).String()},
	}
	table.PrettyPrint(bw, t, table.HeaderRow|table.RightJustify)
	return bw.Flush()
}

// PrettyPrintGraph writes a table describing the contents of a graph.
func PrettyPrintGraph(w io.Writer, s memgraph.Stats) error {
	bw := bufio.NewWriter(w)
	t := [][]string{
		{"Graph", "Count"},
		{"Entities", count(s.Entities)},
		{"Relations", count(s.Relations)},
		{"Inferred relations", count(s.InferredRelations)},
		{"Attributes", count(s.Attributes)},
		{"Ownerships", count(s.Ownerships)},
		{"Inferred ownerships", count(s.InferredOwnerships)},
		{"Writes", count(s.Writes)},
	}
	table.PrettyPrint(bw, t, table.HeaderRow|table.RightJustify)
	return bw.Flush()
}
