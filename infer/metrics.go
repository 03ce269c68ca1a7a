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

package infer

import (
	metricsutil "github.com/pluraliseseverythings/grakn-sub001/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type resolveMetrics struct {
	stepsTotal             prometheus.Counter
	iterations             prometheus.Histogram
	answersTotal           prometheus.Counter
	materialisedFactsTotal prometheus.Counter
	structuralCacheLookups *prometheus.CounterVec
	answerCacheLookups     *prometheus.CounterVec
	subGoalsPrunedTotal    prometheus.Counter
	resolveSeconds         prometheus.Summary
}

var metrics resolveMetrics

func init() {
	mr := metricsutil.Registry{R: prometheus.DefaultRegisterer}
	metrics = resolveMetrics{
		stepsTotal: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "reasoner",
			Name:      "resolution_steps_total",
			Help:      "The number of resolution state transitions taken",
		}),
		iterations: mr.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reasoner",
			Name:      "resolution_iterations",
			Help:      "The number of passes each resolved query needed to reach a fixpoint",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16, 25, 50},
		}),
		answersTotal: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "reasoner",
			Name:      "answers_total",
			Help:      "The number of answers returned to callers",
		}),
		materialisedFactsTotal: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "reasoner",
			Name:      "materialised_facts_total",
			Help:      "The number of derived facts written to the graph",
		}),
		structuralCacheLookups: mr.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reasoner",
			Name:      "structural_cache_lookups_total",
			Help:      "The number of direct lookups, by whether they reused a compiled plan",
		}, []string{"result"}),
		answerCacheLookups: mr.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reasoner",
			Name:      "answer_cache_lookups_total",
			Help:      "The number of atomic queries resolved, by whether the answer cache had an entry",
		}, []string{"result"}),
		subGoalsPrunedTotal: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "reasoner",
			Name:      "subgoals_pruned_total",
			Help:      "The number of sub-goals cut off to stop recursion",
		}),
		resolveSeconds: mr.NewSummary(prometheus.SummaryOpts{
			Namespace:  "reasoner",
			Name:       "resolve_seconds",
			Help:       "How long it took to resolve a query, from Resolve until the last answer or an error",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
	}
}
