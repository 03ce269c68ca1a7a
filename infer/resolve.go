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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/answer"
	"github.com/pluraliseseverythings/grakn-sub001/query/cache"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
	"github.com/pluraliseseverythings/grakn-sub001/util/tracing"
	log "github.com/sirupsen/logrus"
)

// ErrMaxIterationsExceeded is returned when resolution needs more passes or
// more steps than its options allow.
var ErrMaxIterationsExceeded = errors.New("maximum iterations exceeded")

// Stats describes the work done by a resolution run.
type Stats struct {
	// RunID identifies the run in log messages.
	RunID string
	// Iterations is the number of passes made over the resolution tree.
	Iterations int
	// Steps is the number of state transitions taken.
	Steps int
	// States is the number of states created.
	States int
	// MaxDepth is the largest size the state stack reached.
	MaxDepth int
	// Answers is the number of answers returned.
	Answers int
	// RuleApplications counts rules applied to atomic queries.
	RuleApplications int
	// SubGoalsPruned counts rule applications cut off to stop recursion.
	SubGoalsPruned int
	// IncompleteReads counts atomic queries answered from a partially
	// filled cache entry.
	IncompleteReads int
	// Materialised counts facts written to the graph.
	Materialised int
	// AnswerCacheEntries and AnswerCacheAnswers describe the answer cache.
	AnswerCacheEntries int
	AnswerCacheAnswers int
	// StructuralHits and StructuralMisses count lookups that reused or
	// compiled a plan.
	StructuralHits   int
	StructuralMisses int
	// RequiresReiteration is true if the rules reachable from the query are
	// recursive.
	RequiresReiteration bool
	// Elapsed is the time spent resolving.
	Elapsed time.Duration
}

// resolver is the context of one resolution run. It holds the state arena
// and stack, and the caches shared by every state.
type resolver struct {
	ctx    context.Context
	span   opentracing.Span
	log    *log.Entry
	graph  graph.Graph
	writer graph.Writer
	schema *graph.Schema
	rules  []*logic.Rule
	opts   Options
	root   *logic.Query

	structural *cache.StructuralCache
	answers    *cache.AnswerCache

	arena []state
	free  []stateID
	stack []stateID

	// visited holds the atomic queries whose rules were applied in this
	// pass.
	visited *logic.EquivalenceMap[struct{}]
	// incompleteReads counts reads of cache entries that may lack answers.
	incompleteReads int
	iteration       int
	// iterationStart holds the counters at the start of the pass.
	iterationStart struct {
		incompleteReads int
		cacheAnswers    int
	}
	steps int
	// returned holds the keys of the answers returned to the caller.
	returned map[string]struct{}
	stats    Stats
	started  time.Time
	done     bool
	err      error
}

// Resolve starts resolving 'q' over the graph, applying 'rules' when
// opts.Infer is set. The answers bind the query's user-named variables and
// are produced lazily by the returned iterator; errors that occur during
// resolution are reported by its Err method. Resolve returns an error if
// materialisation is requested but the graph isn't writable.
func Resolve(ctx context.Context, g graph.Graph, rules []*logic.Rule, q *logic.Query, opts Options) (*Iterator, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: nil query", logic.ErrInvalidQuery)
	}
	opts = opts.withDefaults()
	writer, _ := g.(graph.Writer)
	if opts.Materialise && writer == nil {
		return nil, fmt.Errorf("can't materialise inferred facts: graph %T isn't writable", g)
	}
	if !opts.Infer {
		rules = nil
	}
	span, ctx := tracing.StartSpan(ctx, "infer.Resolve", metrics.resolveSeconds)
	span.SetTag("query", q.String())
	span.SetTag("infer", opts.Infer)
	span.SetTag("materialise", opts.Materialise)
	runID := uuid.New().String()
	r := &resolver{
		ctx:        ctx,
		span:       span,
		log:        log.WithField("run", runID),
		graph:      g,
		writer:     writer,
		schema:     g.Schema(),
		rules:      rules,
		opts:       opts,
		root:       q,
		structural: cache.NewStructuralCache(g, opts.StructuralCacheSize),
		answers:    cache.NewAnswerCache(),
		returned:   make(map[string]struct{}),
		started:    time.Now(),
	}
	r.stats.RunID = runID
	r.stats.RequiresReiteration = logic.RequiresReiteration(q, rules, r.schema)
	r.log.WithFields(log.Fields{
		"query":       q,
		"rules":       len(rules),
		"recursive":   r.stats.RequiresReiteration,
		"materialise": opts.Materialise,
	}).Debug("Resolving query")
	r.startIteration()
	return &Iterator{r: r}, nil
}

// startIteration pushes the root state for a new pass.
func (r *resolver) startIteration() {
	r.iteration++
	r.visited = logic.NewEquivalenceMap[struct{}](logic.Exact)
	r.iterationStart.incompleteReads = r.incompleteReads
	r.iterationStart.cacheAnswers = r.answers.Size()
	root, err := newConjunctiveState(r, noState, r.root)
	if err != nil {
		r.err = err
		return
	}
	r.push(r.alloc(root))
}

// endIteration is called once the stack is empty. It returns true if another
// pass was started.
func (r *resolver) endIteration() (bool, error) {
	incomplete := r.incompleteReads > r.iterationStart.incompleteReads
	grew := r.answers.Size() > r.iterationStart.cacheAnswers
	r.log.WithFields(log.Fields{
		"iteration":    r.iteration,
		"answers":      r.stats.Answers,
		"cacheAnswers": r.answers.Size(),
		"incomplete":   incomplete,
	}).Debug("Resolution pass done")
	if !incomplete || !grew {
		return false, nil
	}
	if r.iteration >= r.opts.MaxIterations {
		return false, fmt.Errorf("%w: query {%v} needs more than %d passes",
			ErrMaxIterationsExceeded, r.root, r.opts.MaxIterations)
	}
	r.startIteration()
	return r.err == nil, r.err
}

func (r *resolver) alloc(s state) stateID {
	r.stats.States++
	if n := len(r.free); n > 0 {
		id := r.free[n-1]
		r.free = r.free[:n-1]
		r.arena[id] = s
		return id
	}
	r.arena = append(r.arena, s)
	return stateID(len(r.arena) - 1)
}

func (r *resolver) release(id stateID) {
	r.arena[id] = nil
	r.free = append(r.free, id)
}

func (r *resolver) push(id stateID) {
	r.stack = append(r.stack, id)
	if len(r.stack) > r.stats.MaxDepth {
		r.stats.MaxDepth = len(r.stack)
	}
}

func (r *resolver) pop() stateID {
	id := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return id
}

func (r *resolver) isVisited(q *logic.Query) bool {
	_, _, _, ok := r.visited.Get(q)
	return ok
}

// lookup returns the graph's answers to 'q'.
func (r *resolver) lookup(q *logic.Query) (answer.Iterator, error) {
	hits := r.structural.Hits()
	it, err := r.structural.Get(r.ctx, q)
	if r.structural.Hits() > hits {
		metrics.structuralCacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.structuralCacheLookups.WithLabelValues("miss").Inc()
	}
	return it, err
}

func (r *resolver) materialised(inserted bool) {
	if inserted {
		r.stats.Materialised++
		metrics.materialisedFactsTotal.Inc()
	}
}

// next runs the resolution until it produces a new answer to the root query
// or finishes.
func (r *resolver) next() (answer.Answer, bool, error) {
	if r.err != nil {
		return answer.Answer{}, false, r.err
	}
	for {
		if len(r.stack) == 0 {
			more, err := r.endIteration()
			if err != nil || !more {
				return answer.Answer{}, false, err
			}
			continue
		}
		if err := r.ctx.Err(); err != nil {
			return answer.Answer{}, false, err
		}
		r.steps++
		if r.steps > r.opts.MaxResolutionSteps {
			return answer.Answer{}, false, fmt.Errorf("%w: query {%v} needs more than %d resolution steps",
				ErrMaxIterationsExceeded, r.root, r.opts.MaxResolutionSteps)
		}
		id := r.pop()
		st := r.arena[id]
		if as, ok := st.(*answerState); ok {
			r.release(id)
			if as.parent == noState {
				if a, ok := r.returnAnswer(as.answer); ok {
					return a, true, nil
				}
				continue
			}
			next, err := r.propagate(as.parent, as)
			if err != nil {
				return answer.Answer{}, false, err
			}
			if next != nil {
				r.push(r.alloc(next))
			}
			continue
		}
		next, err := r.generate(id, st)
		if err != nil {
			return answer.Answer{}, false, err
		}
		if next == nil {
			r.release(id)
			continue
		}
		r.push(id)
		r.push(r.alloc(next))
	}
}

func (r *resolver) generate(id stateID, st state) (state, error) {
	switch st := st.(type) {
	case *atomicState:
		return st.generate(r, id)
	case *ruleState:
		return st.generate(r, id)
	case *conjunctiveState:
		return st.generate(r, id)
	case *cumulativeState:
		return st.generate(r, id)
	default:
		log.Panicf("Unexpected state type %T", st)
		return nil, nil
	}
}

func (r *resolver) propagate(id stateID, a *answerState) (state, error) {
	switch st := r.arena[id].(type) {
	case *atomicState:
		return st.propagate(r, a)
	case *ruleState:
		return st.propagate(r, a)
	case *conjunctiveState:
		return st.propagate(r, a)
	case *cumulativeState:
		return st.propagate(r, a)
	default:
		log.Panicf("Unexpected parent state type %T", st)
		return nil, nil
	}
}

// returnAnswer projects an answer to the root query onto its user-named
// variables. It returns false if the projected answer was already returned.
func (r *resolver) returnAnswer(a answer.Answer) (answer.Answer, bool) {
	a = a.Project(r.root.AnswerVars())
	key := cmp.GetKey(a)
	if _, dup := r.returned[key]; dup {
		return answer.Answer{}, false
	}
	r.returned[key] = struct{}{}
	r.stats.Answers++
	metrics.answersTotal.Inc()
	return a, true
}

// finish records the outcome of the run. It's called once.
func (r *resolver) finish(err error) {
	r.done = true
	r.err = err
	r.stats.Iterations = r.iteration
	r.stats.Steps = r.steps
	r.stats.IncompleteReads = r.incompleteReads
	r.stats.AnswerCacheEntries = r.answers.Len()
	r.stats.AnswerCacheAnswers = r.answers.Size()
	r.stats.StructuralHits = r.structural.Hits()
	r.stats.StructuralMisses = r.structural.Misses()
	r.stats.Elapsed = time.Since(r.started)
	r.arena, r.free, r.stack = nil, nil, nil
	metrics.stepsTotal.Add(float64(r.steps))
	metrics.iterations.Observe(float64(r.iteration))
	r.span.SetTag("answers", r.stats.Answers)
	if err != nil {
		r.span.SetTag("error", true)
		r.span.LogKV("event", "error", "message", err.Error())
	}
	r.span.Finish()
	entry := r.log.WithFields(log.Fields{
		"iterations": r.stats.Iterations,
		"steps":      r.stats.Steps,
		"answers":    r.stats.Answers,
		"elapsed":    r.stats.Elapsed,
	})
	if err != nil {
		entry.WithError(err).Debug("Resolution failed")
	} else {
		entry.Debug("Resolution done")
	}
}

// An Iterator returns the answers to a query as resolution finds them. It's
// not safe for concurrent use.
type Iterator struct {
	r *resolver
}

// Next returns the next answer. It returns false once there are no more
// answers or resolution failed; Err distinguishes the two.
func (it *Iterator) Next() (answer.Answer, bool) {
	r := it.r
	if r.done {
		return answer.Answer{}, false
	}
	a, ok, err := r.next()
	if !ok {
		r.finish(err)
	}
	return a, ok
}

// Err returns the error that stopped resolution, if any.
func (it *Iterator) Err() error {
	return it.r.err
}

// Close stops resolution early. It's safe to call Close more than once and
// after the iterator is exhausted.
func (it *Iterator) Close() {
	if !it.r.done {
		it.r.finish(nil)
	}
}

// Stats returns statistics about the run so far.
func (it *Iterator) Stats() Stats {
	r := it.r
	if r.done {
		return r.stats
	}
	s := r.stats
	s.Iterations = r.iteration
	s.Steps = r.steps
	s.IncompleteReads = r.incompleteReads
	s.AnswerCacheEntries = r.answers.Len()
	s.AnswerCacheAnswers = r.answers.Size()
	s.StructuralHits = r.structural.Hits()
	s.StructuralMisses = r.structural.Misses()
	s.Elapsed = time.Since(r.started)
	return s
}

// Collect drains the iterator and returns all its answers.
func Collect(it *Iterator) ([]answer.Answer, error) {
	defer it.Close()
	var res []answer.Answer
	for a, ok := it.Next(); ok; a, ok = it.Next() {
		res = append(res, a)
	}
	return res, it.Err()
}
