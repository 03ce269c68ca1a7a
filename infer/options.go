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
	"github.com/pluraliseseverythings/grakn-sub001/config"
)

// Options control a resolution run.
type Options struct {
	// Infer enables rule application. When false, queries are answered by
	// direct lookups only.
	Infer bool
	// Materialise writes every rule-derived fact to the graph. The graph
	// must implement graph.Writer.
	Materialise bool
	// MaxIterations bounds the number of passes over a recursive rule set.
	MaxIterations int
	// MaxResolutionSteps bounds the number of state transitions.
	MaxResolutionSteps int
	// StructuralCacheSize is the capacity of the compiled plan cache.
	StructuralCacheSize int
	// Parallelism bounds the number of queries ResolveAll runs at once.
	Parallelism int
}

// DefaultOptions returns options with inference on and materialisation off.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig returns the options described by 'cfg'. Unset fields
// take their defaults.
func OptionsFromConfig(cfg *config.Reasoner) Options {
	c := *cfg
	c.ApplyDefaults()
	return Options{
		Infer:               c.InferEnabled(),
		Materialise:         c.Materialise,
		MaxIterations:       c.MaxIterations,
		MaxResolutionSteps:  c.MaxResolutionSteps,
		StructuralCacheSize: c.StructuralCacheSize,
		Parallelism:         c.Parallelism,
	}
}

func (opts Options) withDefaults() Options {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = config.DefaultMaxIterations
	}
	if opts.MaxResolutionSteps <= 0 {
		opts.MaxResolutionSteps = config.DefaultMaxResolutionSteps
	}
	if opts.StructuralCacheSize <= 0 {
		opts.StructuralCacheSize = config.DefaultStructuralCacheSize
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = config.DefaultParallelism
	}
	return opts
}
