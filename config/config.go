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

// Package config defines the reasoner's configuration and its JSON file
// format.
package config

// Defaults for the Reasoner fields left unset.
const (
	DefaultMaxIterations       = 50
	DefaultMaxResolutionSteps  = 10000000
	DefaultStructuralCacheSize = 256
	DefaultParallelism         = 8
)

// Reasoner configures query resolution.
type Reasoner struct {
	// Infer enables rule application. When false, queries are answered by
	// direct lookups only. Unset means true.
	Infer *bool `json:"infer,omitempty"`
	// Materialise writes every fact derived by a rule back to the graph.
	Materialise bool `json:"materialise,omitempty"`
	// MaxIterations bounds the number of passes resolution makes over a
	// recursive rule set before failing.
	MaxIterations int `json:"maxIterations,omitempty"`
	// MaxResolutionSteps bounds the total number of resolution state
	// transitions of a single query.
	MaxResolutionSteps int `json:"maxResolutionSteps,omitempty"`
	// StructuralCacheSize is the number of compiled query plans kept.
	StructuralCacheSize int `json:"structuralCacheSize,omitempty"`
	// Parallelism is the number of queries resolved at once by a batch.
	Parallelism int `json:"parallelism,omitempty"`
	// Logging configures the command-line tools' log output.
	Logging *Logging `json:"logging,omitempty"`
}

// Logging configures log output.
type Logging struct {
	// Level is a logrus level name, like "info" or "debug".
	Level string `json:"level,omitempty"`
	// ForceColors colors log output even when it isn't a terminal.
	ForceColors bool `json:"forceColors,omitempty"`
}

// Default returns a configuration with every field set to its default.
func Default() *Reasoner {
	cfg := new(Reasoner)
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults replaces unset fields with their defaults.
func (cfg *Reasoner) ApplyDefaults() {
	if cfg.Infer == nil {
		infer := true
		cfg.Infer = &infer
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxResolutionSteps <= 0 {
		cfg.MaxResolutionSteps = DefaultMaxResolutionSteps
	}
	if cfg.StructuralCacheSize <= 0 {
		cfg.StructuralCacheSize = DefaultStructuralCacheSize
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}
}

// InferEnabled returns the value of Infer, which defaults to true.
func (cfg *Reasoner) InferEnabled() bool {
	return cfg.Infer == nil || *cfg.Infer
}
