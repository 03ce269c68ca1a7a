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

package logic

import "errors"

// ErrInvalidQuery is returned for queries that can't be resolved: empty
// queries, queries that are not atomic where an atomic query is required, and
// malformed rules.
var ErrInvalidQuery = errors.New("invalid query")

// ErrUnboundVariable is returned when a predicate references a variable that
// no atom of the query binds.
var ErrUnboundVariable = errors.New("unbound variable")
