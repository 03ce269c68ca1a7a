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

// Package parallel runs functions concurrently.
package parallel

import "context"

// Invoke calls each function concurrently and waits for them all to return.
// It returns the first error encountered, if any. Once a function returns an
// error, the context passed to the others is canceled.
func Invoke(ctx context.Context, calls ...func(ctx context.Context) error) error {
	return InvokeN(ctx, len(calls),
		func(ctx context.Context, i int) error {
			return calls[i](ctx)
		})
}

// InvokeN calls 'call' concurrently with each i in [0, n) and waits for them
// all to return. It returns the first error encountered, if any. Once a call
// returns an error, the context passed to the others is canceled.
func InvokeN(ctx context.Context, n int, call func(ctx context.Context, i int) error) error {
	return InvokeLimit(ctx, n, n, call)
}

// InvokeLimit is like InvokeN but runs at most 'limit' calls at once. A limit
// of zero or less means no limit. Calls that haven't started when the context
// is canceled aren't made.
func InvokeLimit(ctx context.Context, n, limit int, call func(ctx context.Context, i int) error) error {
	if limit <= 0 || limit > n {
		limit = n
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sem := make(chan struct{}, limit)
	ch := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				ch <- ctx.Err()
				return
			}
			defer func() { <-sem }()
			ch <- call(ctx, i)
		}(i)
	}
	var firstErr error
	for i := 0; i < n; i++ {
		err := <-ch
		if err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}
