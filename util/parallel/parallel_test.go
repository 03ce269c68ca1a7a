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

package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func Test_Invoke(t *testing.T) {
	var a, b int32
	err := Invoke(context.Background(),
		func(context.Context) error { atomic.StoreInt32(&a, 1); return nil },
		func(context.Context) error { atomic.StoreInt32(&b, 2); return nil })
	assert.NoError(t, err)
	assert.Equal(t, int32(1), a)
	assert.Equal(t, int32(2), b)
	assert.NoError(t, Invoke(context.Background()))
}

func Test_InvokeN_firstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	err := InvokeN(context.Background(), 3, func(ctx context.Context, i int) error {
		if i == 1 {
			return boom
		}
		<-ctx.Done()
		return ctx.Err()
	})
	assert.Equal(t, boom, err)
}

func Test_InvokeLimit(t *testing.T) {
	var running, peak int32
	results := make([]int, 20)
	err := InvokeLimit(context.Background(), 20, 3, func(ctx context.Context, i int) error {
		now := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		results[i] = i * i
		atomic.AddInt32(&running, -1)
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, peak <= 3, "peak: %v", peak)
	for i, r := range results {
		assert.Equal(t, i*i, r)
	}
}

func Test_InvokeLimit_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int32
	err := InvokeLimit(ctx, 5, 1, func(ctx context.Context, i int) error {
		atomic.AddInt32(&calls, 1)
		return ctx.Err()
	})
	assert.Equal(t, context.Canceled, err)
}
