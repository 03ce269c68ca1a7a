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

// Package tracing starts opentracing spans that also report their duration to
// a Prometheus metric. Spans go to the global tracer, which is a no-op unless
// a program installs a real one with opentracing.SetGlobalTracer.
package tracing

import (
	"context"
	"strings"
	"sync"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric is a Prometheus metric that takes observations, such as a Summary or
// a Histogram.
type Metric interface {
	prometheus.Metric
	Observe(float64)
}

// StartSpan starts a span using the global tracer, as a child of the span in
// ctx if there is one. If metric is not nil, the span's duration in seconds
// is observed on it when the span finishes. The returned context holds the
// new span.
func StartSpan(ctx context.Context, operationName string, metric Metric,
	opts ...opentracing.StartSpanOption) (opentracing.Span, context.Context) {
	return StartSpanWithTracer(ctx, opentracing.GlobalTracer(), operationName, metric, opts...)
}

// StartSpanWithTracer is like StartSpan but uses the given tracer.
func StartSpanWithTracer(ctx context.Context, tracer opentracing.Tracer, operationName string,
	metric Metric, opts ...opentracing.StartSpanOption) (opentracing.Span, context.Context) {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, tracer, operationName, opts...)
	if metric == nil {
		return span, ctx
	}
	UpdateMetric(span, metric)
	return &meteredSpan{Span: span, start: time.Now(), metric: metric}, ctx
}

// UpdateMetric tags the span with the name of the metric its duration is
// reported to.
func UpdateMetric(span opentracing.Span, metric Metric) {
	span.SetTag("metric", stringableMetric{metric})
}

type meteredSpan struct {
	opentracing.Span
	start  time.Time
	metric Metric
	once   sync.Once
}

func (s *meteredSpan) Finish() {
	s.FinishWithOptions(opentracing.FinishOptions{})
}

func (s *meteredSpan) FinishWithOptions(opts opentracing.FinishOptions) {
	s.once.Do(func() {
		if opts.FinishTime.IsZero() {
			opts.FinishTime = time.Now()
		}
		s.metric.Observe(opts.FinishTime.Sub(s.start).Seconds())
	})
	s.Span.FinishWithOptions(opts)
}

type stringableMetric struct {
	Metric
}

func (metric stringableMetric) String() string {
	// Desc doesn't seem to have a way to extract the name.
	// Its Stringer outputs like this:
	//   Desc{fqName: %q, help: %q, constLabels: {%s}, variableLabels: %v}
	s := metric.Desc().String()
	s = strings.TrimPrefix(s, `Desc{fqName: "`)
	i := strings.IndexByte(s, '"')
	if i < 0 {
		return ""
	}
	return s[:i]
}
