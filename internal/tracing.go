// Copyright 2026 The SafeTrack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"context"
	"runtime/trace"

	"github.com/opentracing/opentracing-go"
)

// Trace pairs a runtime/trace task or region with an opentracing span, so
// that one call shows up in both `go tool trace` and Jaeger.
type Trace struct {
	span   opentracing.Span
	region *trace.Region
	task   *trace.Task
}

func StartTask(inCtx context.Context, name string) (Trace, context.Context) {
	ctx, task := trace.NewTask(inCtx, name)
	span, ctx := opentracing.StartSpanFromContext(ctx, name)
	return Trace{
		span: span,
		task: task,
	}, ctx
}

func StartRegion(inCtx context.Context, name string) (Trace, context.Context) {
	region := trace.StartRegion(inCtx, name)
	span, ctx := opentracing.StartSpanFromContext(inCtx, name)
	return Trace{
		span:   span,
		region: region,
	}, ctx
}

func (t Trace) Span() opentracing.Span {
	return t.span
}

func (t Trace) SetTag(key string, value any) {
	t.span.SetTag(key, value)
}

func (t Trace) StopSpan() {
	t.span.Finish()
}

func (t Trace) EndRegion() {
	t.region.End()
	if t.span != nil {
		t.span.Finish()
	}
}

func (t Trace) EndTask() {
	t.task.End()
	if t.span != nil {
		t.span.Finish()
	}
}

// End finishes whichever of the region or task was started.
func (t Trace) End() {
	switch {
	case t.region != nil:
		t.EndRegion()
	case t.task != nil:
		t.EndTask()
	default:
		t.StopSpan()
	}
}
