// Package trace records what pmeta is doing while it reads, indexes and
// writes module metadata.
//
// Events are emitted through a Tracer carried in a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "index.build", 0)
//	defer span.End("")
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: failures only
//   - LevelPhase: commands and stages (index build, store write)
//   - LevelDetail: per-module events
//   - LevelDebug: per-element events
//
// # Tracers
//
//   - Nop: disabled tracing
//   - StreamTracer: writes each event as it happens (text or ndjson)
//   - RingTracer: keeps the last N events for dumping after a failure
//   - MultiTracer: fans out to several tracers
package trace
