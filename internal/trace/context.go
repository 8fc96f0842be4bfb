package trace

import "context"

type ctxKey struct{}

// SpanContext identifies the active span for child spans and points.
type SpanContext struct {
	SpanID uint64
	GID    uint64
}

// ctxState travels under one key so tracer and active span are replaced together.
type ctxState struct {
	tracer Tracer
	span   SpanContext
}

func stateOf(ctx context.Context) ctxState {
	if ctx != nil {
		if st, ok := ctx.Value(ctxKey{}).(ctxState); ok {
			return st
		}
	}
	return ctxState{tracer: Nop}
}

func withState(ctx context.Context, st ctxState) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext returns the Tracer stored in ctx or Nop.
func FromContext(ctx context.Context) Tracer {
	if t := stateOf(ctx).tracer; t != nil {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx and keeps the active span; nil means Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	st := stateOf(ctx)
	st.tracer = t
	return withState(ctx, st)
}

// CurrentSpan returns the active span of ctx, zero if none.
func CurrentSpan(ctx context.Context) SpanContext { return stateOf(ctx).span }

func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	st := stateOf(ctx)
	st.span = sc
	return withState(ctx, st)
}
