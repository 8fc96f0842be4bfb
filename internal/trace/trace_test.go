package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelOff, false},
		{"Phase", LevelPhase, false},
		{" debug ", LevelDebug, false},
		{"error", LevelError, false},
		{"verbose", LevelOff, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelError, ScopeCommand, false},
		{LevelPhase, ScopeStage, true},
		{LevelPhase, ScopeModule, false},
		{LevelDetail, ScopeModule, true},
		{LevelDetail, ScopeElement, false},
		{LevelDebug, ScopeElement, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%v.ShouldEmit(%v) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestStreamTracer_Text(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	ctx := WithTracer(context.Background(), tr)

	ctx, s := Start(ctx, ScopeStage, "index.build")
	Point(ctx, ScopeModule, "module", "test_module")
	_, inner := Start(ctx, ScopeElement, "element")
	inner.End("")
	s.WithExtra("modules", "1").End("ok")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "→ index.build") {
		t.Errorf("begin line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "• module (test_module)") {
		t.Errorf("point line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "← index.build (ok)") || !strings.Contains(lines[2], "modules=1") {
		t.Errorf("end line = %q", lines[2])
	}
}

func TestStreamTracer_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelError, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	_, s := Start(ctx, ScopeStage, "store.read")
	s.End("")
	Failure(ctx, "store.read", errors.New("boom"))
	Failure(ctx, "store.read", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want only the failure:\n%s", len(lines), buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("invalid json %q: %v", lines[0], err)
	}
	if ev["kind"] != "failure" || ev["detail"] != "boom" {
		t.Errorf("event = %v", ev)
	}
}

func TestRingTracer_Wraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeElement, Name: name})
	}
	snap := r.Snapshot()
	if len(snap) != 3 || r.Len() != 3 {
		t.Fatalf("snapshot len = %d, Len = %d", len(snap), r.Len())
	}
	for i, want := range []string{"c", "d", "e"} {
		if snap[i].Name != want {
			t.Errorf("snap[%d] = %q, want %q", i, snap[i].Name, want)
		}
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Errorf("dump = %q", buf.String())
	}
}

func TestMultiTracer_SharesSeq(t *testing.T) {
	a := NewRingTracer(8, LevelDebug)
	b := NewRingTracer(8, LevelDebug)
	m := NewMultiTracer(LevelDebug, a, b)
	m.Emit(&Event{Kind: KindPoint, Scope: ScopeStage, Name: "x"})
	sa, sb := a.Snapshot(), b.Snapshot()
	if len(sa) != 1 || len(sb) != 1 || sa[0].Seq != sb[0].Seq {
		t.Fatalf("snapshots = %v / %v", sa, sb)
	}
	if r, ok := m.Ring(); !ok || r != a {
		t.Errorf("Ring() = %v, %v", r, ok)
	}
}

func TestNew(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr != Nop {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*MultiTracer); !ok {
		t.Fatalf("New(both) = %T", tr)
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Errorf("ParseMode accepted an invalid mode")
	}
	if f, err := ParseFormat("jsonl"); err != nil || f != FormatNDJSON {
		t.Errorf("ParseFormat(jsonl) = %v, %v", f, err)
	}
}

func TestFromContext_Default(t *testing.T) {
	//nolint:staticcheck
	if FromContext(nil) != Nop || FromContext(context.Background()) != Nop {
		t.Fatal("missing tracer did not default to Nop")
	}
	s := Begin(Nop, ScopeStage, "x", 0)
	if s.ID() != 0 {
		t.Errorf("inert span has id %d", s.ID())
	}
	if s.End("") < 0 {
		t.Errorf("negative duration")
	}
}

func TestContext_TracerAndSpanTravelTogether(t *testing.T) {
	if FromContext(nil) != Nop || CurrentSpan(context.Background()) != (SpanContext{}) {
		t.Fatalf("empty context should yield Nop and no span")
	}
	r := NewRingTracer(8, LevelDebug)
	ctx := WithSpanContext(context.Background(), SpanContext{SpanID: 7, GID: 1})
	ctx = WithTracer(ctx, r)
	if CurrentSpan(ctx).SpanID != 7 {
		t.Errorf("WithTracer dropped the active span")
	}
	ctx = WithSpanContext(ctx, SpanContext{SpanID: 9})
	if FromContext(ctx) != Tracer(r) {
		t.Errorf("WithSpanContext dropped the tracer")
	}
	if FromContext(WithTracer(ctx, nil)) != Nop {
		t.Errorf("nil tracer should become Nop")
	}
}

func TestHeartbeat(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("heartbeat started for a disabled tracer")
	}
	r := NewRingTracer(64, LevelError)
	h := StartHeartbeat(r, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for r.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	snap := r.Snapshot()
	if len(snap) == 0 {
		t.Fatalf("no heartbeat within deadline")
	}
	if snap[0].Kind != KindHeartbeat || snap[0].Detail != "#1" {
		t.Errorf("first heartbeat = %+v", snap[0])
	}
	var stopped *Heartbeat
	stopped.Stop()
}
