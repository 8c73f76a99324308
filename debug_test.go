package arbor

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}

func withDebug(t *testing.T) {
	t.Helper()
	SetDebugMode(true)
	t.Cleanup(func() { SetDebugMode(false) })
}

func TestDebugRootDisposePanics(t *testing.T) {
	withDebug(t)
	dl := NewDisplayList(NewRecordingBackend())
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic disposing a session root")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, "root") {
			t.Errorf("panic message = %q", msg)
		}
	}()
	dl.Root().Dispose()
}

func TestRootDisposeIgnoredOutsideDebug(t *testing.T) {
	dl := NewDisplayList(NewRecordingBackend())
	dl.Root().Dispose()
	if dl.Root().IsDisposed() {
		t.Error("session root was disposed")
	}
}

func TestDebugWarnsOnDeepTree(t *testing.T) {
	withDebug(t)
	buf := captureLog(t)
	n := NewLayer("n0")
	for i := 1; i <= debugMaxTreeDepth+1; i++ {
		c := NewLayer(fmt.Sprintf("n%d", i))
		n.AddChild(c)
		n = c
	}
	if !strings.Contains(buf.String(), "tree depth exceeds threshold") {
		t.Errorf("no depth warning logged:\n%s", buf.String())
	}
}

func TestDebugLogsFrames(t *testing.T) {
	withDebug(t)
	buf := captureLog(t)
	rb := NewRecordingBackend()
	dl := NewDisplayList(rb, WithRenderMode(RenderPartial))
	dl.Root().AddChild(NewSolidLayer("n", 4, 4, colorRed))
	dl.Render(mustSurface(t, rb, 16, 16), true)
	out := buf.String()
	if !strings.Contains(out, "msg=frame") || !strings.Contains(out, "mode=partial") {
		t.Errorf("frame stats not logged:\n%s", out)
	}
}

func TestLoggerSilentByDefault(t *testing.T) {
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger should discard everything")
	}
}

func TestAllocFailureWarns(t *testing.T) {
	buf := captureLog(t)
	rb := NewRecordingBackend()
	target := mustSurface(t, rb, 16, 16)
	rb.MaxSurfaces = 1
	dl := NewDisplayList(rb, WithRenderMode(RenderPartial))
	dl.Render(target, true)
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("allocation failure not logged:\n%s", buf.String())
	}
}
