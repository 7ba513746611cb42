package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogger_Make_DefaultConfiguration(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf)

	if logger.Level() != LevelInfo {
		t.Errorf("expected default level info, got %v", logger.Level())
	}
	if logger.caller {
		t.Error("expected caller disabled by default")
	}
	if logger.Format() != FormatText {
		t.Errorf("expected default format text, got %v", logger.Format())
	}
	if !logger.pretty {
		t.Error("expected pretty enabled by default")
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var logger Logger

	// Must not panic.
	logger.Info("ignored")
	logger.TraceContext(context.Background(), "ignored")

	if logger.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", logger.Level(), DefaultLevel)
	}
	if logger.Enabled(context.Background(), LevelError) {
		t.Error("zero logger reports enabled")
	}
}

func TestLogger_WithLevel_FiltersMessages(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		log     func(Logger)
		written bool
	}{
		{"trace at trace", LevelTrace, func(l Logger) { l.Trace("m") }, true},
		{"trace at debug", LevelDebug, func(l Logger) { l.Trace("m") }, false},
		{"debug at debug", LevelDebug, func(l Logger) { l.Debug("m") }, true},
		{"info at error", LevelError, func(l Logger) { l.Info("m") }, false},
		{"warn at warn", LevelWarn, func(l Logger) { l.Warn("m") }, true},
		{"error at error", LevelError, func(l Logger) { l.Error("m") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(Make(&buf, WithLevel(tt.level)))

			if got := buf.Len() > 0; got != tt.written {
				t.Errorf("written = %v, want %v (output %q)",
					got, tt.written, buf.String())
			}
		})
	}
}

func TestLogger_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf,
		WithLevel(LevelTrace),
		WithFormat(FormatJSON),
		WithPretty(false),
	)
	logger.Trace("step")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if rec[slog.LevelKey] != "TRACE" {
		t.Errorf("level = %v, want TRACE", rec[slog.LevelKey])
	}
}

func TestLogger_WithTimeLayout(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		check  func(string) bool
	}{
		{"rfc3339 named", "RFC3339", func(s string) bool {
			return strings.Contains(s, "time=") && strings.Contains(s, "T")
		}},
		{"kitchen named", "kitchen", func(s string) bool {
			return strings.Contains(s, "M ")
		}},
		{"none omits", "none", func(s string) bool {
			return !strings.Contains(s, "time=")
		}},
		{"blank omits", "   ", func(s string) bool {
			return !strings.Contains(s, "time=")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Make(&buf, WithTimeLayout(tt.layout), WithPretty(false))
			logger.Info("test")

			if !tt.check(buf.String()) {
				t.Errorf("unexpected output for layout %q: %s",
					tt.layout, buf.String())
			}
		})
	}
}

func TestLogger_WithCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithCaller(true), WithPretty(false))
	logger.Info("test message")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("expected caller to reference log_test.go, got: %s", buf.String())
	}
}

func TestLogger_With_AddsAttributes(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer
		logger := Make(&buf, WithPretty(pretty)).
			With(slog.String("procedure", "greet"))
		logger.Info("call", slog.Int("arity", 2))

		out := buf.String()
		for _, want := range []string{"procedure", "greet", "arity", "call"} {
			if !strings.Contains(out, want) {
				t.Errorf("pretty=%v: output missing %q: %s", pretty, want, out)
			}
		}
	}
}

func TestLogger_Wrap_PreservesConfiguration(t *testing.T) {
	var buf bytes.Buffer
	base := Make(&buf, WithLevel(LevelDebug), WithFormat(FormatJSON))
	wrapped := base.Wrap(WithPretty(false))

	if wrapped.Level() != LevelDebug {
		t.Errorf("Level() = %v, want debug", wrapped.Level())
	}
	if wrapped.Format() != FormatJSON {
		t.Errorf("Format() = %v, want json", wrapped.Format())
	}
	if !base.pretty {
		t.Error("Wrap mutated the base logger")
	}
}

func TestLogger_PrettyJSON_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatJSON))
	logger.Logger = slog.New(logger.Handler().WithGroup("eval"))
	logger.Info("step", slog.String("kind", "call"))

	if !strings.Contains(buf.String(), "eval.kind") {
		t.Errorf("expected grouped key eval.kind, got: %s", buf.String())
	}
}

func TestLogger_ConcurrentWrites(t *testing.T) {
	var (
		buf bytes.Buffer
		wg  sync.WaitGroup
	)

	logger := Make(&buf, WithPretty(true))

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			logger.Info("message", slog.Int("i", i))
		}()
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 16 {
		t.Errorf("expected 16 lines, got %d", n)
	}
}

func TestPackage_Config(t *testing.T) {
	saved := Default()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLog = saved
		defaultMu.Unlock()
	})

	var buf bytes.Buffer
	Config(WithOutput(&buf), WithLevel(LevelWarn), WithPretty(false))

	Info("hidden")
	Warn("shown", slog.String("k", "v"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "k=v") {
		t.Errorf("missing warn record: %s", out)
	}
}
