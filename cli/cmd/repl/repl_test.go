package repl

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Wafelack/mess/lang"
	"github.com/Wafelack/mess/log"
)

func newTestModel(t *testing.T) (model, *lang.Evaluator) {
	t.Helper()

	ev := newSession(t, "")
	h := NewHistory(filepath.Join(t.TempDir(), baseHistory))

	return newModel(context.Background(), ev, h, log.Logger{}), ev
}

func typeText(m model, text string) model {
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})

	return m
}

func press(m model, key tea.KeyType) model {
	m, _ = m.handleKey(tea.KeyMsg{Type: key})

	return m
}

func TestModel_EvaluateKeepsSession(t *testing.T) {
	m, ev := newTestModel(t)

	m = press(typeText(m, "(let x 4)"), tea.KeyEnter)
	m = press(typeText(m, "#nope"), tea.KeyEnter)
	m = press(typeText(m, "(defun (sq n) (* #n #n))"), tea.KeyEnter)

	if m.input.Value() != "" {
		t.Errorf("input = %q after submit, want empty", m.input.Value())
	}

	v, err := ev.EvalString(context.Background(), "(sq #x)")
	if err != nil || !lang.Equal(v, lang.Number(16)) {
		t.Errorf("(sq #x) = %v, %v", v, err)
	}

	if got := m.history.Len(); got != 3 {
		t.Errorf("history has %d entries, want 3", got)
	}
}

func TestModel_History(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(typeText(m, "1"), tea.KeyEnter)
	m = press(typeText(m, "2"), tea.KeyEnter)

	m = press(m, tea.KeyUp)
	if got := m.input.Value(); got != "2" {
		t.Errorf("after up input = %q, want 2", got)
	}

	m = press(m, tea.KeyUp)
	m = press(m, tea.KeyUp)
	if got := m.input.Value(); got != "1" {
		t.Errorf("after up at oldest input = %q, want 1", got)
	}

	m = press(m, tea.KeyDown)
	m = press(m, tea.KeyDown)
	if got := m.input.Value(); got != "" || m.historyIdx != m.history.Len() {
		t.Errorf("after down past newest input = %q idx = %d", got, m.historyIdx)
	}

	if !strings.Contains(m.hintLine(), "s-expression") {
		t.Errorf("hint line = %q", m.hintLine())
	}
}

func TestModel_ControlMode(t *testing.T) {
	m, _ := newTestModel(t)

	m = typeText(m, "(draft")
	m = press(m, tea.KeyEsc)

	if m.mode != modeCtrl || m.input.Value() != "" {
		t.Fatalf("mode = %v input = %q after Esc", m.mode, m.input.Value())
	}

	m = press(m, tea.KeyEsc)
	if m.mode != modeEval || m.input.Value() != "(draft" {
		t.Fatalf("mode = %v input = %q after second Esc", m.mode, m.input.Value())
	}

	m = press(m, tea.KeyEsc)
	m = press(typeText(m, "quit"), tea.KeyEnter)

	if !m.quitting {
		t.Error("quit did not stop the model")
	}

	if m.View() != "" {
		t.Errorf("View() = %q after quit", m.View())
	}
}

func TestModel_Completion(t *testing.T) {
	m, _ := newTestModel(t)

	m = typeText(m, "(unq")
	if len(m.matches) == 0 || m.matches[0].Str != "unquote" {
		t.Fatalf("matches = %v, want unquote first", m.matches)
	}

	m = press(m, tea.KeyTab)
	if got := m.input.Value(); got != "(unquote" {
		t.Errorf("after tab input = %q, want (unquote", got)
	}
}

func TestModel_SignatureHint(t *testing.T) {
	m, _ := newTestModel(t)

	m = typeText(m, "(getenv ")
	if hint := m.hintLine(); !strings.Contains(hint, "name") {
		t.Errorf("hint line = %q, want getenv's parameter", hint)
	}
}

func TestModel_ListSession(t *testing.T) {
	m, ev := newTestModel(t)

	if got := m.listSession(); !strings.Contains(got, "empty session") {
		t.Errorf("listSession() = %q", got)
	}

	if _, err := ev.EvalString(context.Background(), `(let greeting "hi") (defun (f a) #a)`); err != nil {
		t.Fatal(err)
	}

	got := m.listSession()
	for _, want := range []string{"#greeting", "hi", "f", "(f a)"} {
		if !strings.Contains(got, want) {
			t.Errorf("listSession() = %q, missing %q", got, want)
		}
	}
}
