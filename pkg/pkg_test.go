package pkg

import (
	"os"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	expected := "mess"
	if Name != expected {
		t.Errorf("Expected Name to be %q, got %q", expected, Name)
	}
}

func TestDescription(t *testing.T) {
	if Description == "" {
		t.Error("Expected a non-empty Description")
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version() != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version())
	}
}

func TestErrorChain(t *testing.T) {
	err := ErrReadSource.Wrapf("open %s", "x.mess")

	if got, want := err.Error(), "failed to read source: open x.mess"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if len(err.Unwrap()) != 2 {
		t.Errorf("expected 2 chained errors, got %d", len(err.Unwrap()))
	}

	if MakeError() != nil {
		t.Error("expected nil Error from empty MakeError")
	}
}
