package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func resolveFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	val, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", name, err)
	}

	return val
}

func TestResolve_Keys(t *testing.T) {
	const doc = `
log-level: debug
log_format: json
log:
  pretty: false
  time:
    layout: kitchen
max-depth: 50
ratio: 1.5
strict-brackets: true
tags: [a, 2]
`

	r, err := resolve(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log-format", "json"},
		{"log-pretty", false},
		{"log-time-layout", "kitchen"},
		{"max-depth", "50"},
		{"ratio", "1.5"},
		{"strict-brackets", true},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			if got := resolveFlag(t, r, tt.flag); got != tt.want {
				t.Errorf("Resolve(%q) = %#v, want %#v", tt.flag, got, tt.want)
			}
		})
	}

	tags, ok := resolveFlag(t, r, "tags").([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" || tags[1] != "2" {
		t.Errorf("Resolve(tags) = %#v", tags)
	}
}

func TestResolve_Empty(t *testing.T) {
	r, err := resolve(strings.NewReader(""))
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}

	if got := resolveFlag(t, r, "log-level"); got != nil {
		t.Errorf("Resolve() = %v, want nil", got)
	}
}

func TestResolve_Invalid(t *testing.T) {
	if _, err := resolve(strings.NewReader("log-level: [unclosed")); err == nil {
		t.Error("resolve() error = nil, want YAML error")
	}
}

func TestResolve_WithKong(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseConfig)

	doc := "level: warn\nexternal: false\ndepth: 7\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	var cli struct {
		Level    string `default:"info"`
		External bool   `default:"true" negatable:""`
		Depth    int    `default:"100"`
	}

	parser, err := kong.New(&cli, kong.Configuration(resolve, path))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"--depth=9"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cli.Level != "warn" {
		t.Errorf("Level = %q, want warn", cli.Level)
	}

	if cli.External {
		t.Error("External = true, want false from config")
	}

	if cli.Depth != 9 {
		t.Errorf("Depth = %d, want command line to override config", cli.Depth)
	}
}
