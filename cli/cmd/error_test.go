package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"testing"
)

func TestError(t *testing.T) {
	base := NewError("base")
	withAttr := base.With(slog.String("k", "v"))
	wrapped := withAttr.Wrap(fs.ErrNotExist)

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"with matches sentinel", withAttr, base, true},
		{"wrap matches sentinel", wrapped, base, true},
		{"wrap matches cause", wrapped, fs.ErrNotExist, true},
		{"different message", wrapped, ErrFormat, false},
		{"empty message", NewError(""), NewError(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
			}
		})
	}

	if got := wrapped.Error(); got != "base: file does not exist" {
		t.Errorf("Error() = %q", got)
	}

	if len(base.attrs) != 0 {
		t.Errorf("With modified the receiver: %v", base.attrs)
	}
}
