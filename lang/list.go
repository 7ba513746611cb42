package lang

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ListOptions selects what a [Lister] reports.
type ListOptions struct {
	// Hidden includes entries whose names begin with '.'.
	Hidden bool
	// Mode adds a "mode" column with octal permission bits.
	Mode bool
}

// Lister produces a directory listing as a [Table] with columns
// name, type and size, plus mode when requested.
type Lister interface {
	List(ctx context.Context, path string, opts ListOptions) (Table, error)
}

// FSLister lists directories of an [fs.FS]. A nil FS lists the host file
// system, resolving relative paths against the process working directory.
// Paths given to a non-nil FS must be valid [fs.ValidPath] names.
type FSLister struct {
	FS fs.FS
}

// List implements [Lister].
func (l FSLister) List(
	_ context.Context,
	path string,
	opts ListOptions,
) (Table, error) {
	fail := ErrDirectoryListFailure.With(slog.String("path", path))

	info, err := l.stat(path)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Table{}, fail.Wrap(errors.New("not found"))
	case err != nil:
		return Table{}, fail.Wrap(err)
	case !info.IsDir():
		return Table{}, fail.Wrap(errors.New("not a directory"))
	}

	entries, err := l.readDir(path)
	if err != nil {
		return Table{}, fail.Wrap(err)
	}

	columns := []string{"name", "type", "size"}
	if opts.Mode {
		columns = append(columns, "mode")
	}

	rows := make([][]Value, 0, len(entries))

	for _, entry := range entries {
		if !opts.Hidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return Table{}, fail.Wrap(err)
		}

		kind := "file"
		if entry.IsDir() {
			kind = "directory"
		}

		row := []Value{
			String(entry.Name()),
			String(kind),
			String(HumanSize(info.Size())),
		}

		if opts.Mode {
			row = append(row, String(strconv.FormatUint(uint64(info.Mode().Perm()), 8)))
		}

		rows = append(rows, row)
	}

	return NewTable(columns, rows)
}

func (l FSLister) stat(path string) (fs.FileInfo, error) {
	if l.FS == nil {
		return os.Stat(path)
	}

	return fs.Stat(l.FS, path)
}

func (l FSLister) readDir(path string) ([]fs.DirEntry, error) {
	if l.FS == nil {
		return os.ReadDir(path)
	}

	return fs.ReadDir(l.FS, path)
}

// HumanSize formats a byte count with decimal units: B, kB, MB or GB.
func HumanSize(size int64) string {
	const (
		kilo = 1_000
		mega = 1_000_000
		giga = 1_000_000_000
	)

	switch {
	case size > giga:
		return strconv.FormatFloat(float64(size)/giga, 'f', 1, 32) + "GB"
	case size > mega:
		return strconv.FormatFloat(float64(size)/mega, 'f', 1, 32) + "MB"
	case size > kilo:
		return strconv.FormatFloat(float64(size)/kilo, 'f', 1, 32) + "kB"
	default:
		return strconv.FormatInt(size, 10) + "B"
	}
}
