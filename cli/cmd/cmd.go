package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Wafelack/mess/pkg"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the parser's standard output, or os.Stdout outside kong.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// kongVar returns the kong variable with the given name.
func kongVar(ctx context.Context, name string) (string, bool) {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return "", false
	}

	v, ok := ktx.Model.Vars()[name]

	return v, ok
}

// stdinSource is the special source name for reading from stdin.
const stdinSource = "-"

// source is one named program input.
type source struct {
	name string
	io.Reader
}

// fileKey uniquely identifies a file by its device and inode numbers, so
// that one file reached through symlinks or different relative paths is
// read once.
type fileKey struct {
	dev uint64
	ino uint64
}

// openSources opens the given paths in order, skipping duplicates. Every
// occurrence of "-" refers to a single stdin source, placed last so that it
// reads after all regular files. The returned function closes the files.
func openSources(paths []string) ([]source, func() error, error) {
	var (
		srcs   []source
		files  []*os.File
		stdin  bool
		seen   = make(map[fileKey]struct{})
		closer = func() error {
			var errs []error
			for _, f := range files {
				errs = append(errs, f.Close())
			}

			return errors.Join(errs...)
		}
	)

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, stdinOK := makeFileKey(stdinInfo)

	for _, path := range paths {
		if path == stdinSource {
			stdin = true

			continue
		}

		key, ok, err := statKey(path)
		if err != nil {
			_ = closer()

			return nil, nil, pkg.ErrReadSource.Wrap(err)
		}

		if ok {
			if stdinOK && key == stdinKey {
				stdin = true

				continue
			}

			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		f, err := os.Open(path)
		if err != nil {
			_ = closer()

			return nil, nil, pkg.ErrReadSource.Wrap(err)
		}

		files = append(files, f)
		srcs = append(srcs, source{name: path, Reader: f})
	}

	if stdin {
		srcs = append(srcs, source{name: "<stdin>", Reader: os.Stdin})
	}

	return srcs, closer, nil
}

// readSource reads all of src.
func readSource(src source) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", pkg.ErrReadSource.Wrapf("read %s", src.name).Wrap(err)
	}

	return string(data), nil
}

// statKey resolves path and returns its file key. ok is false when the
// platform provides no device and inode numbers.
func statKey(path string) (key fileKey, ok bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return key, false, err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return key, false, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return key, false, err
	}

	key, ok = makeFileKey(info)

	return key, ok, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
