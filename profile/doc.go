// Package profile provides optional runtime profiling for the mess
// interpreter.
//
// Profiling is backed by [github.com/pkg/profile] and must be enabled at build
// time using the "pprof" build tag:
//
//	go build -tags pprof .
//
// Without the tag, [Profiler.Start] always returns a no-op stopper and
// [Modes] is empty, so callers never need their own build constraints.
//
// # Usage
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/mess-pprof"}
//	defer p.Start().Stop()
//
// Profile files are written to Path with names matching the mode
// (cpu.pprof, mem.pprof, and so on). Inspect them with go tool pprof:
//
//	go tool pprof -http=: /tmp/mess-pprof/cpu.pprof
//
// When built with the tag, the package also imports [net/http/pprof] for
// its handler registration side effect.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
