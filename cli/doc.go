// Package cli contains the command line interface for mess.
//
// # Usage
//
//	mess [flags] [run] [file ...] [-e expr ...]
//	mess repl
//	mess fmt {native|json|yaml} [file]
//	mess init [--force]
//
// Without a subcommand, mess evaluates the given files; with no files and no
// expressions it starts the interactive session.
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory (for example ~/.config/mess/config.yaml). Keys are long flag
// names; nested mappings join with '-':
//
//	log:
//	  level: debug
//	  pretty: false
//	external: false
//
// "mess init" writes the current flag values to that file.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: output format (text, json)
//   - --log-time-layout: timestamp layout (rfc3339, kitchen, none, ...)
//   - --[no-]log-caller: include caller information
//   - --[no-]log-pretty: colorize output
//
// # Interpreter Options
//
//   - --strict-brackets: end identifiers at '[' and ']'
//   - --[no-]external: run unknown calls as external commands
//   - --max-depth: maximum procedure call depth
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: enable profiling (cpu, heap, allocs, ...)
//   - --pprof-dir: profile output directory (default ~/.cache/mess/pprof)
package cli
