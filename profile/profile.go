package profile

// Stopper ends an active profiling session.
type Stopper interface{ Stop() }

// Profiler describes a profiling session.
// The zero value disables profiling.
type Profiler struct {
	// Mode is one of [Modes]. Unknown or empty modes disable profiling.
	Mode string
	// Path is the output directory. Empty uses the library default.
	Path string
	// Quiet suppresses the library's own start and stop messages.
	Quiet bool
}

// Enabled reports whether p names a mode supported by this build.
func (p Profiler) Enabled() bool {
	if p.Mode == "" {
		return false
	}

	for _, m := range Modes() {
		if m == p.Mode {
			return true
		}
	}

	return false
}

// Start begins profiling and returns the [Stopper] that ends it.
// Both Start and Stop are always safely callable.
func (p Profiler) Start() Stopper {
	if !p.Enabled() {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
