package lang

import "os"

// Directory provides the process working directory and environment.
//
// Chdir on the default implementation changes the working directory of the
// whole process, not just of one evaluator.
type Directory interface {
	Getwd() (string, error)
	Chdir(path string) error
	LookupEnv(name string) (string, bool)
}

// OSDirectory implements [Directory] with the os package.
type OSDirectory struct{}

func (OSDirectory) Getwd() (string, error) { return os.Getwd() }

func (OSDirectory) Chdir(path string) error { return os.Chdir(path) }

func (OSDirectory) LookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}
