package cli

import (
	"path/filepath"

	"github.com/Wafelack/mess/pkg"
)

// configPath returns the path of the YAML configuration file.
func configPath() string {
	return filepath.Join(pkg.ConfigDir(), baseConfig)
}
