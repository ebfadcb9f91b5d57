package defaults

import (
	"io"
	"os"

	e "github.com/pkg/errors"
	"github.com/sahib/config"
)

// CurrentVersion is the version the config layout currently has.
// Configs on disk get migrated to this version when opened.
const CurrentVersion = 0

// Defaults are the defaults of the current layout version.
var Defaults = DefaultsV0

func migrater() *config.Migrater {
	// Newer layout versions register here, oldest first.
	mgr := config.NewMigrater(CurrentVersion, config.StrictnessPanic)
	mgr.Add(0, nil, DefaultsV0)
	return mgr
}

func decodeMigrated(r io.Reader) (*config.Config, error) {
	cfg, err := migrater().Migrate(config.NewYamlDecoder(r))
	if err != nil {
		return nil, e.Wrap(err, "failed to migrate")
	}

	return cfg, nil
}

// OpenMigratedConfig reads the config.yml at `path` and migrates it to
// the newest layout. Callers can rely on all current keys to exist
// afterwards.
func OpenMigratedConfig(path string) (*config.Config, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, e.Wrap(err, "failed to open config")
	}

	defer fd.Close()

	return decodeMigrated(fd)
}
