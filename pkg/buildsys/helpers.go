package buildsys

import (
	"os"

	"github.com/rotisserie/eris"
)

// checkWorkDir makes sure path can be used as the working directory of the child processes.
func checkWorkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return eris.Wrapf(err, "failed to enter subproject directory %s", path)
	}

	if !info.IsDir() {
		return eris.Errorf("failed to enter subproject directory %s: not a directory", path)
	}

	return nil
}

// ensureDir creates path unless something with that name already exists. Parents are not created.
func ensureDir(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}

	if !eris.Is(err, os.ErrNotExist) {
		return false, eris.Wrapf(err, "failed to check %s", path)
	}

	err = os.Mkdir(path, 0770)
	if err != nil {
		return false, eris.Wrapf(err, "failed to create %s", path)
	}

	return true, nil
}
