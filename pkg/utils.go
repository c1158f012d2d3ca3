package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// GetScriptDir returns the directory subproject paths are resolved against: the directory holding
// the running executable. Binaries started through `go run` live in a temporary go-build directory,
// in that case the module root of this source file is used instead.
func GetScriptDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", eris.Wrap(err, "failed to determine executable path")
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", eris.Wrapf(err, "failed to resolve %s", exe)
	}

	if !isTemporaryBuild(exe) {
		return filepath.Dir(exe), nil
	}

	_, mypath, _, ok := runtime.Caller(0)
	if !ok {
		return "", eris.New("Failed to determine script path!")
	}

	if !filepath.IsAbs(mypath) {
		// built with -trimpath, the source location is unknown
		return filepath.Dir(exe), nil
	}

	// mypath is <module root>/pkg/utils.go
	return filepath.Dir(filepath.Dir(mypath)), nil
}

var goBuildDir = regexp.MustCompile(`^go-build[0-9]+$`)

func isTemporaryBuild(exe string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(exe)), "/") {
		if goBuildDir.MatchString(part) {
			return true
		}
	}

	return false
}

func PrintTask(msg string) {
	colorstring.Printf("[blue][bold]==>[default] %s\n", msg)
}

func PrintSubtask(msg string) {
	colorstring.Printf("[green][bold]  ->[reset] %s\n", msg)
}
