//go:build unix

package buildsys

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeCMake = `#!/bin/sh
pwd -P > "$CMAKE_LOG"
for arg in "$@"; do
	echo "$arg" >> "$CMAKE_LOG"
done
exit 3
`

func TestShellRunnerRunsProcess(t *testing.T) {
	binDir := t.TempDir()
	workDir := t.TempDir()
	logFile := filepath.Join(t.TempDir(), "cmake.log")
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "cmake"), []byte(fakeCMake), 0755))

	runner := &ShellRunner{
		Env: []string{
			"PATH=" + binDir + string(os.PathListSeparator) + "/usr/bin" + string(os.PathListSeparator) + "/bin",
			"CMAKE_LOG=" + logFile,
		},
	}

	code, err := runner.Run(context.Background(), workDir, []string{"cmake", "-S", ".", "-GUnix Makefiles", "-B", "build"})
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	realWorkDir, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{realWorkDir, "-S", ".", "-GUnix Makefiles", "-B", "build"}, lines)
}

func TestInvokeWithShellRunner(t *testing.T) {
	binDir := t.TempDir()
	base := t.TempDir()
	logFile := filepath.Join(t.TempDir(), "cmake.log")
	require.NoError(t, os.Mkdir(filepath.Join(base, "apitrace"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "cmake"), []byte(fakeCMake), 0755))

	runner := &ShellRunner{
		Env: []string{
			"PATH=" + binDir + string(os.PathListSeparator) + "/usr/bin" + string(os.PathListSeparator) + "/bin",
			"CMAKE_LOG=" + logFile,
		},
	}

	sp, err := DefaultConfig().Lookup(DefaultSubproject)
	require.NoError(t, err)

	result, err := Invoke(context.Background(), Options{BaseDir: base, Subproject: sp, Runner: runner})
	require.NoError(t, err)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, 3, result.Steps[0].ExitCode)
	assert.Equal(t, 3, result.Steps[1].ExitCode)
	assert.DirExists(t, filepath.Join(base, "apitrace", "build"))

	// the log is rewritten by every call, so it holds the build step
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{"--build", "build"}, lines[1:])
}
