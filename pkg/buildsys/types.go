package buildsys

import (
	"fmt"
	"sort"
	"strconv"
)

const (
	DefaultSubproject = "apitrace"
	DefaultBuildDir   = "build"
	DefaultGenerator  = "Ninja"
	DefaultBuildType  = "Debug"
	DefaultCMake      = "cmake"
)

// Subproject describes a vendored CMake project and how to configure it.
type Subproject struct {
	Name string `yaml:"-"`
	// Source is the project directory, relative to the helper's directory.
	Source    string            `yaml:"source,omitempty"`
	BuildDir  string            `yaml:"build_dir,omitempty"`
	Generator string            `yaml:"generator,omitempty"`
	BuildType string            `yaml:"build_type,omitempty"`
	Defines   map[string]string `yaml:"defines,omitempty"`
	CMake     string            `yaml:"cmake,omitempty"`
	Desc      string            `yaml:"desc,omitempty"`
	// Jobs is passed to the build step as --parallel if positive.
	Jobs int `yaml:"jobs,omitempty"`
}

// Config maps profile names to subprojects
type Config struct {
	Subprojects map[string]*Subproject `yaml:"subprojects"`
}

// StepName identifies one of the two external invocations.
type StepName string

const (
	StepConfigure StepName = "configure"
	StepBuild     StepName = "build"
)

// Step is a single external command run inside the subproject's source directory.
type Step struct {
	Name StepName
	Args []string
}

// StepResult records how an executed step finished. Skipped is set for dry runs.
type StepResult struct {
	Step
	ExitCode int
	Skipped  bool
}

// Result summarizes a single Invoke call.
type Result struct {
	WorkDir         string
	BuildDir        string
	CreatedBuildDir bool
	Steps           []StepResult
}

// ExitError is returned in strict mode when a step exits with a non-zero status.
type ExitError struct {
	Step     StepName
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s step exited with status %d", e.Step, e.ExitCode)
}

// ConfigureArgs returns the full configure command line, starting with the cmake binary.
func (s *Subproject) ConfigureArgs() []string {
	args := []string{
		s.CMake,
		"-S", ".",
		"-G" + s.Generator,
		"-DCMAKE_BUILD_TYPE=" + s.BuildType,
	}

	names := make([]string, 0, len(s.Defines))
	for name := range s.Defines {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		args = append(args, fmt.Sprintf("-D%s=%s", name, s.Defines[name]))
	}

	return append(args, "-B", s.BuildDir)
}

// BuildArgs returns the build command line for the same build directory.
func (s *Subproject) BuildArgs() []string {
	args := []string{s.CMake, "--build", s.BuildDir}
	if s.Jobs > 0 {
		args = append(args, "--parallel", strconv.Itoa(s.Jobs))
	}

	return args
}

// Steps returns the configure and build steps in execution order.
func (s *Subproject) Steps() []Step {
	return []Step{
		{Name: StepConfigure, Args: s.ConfigureArgs()},
		{Name: StepBuild, Args: s.BuildArgs()},
	}
}
