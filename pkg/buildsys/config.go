package buildsys

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the profile file looked up next to the helper.
const ConfigFile = "subprojects.yml"

// DefaultConfig returns the built-in profiles.
func DefaultConfig() *Config {
	return &Config{
		Subprojects: map[string]*Subproject{
			DefaultSubproject: {
				Name:      DefaultSubproject,
				Source:    "apitrace",
				BuildDir:  DefaultBuildDir,
				Generator: DefaultGenerator,
				BuildType: DefaultBuildType,
				Defines: map[string]string{
					"ENABLE_WAFFLE": "on",
				},
				CMake: DefaultCMake,
				Desc:  "apitrace with waffle support (debug build)",
			},
		},
	}
}

// ParseConfig decodes a YAML profile file. Profiles in the file are merged over the built-in ones;
// a profile with the same name replaces the built-in profile entirely.
func ParseConfig(data []byte) (*Config, error) {
	var parsed Config
	err := yaml.Unmarshal(data, &parsed)
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse profiles")
	}

	cfg := DefaultConfig()
	for name, sp := range parsed.Subprojects {
		if sp == nil {
			sp = new(Subproject)
		}

		sp.Name = name
		sp.applyDefaults()
		err = sp.validate()
		if err != nil {
			return nil, err
		}

		cfg.Subprojects[name] = sp
	}

	return cfg, nil
}

// LoadConfig reads the profile file at path. If required is false, a missing file yields the
// built-in profiles.
func LoadConfig(path string, required bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && eris.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}

		return nil, eris.Wrapf(err, "could not open file %s", path)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load %s", path)
	}

	return cfg, nil
}

// Lookup returns the named profile.
func (c *Config) Lookup(name string) (*Subproject, error) {
	sp, ok := c.Subprojects[name]
	if !ok {
		return nil, eris.Errorf("subproject %s not found", name)
	}

	return sp, nil
}

// Names returns the profile names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Subprojects))
	for name := range c.Subprojects {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (s *Subproject) applyDefaults() {
	if s.Source == "" {
		s.Source = s.Name
	}
	if s.BuildDir == "" {
		s.BuildDir = DefaultBuildDir
	}
	if s.Generator == "" {
		s.Generator = DefaultGenerator
	}
	if s.BuildType == "" {
		s.BuildType = DefaultBuildType
	}
	if s.CMake == "" {
		s.CMake = DefaultCMake
	}
}

func (s *Subproject) validate() error {
	for field, value := range map[string]string{"source": s.Source, "build_dir": s.BuildDir} {
		if !isLocalPath(value) {
			return eris.Errorf("subproject %s: %s %q must be a relative path below the base directory", s.Name, field, value)
		}
	}

	if s.Jobs < 0 {
		return eris.Errorf("subproject %s: jobs must not be negative", s.Name)
	}

	for name := range s.Defines {
		if name == "" || strings.ContainsAny(name, "= ") {
			return eris.Errorf("subproject %s: invalid define name %q", s.Name, name)
		}
	}

	return nil
}

func isLocalPath(path string) bool {
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return false
	}

	clean := filepath.Clean(filepath.FromSlash(path))
	return clean != ".." && !strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
