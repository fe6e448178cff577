package config

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/version"
)

const (
	// InitialLauncherConfigVersion is the first version of the launcher
	// config. Config files that do not specify a version will default to
	// this version.
	InitialLauncherConfigVersion = "v1alpha1"

	// SupportedLauncherConfigVersion is the supported version of the
	// launcher config of the current binary.
	SupportedLauncherConfigVersion = "v1alpha1"

	// MappingSeparator splits a data file mapping into its portable source
	// and system destination.
	MappingSeparator = "|"
)

// Run-as-admin modes. Elevation itself is not performed by the launcher;
// the mode is only validated and reported.
const (
	RunAsAdminNormal = "normal"
	RunAsAdminForce  = "force"
)

// Launcher is the configuration for a single portable application.
type Launcher struct {
	Version string `json:"version,omitempty"`

	// RequiredLauncherVersion is an optional version constraint, such as
	// ">= 1.2", that release builds of the launcher must satisfy.
	RequiredLauncherVersion string `json:"requiredLauncherVersion,omitempty"`

	Debug       bool         `json:"debug,omitempty"`
	Launch      Launch       `json:"launch"`
	DataFiles   []DataFile   `json:"dataFiles,omitempty"`
	RegCleanup  []RegCleanup `json:"regCleanup,omitempty"`
	DataCleanup []string     `json:"dataCleanup,omitempty"`

	// Only populated and consumed by the launcher. Never set by user.
	path string
}

// Launch describes the wrapped program.
type Launch struct {
	// ProgramExecutable is relative to the App directory of the portable
	// root.
	ProgramExecutable string `json:"programExecutable"`
	RunAsAdmin        string `json:"runAsAdmin,omitempty"`
}

// DataFile is a raw `source|destination` file mapping.
type DataFile struct {
	Name    string `json:"name"`
	Mapping string `json:"mapping"`
}

// RegCleanup is a registry key that's exported to `<Name>.reg` and then
// deleted after every run.
type RegCleanup struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Mapping is a parsed DataFile. Source is relative to the portable root, and
// Destination may still contain environment variable references.
// Err is set when the DataFile couldn't be parsed, in which case Source and
// Destination are empty.
type Mapping struct {
	Name        string
	Source      string
	Destination string
	Err         error
}

// GetPath returns the filepath that the config was parsed from.
func (c Launcher) GetPath() string {
	return c.path
}

func (c Launcher) getVersion() string {
	return c.Version
}

// ParseLauncher parses the launcher config at `path`. `launcherVersion` is
// the version of the running binary, and is checked against
// RequiredLauncherVersion.
func ParseLauncher(path, launcherVersion string) (Launcher, error) {
	config := Launcher{
		path:    path,
		Version: InitialLauncherConfigVersion,
	}
	if err := parseConfig(path, &config, SupportedLauncherConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return Launcher{}, errors.NewFriendlyError(
				"The launcher config doesn't exist at %q.", path)
		}
		return Launcher{}, errors.WithContext(err, "parse")
	}

	if err := config.validate(); err != nil {
		return Launcher{}, errors.NewFriendlyError(
			"The launcher config at %q is invalid:\n%s", path, err)
	}

	if err := checkLauncherVersion(config.RequiredLauncherVersion, launcherVersion); err != nil {
		return Launcher{}, err
	}

	if config.Launch.RunAsAdmin == "" {
		config.Launch.RunAsAdmin = RunAsAdminNormal
	}
	config.Launch.RunAsAdmin = strings.ToLower(config.Launch.RunAsAdmin)
	return config, nil
}

func (c Launcher) validate() error {
	seen := map[string]struct{}{}
	for i, df := range c.DataFiles {
		if df.Name == "" {
			return errors.MissingFieldError{Field: fmt.Sprintf("dataFiles[%d].name", i)}
		}
		if _, ok := seen[df.Name]; ok {
			return fmt.Errorf("duplicate data file name %q", df.Name)
		}
		seen[df.Name] = struct{}{}
	}

	seen = map[string]struct{}{}
	for i, rc := range c.RegCleanup {
		if rc.Name == "" {
			return errors.MissingFieldError{Field: fmt.Sprintf("regCleanup[%d].name", i)}
		}
		if rc.Key == "" {
			return errors.MissingFieldError{Field: fmt.Sprintf("regCleanup[%d].key", i)}
		}
		// Export filenames are derived from the name, and Windows filenames
		// are case insensitive.
		if strings.ContainsAny(rc.Name, `/\:`) || rc.Name == "." || rc.Name == ".." {
			return fmt.Errorf("registry cleanup name %q must be a plain file name", rc.Name)
		}
		lower := strings.ToLower(rc.Name)
		if _, ok := seen[lower]; ok {
			return fmt.Errorf("duplicate registry cleanup name %q", rc.Name)
		}
		seen[lower] = struct{}{}
	}

	switch strings.ToLower(c.Launch.RunAsAdmin) {
	case "", RunAsAdminNormal, RunAsAdminForce:
	default:
		return fmt.Errorf("unknown runAsAdmin mode %q", c.Launch.RunAsAdmin)
	}
	return nil
}

func checkLauncherVersion(constraint, launcherVersion string) error {
	if constraint == "" || launcherVersion == version.EmptyValue {
		return nil
	}

	constraints, err := goversion.NewConstraint(constraint)
	if err != nil {
		return errors.NewFriendlyError(
			"The requiredLauncherVersion %q is not a valid version constraint: %s",
			constraint, err)
	}

	current, err := goversion.NewVersion(launcherVersion)
	if err != nil {
		// Development builds aren't versioned, so there's nothing to compare.
		return nil
	}

	if !constraints.Check(current) {
		return errors.NewFriendlyError(
			"This launcher is version %s, but the configuration requires %q.\n"+
				"Please update the launcher.", current, constraint)
	}
	return nil
}

// Mappings parses the configured data files, in order. Malformed entries are
// returned with Err set rather than dropped, so that callers can report them.
func (c Launcher) Mappings() []Mapping {
	var mappings []Mapping
	for _, df := range c.DataFiles {
		mappings = append(mappings, ParseMapping(df))
	}
	return mappings
}

// ParseMapping splits a `source|destination` mapping. The separator can't be
// escaped, so exactly one separator and two non-empty sides are required.
func ParseMapping(df DataFile) Mapping {
	parts := strings.Split(df.Mapping, MappingSeparator)
	if len(parts) != 2 {
		return Mapping{Name: df.Name, Err: errors.WithContext(errors.ErrMalformedMapping,
			fmt.Sprintf("found %d separators", len(parts)-1))}
	}

	src, dst := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if src == "" || dst == "" {
		return Mapping{Name: df.Name, Err: errors.WithContext(errors.ErrMalformedMapping,
			"empty source or destination")}
	}
	return Mapping{Name: df.Name, Source: src, Destination: dst}
}
