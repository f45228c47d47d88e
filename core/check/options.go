package check

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/upgradecheck/core/pattern"
)

// Option keys recognized by the check.
const (
	OptionChangeFile = "change_file"
	OptionOldVersion = "old_version"
	OptionNewVersion = "new_version"
	OptionStrategy   = "strategy"
)

// ErrMissingOption is returned when a required option is not set.
var ErrMissingOption = errors.New("missing required option")

// Options configures the check. Only ChangeFile is required; the versions
// are recorded for reporting and do not affect matching.
type Options struct {
	ChangeFile string `yaml:"change_file"`
	OldVersion string `yaml:"old_version,omitempty"`
	NewVersion string `yaml:"new_version,omitempty"`
	Strategy   string `yaml:"strategy,omitempty"`
}

// LoadConfig reads Options from a YAML file.
func LoadConfig(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return opts, nil
}

// Merge returns o with every non-empty field of override applied.
func (o Options) Merge(override Options) Options {
	if override.ChangeFile != "" {
		o.ChangeFile = override.ChangeFile
	}
	if override.OldVersion != "" {
		o.OldVersion = override.OldVersion
	}
	if override.NewVersion != "" {
		o.NewVersion = override.NewVersion
	}
	if override.Strategy != "" {
		o.Strategy = override.Strategy
	}
	return o
}

// Validate checks required options and the format of the optional ones.
func (o Options) Validate() error {
	if o.ChangeFile == "" {
		return fmt.Errorf("%w: %s", ErrMissingOption, OptionChangeFile)
	}
	for key, v := range map[string]string{OptionOldVersion: o.OldVersion, OptionNewVersion: o.NewVersion} {
		if v != "" && !semver.IsValid(v) {
			return fmt.Errorf("option %s: %q is not a semantic version (e.g. v2.3.0)", key, v)
		}
	}
	if o.OldVersion != "" && o.NewVersion != "" && semver.Compare(o.NewVersion, o.OldVersion) < 0 {
		return fmt.Errorf("option %s %s is older than %s %s", OptionNewVersion, o.NewVersion, OptionOldVersion, o.OldVersion)
	}
	if _, err := pattern.ParseStrategy(o.Strategy); err != nil {
		return fmt.Errorf("option %s: %w", OptionStrategy, err)
	}
	return nil
}

// Map renders the options as key/value pairs, omitting unset ones.
func (o Options) Map() map[string]string {
	m := map[string]string{OptionChangeFile: o.ChangeFile}
	if o.OldVersion != "" {
		m[OptionOldVersion] = o.OldVersion
	}
	if o.NewVersion != "" {
		m[OptionNewVersion] = o.NewVersion
	}
	strategy := o.Strategy
	if strategy == "" {
		strategy = pattern.StrategyLeaf
	}
	m[OptionStrategy] = strategy
	return m
}
