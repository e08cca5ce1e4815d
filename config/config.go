// Package config parses the external configuration file spec.md §6
// names: the save_hg_info/save_git_info passthrough booleans that
// govern the version-control collaborator, plus shot property
// overrides, all of which this core only forwards without acting on.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ShotOverrides lets a config file pin the two shot properties
// spec.md §6 requires without touching the script.
type ShotOverrides struct {
	TargetCycleTime                *float64 `yaml:"target_cycle_time"`
	CycleTimeDelayAfterProgramming *bool    `yaml:"cycle_time_delay_after_programming"`
}

// Config is the top-level document this package reads.
type Config struct {
	SaveHgInfo  bool          `yaml:"save_hg_info"`
	SaveGitInfo bool          `yaml:"save_git_info"`
	Shot        ShotOverrides `yaml:"shot"`
}

// Default returns the zero-value configuration: no version-control
// info saved, no shot property overrides.
func Default() *Config {
	return &Config{}
}

// Load reads and parses a YAML config document from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c to path as YAML.
func Save(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
