// Package config loads whilec.yaml, the compiler's settings file.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/blang/semver"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up in the working directory.
const FileName = "whilec.yaml"

var (
	// DefaultClassVersion is the class file format version of Java 5.
	DefaultClassVersion = semver.Version{Major: 49}

	minClassVersion = semver.Version{Major: 45}
	maxClassVersion = semver.Version{Major: 65}
)

// Config is the decoded settings file.
type Config struct {
	// ClassVersion is the class file major.minor version, e.g. "49.0".
	ClassVersion string `yaml:"classVersion,omitempty"`
	// EntryPoint names the function compiled as the static entry point when
	// no function is explicitly marked.
	EntryPoint string `yaml:"entryPoint,omitempty"`
	// Verify runs the stack verifier over every generated function.
	Verify *bool `yaml:"verify,omitempty"`

	version semver.Version
}

// Default returns the settings used when no file is present.
func Default() *Config {
	verify := true
	return &Config{
		ClassVersion: "49.0",
		EntryPoint:   "main",
		Verify:       &verify,
		version:      DefaultClassVersion,
	}
}

// Parse decodes YAML settings on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the settings file at path. A missing file yields the defaults
// when optional is set.
func Load(path string, optional bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return cfg, nil
}

// Validate checks the settings and caches the parsed class version.
func (c *Config) Validate() error {
	v, err := semver.ParseTolerant(c.ClassVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid classVersion %q", c.ClassVersion)
	}
	if v.LT(minClassVersion) || v.GT(maxClassVersion) {
		return errors.Errorf("classVersion %s outside supported range %d.0-%d.0",
			c.ClassVersion, minClassVersion.Major, maxClassVersion.Major)
	}
	if c.EntryPoint == "" {
		return errors.New("entryPoint must not be empty")
	}
	c.version = v
	return nil
}

// Version is the validated class file version.
func (c *Config) Version() semver.Version {
	return c.version
}

// ShouldVerify reports whether stack verification is enabled.
func (c *Config) ShouldVerify() bool {
	return c.Verify == nil || *c.Verify
}
