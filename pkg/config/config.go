// Package config loads YAML configuration files with ${ENV} expansion on
// top of caller-supplied defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configurations that check themselves after
// loading.
type Validator interface {
	Validate() error
}

// Load decodes filename into target. Fields absent from the file keep the
// values target already holds.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", filename, err)
	}
	return Decode(filename, data, target)
}

// LoadOrDefault behaves like Load, but a missing file leaves target at its
// defaults, which are still validated. It reports whether a file was read.
func LoadOrDefault[T any](filename string, target *T) (bool, error) {
	found, err := ReadOrDefault(filename, target)
	if err != nil {
		return found, err
	}
	return found, validate(target)
}

// ReadOrDefault decodes filename into target like Load but does not
// validate, so callers can apply overrides first. A missing file leaves
// target unchanged. It reports whether a file was read.
func ReadOrDefault[T any](filename string, target *T) (bool, error) {
	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("read config file %s: %w", filename, err)
	}
	return true, unmarshal(filename, data, target)
}

// Decode expands environment references in data and unmarshals it into
// target. name only labels errors.
func Decode[T any](name string, data []byte, target *T) error {
	if err := unmarshal(name, data, target); err != nil {
		return err
	}
	return validate(target)
}

func unmarshal[T any](name string, data []byte, target *T) error {
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), target); err != nil {
		return fmt.Errorf("parse config file %s: %w", name, err)
	}
	return nil
}

func validate[T any](target *T) error {
	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}
