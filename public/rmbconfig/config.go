// Package rmbconfig provides a generic config-loading helper: defaults
// overridden by an optional on-disk YAML file. It does not know anything
// about CLI flags — that's left to the binary's main package, the way
// flags live in the teacher's cmd/ binaries rather than its library code.
//
// Calls: gopkg.in/yaml.v3, os
package rmbconfig

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadConfig returns defaults unchanged if path is empty or does not exist,
// otherwise reads path as YAML and overlays it onto a copy of defaults.
func LoadConfig[T any](path string, defaults T) (T, error) {
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return defaults, errors.Wrapf(err, "rmbconfig: read %s", path)
	}

	cfg := defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaults, errors.Wrapf(err, "rmbconfig: parse %s", path)
	}

	return cfg, nil
}
