// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package agents

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// profileFile is the on-disk YAML shape for custom agent catalogs.
type profileFile struct {
	Agents []Profile `yaml:"agents"`
}

// LoadProfiles reads a YAML catalog and registers every profile it contains.
// Builtin profiles with the same id are replaced. A missing file is an error;
// pass an empty path to skip loading entirely.
func LoadProfiles(path string, registry *Registry) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read agent profiles: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse agent profiles: %w", err)
	}

	for _, p := range file.Agents {
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("invalid agent profile in %s: %w", path, err)
		}
	}
	return nil
}
