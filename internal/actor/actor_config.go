package actor

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Archetype is one actor definition from actors.yaml. Width and Height are in
// movement tiles.
type Archetype struct {
	Name   string  `yaml:"name"`
	Speed  float64 `yaml:"speed"` // pixels per second, 0 uses the configured default
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Color  [3]int  `yaml:"color"`
}

// ArchetypeConfig holds the complete actor configuration from YAML
type ArchetypeConfig struct {
	Actors map[string]Archetype `yaml:"actors"`
}

func validateArchetypes(config *ArchetypeConfig) error {
	for key, a := range config.Actors {
		if a.Width < 0 || a.Height < 0 {
			return fmt.Errorf("actor %q has a negative footprint %dx%d", key, a.Width, a.Height)
		}
		if a.Speed < 0 {
			return fmt.Errorf("actor %q has a negative speed", key)
		}
	}
	return nil
}

// LoadArchetypeConfig loads actor archetypes from a YAML file
func LoadArchetypeConfig(filename string) (*ArchetypeConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read actor config file: %w", err)
	}

	var config ArchetypeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse actor config YAML: %w", err)
	}
	if err := validateArchetypes(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetArchetype returns an archetype by key
func (c *ArchetypeConfig) GetArchetype(key string) (*Archetype, error) {
	a, exists := c.Actors[key]
	if !exists {
		return nil, fmt.Errorf("actor with key '%s' not found", key)
	}
	return &a, nil
}

// GetAllKeys returns all archetype keys in sorted order
func (c *ArchetypeConfig) GetAllKeys() []string {
	keys := make([]string, 0, len(c.Actors))
	for key := range c.Actors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
