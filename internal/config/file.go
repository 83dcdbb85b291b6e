package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat is the mapping form of a watch file.
type fileFormat struct {
	DefaultTimeout *float64    `yaml:"default_timeout"`
	Watches        []WatchSpec `yaml:"watches"`
}

// LoadFile reads a watch file and merges it into cfg.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	specs, defaultTimeout, err := ParseWatches(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	cfg.ConfigPath = path
	cfg.Watches = append(cfg.Watches, specs...)
	if defaultTimeout != nil {
		cfg.DefaultTimeout = *defaultTimeout
	}
	return nil
}

// ParseWatches decodes a watch file. The document is either a list of watch
// specs or a mapping with a "watches" list and an optional
// "default_timeout". Unknown fields are rejected.
func ParseWatches(data []byte) ([]WatchSpec, *float64, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("parse YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil, errors.New("config is empty")
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	switch root.Content[0].Kind {
	case yaml.SequenceNode:
		var specs []WatchSpec
		if err := decoder.Decode(&specs); err != nil {
			return nil, nil, fmt.Errorf("parse YAML: %w", err)
		}
		return specs, nil, nil

	case yaml.MappingNode:
		var f fileFormat
		if err := decoder.Decode(&f); err != nil {
			return nil, nil, fmt.Errorf("parse YAML: %w", err)
		}
		return f.Watches, f.DefaultTimeout, nil

	default:
		return nil, nil, errors.New("config must be a list of watches or a mapping with a watches key")
	}
}
