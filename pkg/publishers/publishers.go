// Package publishers announces site changes to downstream sinks: HTTP webhooks,
// AWS SQS and SNS, and Google Cloud Pub/Sub.
package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigRegistry holds the validated entries of a publishers file.
type ConfigRegistry struct {
	publishers []PublisherConfig
	idx        map[string]int
}

type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// LoadRegistry reads a YAML or JSON publishers file, chosen by extension.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	file, err := decodeConfigFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(file.Publishers)),
		idx:        make(map[string]int, len(file.Publishers)),
	}
	for i, entry := range file.Publishers {
		cfg := entry.normalized()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.idx[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}
	return reg, nil
}

func decodeConfigFile(data []byte, ext string) (configFile, error) {
	var (
		file configFile
		err  error
	)
	switch strings.ToLower(ext) {
	case ".json":
		err = json.Unmarshal(data, &file)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		// JSON is valid YAML, so the YAML decoder covers unknown extensions.
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return configFile{}, fmt.Errorf("decode publishers file: %w", err)
	}
	return file, nil
}

// ByID returns the entry with the given id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.idx[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// Enabled returns the enabled entries in file order.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	var out []PublisherConfig
	for _, cfg := range r.publishers {
		if cfg.IsEnabled() {
			out = append(out, cfg)
		}
	}
	return out
}
