// Package domainspec loads configurable-domain definitions from YAML,
// so new domains can be added at composition time without code
// changes. A definition names its extractable fields with weights and
// optional dot-paths plus the fields an input must carry to validate.
package domainspec

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ltikhonov/primordia/internal/decompose"
	"github.com/ltikhonov/primordia/internal/model"
)

// File is the top-level YAML document: a list of domain definitions.
type File struct {
	Domains []Spec `yaml:"domains"`
}

// Spec declares one domain.
type Spec struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"displayName"`
	Required    []string `yaml:"required"`
	Fields      []Field  `yaml:"fields"`
}

// Field declares one extractable attribute. Path defaults to Name and
// may descend with dot-joined segments; Weight defaults to 1.0.
type Field struct {
	Name   string  `yaml:"name"`
	Path   string  `yaml:"path"`
	Weight float64 `yaml:"weight"`
}

// Load reads domain definitions from a YAML file.
func Load(path string) ([]decompose.DomainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domain file: %w", err)
	}
	configs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return configs, nil
}

// Parse converts a YAML document into domain configs.
func Parse(data []byte) ([]decompose.DomainConfig, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse domain file: %w", err)
	}
	if len(file.Domains) == 0 {
		return nil, fmt.Errorf("domain file declares no domains")
	}

	configs := make([]decompose.DomainConfig, 0, len(file.Domains))
	for i, spec := range file.Domains {
		cfg, err := spec.Config()
		if err != nil {
			return nil, fmt.Errorf("domain %d: %w", i, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Config converts one spec into a DomainConfig.
func (s Spec) Config() (decompose.DomainConfig, error) {
	if s.Name == "" {
		return decompose.DomainConfig{}, fmt.Errorf("domain has no name")
	}
	if strings.ContainsRune(s.Name, '/') {
		return decompose.DomainConfig{}, fmt.Errorf("domain name %q may not contain '/'", s.Name)
	}
	if len(s.Fields) == 0 {
		return decompose.DomainConfig{}, fmt.Errorf("domain %q declares no fields", s.Name)
	}

	paths := make(map[string]string, len(s.Fields))
	extractors := make([]decompose.Extractor, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return decompose.DomainConfig{}, fmt.Errorf("domain %q has an unnamed field", s.Name)
		}
		if _, dup := paths[f.Name]; dup {
			return decompose.DomainConfig{}, fmt.Errorf("domain %q declares field %q twice", s.Name, f.Name)
		}
		path := f.Path
		if path == "" {
			path = f.Name
		}
		weight := f.Weight
		if weight <= 0 {
			weight = 1.0
		}
		paths[f.Name] = path
		extractors = append(extractors, pathExtractor(f.Name, path, weight))
	}

	cfg := decompose.DomainConfig{
		Domain:      model.Domain(s.Name),
		DisplayName: s.DisplayName,
		Extractors:  extractors,
	}
	if len(s.Required) > 0 {
		required := make([]string, len(s.Required))
		copy(required, s.Required)
		cfg.Validate = func(obj map[string]any) error {
			for _, name := range required {
				path, ok := paths[name]
				if !ok {
					path = name
				}
				if _, found := lookupPath(obj, path); !found {
					return fmt.Errorf("missing required field %q", name)
				}
			}
			return nil
		}
	}
	return cfg, nil
}

func pathExtractor(name, path string, weight float64) decompose.Extractor {
	return decompose.Extractor{
		Name:   name,
		Weight: weight,
		Fn: func(obj map[string]any) (any, bool) {
			return lookupPath(obj, path)
		},
	}
}

// lookupPath walks a dot-joined path through nested maps and arrays.
func lookupPath(obj map[string]any, path string) (any, bool) {
	var current any = obj
	for _, segment := range strings.Split(path, ".") {
		switch t := current.(type) {
		case map[string]any:
			next, ok := t[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(t) {
				return nil, false
			}
			current = t[idx]
		default:
			return nil, false
		}
	}
	return current, true
}
