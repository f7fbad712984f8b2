package catalog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the YAML description of a backend and its resources.
//
//	baseURL: https://api.example.com/v1
//	orgClaim: org_id
//	resources:
//	  departments:
//	    path: /departments
//	    includeOrgId: true
//	    deleteParam: departmentId
type File struct {
	BaseURL   string                  `yaml:"baseURL"`
	Token     string                  `yaml:"token,omitempty"`
	OrgClaim  string                  `yaml:"orgClaim,omitempty"`
	Timeout   time.Duration           `yaml:"timeout,omitempty"`
	Resources map[string]ResourceSpec `yaml:"resources"`
}

// ResourceSpec describes one REST resource.
type ResourceSpec struct {
	Path         string `yaml:"path"`
	IncludeOrgID bool   `yaml:"includeOrgId,omitempty"`
	// IDField names the payload field holding the id. Defaults to "id".
	IDField string `yaml:"idField,omitempty"`
	// DeleteParam sends deletes to the base path with the id in this query
	// parameter instead of appending it to the path.
	DeleteParam string `yaml:"deleteParam,omitempty"`
	Paged       bool   `yaml:"paged,omitempty"`
}

// Load reads and parses the catalog file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for name, spec := range f.Resources {
		if err := spec.validate(); err != nil {
			return nil, fmt.Errorf("resource %q: %w", name, err)
		}
	}
	return &f, nil
}

func (s ResourceSpec) validate() error {
	if s.Path == "" {
		return fmt.Errorf("path is required")
	}
	if !strings.HasPrefix(s.Path, "/") {
		return fmt.Errorf("path %q must start with /", s.Path)
	}
	return nil
}
