package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is one YAML query scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Sample binds the employee sample relations before anything else.
	Sample bool `yaml:"sample,omitempty"`

	// Load lists files to load after the sample data.
	// Paths are relative to the scenario file location.
	Load []LoadStep `yaml:"load,omitempty"`

	// Setup holds statements run before the steps. They must succeed.
	Setup []string `yaml:"setup,omitempty"`

	// Steps are the queries under test.
	Steps []Step `yaml:"steps"`

	// MaxTuples caps intermediate results when positive.
	MaxTuples int `yaml:"max_tuples,omitempty"`
}

// LoadStep names one file to load.
type LoadStep struct {
	Path   string `yaml:"path"`
	As     string `yaml:"as,omitempty"`
	GenKey string `yaml:"genkey,omitempty"`
	Table  string `yaml:"table,omitempty"`
}

// Step is one query with its expectation.
type Step struct {
	Query string `yaml:"query"`

	// Expect checks a successful result. Nil accepts any success.
	Expect *Expect `yaml:"expect,omitempty"`

	// ExpectError requires the query to fail with a message containing
	// this text.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Expect describes the expected result of a step.
type Expect struct {
	// Count is the number of tuples in a relation or sequence.
	Count *int `yaml:"count,omitempty"`

	// Attributes is the expected heading, in any order.
	Attributes []string `yaml:"attributes,omitempty"`

	// Rows must match the result's tuples one to one.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Contains rows must each match some tuple of the result.
	Contains []map[string]any `yaml:"contains,omitempty"`

	// Ordered matches Rows by position; the result must be a sequence.
	Ordered bool `yaml:"ordered,omitempty"`

	// Value is the expected scalar. The query is then evaluated as a scalar
	// expression such as "#. E".
	Value any `yaml:"value,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Load paths are resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, l := range scenario.Load {
		if !filepath.IsAbs(l.Path) && l.Path != "-" {
			scenario.Load[i].Path = filepath.Join(base, l.Path)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative load paths are left as
// they are.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "step:" vs "steps:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every .yaml and .yml scenario directly inside dir,
// sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.MaxTuples < 0 {
		return fmt.Errorf("max_tuples must be non-negative")
	}

	for i, l := range s.Load {
		if l.Path == "" {
			return fmt.Errorf("load[%d]: path is required", i)
		}
	}
	for i, stmt := range s.Setup {
		if strings.TrimSpace(stmt) == "" {
			return fmt.Errorf("setup[%d]: statement is empty", i)
		}
	}

	for i, step := range s.Steps {
		if strings.TrimSpace(step.Query) == "" {
			return fmt.Errorf("steps[%d]: query is required", i)
		}
		if step.Expect != nil && step.ExpectError != "" {
			return fmt.Errorf("steps[%d]: expect and expect_error are mutually exclusive", i)
		}
		if e := step.Expect; e != nil {
			if e.Count != nil && *e.Count < 0 {
				return fmt.Errorf("steps[%d].expect: count must be non-negative", i)
			}
			if e.Ordered && len(e.Rows) == 0 {
				return fmt.Errorf("steps[%d].expect: ordered requires rows", i)
			}
			if e.Value != nil && (e.Count != nil || len(e.Rows) > 0 || len(e.Contains) > 0 || len(e.Attributes) > 0) {
				return fmt.Errorf("steps[%d].expect: value cannot be combined with relation checks", i)
			}
		}
	}

	return nil
}
