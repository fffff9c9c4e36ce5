package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/viewstore/internal/datastore"
)

// Scenario defines an end-to-end scenario: stored state, a sequence of
// imports and an optional query, with the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Existing is written to the datastore before any import, keyed by
	// partition.
	Existing map[string][]string `yaml:"existing,omitempty"`

	// Imports are source file contents, imported in order.
	Imports []string `yaml:"imports,omitempty"`

	// Query runs after all imports.
	Query *QueryStep `yaml:"query,omitempty"`

	// Expect describes the expected outcome.
	Expect Expect `yaml:"expect"`

	// Assertions run against the final datastore.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// QueryStep mirrors the query flags of the command line.
type QueryStep struct {
	Select string `yaml:"select"`
	Order  string `yaml:"order,omitempty"`
	Filter string `yaml:"filter,omitempty"`
}

// Expect holds exact expectations. Nil fields are not checked.
type Expect struct {
	// Output is the exact query output, line by line.
	Output []string `yaml:"output,omitempty"`

	// Partitions is the exact content of each listed partition.
	Partitions map[string][]string `yaml:"partitions,omitempty"`

	// Rejected is the total number of rejected lines across all imports.
	Rejected *int `yaml:"rejected,omitempty"`

	// Duplicates is the total number of in-source duplicates.
	Duplicates *int `yaml:"duplicates,omitempty"`

	// Error, if set, must appear in the error of the import or query
	// that fails. A scenario without Error must not fail.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final datastore.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Partition names the partition (partition_* types).
	Partition string `yaml:"partition,omitempty"`

	// Line is a raw line (partition_contains, partition_absent).
	Line string `yaml:"line,omitempty"`

	// Count is the expected line count (partition_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertPartitionContains = "partition_contains"
	AssertPartitionAbsent   = "partition_absent"
	AssertPartitionCount    = "partition_count"
	AssertUniqueKeys        = "unique_keys"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "import:" vs "imports:".
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

// FindScenarios returns the .yaml and .yml files under dir whose base
// name, without extension, matches the glob filter. An empty filter
// matches every file. Paths are returned in lexical order.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Imports) == 0 && s.Query == nil {
		return fmt.Errorf("at least one import or a query is required")
	}
	if s.Query != nil && strings.TrimSpace(s.Query.Select) == "" {
		return fmt.Errorf("query: select is required")
	}

	for key := range s.Existing {
		if err := checkPartitionName(key); err != nil {
			return fmt.Errorf("existing: %w", err)
		}
	}
	for key := range s.Expect.Partitions {
		if err := checkPartitionName(key); err != nil {
			return fmt.Errorf("expect.partitions: %w", err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return nil
}

func checkPartitionName(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", datastore.ErrInvalidPartition, key)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertPartitionContains, AssertPartitionAbsent:
		if a.Partition == "" || a.Line == "" {
			return fmt.Errorf("%s requires partition and line", a.Type)
		}
	case AssertPartitionCount:
		if a.Partition == "" {
			return fmt.Errorf("%s requires partition", a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("%s count must be non-negative", a.Type)
		}
	case AssertUniqueKeys:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
