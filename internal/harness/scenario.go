package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tape/internal/compiler"
	"github.com/roach88/tape/internal/runner"
)

// Scenario defines a conformance test scenario: one program, its literal
// input, and the outcome it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the program text. Exactly one of Source and SourceFile is set.
	Source string `yaml:"source,omitempty"`

	// SourceFile is a path to the program, relative to the scenario file.
	SourceFile string `yaml:"source_file,omitempty"`

	// Input is pushed onto the input queue before the first step.
	Input string `yaml:"input,omitempty"`

	// InputEncoding is utf8 (default) or latin1.
	InputEncoding string `yaml:"input_encoding,omitempty"`

	// MaxSteps bounds execution. 0 uses DefaultMaxSteps.
	MaxSteps int64 `yaml:"max_steps,omitempty"`

	// TapeSize overrides the initial tape length.
	TapeSize int `yaml:"tape_size,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect is the outcome a scenario asserts. Unset fields are not checked.
type Expect struct {
	// Status is halted, blocked or error.
	Status string `yaml:"status"`

	// Output is the exact program output.
	Output *string `yaml:"output,omitempty"`

	// Error is the expected error code, e.g. E201 or E301.
	Error string `yaml:"error,omitempty"`

	// Position is the token index of an unmatched bracket (E201 only).
	Position *int `yaml:"position,omitempty"`
}

// Expected statuses.
const (
	StatusHalted  = "halted"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// DefaultMaxSteps keeps a runaway scenario from hanging the suite.
const DefaultMaxSteps = 10_000_000

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A source_file is read relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.SourceFile != "" {
		src := scenario.SourceFile
		if !filepath.IsAbs(src) {
			src = filepath.Join(filepath.Dir(path), src)
		}
		text, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read source file: %w", err)
		}
		scenario.Source = string(text)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file directly under dir whose
// base name (without extension) matches filter. An empty filter matches
// everything. Scenarios are returned sorted by file name.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	paths, err := ScenarioFiles(dir, filter)
	if err != nil {
		return nil, err
	}

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

// ScenarioFiles lists scenario files under dir, sorted by name.
func ScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(entry.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Source == "") == (s.SourceFile == "") {
		return fmt.Errorf("exactly one of source and source_file is required")
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	if s.TapeSize < 0 {
		return fmt.Errorf("tape_size must be non-negative")
	}

	if _, err := runner.EncodeInput("", s.InputEncoding); err != nil {
		return err
	}

	switch s.Expect.Status {
	case StatusHalted:
		if s.Expect.Error != "" {
			return fmt.Errorf("expect.error is not allowed with status halted")
		}
	case StatusBlocked:
	case StatusError:
		if s.Expect.Error == "" {
			return fmt.Errorf("expect.error is required with status error")
		}
	case "":
		return fmt.Errorf("expect.status is required")
	default:
		return fmt.Errorf("expect.status %q must be one of %s, %s, %s",
			s.Expect.Status, StatusHalted, StatusBlocked, StatusError)
	}

	if s.Expect.Position != nil && s.Expect.Error != compiler.ErrCodeUnmatchedBracket {
		return fmt.Errorf("expect.position only applies to error E201")
	}

	return nil
}
