package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"gopkg.in/yaml.v3"
)

// Snapshot is the golden-file view of a scenario result. It leaves out the
// pass/fail verdict so a snapshot only changes when behavior does.
type Snapshot struct {
	Scenario    string `yaml:"scenario"`
	Status      string `yaml:"status"`
	Error       string `yaml:"error,omitempty"`
	Position    *int   `yaml:"position,omitempty"`
	Steps       int64  `yaml:"steps"`
	Output      string `yaml:"output"`
	Disassembly string `yaml:"disassembly,omitempty"`
}

// MarshalSnapshot renders a result as YAML for golden comparison.
func MarshalSnapshot(name string, r *Result) ([]byte, error) {
	return yaml.Marshal(Snapshot{
		Scenario:    name,
		Status:      r.Status,
		Error:       r.ErrorCode,
		Position:    r.Position,
		Steps:       r.Steps,
		Output:      r.Output,
		Disassembly: r.Disassembly,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
