package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/permutest/permutest/harness"
)

// ScenarioConfig is the YAML schema for a scenario file: named threads of
// operations, optional crash-eligible points, and the expected results.
type ScenarioConfig struct {
	Name    string         `yaml:"name"`
	Threads []ThreadConfig `yaml:"threads"`
	Faults  []FaultConfig  `yaml:"faults"`
	Verify  VerifyConfig   `yaml:"verify"`
}

type ThreadConfig struct {
	Ops []OpConfig `yaml:"ops"`
}

type OpConfig struct {
	Op    string `yaml:"op"`
	Var   string `yaml:"var"`
	Delta int64  `yaml:"delta"`
}

type FaultConfig struct {
	Thread  int `yaml:"thread"`
	OpIndex int `yaml:"op_index"`
}

type VerifyConfig struct {
	FinalState map[string]int64 `yaml:"final_state"`
}

// LoadScenarioConfig reads a scenario YAML file and validates the scenario
// it describes.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	var cfg ScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing scenario file %s: %w", path, err)
	}
	if cfg.Name == "" {
		cfg.Name = "scenario"
	}
	if err := cfg.ToScenario().Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &cfg, nil
}

// ToScenario converts the YAML form into the harness model.
func (c *ScenarioConfig) ToScenario() *harness.Scenario {
	scn := &harness.Scenario{}
	for _, tc := range c.Threads {
		ops := make([]harness.Op, 0, len(tc.Ops))
		for _, oc := range tc.Ops {
			ops = append(ops, harness.Op{Kind: harness.OpKind(oc.Op), Var: oc.Var, Delta: oc.Delta})
		}
		scn.Threads = append(scn.Threads, ops)
	}
	for _, fc := range c.Faults {
		scn.Faults = append(scn.Faults, harness.FaultSpec{Thread: fc.Thread, OpIndex: fc.OpIndex})
	}
	return scn
}

// Verifier builds the verifier the file and the flag agree on. An empty name
// picks final-state when the file declares one, epsilon otherwise.
func (c *ScenarioConfig) Verifier(name string) (harness.Verifier, error) {
	switch name {
	case "":
		if len(c.Verify.FinalState) > 0 {
			return harness.NewVerifier(harness.VerifierFinalState, c.Verify.FinalState), nil
		}
		return harness.NewVerifier(harness.VerifierEpsilon, nil), nil
	case harness.VerifierFinalState:
		if len(c.Verify.FinalState) == 0 {
			return nil, fmt.Errorf("scenario %s declares no final_state to verify", c.Name)
		}
		return harness.NewVerifier(name, c.Verify.FinalState), nil
	case harness.VerifierEpsilon:
		return harness.NewVerifier(name, nil), nil
	default:
		return nil, fmt.Errorf("unknown verifier %q", name)
	}
}
