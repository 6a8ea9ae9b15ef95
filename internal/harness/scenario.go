package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden files.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Protocols lists protocol files, relative to the scenario file.
	Protocols []string `yaml:"protocols,omitempty"`

	// Documents holds inline protocol XML, read after Protocols.
	Documents []Document `yaml:"documents,omitempty"`

	// Implemented names the interfaces that get full declarations and
	// event routines.
	Implemented []string `yaml:"implemented,omitempty"`

	// AllowDuplicates lets generation proceed past repeated names.
	AllowDuplicates bool `yaml:"allow_duplicates,omitempty"`

	// Golden compares every artifact against testdata/golden.
	Golden bool `yaml:"golden,omitempty"`

	// Expect holds whole-run expectations.
	Expect Expect `yaml:"expect,omitempty"`

	// Assertions check identities, opcodes and artifact text.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Document is one inline protocol document.
type Document struct {
	Name string `yaml:"name"`
	XML  string `yaml:"xml"`
}

// Expect specifies whole-run outcomes. Nil fields are not checked.
type Expect struct {
	// Error is the expected error code. Empty means generation succeeds.
	Error string `yaml:"error,omitempty"`

	// Interfaces is the expected number of assigned identities.
	Interfaces *int `yaml:"interfaces,omitempty"`

	// Duplicates is the expected number of duplicate-name reports.
	Duplicates *int `yaml:"duplicates,omitempty"`
}

// Assertion checks one property of a run.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// Interface and ID are used by identity; Interface, Kind, Message and
	// Opcode by opcode.
	Interface string `yaml:"interface,omitempty"`
	ID        *int   `yaml:"id,omitempty"`
	Kind      string `yaml:"kind,omitempty"` // request or event
	Message   string `yaml:"message,omitempty"`
	Opcode    *int   `yaml:"opcode,omitempty"`

	// Artifact and Text are used by contains, not_contains and count.
	Artifact string `yaml:"artifact,omitempty"`
	Text     string `yaml:"text,omitempty"`
	Count    int    `yaml:"count,omitempty"`

	// Lines is used by order: each line must appear after the previous.
	Lines []string `yaml:"lines,omitempty"`
}

// Assertion type constants.
const (
	AssertIdentity    = "identity"
	AssertOpcode      = "opcode"
	AssertContains    = "contains"
	AssertNotContains = "not_contains"
	AssertCount       = "count"
	AssertOrder       = "order"
)

// Artifact names used by assertions and golden files.
const (
	ArtifactDeclarations = "declarations"
	ArtifactRequests     = "requests"
	ArtifactEvents       = "events"
)

// Artifacts lists every artifact name in emission order.
var Artifacts = []string{ArtifactDeclarations, ArtifactRequests, ArtifactEvents}

// LoadScenario reads and parses a scenario YAML file. Protocol paths are
// resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.Protocols {
		if !filepath.IsAbs(p) {
			scenario.Protocols[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, ok := names[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", path, s.Name, prev)
		}
		names[s.Name] = path
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
	if len(s.Protocols) == 0 && len(s.Documents) == 0 {
		return fmt.Errorf("at least one of protocols or documents is required")
	}

	for _, p := range s.Protocols {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("protocol file not found: %s", p)
		}
	}
	for i, doc := range s.Documents {
		if doc.Name == "" {
			return fmt.Errorf("documents[%d]: name is required", i)
		}
		if doc.XML == "" {
			return fmt.Errorf("documents[%d]: xml is required", i)
		}
	}

	if s.Golden && s.Expect.Error != "" {
		return fmt.Errorf("golden scenarios must generate successfully")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertIdentity:
		if a.Interface == "" || a.ID == nil {
			return fmt.Errorf("assertions[%d]: interface and id are required for identity", index)
		}
	case AssertOpcode:
		if a.Interface == "" || a.Message == "" || a.Opcode == nil {
			return fmt.Errorf("assertions[%d]: interface, message and opcode are required for opcode", index)
		}
		if a.Kind != "request" && a.Kind != "event" {
			return fmt.Errorf("assertions[%d]: kind must be request or event, got %q", index, a.Kind)
		}
	case AssertContains, AssertNotContains, AssertCount:
		if err := validateArtifact(index, a.Artifact); err != nil {
			return err
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
		if a.Type == AssertCount && a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertOrder:
		if err := validateArtifact(index, a.Artifact); err != nil {
			return err
		}
		if len(a.Lines) < 2 {
			return fmt.Errorf("assertions[%d]: order needs at least two lines", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validateArtifact(index int, name string) error {
	for _, a := range Artifacts {
		if a == name {
			return nil
		}
	}
	return fmt.Errorf("assertions[%d]: unknown artifact %q (want one of %v)", index, name, Artifacts)
}
