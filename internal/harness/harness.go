package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/roach88/wlgen/internal/cli"
	"github.com/roach88/wlgen/internal/codegen"
	"github.com/roach88/wlgen/internal/compiler"
	"github.com/roach88/wlgen/internal/wlxml"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Parse protocol files, then inline documents, in order
// 2. Assemble one registry and count duplicate names
// 3. Generate all three artifacts, twice, and compare the bytes
// 4. Check expectations and evaluate assertions
//
// Protocol and generation failures are recorded in the result. Run only
// returns an error when a protocol file cannot be read at all.
func Run(scenario *Scenario) (*Result, error) {
	result := NewResult()

	reg, err := assemble(scenario)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, err
		}
		result.ErrorCode = cli.ErrorCode(err)
		checkExpect(scenario, result, err)
		evaluate(scenario, result)
		return result, nil
	}

	result.Interfaces = reg.Interfaces()
	result.Duplicates = len(reg.Duplicates())

	out, err := generate(scenario, reg)
	if err != nil {
		result.ErrorCode = cli.ErrorCode(err)
		checkExpect(scenario, result, err)
		evaluate(scenario, result)
		return result, nil
	}
	result.Output = out

	if err := checkDeterministic(scenario, out); err != nil {
		result.AddError(err.Error())
	}

	checkExpect(scenario, result, nil)
	evaluate(scenario, result)
	return result, nil
}

// assemble parses every document of the scenario into one registry.
func assemble(scenario *Scenario) (*compiler.Registry, error) {
	sources := make([]compiler.Source, 0, len(scenario.Protocols)+len(scenario.Documents))
	for _, path := range scenario.Protocols {
		doc, err := wlxml.ParseFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, compiler.Source{Name: path, Interfaces: doc.Interfaces})
	}
	for _, d := range scenario.Documents {
		doc, err := wlxml.Parse(strings.NewReader(d.XML), d.Name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, compiler.Source{Name: d.Name, Interfaces: doc.Interfaces})
	}
	return compiler.Assemble(sources), nil
}

// generate applies the duplicate policy, then renders the artifacts.
func generate(scenario *Scenario, reg *compiler.Registry) (*codegen.Output, error) {
	if dups := reg.Duplicates(); len(dups) > 0 && !scenario.AllowDuplicates {
		return nil, dups[0]
	}
	return codegen.Generate(reg, compiler.NewImplementedSet(scenario.Implemented...), codegen.Options{})
}

// checkDeterministic regenerates from a freshly assembled registry and
// reports the first artifact whose bytes differ.
func checkDeterministic(scenario *Scenario, first *codegen.Output) error {
	reg, err := assemble(scenario)
	if err != nil {
		return fmt.Errorf("second run failed: %w", err)
	}
	second, err := generate(scenario, reg)
	if err != nil {
		return fmt.Errorf("second run failed: %w", err)
	}

	pairs := []struct {
		name string
		a, b []byte
	}{
		{ArtifactDeclarations, first.Declarations, second.Declarations},
		{ArtifactRequests, first.Requests, second.Requests},
		{ArtifactEvents, first.Events, second.Events},
	}
	for _, p := range pairs {
		if !bytes.Equal(p.a, p.b) {
			return fmt.Errorf("%s differ between two runs over the same input", p.name)
		}
	}
	return nil
}

// checkExpect compares the run outcome with the scenario's expect block.
func checkExpect(scenario *Scenario, result *Result, runErr error) {
	want := scenario.Expect

	switch {
	case want.Error != "" && result.ErrorCode != want.Error:
		if runErr == nil {
			result.AddError(fmt.Sprintf("expected error %s, generation succeeded", want.Error))
		} else {
			result.AddError(fmt.Sprintf("expected error %s, got %s: %v", want.Error, result.ErrorCode, runErr))
		}
	case want.Error == "" && runErr != nil:
		result.AddError(fmt.Sprintf("unexpected error %s: %v", result.ErrorCode, runErr))
	}

	if want.Interfaces != nil && len(result.Interfaces) != *want.Interfaces {
		result.AddError(fmt.Sprintf("expected %d interface(s), got %d", *want.Interfaces, len(result.Interfaces)))
	}
	if want.Duplicates != nil && result.Duplicates != *want.Duplicates {
		result.AddError(fmt.Sprintf("expected %d duplicate(s), got %d", *want.Duplicates, result.Duplicates))
	}
}

func evaluate(scenario *Scenario, result *Result) {
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
}
