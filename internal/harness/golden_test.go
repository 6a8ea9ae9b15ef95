package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Callback(t *testing.T) {
	scenario := &Scenario{
		Name:        "callback",
		Description: "Golden artifacts for one implemented interface",
		Documents:   []Document{{Name: "callback.xml", XML: callbackXML}},
		Implemented: []string{"wl_callback"},
		Golden:      true,
	}
	require.NoError(t, RunWithGolden(t, scenario))
}

func TestAssertGolden_FromResult(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "callback_again",
		Description: "Same input as the callback scenario",
		Documents:   []Document{{Name: "other.xml", XML: callbackXML}},
		Implemented: []string{"wl_callback"},
	})
	require.NoError(t, err)

	// The document name does not reach the artifacts, so the callback
	// golden files match.
	require.NoError(t, AssertGolden(t, "callback", result))
}

func TestAssertGolden_NoOutput(t *testing.T) {
	err := AssertGolden(t, "callback", NewResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced no output")
}

func TestRunWithGolden_FailingScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "malformed",
		Description: "Cannot produce artifacts",
		Protocols:   []string{filepath.Join("..", "..", "testdata", "protocols", "malformed.xml")},
	}
	err := RunWithGolden(t, scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario malformed failed")
}

// TestConformance runs every scenario under testdata/scenarios.
func TestConformance(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			if scenario.Golden {
				require.NoError(t, RunWithGolden(t, scenario))
				return
			}
			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
