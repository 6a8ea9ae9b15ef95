package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/wlgen/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertIdentity:
		return assertIdentity(result, a)
	case AssertOpcode:
		return assertOpcode(result, a)
	case AssertContains:
		return assertContains(result, a)
	case AssertNotContains:
		return assertNotContains(result, a)
	case AssertCount:
		return assertCount(result, a)
	case AssertOrder:
		return assertOrder(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertIdentity checks the identity of the first interface with the name.
func assertIdentity(result *Result, a Assertion) error {
	iface, ok := result.lookup(a.Interface)
	if !ok {
		return &AssertionError{
			Type:     AssertIdentity,
			Expected: fmt.Sprintf("interface %s with identity %d", a.Interface, *a.ID),
			Actual:   "interface not assembled",
		}
	}
	if int(iface.ID) != *a.ID {
		return &AssertionError{
			Type:     AssertIdentity,
			Expected: fmt.Sprintf("%s has identity %d", a.Interface, *a.ID),
			Actual:   fmt.Sprintf("identity %d", iface.ID),
		}
	}
	return nil
}

// assertOpcode checks a message's position in its interface's list.
func assertOpcode(result *Result, a Assertion) error {
	iface, ok := result.lookup(a.Interface)
	if !ok {
		return &AssertionError{
			Type:     AssertOpcode,
			Expected: fmt.Sprintf("%s %s.%s at opcode %d", a.Kind, a.Interface, a.Message, *a.Opcode),
			Actual:   "interface not assembled",
		}
	}

	kind := ir.Request
	if a.Kind == "event" {
		kind = ir.Event
	}
	for opcode, msg := range iface.Messages(kind) {
		if msg.Name != a.Message {
			continue
		}
		if opcode != *a.Opcode {
			return &AssertionError{
				Type:     AssertOpcode,
				Expected: fmt.Sprintf("%s %s.%s at opcode %d", a.Kind, a.Interface, a.Message, *a.Opcode),
				Actual:   fmt.Sprintf("opcode %d", opcode),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertOpcode,
		Expected: fmt.Sprintf("%s %s.%s at opcode %d", a.Kind, a.Interface, a.Message, *a.Opcode),
		Actual:   fmt.Sprintf("no %s named %s", a.Kind, a.Message),
	}
}

func artifactText(result *Result, a Assertion) (string, error) {
	if result.Output == nil {
		return "", &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s artifact", a.Artifact),
			Actual:   "generation produced no output",
		}
	}
	return result.Artifact(a.Artifact), nil
}

func assertContains(result *Result, a Assertion) error {
	text, err := artifactText(result, a)
	if err != nil {
		return err
	}
	if !strings.Contains(text, a.Text) {
		return &AssertionError{
			Type:     AssertContains,
			Expected: fmt.Sprintf("%s contains %q", a.Artifact, a.Text),
			Actual:   "not found",
		}
	}
	return nil
}

func assertNotContains(result *Result, a Assertion) error {
	text, err := artifactText(result, a)
	if err != nil {
		return err
	}
	if strings.Contains(text, a.Text) {
		return &AssertionError{
			Type:     AssertNotContains,
			Expected: fmt.Sprintf("%s does not contain %q", a.Artifact, a.Text),
			Actual:   fmt.Sprintf("found at byte %d", strings.Index(text, a.Text)),
		}
	}
	return nil
}

func assertCount(result *Result, a Assertion) error {
	text, err := artifactText(result, a)
	if err != nil {
		return err
	}
	if n := strings.Count(text, a.Text); n != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%q appears %d time(s) in %s", a.Text, a.Count, a.Artifact),
			Actual:   fmt.Sprintf("%d time(s)", n),
		}
	}
	return nil
}

// assertOrder checks that each text occurs after the previous one.
// Intervening text is allowed.
func assertOrder(result *Result, a Assertion) error {
	text, err := artifactText(result, a)
	if err != nil {
		return err
	}

	pos := 0
	for i, line := range a.Lines {
		idx := strings.Index(text[pos:], line)
		if idx < 0 {
			actual := "missing"
			if strings.Contains(text, line) {
				actual = fmt.Sprintf("found before %q", a.Lines[i-1])
			}
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("%s contains %v in order", a.Artifact, a.Lines),
				Actual:   fmt.Sprintf("%q %s", line, actual),
			}
		}
		pos += idx + len(line)
	}
	return nil
}
