package harness

import (
	"github.com/roach88/wlgen/internal/codegen"
	"github.com/roach88/wlgen/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: expectations met and every
	// assertion holds.
	Pass bool `json:"pass"`

	// ErrorCode is the code of the error that stopped the run, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// Interfaces is the assembled interface list in identity order.
	// Empty when parsing failed.
	Interfaces []*ir.Interface `json:"interfaces"`

	// Duplicates counts repeated interface names.
	Duplicates int `json:"duplicates"`

	// Output holds the generated artifacts. Nil when generation failed.
	Output *codegen.Output `json:"-"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Interfaces: []*ir.Interface{},
		Errors:     []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Artifact returns the named artifact's text, or "" when there is no
// output.
func (r *Result) Artifact(name string) string {
	if r.Output == nil {
		return ""
	}
	switch name {
	case ArtifactDeclarations:
		return string(r.Output.Declarations)
	case ArtifactRequests:
		return string(r.Output.Requests)
	case ArtifactEvents:
		return string(r.Output.Events)
	}
	return ""
}

// lookup returns the first interface named name.
func (r *Result) lookup(name string) (*ir.Interface, bool) {
	for _, iface := range r.Interfaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return nil, false
}
