package wlxml

import "fmt"

// StructuralError reports a malformed or wrong-rooted protocol document.
type StructuralError struct {
	File    string
	Message string
	Err     error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.File, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// MissingAttributeError reports a required attribute absent from an element.
type MissingAttributeError struct {
	File      string
	Element   string // "interface", "request", "event", "arg", "enum", "entry"
	Attribute string
	Context   string // path to the element, e.g. "wl_surface.attach arg #1"
}

func (e *MissingAttributeError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: <%s> is missing required attribute %q",
			e.File, e.Context, e.Element, e.Attribute)
	}
	return fmt.Sprintf("%s: <%s> is missing required attribute %q", e.File, e.Element, e.Attribute)
}
