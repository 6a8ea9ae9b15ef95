package codegen

import (
	"errors"
	"fmt"
)

// ErrNoInterfaces is returned for a registry without interfaces. The global
// dispatch table would be a zero-length array, which C++ rejects.
var ErrNoInterfaces = errors.New("no interfaces to generate")

// UnresolvedTypeError reports an argument the type mapper cannot render:
// an unknown type tag, a reference to a missing interface or enum, or an
// untyped object/new_id where a concrete interface is required.
// Generation of the affected artifact is aborted.
type UnresolvedTypeError struct {
	Interface string
	Message   string
	Arg       string
	Reason    string
}

func (e *UnresolvedTypeError) Error() string {
	if e.Interface != "" {
		return fmt.Sprintf("%s.%s: argument %q: %s", e.Interface, e.Message, e.Arg, e.Reason)
	}
	return fmt.Sprintf("argument %q: %s", e.Arg, e.Reason)
}

// at fills in the message site of an error returned by the type mapper.
func at(err error, iface, msg string) error {
	if ute, ok := err.(*UnresolvedTypeError); ok && ute.Interface == "" {
		ute.Interface = iface
		ute.Message = msg
	}
	return err
}

// NameCollisionError reports two protocol names that sanitize to the same
// C++ identifier within one scope.
type NameCollisionError struct {
	Scope  string // e.g. "wl_output.transform entries"
	Name   string // the shared C++ identifier
	First  string
	Second string
}

func (e *NameCollisionError) Error() string {
	if e.First == e.Second {
		return fmt.Sprintf("%s: %q is declared twice", e.Scope, e.First)
	}
	return fmt.Sprintf("%s: %q and %q both become %q", e.Scope, e.First, e.Second, e.Name)
}

// nameScope hands out C++ identifiers within one scope and reports the
// first collision.
type nameScope struct {
	scope string
	seen  map[string]string // identifier -> protocol name
}

func newNameScope(scope string) *nameScope {
	return &nameScope{scope: scope, seen: make(map[string]string)}
}

func (s *nameScope) claim(raw, name string) error {
	if prev, ok := s.seen[name]; ok {
		return &NameCollisionError{Scope: s.scope, Name: name, First: prev, Second: raw}
	}
	s.seen[name] = raw
	return nil
}
