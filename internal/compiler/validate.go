package compiler

import (
	"fmt"

	"github.com/roach88/wlgen/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrStructural           = "E201" // malformed or wrong-rooted document
	ErrMissingAttribute     = "E202" // required attribute absent
	ErrUnresolvedType       = "E203" // unknown type tag or unresolvable reference
	ErrDuplicateInterface   = "E204" // interface name repeated across sources
	ErrUnknownImplemented   = "E206" // implemented set names a missing interface
	ErrUnresolvedInterface  = "E207" // object/new_id arg references a missing interface
	ErrUnresolvedEnum       = "E208" // arg references a missing enum
	ErrDuplicateEnum        = "E209" // enum or entry name repeated within its scope
	ErrDuplicateMessage     = "E210" // request or event name repeated within an interface
	ErrUntypedRequestObject = "E211" // request object arg without interface binding
	ErrUntypedEventNewID    = "E212" // event new_id arg without interface binding
	ErrNameCollision        = "E213" // distinct names sanitize to one C++ identifier
)

// ValidationError represents one post-assembly diagnostic.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks an assembled registry for cross-reference problems the
// parser does not look at. Returns all errors found (does not fail-fast).
//
// Every error reported here would make code generation abort or produce a
// header that does not compile; Validate surfaces them all at once instead
// of one at a time.
func Validate(reg *Registry, implemented ImplementedSet) []ValidationError {
	var errs []ValidationError

	for _, dup := range reg.Duplicates() {
		errs = append(errs, ValidationError{
			Field:   dup.Name,
			Message: dup.Error(),
			Code:    ErrDuplicateInterface,
		})
	}

	for _, name := range reg.Unknown(implemented) {
		errs = append(errs, ValidationError{
			Field:   "implemented",
			Message: fmt.Sprintf("implemented interface %q is not defined by any protocol", name),
			Code:    ErrUnknownImplemented,
		})
	}

	for _, iface := range reg.Interfaces() {
		errs = append(errs, validateInterface(reg, iface, implemented.Contains(iface.Name))...)
	}

	return errs
}

// validateInterface checks one interface. Event routines are only emitted
// for implemented interfaces, so event argument checks are limited to them.
func validateInterface(reg *Registry, iface *ir.Interface, implemented bool) []ValidationError {
	var errs []ValidationError

	enumNames := make(map[string]bool)
	for i, enum := range iface.Enums {
		if enumNames[enum.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.enums[%d]", iface.Name, i),
				Message: fmt.Sprintf("duplicate enum name: %q", enum.Name),
				Code:    ErrDuplicateEnum,
			})
		}
		enumNames[enum.Name] = true

		entryNames := make(map[string]bool)
		for j, entry := range enum.Entries {
			if entryNames[entry.Name] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.%s.entries[%d]", iface.Name, enum.Name, j),
					Message: fmt.Sprintf("duplicate entry name: %q", entry.Name),
					Code:    ErrDuplicateEnum,
				})
			}
			entryNames[entry.Name] = true
		}
	}

	for _, kind := range []ir.MessageKind{ir.Request, ir.Event} {
		msgNames := make(map[string]bool)
		for opcode, msg := range iface.Messages(kind) {
			field := fmt.Sprintf("%s.%s[%d]", iface.Name, kind, opcode)
			if msgNames[msg.Name] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("duplicate %s name: %q", kind, msg.Name),
					Code:    ErrDuplicateMessage,
				})
			}
			msgNames[msg.Name] = true

			for _, arg := range msg.Args {
				errs = append(errs, validateArg(reg, kind, implemented, field+"."+arg.Name, arg)...)
			}
		}
	}

	return errs
}

func validateArg(reg *Registry, kind ir.MessageKind, implemented bool, field string, arg ir.Arg) []ValidationError {
	switch k := arg.Kind.(type) {
	case ir.EnumKind:
		if _, ok := reg.LookupEnum(k.Ref); !ok {
			return []ValidationError{{
				Field:   field,
				Message: fmt.Sprintf("enum %s is not defined", k.Ref),
				Code:    ErrUnresolvedEnum,
			}}
		}
	case ir.ObjectKind:
		if k.Interface == "" {
			if kind == ir.Request {
				return []ValidationError{{
					Field:   field,
					Message: "request object argument has no interface to dispatch against",
					Code:    ErrUntypedRequestObject,
				}}
			}
			return nil
		}
		return checkInterfaceRef(reg, field, k.Interface)
	case ir.NewIDKind:
		if k.Interface == "" {
			if kind == ir.Event && implemented {
				return []ValidationError{{
					Field:   field,
					Message: "event new_id argument has no interface to serialize",
					Code:    ErrUntypedEventNewID,
				}}
			}
			return nil
		}
		return checkInterfaceRef(reg, field, k.Interface)
	case ir.UnknownKind:
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("unknown argument type %q", string(k.Tag)),
			Code:    ErrUnresolvedType,
		}}
	case nil:
		return []ValidationError{{
			Field:   field,
			Message: "argument was not classified",
			Code:    ErrUnresolvedType,
		}}
	}
	return nil
}

func checkInterfaceRef(reg *Registry, field, name string) []ValidationError {
	if _, ok := reg.Lookup(name); ok {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("interface %q is not defined", name),
		Code:    ErrUnresolvedInterface,
	}}
}
