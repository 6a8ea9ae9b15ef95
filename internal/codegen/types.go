package codegen

import (
	"fmt"

	"github.com/roach88/wlgen/internal/ir"
)

// Resolver looks up interfaces and enums referenced by arguments.
// *compiler.Registry implements it.
type Resolver interface {
	Lookup(name string) (*ir.Interface, bool)
	LookupEnum(ref ir.EnumRef) (*ir.Enum, bool)
}

// Variable names bound by the emitted code around mapped expressions.
const (
	clientVar = "client" // requesting client in dispatch closures
	peerVar   = "peer"   // addressed client in event routines
)

// TypeMapper maps protocol argument kinds to C++ declaration types,
// deserialization expressions and serialization calls. It holds no state
// besides the resolver and the struct names derived from it.
type TypeMapper struct {
	res   Resolver
	names map[uint32]string // identity -> struct name
}

// NewTypeMapper creates a mapper resolving references through res. When res
// also lists its interfaces, struct names are made unique across them.
func NewTypeMapper(res Resolver) *TypeMapper {
	m := &TypeMapper{res: res}
	if reg, ok := res.(Registry); ok {
		m.names = structNames(reg.Interfaces())
	}
	return m
}

// structNames assigns each interface its C++ struct name in identity order.
// The first interface to claim a sanitized name keeps it; later ones, such
// as allowed duplicates, get their identity appended.
func structNames(ifaces []*ir.Interface) map[uint32]string {
	names := make(map[uint32]string, len(ifaces))
	taken := make(map[string]bool, len(ifaces))
	for _, iface := range ifaces {
		name := Sanitize(iface.Name)
		if taken[name] {
			name = fmt.Sprintf("%s_%d", name, iface.ID)
		}
		taken[name] = true
		names[iface.ID] = name
	}
	return names
}

// StructName returns the C++ struct name of iface.
func (m *TypeMapper) StructName(iface *ir.Interface) string {
	if name, ok := m.names[iface.ID]; ok {
		return name
	}
	return Sanitize(iface.Name)
}

// EnumName returns the C++ name of enum e declared by iface. Enums of a
// renamed struct carry the same identity suffix.
func (m *TypeMapper) EnumName(iface *ir.Interface, e string) string {
	name := enumTypeName(ir.EnumRef{Interface: iface.Name, Name: e})
	if m.StructName(iface) != Sanitize(iface.Name) {
		name = fmt.Sprintf("%s_%d", name, iface.ID)
	}
	return name
}

func unresolved(arg ir.Arg, format string, args ...any) error {
	return &UnresolvedTypeError{Arg: arg.Name, Reason: fmt.Sprintf(format, args...)}
}

// enumTypeName is the C++ name of an enum, shared by declarations and
// references so both spellings always agree.
func enumTypeName(ref ir.EnumRef) string {
	return Sanitize(ref.TypeName())
}

func (m *TypeMapper) enumType(arg ir.Arg, ref ir.EnumRef) (string, error) {
	if _, ok := m.res.LookupEnum(ref); !ok {
		return "", unresolved(arg, "enum %s is not defined", ref)
	}
	if owner, ok := m.res.Lookup(ref.Interface); ok {
		return m.EnumName(owner, ref.Name), nil
	}
	return enumTypeName(ref), nil
}

func (m *TypeMapper) interfaceType(arg ir.Arg, name string) (*ir.Interface, error) {
	iface, ok := m.res.Lookup(name)
	if !ok {
		return nil, unresolved(arg, "interface %q is not defined", name)
	}
	return iface, nil
}

// DeclType returns the C++ type used for arg in method declarations.
func (m *TypeMapper) DeclType(arg ir.Arg) (string, error) {
	switch k := arg.Kind.(type) {
	case ir.EnumKind:
		return m.enumType(arg, k.Ref)
	case ir.IntKind:
		return "i32", nil
	case ir.UintKind:
		return "u32", nil
	case ir.FdKind:
		return "int", nil
	case ir.FixedKind:
		return "f64", nil
	case ir.StringKind:
		return "std::string_view", nil
	case ir.ArrayKind:
		return "std::span<const u8>", nil
	case ir.ObjectKind:
		if k.Interface == "" {
			return "Object*", nil
		}
		iface, err := m.interfaceType(arg, k.Interface)
		if err != nil {
			return "", err
		}
		return m.StructName(iface) + "*", nil
	case ir.NewIDKind:
		if k.Interface == "" {
			return "NewId", nil
		}
		iface, err := m.interfaceType(arg, k.Interface)
		if err != nil {
			return "", err
		}
		return m.StructName(iface) + "*", nil
	case ir.UnknownKind:
		return "", unresolved(arg, "unknown type %q", string(k.Tag))
	default:
		return "", unresolved(arg, "unclassified type %q", string(arg.Type))
	}
}

// ReadExpr returns the expression that deserializes arg from the request
// reader. Reads are sequential, so callers must evaluate them in arg order.
func (m *TypeMapper) ReadExpr(arg ir.Arg) (string, error) {
	switch k := arg.Kind.(type) {
	case ir.EnumKind:
		typ, err := m.enumType(arg, k.Ref)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("reader.read_enum<%s>()", typ), nil
	case ir.IntKind:
		return "reader.read_int()", nil
	case ir.UintKind:
		return "reader.read_uint()", nil
	case ir.FdKind:
		return "reader.read_fd()", nil
	case ir.FixedKind:
		return "reader.read_fixed()", nil
	case ir.StringKind:
		return "reader.read_string()", nil
	case ir.ArrayKind:
		return "reader.read_array()", nil
	case ir.ObjectKind:
		if k.Interface == "" {
			return "", unresolved(arg, "object argument has no interface to dispatch against")
		}
		iface, err := m.interfaceType(arg, k.Interface)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("reader.read_object<%s>(%s, %d)", m.StructName(iface), clientVar, iface.ID), nil
	case ir.NewIDKind:
		if k.Interface == "" {
			return fmt.Sprintf("reader.read_untyped_new_id(%s)", clientVar), nil
		}
		iface, err := m.interfaceType(arg, k.Interface)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("reader.read_new_id<%s>(%s)", m.StructName(iface), clientVar), nil
	case ir.UnknownKind:
		return "", unresolved(arg, "unknown type %q", string(k.Tag))
	default:
		return "", unresolved(arg, "unclassified type %q", string(arg.Type))
	}
}

// WriteCall returns the call that serializes value (the C++ expression
// holding arg) into the event writer for the addressed peer.
func (m *TypeMapper) WriteCall(arg ir.Arg, value string) (string, error) {
	switch k := arg.Kind.(type) {
	case ir.EnumKind:
		typ, err := m.enumType(arg, k.Ref)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("writer.write_enum<%s>(%s)", typ, value), nil
	case ir.IntKind:
		return fmt.Sprintf("writer.write_int(%s)", value), nil
	case ir.UintKind:
		return fmt.Sprintf("writer.write_uint(%s)", value), nil
	case ir.FdKind:
		return fmt.Sprintf("writer.write_fd(%s)", value), nil
	case ir.FixedKind:
		return fmt.Sprintf("writer.write_fixed(%s)", value), nil
	case ir.StringKind:
		return fmt.Sprintf("writer.write_string(%s)", value), nil
	case ir.ArrayKind:
		return fmt.Sprintf("writer.write_array(%s)", value), nil
	case ir.ObjectKind:
		if k.Interface != "" {
			if _, err := m.interfaceType(arg, k.Interface); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("writer.write_object(%s, %s)", value, peerVar), nil
	case ir.NewIDKind:
		if k.Interface == "" {
			return "", unresolved(arg, "new_id argument has no interface to serialize")
		}
		if _, err := m.interfaceType(arg, k.Interface); err != nil {
			return "", err
		}
		return fmt.Sprintf("writer.write_new_id(%s, %s)", value, peerVar), nil
	case ir.UnknownKind:
		return "", unresolved(arg, "unknown type %q", string(k.Tag))
	default:
		return "", unresolved(arg, "unclassified type %q", string(arg.Type))
	}
}
