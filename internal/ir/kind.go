package ir

import "fmt"

// Primitive is a wire type tag as spelled in protocol documents.
type Primitive string

const (
	TypeInt    Primitive = "int"
	TypeUint   Primitive = "uint"
	TypeFd     Primitive = "fd"
	TypeFixed  Primitive = "fixed"
	TypeString Primitive = "string"
	TypeArray  Primitive = "array"
	TypeObject Primitive = "object"
	TypeNewID  Primitive = "new_id"
)

// ArgKind is a sealed interface classifying an argument for code generation.
// Only the variants declared in this file implement it.
type ArgKind interface {
	argKind()
	fmt.Stringer
}

// IntKind is a 32-bit signed integer.
type IntKind struct{}

// UintKind is a 32-bit unsigned integer.
type UintKind struct{}

// FdKind is a file descriptor passed out of band.
type FdKind struct{}

// FixedKind is a 24.8 signed fixed-point number.
type FixedKind struct{}

// StringKind is a length-prefixed, NUL-terminated string.
type StringKind struct{}

// ArrayKind is a length-prefixed byte array.
type ArrayKind struct{}

// EnumKind is an argument carrying an enum reference. On the wire it is
// always a 32-bit word; Wire keeps the tag that was written in the document.
type EnumKind struct {
	Ref  EnumRef
	Wire Primitive
}

// ObjectKind references an existing object. Interface is empty when the
// document does not bind the argument to a concrete interface.
type ObjectKind struct {
	Interface string
}

// NewIDKind introduces a new object. Interface is empty for untyped new ids
// whose interface travels on the wire (wl_registry.bind).
type NewIDKind struct {
	Interface string
}

// UnknownKind records a type tag outside the recognized set. Code
// generation rejects it.
type UnknownKind struct {
	Tag Primitive
}

func (IntKind) argKind()     {}
func (UintKind) argKind()    {}
func (FdKind) argKind()      {}
func (FixedKind) argKind()   {}
func (StringKind) argKind()  {}
func (ArrayKind) argKind()   {}
func (EnumKind) argKind()    {}
func (ObjectKind) argKind()  {}
func (NewIDKind) argKind()   {}
func (UnknownKind) argKind() {}

func (IntKind) String() string    { return "int" }
func (UintKind) String() string   { return "uint" }
func (FdKind) String() string     { return "fd" }
func (FixedKind) String() string  { return "fixed" }
func (StringKind) String() string { return "string" }
func (ArrayKind) String() string  { return "array" }

func (k EnumKind) String() string { return "enum " + k.Ref.String() }

func (k ObjectKind) String() string {
	if k.Interface == "" {
		return "object"
	}
	return "object " + k.Interface
}

func (k NewIDKind) String() string {
	if k.Interface == "" {
		return "new_id"
	}
	return "new_id " + k.Interface
}

func (k UnknownKind) String() string { return fmt.Sprintf("unknown %q", string(k.Tag)) }

// Classify resolves the kind of arg declared on the interface named owner.
// An enum reference takes priority over the primitive tag.
func Classify(owner string, arg Arg) ArgKind {
	if arg.Enum != "" {
		return EnumKind{Ref: ParseEnumRef(owner, arg.Enum), Wire: arg.Type}
	}
	switch arg.Type {
	case TypeInt:
		return IntKind{}
	case TypeUint:
		return UintKind{}
	case TypeFd:
		return FdKind{}
	case TypeFixed:
		return FixedKind{}
	case TypeString:
		return StringKind{}
	case TypeArray:
		return ArrayKind{}
	case TypeObject:
		return ObjectKind{Interface: arg.Interface}
	case TypeNewID:
		return NewIDKind{Interface: arg.Interface}
	default:
		return UnknownKind{Tag: arg.Type}
	}
}
