package ir

import "strings"

// EnumRef is a qualified enum reference: the interface that owns the enum
// plus the enum's local name.
type EnumRef struct {
	Interface string `json:"interface"`
	Name      string `json:"name"`
}

// ParseEnumRef resolves the raw enum attribute of an arg declared on owner.
// "format" refers to owner's enum; "wl_output.transform" refers to the enum
// "transform" of interface wl_output.
func ParseEnumRef(owner, raw string) EnumRef {
	if iface, name, ok := strings.Cut(raw, "."); ok {
		return EnumRef{Interface: iface, Name: name}
	}
	return EnumRef{Interface: owner, Name: raw}
}

// TypeName is the generated type name of the enum.
func (r EnumRef) TypeName() string {
	return r.Interface + "_" + r.Name
}

func (r EnumRef) String() string {
	return r.Interface + "." + r.Name
}
