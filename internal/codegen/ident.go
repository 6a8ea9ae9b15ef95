package codegen

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// cppKeywords are the C++20 keywords and alternative operator tokens that
// protocol names may collide with.
var cppKeywords = map[string]bool{
	"alignas": true, "alignof": true, "and": true, "and_eq": true, "asm": true,
	"auto": true, "bitand": true, "bitor": true, "bool": true, "break": true,
	"case": true, "catch": true, "char": true, "char8_t": true,
	"char16_t": true, "char32_t": true, "class": true, "compl": true,
	"concept": true, "const": true, "consteval": true, "constexpr": true,
	"constinit": true, "const_cast": true, "continue": true,
	"co_await": true, "co_return": true, "co_yield": true,
	"decltype": true, "default": true, "delete": true, "do": true,
	"double": true, "dynamic_cast": true, "else": true, "enum": true,
	"explicit": true, "export": true, "extern": true, "false": true,
	"float": true, "for": true, "friend": true, "goto": true, "if": true,
	"inline": true, "int": true, "long": true, "mutable": true,
	"namespace": true, "new": true, "noexcept": true, "not": true,
	"not_eq": true, "nullptr": true, "operator": true, "or": true,
	"or_eq": true, "private": true, "protected": true, "public": true,
	"register": true, "reinterpret_cast": true, "requires": true,
	"return": true, "short": true, "signed": true, "sizeof": true,
	"static": true, "static_assert": true, "static_cast": true,
	"struct": true, "switch": true, "template": true, "this": true,
	"thread_local": true, "throw": true, "true": true, "try": true,
	"typedef": true, "typeid": true, "typename": true, "union": true,
	"unsigned": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "wchar_t": true, "while": true, "xor": true,
	"xor_eq": true,
}

// generatedLocals are names the emitted code binds itself inside dispatch
// closures and event routines. Args with these names get the same escape
// as keywords.
var generatedLocals = map[string]bool{
	"client":  true,
	"object":  true,
	"reader":  true,
	"writer":  true,
	"message": true,
	"peer":    true,
	"peer_id": true,
}

// Sanitize turns a protocol-supplied name into a valid C++ identifier.
// Characters outside [A-Za-z0-9_] become underscores, a leading digit is
// prefixed with an underscore, and reserved words get a trailing underscore.
func Sanitize(name string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name) + 1)
	for _, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	s := b.String()
	if s == "" {
		return "_"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	if cppKeywords[s] {
		s += "_"
	}
	return s
}

// paramName sanitizes an argument name used as a C++ variable.
func paramName(name string) string {
	s := Sanitize(name)
	if generatedLocals[s] {
		s += "_"
	}
	return s
}

// redundantName reports whether a parameter name adds nothing over its type
// (surface for wl_surface*, format for wl_shm_format). x, y and id are never
// redundant.
func redundantName(name, typ string) bool {
	switch name {
	case "x", "y", "id":
		return false
	}
	return len(name) > 1 && strings.Contains(typ, name)
}
