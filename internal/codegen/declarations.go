package codegen

import (
	"strings"

	"github.com/roach88/wlgen/internal/compiler"
)

// EmitDeclarations renders the type-declaration unit: forward declarations,
// then per interface its enums and its struct. Interfaces outside
// implemented get inline empty bodies for every method.
func EmitDeclarations(reg Registry, implemented compiler.ImplementedSet, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	b := newModelBuilder(reg)

	models := make([]ifaceModel, 0, len(reg.Interfaces()))
	for _, iface := range reg.Interfaces() {
		m, err := b.declarations(iface, implemented.Contains(iface.Name))
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if err := checkTypeNames(opts.Namespace, models); err != nil {
		return nil, err
	}

	w := &lineWriter{}
	w.preamble()
	w.line("#pragma once")
	w.blank()
	w.include(opts.CoreHeader)
	w.blank()
	w.openNamespace(opts.Namespace)

	forwardEnums := false
	for _, m := range models {
		for _, e := range m.Enums {
			w.line("enum class %s : u32;", e.TypeName)
			forwardEnums = true
		}
	}
	if forwardEnums {
		w.blank()
	}

	if len(models) > 0 {
		for _, m := range models {
			w.line("struct %s;", m.Name)
		}
		w.blank()
	}

	for _, m := range models {
		for _, e := range m.Enums {
			writeEnum(w, e)
		}
		writeStruct(w, m)
	}

	w.closeNamespace(opts.Namespace)
	return w.Bytes(), nil
}

// checkTypeNames rejects two structs or enums that would be declared under
// the same name in the namespace.
func checkTypeNames(namespace string, models []ifaceModel) error {
	types := newNameScope("namespace " + namespace)
	for _, m := range models {
		if err := types.claim(m.WireName, m.Name); err != nil {
			return err
		}
		for _, e := range m.Enums {
			if err := types.claim(e.Source, e.TypeName); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeEnum(w *lineWriter, e enumModel) {
	w.comment(e.Comment)
	w.line("enum class %s : u32", e.TypeName)
	w.line("{")
	w.indent++
	for _, entry := range e.Entries {
		if entry.Comment != "" {
			w.line("%s = %s, // %s", entry.Name, entry.Value, entry.Comment)
		} else {
			w.line("%s = %s,", entry.Name, entry.Value)
		}
	}
	w.indent--
	w.line("};")
	if e.Bitfield {
		w.line("DECORATE_FLAG_ENUM(%s)", e.TypeName)
	}
	w.blank()
}

func writeStruct(w *lineWriter, m ifaceModel) {
	w.comment(m.Comment)
	w.line("struct %s : Object", m.Name)
	w.line("{")
	w.indent++
	w.line("%s() : Object{%d, 0, {}} {}", m.Name, m.ID)
	w.line("explicit %s(Display* display) : Object{%d, display_allocate_id(display), {}} {}", m.Name, m.ID)
	w.blank()
	w.line("static constexpr std::string_view InterfaceName = %q;", m.WireName)
	w.line("static constexpr u32 Version = %d;", m.Version)

	if len(m.Requests) > 0 {
		w.blank()
		w.line("/* requests */")
		for _, req := range m.Requests {
			writeMethodDecl(w, req, "Client*", !m.Implemented)
		}
	}
	if len(m.Events) > 0 {
		w.blank()
		w.line("/* events */")
		for _, evt := range m.Events {
			target := "Client* client"
			if !m.Implemented {
				target = "Client*"
			}
			writeMethodDecl(w, evt, target, !m.Implemented)
		}
	}

	w.indent--
	w.line("};")
	w.blank()
}

func writeMethodDecl(w *lineWriter, m method, first string, stub bool) {
	params := make([]string, 0, len(m.Params)+1)
	params = append(params, first)
	for _, p := range m.Params {
		params = append(params, declParam(p, stub))
	}

	end := ";"
	if stub {
		end = " {}"
	}
	w.comment(m.Comment)
	w.line("void %s(%s)%s", m.Name, strings.Join(params, ", "), end)
}
