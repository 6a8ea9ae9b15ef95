package codegen

import "strings"

// EmitRequestDispatch renders the request-dispatch unit: one opcode-indexed
// table of handler closures per interface with requests, and the global
// table of tables indexed by interface identity. Interfaces without requests
// still occupy their index with an empty span. An empty registry is
// rejected with ErrNoInterfaces.
func EmitRequestDispatch(reg Registry, opts Options) ([]byte, error) {
	if len(reg.Interfaces()) == 0 {
		return nil, ErrNoInterfaces
	}
	opts = opts.withDefaults()
	b := newModelBuilder(reg)

	models := make([]ifaceModel, 0, len(reg.Interfaces()))
	for _, iface := range reg.Interfaces() {
		m, err := b.requests(iface)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	w := &lineWriter{}
	w.preamble()
	w.include(opts.InternalHeader)
	w.include(opts.DeclarationsHeader)
	w.blank()
	w.openNamespace(opts.Namespace)

	for _, m := range models {
		if len(m.Requests) == 0 {
			continue
		}
		writeDispatchTable(w, m)
	}

	w.line("static const std::span<const DispatchFn> dispatch_tables[] {")
	w.indent++
	for _, m := range models {
		if len(m.Requests) == 0 {
			w.line("/* %d: %s */ {},", m.ID, m.Name)
			continue
		}
		w.line("/* %d: %s */ %s,", m.ID, m.Name, tableName(m))
	}
	w.indent--
	w.line("};")
	w.blank()
	w.line("const std::span<const std::span<const DispatchFn>> dispatch_table_view = dispatch_tables;")
	w.blank()

	w.closeNamespace(opts.Namespace)
	return w.Bytes(), nil
}

func tableName(m ifaceModel) string {
	return "dispatch_table_" + m.Name
}

func writeDispatchTable(w *lineWriter, m ifaceModel) {
	w.line("static const DispatchFn %s[] {", tableName(m))
	w.indent++
	for _, req := range m.Requests {
		w.line("/* %d: %s */", req.Opcode, req.Name)
		w.line("[](Client* client, Object* object, [[maybe_unused]] MessageReader reader) {")
		w.indent++

		args := make([]string, 0, len(req.Params)+1)
		args = append(args, clientVar)
		for _, p := range req.Params {
			w.line("auto %s = %s;", p.Name, p.Wire)
			args = append(args, p.Name)
		}
		w.line("static_cast<%s*>(object)->%s(%s);", m.Name, req.Name, strings.Join(args, ", "))

		w.indent--
		w.line("},")
	}
	w.indent--
	w.line("};")
	w.blank()
}
