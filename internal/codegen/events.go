package codegen

import (
	"strings"

	"github.com/roach88/wlgen/internal/compiler"
)

// EmitEventDispatch renders the event-dispatch unit: one out-of-line
// sending routine per event of every implemented interface, in opcode
// order. A null client fans the event out to every client bound to the
// object; otherwise only that client's entry is addressed.
func EmitEventDispatch(reg Registry, implemented compiler.ImplementedSet, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	b := newModelBuilder(reg)

	var models []ifaceModel
	for _, iface := range reg.Interfaces() {
		if !implemented.Contains(iface.Name) {
			continue
		}
		m, err := b.events(iface)
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
		for _, evt := range m.Events {
			writeEventRoutine(w, m, evt)
		}
	}

	w.closeNamespace(opts.Namespace)
	return w.Bytes(), nil
}

func writeEventRoutine(w *lineWriter, m ifaceModel, evt method) {
	params := make([]string, 0, len(evt.Params)+1)
	params = append(params, "Client* "+clientVar)
	for _, p := range evt.Params {
		params = append(params, defParam(p))
	}

	w.line("void %s::%s(%s)", m.Name, evt.Name, strings.Join(params, ", "))
	w.line("{")
	w.indent++
	w.line("Message message {};")
	w.line("for (auto [%s, peer_id] : _client_ids) {", peerVar)
	w.indent++
	w.line("if (%s && %s != %s) continue;", clientVar, peerVar, clientVar)
	w.line("MessageWriter writer {&message, 0};")
	for _, p := range evt.Params {
		w.line("%s;", p.Wire)
	}
	w.line("writer.write_header(peer_id, %d);", evt.Opcode)
	w.line("display_send_event(%s, message);", peerVar)
	w.indent--
	w.line("}")
	w.indent--
	w.line("}")
	w.blank()
}
