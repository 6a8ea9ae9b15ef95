package codegen

import (
	"fmt"
	"strings"

	"github.com/roach88/wlgen/internal/ir"
)

// param is one rendered method parameter.
type param struct {
	Type      string
	Name      string // C++ variable name
	Raw       string // name as written in the protocol document
	Redundant bool
	// Wire is the read expression (requests) or write call (events).
	Wire string
}

type method struct {
	Name    string
	Opcode  int
	Comment string
	Params  []param
}

type entryModel struct {
	Name    string
	Value   string
	Comment string
}

type enumModel struct {
	TypeName string
	Source   string // interface.enum as written in the protocol document
	Comment  string
	Bitfield bool
	Entries  []entryModel
}

type ifaceModel struct {
	Name        string
	WireName    string // protocol name advertised to clients
	ID          uint32
	Version     int
	Comment     string
	Implemented bool
	Enums       []enumModel
	Requests    []method
	Events      []method
}

// wireMode selects which wire expression a method model carries.
type wireMode int

const (
	wireNone wireMode = iota
	wireRead
	wireWrite
)

// modelBuilder is the single place where protocol names are sanitized and
// argument kinds are mapped to C++ text.
type modelBuilder struct {
	types *TypeMapper
}

func newModelBuilder(res Resolver) *modelBuilder {
	return &modelBuilder{types: NewTypeMapper(res)}
}

func (b *modelBuilder) enums(iface *ir.Interface) ([]enumModel, error) {
	out := make([]enumModel, 0, len(iface.Enums))
	for _, e := range iface.Enums {
		em := enumModel{
			TypeName: b.types.EnumName(iface, e.Name),
			Source:   iface.Name + "." + e.Name,
			Comment:  lineComment(e.Summary),
			Bitfield: e.Bitfield,
			Entries:  make([]entryModel, 0, len(e.Entries)),
		}
		entries := newNameScope(fmt.Sprintf("%s.%s entries", iface.Name, e.Name))
		for _, entry := range e.Entries {
			name := Sanitize(entry.Name)
			if err := entries.claim(entry.Name, name); err != nil {
				return nil, err
			}
			em.Entries = append(em.Entries, entryModel{
				Name:    name,
				Value:   entry.Value,
				Comment: lineComment(entry.Summary),
			})
		}
		out = append(out, em)
	}
	return out, nil
}

// methods builds the models of one message list. Declaration types are
// only resolved when withTypes is set; request dispatch never needs them.
func (b *modelBuilder) methods(iface *ir.Interface, msgs []ir.Message, withTypes bool, mode wireMode) ([]method, error) {
	out := make([]method, 0, len(msgs))
	if len(msgs) == 0 {
		return out, nil
	}
	names := newNameScope(fmt.Sprintf("%s %ss", iface.Name, msgs[0].Kind))
	for opcode, msg := range msgs {
		m := method{
			Name:    Sanitize(msg.Name),
			Opcode:  opcode,
			Comment: lineComment(methodComment(msg)),
			Params:  make([]param, 0, len(msg.Args)),
		}
		if err := names.claim(msg.Name, m.Name); err != nil {
			return nil, err
		}
		params := newNameScope(fmt.Sprintf("%s.%s arguments", iface.Name, msg.Name))
		for _, arg := range msg.Args {
			p, err := b.param(arg, withTypes, mode)
			if err != nil {
				return nil, at(err, iface.Name, msg.Name)
			}
			if err := params.claim(arg.Name, p.Name); err != nil {
				return nil, err
			}
			m.Params = append(m.Params, p)
		}
		out = append(out, m)
	}
	return out, nil
}

func (b *modelBuilder) param(arg ir.Arg, withTypes bool, mode wireMode) (param, error) {
	p := param{Name: paramName(arg.Name), Raw: arg.Name}

	if withTypes {
		typ, err := b.types.DeclType(arg)
		if err != nil {
			return param{}, err
		}
		p.Type = typ
		p.Redundant = redundantName(arg.Name, typ)
	}

	var err error
	switch mode {
	case wireRead:
		p.Wire, err = b.types.ReadExpr(arg)
	case wireWrite:
		p.Wire, err = b.types.WriteCall(arg, p.Name)
	}
	if err != nil {
		return param{}, err
	}
	return p, nil
}

// declarations builds the model used by the declaration emitter.
func (b *modelBuilder) declarations(iface *ir.Interface, implemented bool) (ifaceModel, error) {
	m := b.header(iface, implemented)

	var err error
	if m.Enums, err = b.enums(iface); err != nil {
		return ifaceModel{}, err
	}
	if m.Requests, err = b.methods(iface, iface.Requests, true, wireNone); err != nil {
		return ifaceModel{}, err
	}
	if m.Events, err = b.methods(iface, iface.Events, true, wireNone); err != nil {
		return ifaceModel{}, err
	}
	return m, nil
}

// requests builds the model used by the request dispatch emitter.
func (b *modelBuilder) requests(iface *ir.Interface) (ifaceModel, error) {
	m := b.header(iface, false)

	var err error
	if m.Requests, err = b.methods(iface, iface.Requests, false, wireRead); err != nil {
		return ifaceModel{}, err
	}
	return m, nil
}

// events builds the model used by the event dispatch emitter.
func (b *modelBuilder) events(iface *ir.Interface) (ifaceModel, error) {
	m := b.header(iface, true)

	var err error
	if m.Events, err = b.methods(iface, iface.Events, true, wireWrite); err != nil {
		return ifaceModel{}, err
	}
	return m, nil
}

func (b *modelBuilder) header(iface *ir.Interface, implemented bool) ifaceModel {
	return ifaceModel{
		Name:        b.types.StructName(iface),
		WireName:    iface.Name,
		ID:          iface.ID,
		Version:     iface.Version,
		Comment:     lineComment(iface.Summary),
		Implemented: implemented,
	}
}

// methodComment joins the summary with since and destructor annotations.
func methodComment(msg ir.Message) string {
	var notes []string
	if msg.Since > 1 {
		notes = append(notes, fmt.Sprintf("since %d", msg.Since))
	}
	if msg.Destructor {
		notes = append(notes, "destructor")
	}
	if len(notes) == 0 {
		return msg.Summary
	}
	annotation := "(" + strings.Join(notes, ", ") + ")"
	if msg.Summary == "" {
		return annotation
	}
	return msg.Summary + " " + annotation
}

// lineComment makes text safe to end a // comment. A trailing backslash
// would splice the next source line into the comment.
func lineComment(s string) string {
	return strings.TrimRight(s, "\\ ")
}

// commentText makes text safe to embed in a /* */ comment.
func commentText(s string) string {
	return strings.ReplaceAll(s, "*/", "* /")
}

// declParam renders a parameter for a declaration. Stub declarations and
// redundant names keep the name only as a comment.
func declParam(p param, stub bool) string {
	if stub || p.Redundant {
		return fmt.Sprintf("%s /* %s */", p.Type, commentText(p.Raw))
	}
	return p.Type + " " + p.Name
}

// defParam renders a parameter for an out-of-line definition.
func defParam(p param) string {
	return p.Type + " " + p.Name
}
