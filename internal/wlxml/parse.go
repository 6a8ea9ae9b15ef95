// Package wlxml reads Wayland protocol description documents into IR.
//
// The parser mirrors document order exactly: interfaces in the order they
// appear, and within each interface enums, requests and events in their own
// declaration order, and args in message order. It checks structure and
// required attributes only; references to other interfaces or enums are
// resolved later by the compiler.
package wlxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/wlgen/internal/ir"
)

// RootElement is the expected document root tag.
const RootElement = "protocol"

// Document is one parsed protocol file.
type Document struct {
	File       string
	Name       string // protocol name attribute, may be empty
	Interfaces []ir.Interface
}

type xmlAttrs []xml.Attr

func (a xmlAttrs) lookup(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

type xmlDescription struct {
	Summary string `xml:"summary,attr"`
}

type xmlProtocol struct {
	XMLName    xml.Name
	Attrs      xmlAttrs       `xml:",any,attr"`
	Interfaces []xmlInterface `xml:"interface"`
}

type xmlInterface struct {
	Attrs       xmlAttrs        `xml:",any,attr"`
	Description *xmlDescription `xml:"description"`
	Requests    []xmlMessage    `xml:"request"`
	Events      []xmlMessage    `xml:"event"`
	Enums       []xmlEnum       `xml:"enum"`
}

type xmlMessage struct {
	Attrs       xmlAttrs        `xml:",any,attr"`
	Description *xmlDescription `xml:"description"`
	Args        []xmlArg        `xml:"arg"`
}

type xmlArg struct {
	Attrs xmlAttrs `xml:",any,attr"`
}

type xmlEnum struct {
	Attrs       xmlAttrs        `xml:",any,attr"`
	Description *xmlDescription `xml:"description"`
	Entries     []xmlEntry      `xml:"entry"`
}

type xmlEntry struct {
	Attrs       xmlAttrs        `xml:",any,attr"`
	Description *xmlDescription `xml:"description"`
}

// ParseFile reads and parses the protocol document at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading protocol file: %w", err)
	}
	return Parse(bytes.NewReader(data), path)
}

// Parse parses one protocol document. file names the document in errors.
func Parse(r io.Reader, file string) (*Document, error) {
	var doc xmlProtocol
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &StructuralError{File: file, Message: "malformed XML", Err: err}
	}
	if doc.XMLName.Local != RootElement {
		return nil, &StructuralError{
			File:    file,
			Message: fmt.Sprintf("invalid root <%s>, expected <%s>", doc.XMLName.Local, RootElement),
		}
	}

	p := &parser{file: file}
	out := &Document{File: file}
	out.Name, _ = doc.Attrs.lookup("name")

	for _, xi := range doc.Interfaces {
		iface, err := p.parseInterface(xi)
		if err != nil {
			return nil, err
		}
		out.Interfaces = append(out.Interfaces, iface)
	}
	return out, nil
}

type parser struct {
	file string
}

func (p *parser) required(attrs xmlAttrs, element, attr, context string) (string, error) {
	v, ok := attrs.lookup(attr)
	if !ok || strings.TrimSpace(v) == "" {
		return "", &MissingAttributeError{File: p.file, Element: element, Attribute: attr, Context: context}
	}
	return v, nil
}

// optionalInt parses an integer attribute, returning def when absent.
func (p *parser) optionalInt(attrs xmlAttrs, attr string, def int, context string) (int, error) {
	v, ok := attrs.lookup(attr)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &StructuralError{
			File:    p.file,
			Message: fmt.Sprintf("%s: invalid %s %q", context, attr, v),
			Err:     err,
		}
	}
	return n, nil
}

func summary(d *xmlDescription) string {
	if d == nil {
		return ""
	}
	return strings.Join(strings.Fields(d.Summary), " ")
}

func (p *parser) parseInterface(xi xmlInterface) (ir.Interface, error) {
	name, err := p.required(xi.Attrs, "interface", "name", "")
	if err != nil {
		return ir.Interface{}, err
	}
	version, err := p.optionalInt(xi.Attrs, "version", 1, name)
	if err != nil {
		return ir.Interface{}, err
	}

	iface := ir.Interface{
		Name:     name,
		Version:  version,
		Source:   p.file,
		Summary:  summary(xi.Description),
		Enums:    []ir.Enum{},
		Requests: []ir.Message{},
		Events:   []ir.Message{},
	}

	for _, xm := range xi.Requests {
		msg, err := p.parseMessage(name, xm, ir.Request)
		if err != nil {
			return ir.Interface{}, err
		}
		iface.Requests = append(iface.Requests, msg)
	}
	for _, xm := range xi.Events {
		msg, err := p.parseMessage(name, xm, ir.Event)
		if err != nil {
			return ir.Interface{}, err
		}
		iface.Events = append(iface.Events, msg)
	}
	for _, xe := range xi.Enums {
		enum, err := p.parseEnum(name, xe)
		if err != nil {
			return ir.Interface{}, err
		}
		iface.Enums = append(iface.Enums, enum)
	}

	return iface, nil
}

func (p *parser) parseMessage(owner string, xm xmlMessage, kind ir.MessageKind) (ir.Message, error) {
	element := kind.String()
	name, err := p.required(xm.Attrs, element, "name", owner)
	if err != nil {
		return ir.Message{}, err
	}
	context := owner + "." + name

	since, err := p.optionalInt(xm.Attrs, "since", 1, context)
	if err != nil {
		return ir.Message{}, err
	}
	typ, _ := xm.Attrs.lookup("type")

	msg := ir.Message{
		Name:       name,
		Kind:       kind,
		Since:      since,
		Destructor: typ == "destructor",
		Summary:    summary(xm.Description),
		Args:       []ir.Arg{},
	}

	for i, xa := range xm.Args {
		argContext := fmt.Sprintf("%s arg #%d", context, i)
		argName, err := p.required(xa.Attrs, "arg", "name", argContext)
		if err != nil {
			return ir.Message{}, err
		}
		argType, err := p.required(xa.Attrs, "arg", "type", argContext)
		if err != nil {
			return ir.Message{}, err
		}
		arg := ir.Arg{Name: argName, Type: ir.Primitive(argType)}
		arg.Interface, _ = xa.Attrs.lookup("interface")
		arg.Enum, _ = xa.Attrs.lookup("enum")
		if v, ok := xa.Attrs.lookup("allow-null"); ok {
			arg.AllowNull = v == "true"
		}
		if v, ok := xa.Attrs.lookup("summary"); ok {
			arg.Summary = strings.Join(strings.Fields(v), " ")
		}
		msg.Args = append(msg.Args, arg)
	}

	return msg, nil
}

func (p *parser) parseEnum(owner string, xe xmlEnum) (ir.Enum, error) {
	name, err := p.required(xe.Attrs, "enum", "name", owner)
	if err != nil {
		return ir.Enum{}, err
	}
	context := owner + "." + name

	since, err := p.optionalInt(xe.Attrs, "since", 1, context)
	if err != nil {
		return ir.Enum{}, err
	}
	bitfield, _ := xe.Attrs.lookup("bitfield")

	enum := ir.Enum{
		Name:     name,
		Bitfield: bitfield == "true",
		Since:    since,
		Summary:  summary(xe.Description),
		Entries:  []ir.Entry{},
	}

	for i, xn := range xe.Entries {
		entryContext := fmt.Sprintf("%s entry #%d", context, i)
		entryName, err := p.required(xn.Attrs, "entry", "name", entryContext)
		if err != nil {
			return ir.Enum{}, err
		}
		value, err := p.required(xn.Attrs, "entry", "value", entryContext)
		if err != nil {
			return ir.Enum{}, err
		}
		entrySince, err := p.optionalInt(xn.Attrs, "since", 1, entryContext)
		if err != nil {
			return ir.Enum{}, err
		}
		entrySummary, _ := xn.Attrs.lookup("summary")
		if entrySummary == "" {
			entrySummary = summary(xn.Description)
		}
		enum.Entries = append(enum.Entries, ir.Entry{
			Name:    entryName,
			Value:   strings.TrimSpace(value),
			Since:   entrySince,
			Summary: strings.Join(strings.Fields(entrySummary), " "),
		})
	}

	return enum, nil
}
