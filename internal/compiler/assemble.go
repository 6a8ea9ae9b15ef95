package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/wlgen/internal/ir"
)

// Source is the ordered interface list read from one protocol document.
type Source struct {
	Name       string
	Interfaces []ir.Interface
}

// DuplicateInterfaceError reports an interface name seen more than once
// across merged sources. Both occurrences stay in the registry with their
// own identities; callers decide whether the duplicate is fatal.
type DuplicateInterfaceError struct {
	Name         string
	FirstID      uint32
	SecondID     uint32
	FirstSource  string
	SecondSource string
}

func (e *DuplicateInterfaceError) Error() string {
	return fmt.Sprintf("duplicate interface %q: identity %d (%s) and identity %d (%s)",
		e.Name, e.FirstID, e.FirstSource, e.SecondID, e.SecondSource)
}

// Registry is the single ordered, numbered interface list of one
// compilation run. It is read-only once Assemble returns.
type Registry struct {
	interfaces []*ir.Interface
	byName     map[string]*ir.Interface
	duplicates []*DuplicateInterfaceError
}

// Assemble merges sources in the given order and assigns each interface a
// dense identity starting at zero, in first-seen order. The identity counter
// lives in this call only.
//
// Arg kinds are classified and enum references qualified here, once, so
// emitters never re-parse attribute text.
func Assemble(sources []Source) *Registry {
	reg := &Registry{byName: make(map[string]*ir.Interface)}
	var next uint32

	for _, src := range sources {
		for _, in := range src.Interfaces {
			iface := cloneInterface(in)
			iface.ID = next
			next++
			if iface.Source == "" {
				iface.Source = src.Name
			}
			classifyArgs(iface)

			if first, ok := reg.byName[iface.Name]; ok {
				reg.duplicates = append(reg.duplicates, &DuplicateInterfaceError{
					Name:         iface.Name,
					FirstID:      first.ID,
					SecondID:     iface.ID,
					FirstSource:  first.Source,
					SecondSource: iface.Source,
				})
			} else {
				reg.byName[iface.Name] = iface
			}
			reg.interfaces = append(reg.interfaces, iface)
		}
	}

	return reg
}

// cloneInterface deep-copies the slices the assembler writes into, so the
// parser's output is never mutated.
func cloneInterface(in ir.Interface) *ir.Interface {
	out := in
	out.Enums = append([]ir.Enum{}, in.Enums...)
	out.Requests = cloneMessages(in.Requests)
	out.Events = cloneMessages(in.Events)
	return &out
}

func cloneMessages(in []ir.Message) []ir.Message {
	out := make([]ir.Message, len(in))
	for i, msg := range in {
		out[i] = msg
		out[i].Args = append([]ir.Arg{}, msg.Args...)
	}
	return out
}

func classifyArgs(iface *ir.Interface) {
	for _, msgs := range [][]ir.Message{iface.Requests, iface.Events} {
		for i := range msgs {
			for j := range msgs[i].Args {
				msgs[i].Args[j].Kind = ir.Classify(iface.Name, msgs[i].Args[j])
			}
		}
	}
}

// Interfaces returns every interface in identity order. Index i holds the
// interface with ID i.
func (r *Registry) Interfaces() []*ir.Interface {
	return r.interfaces
}

// Len returns the number of assigned identities.
func (r *Registry) Len() int {
	return len(r.interfaces)
}

// Lookup returns the first interface registered under name.
func (r *Registry) Lookup(name string) (*ir.Interface, bool) {
	iface, ok := r.byName[name]
	return iface, ok
}

// LookupEnum resolves a qualified enum reference.
func (r *Registry) LookupEnum(ref ir.EnumRef) (*ir.Enum, bool) {
	iface, ok := r.byName[ref.Interface]
	if !ok {
		return nil, false
	}
	return iface.FindEnum(ref.Name)
}

// Duplicates returns the duplicate-name reports collected during assembly.
func (r *Registry) Duplicates() []*DuplicateInterfaceError {
	return r.duplicates
}

// ImplementedSet names the interfaces the target server implements. They
// receive full declarations; all others are stubbed.
type ImplementedSet map[string]struct{}

// NewImplementedSet builds a set from interface names.
func NewImplementedSet(names ...string) ImplementedSet {
	set := make(ImplementedSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Contains reports whether name is implemented.
func (s ImplementedSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Implemented returns the filtered view of interfaces present in set, in
// identity order.
func (r *Registry) Implemented(set ImplementedSet) []*ir.Interface {
	var out []*ir.Interface
	for _, iface := range r.interfaces {
		if set.Contains(iface.Name) {
			out = append(out, iface)
		}
	}
	return out
}

// Unknown returns the names in set that no assembled interface carries.
func (r *Registry) Unknown(set ImplementedSet) []string {
	var out []string
	for name := range set {
		if _, ok := r.byName[name]; !ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
