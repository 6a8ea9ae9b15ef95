package codegen

import (
	"github.com/roach88/wlgen/internal/compiler"
	"github.com/roach88/wlgen/internal/ir"
)

// Default emission options, matching the hand-written runtime layout.
const (
	DefaultNamespace          = "wayland::server"
	DefaultCoreHeader         = "wayland_core.hpp"
	DefaultInternalHeader     = "wayland_internal.hpp"
	DefaultDeclarationsHeader = "wayland_server.hpp"
)

// Registry is the read-only view of an assembled registry the emitters
// consume. *compiler.Registry implements it.
type Registry interface {
	Resolver
	Interfaces() []*ir.Interface
}

// Options controls names that appear in the emitted code. Zero fields take
// the defaults.
type Options struct {
	Namespace          string
	CoreHeader         string
	InternalHeader     string
	DeclarationsHeader string // include name of the declarations unit
}

func (o Options) withDefaults() Options {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.CoreHeader == "" {
		o.CoreHeader = DefaultCoreHeader
	}
	if o.InternalHeader == "" {
		o.InternalHeader = DefaultInternalHeader
	}
	if o.DeclarationsHeader == "" {
		o.DeclarationsHeader = DefaultDeclarationsHeader
	}
	return o
}

// Output holds the three coupled artifacts of one run.
type Output struct {
	Declarations []byte
	Requests     []byte
	Events       []byte
}

// Generate renders all three artifacts in memory. If any artifact fails,
// no output is returned, so callers never write a partial set.
func Generate(reg Registry, implemented compiler.ImplementedSet, opts Options) (*Output, error) {
	decls, err := EmitDeclarations(reg, implemented, opts)
	if err != nil {
		return nil, err
	}
	reqs, err := EmitRequestDispatch(reg, opts)
	if err != nil {
		return nil, err
	}
	evts, err := EmitEventDispatch(reg, implemented, opts)
	if err != nil {
		return nil, err
	}
	return &Output{Declarations: decls, Requests: reqs, Events: evts}, nil
}
