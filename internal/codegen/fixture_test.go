package codegen

import (
	"testing"

	"github.com/roach88/wlgen/internal/compiler"
	"github.com/roach88/wlgen/internal/ir"
)

func arg(name string, typ ir.Primitive) ir.Arg {
	return ir.Arg{Name: name, Type: typ}
}

func objArg(name string, typ ir.Primitive, iface string) ir.Arg {
	return ir.Arg{Name: name, Type: typ, Interface: iface}
}

func enumArg(name string, typ ir.Primitive, enum string) ir.Arg {
	return ir.Arg{Name: name, Type: typ, Enum: enum}
}

func msg(name string, args ...ir.Arg) ir.Message {
	return ir.Message{Name: name, Since: 1, Args: args}
}

// fixtureInterfaces is a small slice of the core protocol covering every
// argument kind the mapper handles.
func fixtureInterfaces() []ir.Interface {
	return []ir.Interface{
		{
			Name: "wl_display", Version: 1,
			Enums: []ir.Enum{{Name: "error", Since: 1, Entries: []ir.Entry{
				{Name: "invalid_object", Value: "0", Since: 1},
				{Name: "invalid_method", Value: "1", Since: 1},
			}}},
			Requests: []ir.Message{
				msg("sync", objArg("callback", ir.TypeNewID, "wl_callback")),
				msg("get_registry", objArg("registry", ir.TypeNewID, "wl_registry")),
			},
			Events: []ir.Message{
				msg("error", arg("object_id", ir.TypeObject), arg("code", ir.TypeUint), arg("message", ir.TypeString)),
				msg("delete_id", arg("id", ir.TypeUint)),
			},
		},
		{
			Name: "wl_registry", Version: 1,
			Requests: []ir.Message{
				msg("bind", arg("name", ir.TypeUint), arg("id", ir.TypeNewID)),
			},
			Events: []ir.Message{
				msg("global", arg("name", ir.TypeUint), arg("interface", ir.TypeString), arg("version", ir.TypeUint)),
			},
		},
		{
			Name: "wl_callback", Version: 1,
			Events: []ir.Message{msg("done", arg("callback_data", ir.TypeUint))},
		},
		{
			Name: "wl_output", Version: 4,
			Enums: []ir.Enum{
				{Name: "transform", Since: 1, Entries: []ir.Entry{
					{Name: "normal", Value: "0", Since: 1},
					{Name: "90", Value: "1", Since: 1},
				}},
				{Name: "mode", Bitfield: true, Since: 1, Entries: []ir.Entry{
					{Name: "current", Value: "0x1", Since: 1, Summary: "indicates this is the current mode"},
				}},
			},
			Requests: []ir.Message{
				{Name: "release", Since: 3, Destructor: true},
			},
			Events: []ir.Message{
				msg("geometry", arg("x", ir.TypeInt), arg("y", ir.TypeInt), enumArg("transform", ir.TypeInt, "transform")),
				msg("mode", enumArg("flags", ir.TypeUint, "mode"), arg("refresh", ir.TypeInt)),
			},
		},
		{
			Name: "wl_surface", Version: 6,
			Requests: []ir.Message{
				msg("attach", objArg("buffer", ir.TypeObject, "wl_callback"), arg("x", ir.TypeInt), arg("y", ir.TypeInt)),
				msg("frame", objArg("callback", ir.TypeNewID, "wl_callback")),
				msg("set_buffer_transform", enumArg("transform", ir.TypeInt, "wl_output.transform")),
				msg("commit"),
			},
			Events: []ir.Message{
				msg("enter", objArg("output", ir.TypeObject, "wl_output")),
				msg("preferred_buffer_scale", arg("factor", ir.TypeFixed), arg("fd", ir.TypeFd), arg("data", ir.TypeArray)),
			},
		},
	}
}

func fixtureRegistry(t *testing.T) *compiler.Registry {
	t.Helper()
	return compiler.Assemble([]compiler.Source{{Name: "fixture.xml", Interfaces: fixtureInterfaces()}})
}

func registryOf(ifaces ...ir.Interface) *compiler.Registry {
	return compiler.Assemble([]compiler.Source{{Name: "test.xml", Interfaces: ifaces}})
}

// classified returns arg with its kind resolved as the assembler would.
func classified(owner string, a ir.Arg) ir.Arg {
	a.Kind = ir.Classify(owner, a)
	return a
}
