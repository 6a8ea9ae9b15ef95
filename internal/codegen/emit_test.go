package codegen

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wlgen/internal/compiler"
	"github.com/roach88/wlgen/internal/ir"
)

func callbackRegistry() *compiler.Registry {
	return registryOf(ir.Interface{
		Name: "wl_callback", Version: 1,
		Events: []ir.Message{msg("done", arg("callback_data", ir.TypeUint))},
	})
}

func TestCallbackDeclarations(t *testing.T) {
	out, err := EmitDeclarations(callbackRegistry(), compiler.NewImplementedSet("wl_callback"), Options{})
	require.NoError(t, err)

	want := `// Code generated by wlgen. DO NOT EDIT.

#pragma once

#include "wayland_core.hpp"

namespace wayland::server
{

struct wl_callback;

struct wl_callback : Object
{
    wl_callback() : Object{0, 0, {}} {}
    explicit wl_callback(Display* display) : Object{0, display_allocate_id(display), {}} {}

    static constexpr std::string_view InterfaceName = "wl_callback";
    static constexpr u32 Version = 1;

    /* events */
    void done(Client* client, u32 callback_data);
};

} // namespace wayland::server
`
	assert.Equal(t, want, string(out))
}

func TestCallbackEventRoutine(t *testing.T) {
	out, err := EmitEventDispatch(callbackRegistry(), compiler.NewImplementedSet("wl_callback"), Options{})
	require.NoError(t, err)

	want := `// Code generated by wlgen. DO NOT EDIT.

#include "wayland_internal.hpp"
#include "wayland_server.hpp"

namespace wayland::server
{

void wl_callback::done(Client* client, u32 callback_data)
{
    Message message {};
    for (auto [peer, peer_id] : _client_ids) {
        if (client && peer != client) continue;
        MessageWriter writer {&message, 0};
        writer.write_uint(callback_data);
        writer.write_header(peer_id, 0);
        display_send_event(peer, message);
    }
}

} // namespace wayland::server
`
	assert.Equal(t, want, string(out))

	// Exactly one field is serialized, and it precedes the header.
	body := string(out)
	assert.Equal(t, 1, strings.Count(body, "writer.write_uint("))
	assert.Less(t, strings.Index(body, "writer.write_uint("), strings.Index(body, "writer.write_header("))
}

func TestCallbackRequestDispatchHasEmptyEntry(t *testing.T) {
	out, err := EmitRequestDispatch(callbackRegistry(), Options{})
	require.NoError(t, err)

	want := `// Code generated by wlgen. DO NOT EDIT.

#include "wayland_internal.hpp"
#include "wayland_server.hpp"

namespace wayland::server
{

static const std::span<const DispatchFn> dispatch_tables[] {
    /* 0: wl_callback */ {},
};

const std::span<const std::span<const DispatchFn>> dispatch_table_view = dispatch_tables;

} // namespace wayland::server
`
	assert.Equal(t, want, string(out))
}

func TestRequestDispatchTables(t *testing.T) {
	out, err := EmitRequestDispatch(fixtureRegistry(t), Options{})
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, `static const DispatchFn dispatch_table_wl_display[] {
    /* 0: sync */
    [](Client* client, Object* object, [[maybe_unused]] MessageReader reader) {
        auto callback = reader.read_new_id<wl_callback>(client);
        static_cast<wl_display*>(object)->sync(client, callback);
    },
    /* 1: get_registry */
`)
	assert.Contains(t, text, `        auto name = reader.read_uint();
        auto id = reader.read_untyped_new_id(client);
        static_cast<wl_registry*>(object)->bind(client, name, id);
`)
	assert.Contains(t, text, "auto transform = reader.read_enum<wl_output_transform>();")
	assert.Contains(t, text, "auto buffer = reader.read_object<wl_callback>(client, 2);")
	assert.Contains(t, text, "static_cast<wl_surface*>(object)->commit(client);")
	assert.NotContains(t, text, "dispatch_table_wl_callback[]", "no table for an interface without requests")

	global := regexp.MustCompile(`(?m)^    /\* (\d+): (\w+) \*/ (\{\}|dispatch_table_\w+),$`).FindAllStringSubmatch(text, -1)
	require.Len(t, global, 5, "one entry per interface identity")
	for i, m := range global {
		assert.Equal(t, strconv.Itoa(i), m[1], "entries are indexed by identity")
	}
	assert.Equal(t, "{}", global[2][3], "wl_callback keeps its slot")
	assert.Equal(t, "dispatch_table_wl_surface", global[4][3])
}

func TestRequestOpcodesFollowDeclaredOrder(t *testing.T) {
	ifaces := fixtureInterfaces()
	surface := &ifaces[4]
	surface.Requests = append([]ir.Message{surface.Requests[3]}, surface.Requests[:3]...)

	out, err := EmitRequestDispatch(registryOf(ifaces...), Options{})
	require.NoError(t, err)
	text := string(out)

	for opcode, name := range []string{"commit", "attach", "frame", "set_buffer_transform"} {
		assert.Contains(t, text, "/* "+strconv.Itoa(opcode)+": "+name+" */")
	}
	// Other interfaces are untouched.
	assert.Contains(t, text, "/* 1: get_registry */")
}

func TestDeclarationsStubAndFull(t *testing.T) {
	out, err := EmitDeclarations(fixtureRegistry(t), compiler.NewImplementedSet("wl_display"), Options{})
	require.NoError(t, err)
	text := string(out)

	// Forward declarations precede every definition.
	assert.Contains(t, text, `enum class wl_display_error : u32;
enum class wl_output_transform : u32;
enum class wl_output_mode : u32;

struct wl_display;
struct wl_registry;
struct wl_callback;
struct wl_output;
struct wl_surface;
`)

	// Full: requests declared only, events declared with a client target.
	assert.Contains(t, text, `    /* requests */
    void sync(Client*, wl_callback* /* callback */);
    void get_registry(Client*, wl_registry* /* registry */);

    /* events */
    void error(Client* client, Object* object_id, u32 code, std::string_view message_);
    void delete_id(Client* client, u32 id);
};
`)

	// Stub: inline empty bodies for requests and events alike.
	assert.Contains(t, text, `    /* requests */
    // (since 3, destructor)
    void release(Client*) {}

    /* events */
    void geometry(Client*, i32 /* x */, i32 /* y */, wl_output_transform /* transform */) {}
    void mode(Client*, wl_output_mode /* flags */, i32 /* refresh */) {}
`)
	assert.Contains(t, text, "void bind(Client*, u32 /* name */, NewId /* id */) {}")

	// Enums: sanitized entry names, literal values, bitfield marker.
	assert.Contains(t, text, `enum class wl_output_transform : u32
{
    normal = 0,
    _90 = 1,
};

`)
	assert.Contains(t, text, `    current = 0x1, // indicates this is the current mode
};
DECORATE_FLAG_ENUM(wl_output_mode)
`)
	assert.Contains(t, text, "static constexpr u32 Version = 4;")
	assert.Contains(t, text, "wl_surface() : Object{4, 0, {}} {}")
}

func TestEventsOnlyForImplemented(t *testing.T) {
	out, err := EmitEventDispatch(fixtureRegistry(t), compiler.NewImplementedSet("wl_display", "wl_surface"), Options{})
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "void wl_display::error(Client* client, Object* object_id, u32 code, std::string_view message_)")
	assert.Contains(t, text, "writer.write_string(message_);")
	assert.Contains(t, text, "writer.write_header(peer_id, 1);", "delete_id is event opcode 1")
	assert.Contains(t, text, "writer.write_object(output, peer);")
	assert.Contains(t, text, `        writer.write_fixed(factor);
        writer.write_fd(fd);
        writer.write_array(data);
        writer.write_header(peer_id, 1);
`)
	assert.NotContains(t, text, "wl_output::")
	assert.NotContains(t, text, "wl_callback::")
}

// Reads in a request closure and writes in an event routine follow the
// same argument sequence.
func TestWireOrderSymmetry(t *testing.T) {
	args := []ir.Arg{
		arg("a", ir.TypeInt),
		arg("b", ir.TypeString),
		enumArg("c", ir.TypeUint, "kind"),
		arg("d", ir.TypeFixed),
		objArg("e", ir.TypeNewID, "shape"),
		arg("f", ir.TypeArray),
	}
	reg := registryOf(ir.Interface{
		Name: "shape", Version: 1,
		Enums:    []ir.Enum{{Name: "kind", Since: 1, Entries: []ir.Entry{{Name: "a", Value: "0", Since: 1}}}},
		Requests: []ir.Message{msg("m", args...)},
		Events:   []ir.Message{msg("m", args...)},
	})

	reqs, err := EmitRequestDispatch(reg, Options{})
	require.NoError(t, err)
	evts, err := EmitEventDispatch(reg, compiler.NewImplementedSet("shape"), Options{})
	require.NoError(t, err)

	reads := regexp.MustCompile(`reader\.read_(\w+)`).FindAllStringSubmatch(string(reqs), -1)
	writes := regexp.MustCompile(`writer\.write_(\w+)`).FindAllStringSubmatch(string(evts), -1)

	var readKinds, writeKinds []string
	for _, m := range reads {
		readKinds = append(readKinds, m[1])
	}
	for _, m := range writes {
		if m[1] != "header" {
			writeKinds = append(writeKinds, m[1])
		}
	}
	assert.Equal(t, []string{"int", "string", "enum", "fixed", "new_id", "array"}, readKinds)
	assert.Equal(t, readKinds, writeKinds)
}

func TestUnresolvedTypeAbortsOnlyAffectedArtifact(t *testing.T) {
	reg := registryOf(ir.Interface{
		Name: "wl_registry", Version: 1,
		Events: []ir.Message{msg("announce", arg("id", ir.TypeNewID))},
	})

	_, err := EmitDeclarations(reg, compiler.NewImplementedSet("wl_registry"), Options{})
	require.NoError(t, err)
	_, err = EmitRequestDispatch(reg, Options{})
	require.NoError(t, err)

	_, err = EmitEventDispatch(reg, compiler.NewImplementedSet(), Options{})
	require.NoError(t, err, "stubbed interfaces get no routines")

	_, err = EmitEventDispatch(reg, compiler.NewImplementedSet("wl_registry"), Options{})
	var ute *UnresolvedTypeError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "wl_registry", ute.Interface)
	assert.Equal(t, "announce", ute.Message)
	assert.Equal(t, `wl_registry.announce: argument "id": new_id argument has no interface to serialize`, ute.Error())

	out, err := Generate(reg, compiler.NewImplementedSet("wl_registry"), Options{})
	require.Error(t, err)
	assert.Nil(t, out, "no partial output")
}

func TestUnknownPrimitiveAbortsGeneration(t *testing.T) {
	reg := registryOf(ir.Interface{
		Name: "wl_seat", Version: 1,
		Requests: []ir.Message{msg("scale", arg("factor", "float"))},
	})

	_, err := Generate(reg, compiler.NewImplementedSet(), Options{})
	var ute *UnresolvedTypeError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "wl_seat", ute.Interface)
	assert.Equal(t, "scale", ute.Message)
	assert.Equal(t, "factor", ute.Arg)
}

func TestGenerateOptions(t *testing.T) {
	out, err := Generate(callbackRegistry(), compiler.NewImplementedSet("wl_callback"), Options{
		Namespace:          "compositor::wire",
		CoreHeader:         "core.h",
		InternalHeader:     "internal.h",
		DeclarationsHeader: "protocol.h",
	})
	require.NoError(t, err)

	assert.Contains(t, string(out.Declarations), "#include \"core.h\"\n")
	assert.Contains(t, string(out.Declarations), "namespace compositor::wire\n{\n")
	assert.True(t, strings.HasSuffix(string(out.Declarations), "} // namespace compositor::wire\n"))
	assert.Contains(t, string(out.Requests), "#include \"internal.h\"\n#include \"protocol.h\"\n")
	assert.Contains(t, string(out.Events), "#include \"internal.h\"\n#include \"protocol.h\"\n")
}

func TestSummariesBecomeComments(t *testing.T) {
	reg := registryOf(ir.Interface{
		Name: "wl_shm", Version: 2, Summary: "shared memory support",
		Requests: []ir.Message{{Name: "release", Since: 2, Destructor: true, Summary: "release the shm object"}},
		Events:   []ir.Message{{Name: "format", Since: 1, Summary: "pixel format description \\", Args: []ir.Arg{arg("format", ir.TypeUint)}}},
	})

	out, err := EmitDeclarations(reg, compiler.NewImplementedSet(), Options{})
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "// shared memory support\nstruct wl_shm : Object\n")
	assert.Contains(t, text, "    // release the shm object (since 2, destructor)\n    void release(Client*) {}\n")
	assert.Contains(t, text, "    // pixel format description\n    void format(Client*, u32 /* format */) {}\n")
}

func TestEmptyRegistryHasNoDispatchTables(t *testing.T) {
	_, err := EmitRequestDispatch(registryOf(), Options{})
	assert.ErrorIs(t, err, ErrNoInterfaces)

	out, err := Generate(registryOf(), compiler.NewImplementedSet(), Options{})
	assert.ErrorIs(t, err, ErrNoInterfaces)
	assert.Nil(t, out)
}

func TestSanitizedNameCollisions(t *testing.T) {
	tests := []struct {
		name  string
		iface []ir.Interface
		scope string
		want  string
	}{
		{
			name: "enum entries",
			iface: []ir.Interface{{
				Name: "wl_output", Version: 1,
				Enums: []ir.Enum{{Name: "subpixel", Entries: []ir.Entry{
					{Name: "a-b", Value: "0"},
					{Name: "a_b", Value: "1"},
				}}},
			}},
			scope: "wl_output.subpixel entries",
			want:  "a_b",
		},
		{
			name: "arguments",
			iface: []ir.Interface{{
				Name: "wl_seat", Version: 1,
				Requests: []ir.Message{msg("bind", arg("x-y", ir.TypeInt), arg("x_y", ir.TypeInt))},
			}},
			scope: "wl_seat.bind arguments",
			want:  "x_y",
		},
		{
			name: "requests",
			iface: []ir.Interface{{
				Name: "wl_seat", Version: 1,
				Requests: []ir.Message{msg("get-pointer"), msg("get_pointer")},
			}},
			scope: "wl_seat requests",
			want:  "get_pointer",
		},
		{
			name: "enum and struct in namespace",
			iface: []ir.Interface{
				{Name: "a", Version: 1, Enums: []ir.Enum{{Name: "b_c", Entries: []ir.Entry{{Name: "x", Value: "0"}}}}},
				{Name: "a_b", Version: 1, Enums: []ir.Enum{{Name: "c", Entries: []ir.Entry{{Name: "x", Value: "0"}}}}},
			},
			scope: "namespace wayland::server",
			want:  "a_b_c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Generate(registryOf(tt.iface...), compiler.NewImplementedSet(), Options{})
			var collision *NameCollisionError
			require.ErrorAs(t, err, &collision)
			assert.Equal(t, tt.scope, collision.Scope)
			assert.Equal(t, tt.want, collision.Name)
			assert.NotEqual(t, collision.First, collision.Second)
			assert.Nil(t, out)
		})
	}
}

func TestDuplicateInterfacesGetDistinctNames(t *testing.T) {
	output := ir.Interface{
		Name: "wl_output", Version: 2,
		Enums:    []ir.Enum{{Name: "mode", Bitfield: true, Entries: []ir.Entry{{Name: "current", Value: "0x1"}}}},
		Requests: []ir.Message{msg("release")},
	}
	reg := compiler.Assemble([]compiler.Source{
		{Name: "wayland.xml", Interfaces: []ir.Interface{output}},
		{Name: "vendor.xml", Interfaces: []ir.Interface{{Name: "wl_callback", Version: 1}, output}},
	})
	require.Len(t, reg.Duplicates(), 1)

	out, err := Generate(reg, compiler.NewImplementedSet("wl_output"), Options{})
	require.NoError(t, err)

	decls := string(out.Declarations)
	assert.Equal(t, 1, strings.Count(decls, "struct wl_output : Object\n"))
	assert.Contains(t, decls, "struct wl_output_2 : Object\n")
	assert.Contains(t, decls, "enum class wl_output_mode : u32\n")
	assert.Contains(t, decls, "enum class wl_output_mode_2 : u32\n")
	assert.Equal(t, 2, strings.Count(decls, `InterfaceName = "wl_output"`))

	reqs := string(out.Requests)
	assert.Contains(t, reqs, "/* 0: wl_output */ dispatch_table_wl_output,")
	assert.Contains(t, reqs, "/* 2: wl_output_2 */ dispatch_table_wl_output_2,")
}
