package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectTable(t *testing.T) {
	stdout, _, err := execute(t, "text", NewInspectCommand,
		"--implemented", "wl_surface", protocol("core.xml"), protocol("shell.xml"))
	require.NoError(t, err)

	assert.Contains(t, stdout, "7 interface(s), layout ")
	assert.Regexp(t, `(?m)^\s+0  wl_display\s+1\s+2\s+2\s*$`, stdout)
	assert.Regexp(t, `(?m)^\s+4  wl_surface\s+6\s+4\s+2  yes$`, stdout)
	assert.Regexp(t, `(?m)^\s+6  xdg_surface\s+2\s+2\s+1\s*$`, stdout)
}

func TestInspectInterfaceDetails(t *testing.T) {
	stdout, _, err := execute(t, "text", NewInspectCommand,
		"--interface", "wl_output", protocol("core.xml"))
	require.NoError(t, err)

	assert.Contains(t, stdout, "wl_output (id 3, version 4, stub)")
	assert.Contains(t, stdout, "   0  release()")
	assert.Contains(t, stdout, "   0  geometry(x: int, y: int, make: string, transform: enum wl_output.transform)")
	assert.Contains(t, stdout, "   2  done()")
	assert.Contains(t, stdout, "enums: transform, mode")
	assert.NotContains(t, stdout, "wl_display")
}

func TestInspectJSON(t *testing.T) {
	stdout, _, err := execute(t, "json", NewInspectCommand,
		"--implemented", "wl_registry", protocol("core.xml"))
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.LayoutHash, 64)
	require.Len(t, resp.Data.Interfaces, 5)

	registry := resp.Data.Interfaces[1]
	assert.Equal(t, "wl_registry", registry.Name)
	assert.True(t, registry.Implemented)
	assert.Equal(t, []string{"bind(name: uint, id: new_id)"}, registry.Requests)
	assert.Equal(t, []string{
		"global(name: uint, interface: string, version: uint)",
		"global_remove(name: uint)",
	}, registry.Events)
}

func TestInspectLayoutHashTracksOrder(t *testing.T) {
	hash := func(args ...string) string {
		stdout, _, err := execute(t, "json", NewInspectCommand, args...)
		require.NoError(t, err)
		var resp struct {
			Data InspectResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		return resp.Data.LayoutHash
	}

	a := hash(protocol("core.xml"), protocol("shell.xml"))
	b := hash(protocol("core.xml"), protocol("shell.xml"))
	c := hash(protocol("shell.xml"), protocol("core.xml"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestInspectUnknownInterface(t *testing.T) {
	_, _, err := execute(t, "text", NewInspectCommand,
		"--interface", "wl_seat", protocol("core.xml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown interface "wl_seat"`)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}
