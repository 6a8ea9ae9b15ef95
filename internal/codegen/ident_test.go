package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "wl_surface", "wl_surface"},
		{"leading digit", "90", "_90"},
		{"leading digit mixed", "2d_transform", "_2d_transform"},
		{"keyword", "default", "default_"},
		{"keyword delete", "delete", "delete_"},
		{"c++20 requires", "requires", "requires_"},
		{"c++20 concept", "concept", "concept_"},
		{"coroutine keyword", "co_await", "co_await_"},
		{"storage keyword", "thread_local", "thread_local_"},
		{"cast keyword", "static_cast", "static_cast_"},
		{"character type", "char8_t", "char8_t_"},
		{"alternative token", "xor_eq", "xor_eq_"},
		{"alternative token compl", "compl", "compl_"},
		{"separator", "wl_output.transform", "wl_output_transform"},
		{"dash", "flipped-90", "flipped_90"},
		{"empty", "", "_"},
		{"non ascii", "größe", "gr__e"},
		{"not a keyword once suffixed", "int_", "int_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeNormalizesComposedForms(t *testing.T) {
	// "é" as e + combining acute composes to one rune, so both spellings
	// produce the same identifier.
	assert.Equal(t, "caf_", Sanitize("cafe\u0301"))
	assert.Equal(t, Sanitize("caf\u00e9"), Sanitize("cafe\u0301"))
}

func TestParamNameEscapesGeneratedLocals(t *testing.T) {
	assert.Equal(t, "client_", paramName("client"))
	assert.Equal(t, "message_", paramName("message"))
	assert.Equal(t, "peer_id_", paramName("peer_id"))
	assert.Equal(t, "new_", paramName("new"))
	assert.Equal(t, "serial", paramName("serial"))
}

func TestRedundantName(t *testing.T) {
	assert.True(t, redundantName("surface", "wl_surface*"))
	assert.True(t, redundantName("transform", "wl_output_transform"))
	assert.False(t, redundantName("x", "i32"))
	assert.False(t, redundantName("id", "wl_id*"), "id is always kept")
	assert.False(t, redundantName("s", "wl_surface*"), "single letters are kept")
	assert.False(t, redundantName("callback_data", "u32"))
}
