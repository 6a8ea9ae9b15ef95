// Package codegen renders C++ server scaffolding from an assembled
// protocol registry.
//
// Three artifacts are produced from the same registry and must agree with
// each other on identities, opcodes and type names:
//
//   - Declarations: enum declarations and one struct per interface, stubbed
//     (inline empty bodies) unless the interface is implemented.
//   - Request dispatch: per-interface opcode-indexed handler tables and the
//     global table of tables indexed by interface identity.
//   - Event dispatch: one out-of-line sending routine per event of every
//     implemented interface.
//
// All identifier sanitization and type mapping go through the model builders
// in model.go; emitters only lay out lines.
//
// The emitted code calls into a hand-written runtime (MessageReader,
// MessageWriter, Object::_client_ids, display_send_event) that is not
// generated here.
package codegen
