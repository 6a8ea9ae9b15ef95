// Package ir provides the intermediate representation of Wayland protocol
// descriptions consumed by the wlgen code generators.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Order is meaning: interface order fixes identities, message order
//     fixes opcodes, arg order fixes wire layout. Nothing in this package
//     sorts or deduplicates.
//   - Arg.Kind is a closed set of variants (see ArgKind); emitters switch
//     on it exhaustively instead of inspecting type strings.
//   - IR values are never mutated once compiler.Assemble returns them.
package ir
