// Package harness runs conformance scenarios against the protocol
// compiler.
//
// A scenario names protocol documents (files, inline XML or both), the
// implemented set, and what the run must produce: interface identities,
// opcodes, fragments of the emitted artifacts, or a specific error code.
// Golden scenarios additionally compare all three artifacts byte for byte
// against files under testdata/golden.
//
// # Scenario Format
//
//	name: display_registry
//	description: "Identities follow document order"
//	protocols:
//	  - ../protocols/core.xml          # relative to the scenario file
//	documents:
//	  - name: extra.xml
//	    xml: |
//	      <protocol name="extra">...</protocol>
//	implemented: [wl_display]
//	allow_duplicates: false
//	golden: true
//	expect:
//	  interfaces: 3
//	  duplicates: 0
//	  error: E203                      # expected failure code
//	assertions:
//	  - type: identity
//	    interface: wl_callback
//	    id: 2
//	  - type: opcode
//	    interface: wl_display
//	    kind: request
//	    message: sync
//	    opcode: 0
//	  - type: contains
//	    artifact: requests
//	    text: "/* 2: wl_callback */ {},"
//
// Files listed under protocols are read before inline documents, in the
// order given.
//
// # Determinism
//
// Every run generates the artifacts twice from independently assembled
// registries and fails if the bytes differ.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/callback.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
