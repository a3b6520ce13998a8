// Package harness runs conformance scenarios against the compiler and engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: echo
//	description: "copies input to output until a zero byte"
//	source: ",[.,]"            # or source_file: echo.bf
//	input: "hi\0"
//	max_steps: 1000
//	expect:
//	  status: halted           # halted | blocked | error
//	  output: "hi"
//	  error: E201              # with status error (or E303 with blocked)
//	  position: 0              # E201 only
//
// Unknown fields are rejected so typos surface as load errors.
//
// # Determinism
//
// Each scenario runs from a fresh engine with its literal input queued up
// front and no live input source, under a fixed run id. Identical sources
// produce identical results and golden snapshots.
//
// # Usage
//
//	scenarios, err := harness.LoadScenarios("testdata/scenarios", "")
//	for _, s := range scenarios {
//	    result, err := harness.Run(s)
//	    if !result.Pass {
//	        for _, e := range result.Errors {
//	            log.Println(e)
//	        }
//	    }
//	}
package harness
