// Package harness runs query scenarios written in YAML.
//
// # Scenario Format
//
//	name: top_earners
//	description: "Employees above 70000"
//	sample: true                      # bind E, D, Phone, ContractorPay
//	load:
//	  - path: people.csv              # relative to the scenario file
//	    as: People
//	    genkey: person
//	setup:
//	  - "high := E ? salary > 70000"  # must succeed
//	steps:
//	  - query: "high # name"
//	    expect:
//	      count: 2
//	      attributes: [name]
//	      rows:
//	        - {name: Alice}
//	        - {name: Dave}
//	  - query: "E ? foo = 1"
//	    expect_error: "unknown attribute"
//
// Rows match on the attributes they list; integers in YAML compare
// equal to decimals of the same value. With ordered: true the rows must
// match a sorted sequence position by position. A scalar step uses
// expect.value.
//
// Every scenario starts from a fresh environment, so scenarios are
// independent of each other and of the order they run in.
//
// # Golden Files
//
// RunWithGolden renders each step's query and printed output and
// compares the transcript with testdata/golden/{name}.golden. Regenerate
// with:
//
//	go test ./internal/harness -update
package harness
