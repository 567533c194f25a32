// Package harness runs randomiser scenarios against in-memory parks.
//
// A scenario describes a park, the options of a run and what the park
// must look like once the run has finished, and executes the real engine
// from the first stage to the last.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: small_park
//	description: "What this scenario validates"
//	seed: 3
//	park:
//	  width: 2
//	  height: 2
//	  objects:
//	    - {identifier: coaster.a, type: ride, category: rollercoaster, ride_type: 51}
//	    - {identifier: burger.a, type: ride, category: shop, ride_type: 28, shop_item: 6}
//	  loaded:
//	    - {identifier: coaster.a, index: 0}
//	  research:
//	    invented: [{object: 0, category: rollercoaster, ride_type: 51}]
//	  tiles: [{x: 0, y: 0, surface: 0}]
//	  rides: [{id: 0, object: 0}]
//	options:
//	  RandomiseParkEntrance: true
//	expect:
//	  outcome: completed
//	assertions:
//	  - type: loaded
//	    identifiers: [coaster.a]
//
// Instead of park, snapshot names a JSON park dump (see host.ParseSnapshot).
// seed, options, associations and engine take the same form as in an
// options file.
//
// # Assertion Types
//
//   - loaded / not_loaded: identifiers are (not) loaded after the run
//   - loaded_count: an object table has exactly count occupied slots
//   - stall_availability: when a stall category becomes available
//   - research_count: the length of a research list
//   - journal_count: how many loads or unloads the run journaled
//
// # Deterministic Testing
//
// Every scenario runs against a freshly built park, with its seed, the
// scenario name as run ID and a fresh in-memory journal, so the same
// scenario always ends in the same park.
//
// # Golden Files
//
// SurveyWithGolden classifies a scenario's park without running it and
// compares the result against testdata/golden/{name}.golden.
package harness
