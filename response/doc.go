// Package response builds the ordered command streams a remotedom server
// sends back to the browser runtime.
//
// A Response is an accumulator. Element operations (html, text, attr, any
// named command) apply to the current target, set with Select or Factory
// and sticky until changed. Page-level operations (Alert, Redirect, Script,
// SetGlobal, ...) carry numeric opcodes, are recorded under internal
// numeric keys, and clear the current target. The wire form is a single
// JSON object mapping each target key to its command list, with both
// per-target and cross-target order preserved:
//
//	{"#out":[{"c":"text","a":["hi Ann"]}],"0":[{"c":1,"a":["saved"]}]}
//
// Responses combine through Merge, which snapshots the other response's
// commands at call time; the rendered output appends snapshots in merge
// order and concatenates command lists when two sides touch the same
// target. MarshalState and Restore carry a response across requests, vars
// and merges included.
//
// A Registry tracks responses by identity name within a request so
// cooperating handlers can find each other's output. Nothing here is
// process global; the dispatch package wires a fresh Registry into every
// request it serves.
package response
