// Package protocol implements the binary wire format spoken by the
// Photon-style session servers: a type-tagged, recursively structured value
// model and the request/response/event packet envelope built on top of it.
//
// # Wire Format
//
// Every value starts with a one-byte type tag followed by a type-specific
// payload. Multi-byte integers and floats are big-endian. Containers
// (arrays, maps) encode a length prefix and then their elements, recursively.
//
// Packets are framed as:
//
//	┌───────┬──────┬──────┬─────────────┬──────────────────────────┐
//	│ 0xF3  │ Kind │ Code │ Param count │ (param code, Value) ...  │
//	│ 1 byte│ 1 b  │ 1 b  │ 2 b, BE     │ repeated                 │
//	└───────┴──────┴──────┴─────────────┴──────────────────────────┘
//
// # Hostile Input
//
// The decoder never trusts a declared length: element counts are validated
// against the remaining buffer and against MaxCollectionCount, and recursion
// is bounded by MaxDepth. Violations return a decode error; they never panic
// and never allocate proportionally to an attacker-supplied count.
package protocol
