// Package libmm implements the client-side contract of the MindMirror entry
// repository: a minimal CRUD API over journal entry metadata. Video payloads
// are never part of this contract; entries only carry the key of a blob kept
// in the device's local store.
package libmm
