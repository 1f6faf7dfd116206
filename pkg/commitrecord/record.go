// Package commitrecord defines the immutable value at the heart of a
// table ledger: one ratified commit.
package commitrecord

import "commitcoord/pkg/types"

// Record is an immutable commit, once constructed. Ledger holds a
// slice of these; nothing outside this package mutates a Record after
// the ledger appends it.
type Record struct {
	version       types.Version
	fileDescriptor types.FileDescriptor
	commitTimestamp types.LogicalTimestamp
	isDisown      bool
	isBackfilled  bool
}

// New builds a Record, defensively copying the file descriptor so that
// a caller holding a mutable reference to it cannot reach back into a
// ratified commit.
func New(version types.Version, fd types.FileDescriptor, ts types.LogicalTimestamp, isDisown bool) Record {
	return Record{
		version:         version,
		fileDescriptor:  fd, // types.FileDescriptor is a plain value type; assignment already copies
		commitTimestamp: ts,
		isDisown:        isDisown,
	}
}

func (r Record) Version() types.Version                    { return r.version }
func (r Record) FileDescriptor() types.FileDescriptor       { return r.fileDescriptor }
func (r Record) CommitTimestamp() types.LogicalTimestamp    { return r.commitTimestamp }
func (r Record) IsDisown() bool                             { return r.isDisown }
func (r Record) IsBackfilled() bool                         { return r.isBackfilled }

// Backfilled returns a copy of r marked as backfilled. Records are
// immutable; ledger trim replaces its slice element with this copy
// rather than mutating in place.
func (r Record) Backfilled() Record {
	r.isBackfilled = true
	return r
}

// View is what callers of get_commits see: the version, file
// descriptor, and logical timestamp. is_disown and is_backfilled are
// internal bookkeeping and are never exposed (spec.md §6).
type View struct {
	Version         types.Version
	FileDescriptor  types.FileDescriptor
	CommitTimestamp types.LogicalTimestamp
}

// ToView projects a Record into the subset a reader is allowed to see.
func (r Record) ToView() View {
	return View{
		Version:         r.version,
		FileDescriptor:  r.fileDescriptor,
		CommitTimestamp: r.commitTimestamp,
	}
}
