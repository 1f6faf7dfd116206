// Package cerrors is the coordinator's error taxonomy (spec.md §7),
// shared between the ledger and coordinator packages so a ledger can
// raise a precise error kind without importing its caller. Modeled on
// lsmdb's pkg/store/errors.go and pkg/dberrors: a flat set of sentinel
// errors plus one small struct for the one kind that carries extra
// fields.
package cerrors

import "errors"

var (
	// ErrInvalidArgument covers a missing required field or an
	// internally inconsistent request. Never retryable; the request
	// itself is malformed.
	ErrInvalidArgument = errors.New("commitcoord: invalid argument")

	// ErrInvalidTargetTable is returned when a request's table_uri
	// does not match the ledger's recorded URI.
	ErrInvalidTargetTable = errors.New("commitcoord: invalid target table")

	// ErrCommitLimitReached is returned when the unbackfilled window
	// is full. Retryable once backfill progress has been recorded.
	ErrCommitLimitReached = errors.New("commitcoord: commit limit reached")

	// ErrTableDisowned is returned for any commit attempt against a
	// ledger whose last commit set is_disown (spec.md §9's open
	// question, resolved as choice (a): reject outright).
	ErrTableDisowned = errors.New("commitcoord: table is disowned")

	// ErrIoFailureBeforeCommit is raised when throw_before_commit was
	// armed. The ledger was not mutated; safe to retry.
	ErrIoFailureBeforeCommit = errors.New("commitcoord: io failure before commit")

	// ErrIoFailureAfterCommit is raised when throw_after_commit was
	// armed. The commit was appended before the failure was raised
	// and the ledger keeps it; the append is not rolled back.
	ErrIoFailureAfterCommit = errors.New("commitcoord: io failure after commit")

	// ErrAlreadyRegistered is returned by a Registry when a name or
	// catalog key is registered twice.
	ErrAlreadyRegistered = errors.New("commitcoord: already registered")

	// ErrUnknownCoordinator is returned by a Registry's get() for an
	// unregistered name or catalog key.
	ErrUnknownCoordinator = errors.New("commitcoord: unknown coordinator")
)

// CommitConflictError is returned when an active ledger's next
// expected version does not match the request's version (spec.md
// §7). Retryable iff the caller's version was lower than expected,
// i.e. the caller is behind and should retry with a fresh read.
type CommitConflictError struct {
	Conflict  bool
	Retryable bool
}

func (e *CommitConflictError) Error() string {
	return "commitcoord: commit conflict"
}
