// Package ledger holds TableLedger, the per-table ordered sequence of
// commits and the invariant-keeping logic the coordinator delegates
// to. Adapted from lsmdb's pkg/store: a small RWMutex-guarded struct
// exposing a handful of operations, the lock held for the full
// validate-then-mutate critical section.
package ledger

import (
	"fmt"
	"sync"

	"commitcoord/pkg/cerrors"
	"commitcoord/pkg/commitrecord"
	"commitcoord/pkg/types"
)

// CommitPlan is everything TableLedger.Commit needs to validate and,
// if valid, apply one commit() call from spec.md §4.1. HasPayload
// distinguishes a commit carrying a file descriptor from a pure
// backfill-acknowledgement call.
type CommitPlan struct {
	TableURI                    string
	HasPayload                  bool
	Version                     types.Version
	FileDescriptor              types.FileDescriptor
	CommitTimestamp             types.LogicalTimestamp
	IsDisown                    bool
	HasLastKnownBackfilled      bool
	LastKnownBackfilledVersion  types.Version
}

// Hooks lets the coordinator splice its fault-injection toggles into
// the ledger's single critical section, so the spec's "no I/O under a
// ledger lock" rule (§5) still holds: these are synchronous,
// in-process checks, not suspensions.
type Hooks struct {
	// BeforeAppend is consulted after the URI and limit checks and
	// before a commit is appended. A non-nil error aborts the commit
	// before any mutation.
	BeforeAppend func() error
	// AfterAppend is consulted after a commit payload has been
	// appended, before any backfill trim. A non-nil error is
	// returned to the caller, but the append is NOT rolled back.
	AfterAppend func() error
}

// TableLedger is the ordered, invariant-keeping sequence of commits
// for one table.
type TableLedger struct {
	tableURI string

	mu      sync.RWMutex
	commits []commitrecord.Record
}

// New creates a ledger fixed to tableURI. The URI is immutable for
// the ledger's lifetime (spec.md §3).
func New(tableURI string) *TableLedger {
	return &TableLedger{tableURI: tableURI}
}

// TableURI returns the URI the ledger was registered with.
func (l *TableLedger) TableURI() string {
	return l.tableURI
}

// Commit applies one commit() call under the ledger's write lock,
// covering spec.md §4.1 steps 3-7 (the URI, limit, fault, version,
// and backfill checks). maxUnbackfilled is the window size limit
// (invariant 3 of spec.md §3).
func (l *TableLedger) Commit(plan CommitPlan, maxUnbackfilled int, hooks Hooks) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if plan.HasLastKnownBackfilled {
		versionOrZero := types.Version(0)
		if plan.HasPayload {
			versionOrZero = plan.Version
		}
		maxAllowed := versionOrZero
		if last := l.lastRatifiedVersionLocked(); last > maxAllowed {
			maxAllowed = last
		}
		if plan.LastKnownBackfilledVersion > maxAllowed {
			return fmt.Errorf("%w: last_known_backfilled_version %d exceeds %d",
				cerrors.ErrInvalidArgument, plan.LastKnownBackfilledVersion, maxAllowed)
		}
	}

	if plan.HasPayload {
		if plan.TableURI != l.tableURI {
			return cerrors.ErrInvalidTargetTable
		}

		if l.countUnbackfilledLocked() == maxUnbackfilled {
			return cerrors.ErrCommitLimitReached
		}

		if hooks.BeforeAppend != nil {
			if err := hooks.BeforeAppend(); err != nil {
				return err
			}
		}

		switch {
		case l.isActiveLocked():
			expected := l.lastRatifiedVersionLocked() + 1
			if plan.Version != expected {
				conflict := plan.Version < expected
				return &cerrors.CommitConflictError{Conflict: conflict, Retryable: conflict}
			}
		case l.isDisownedLocked():
			return cerrors.ErrTableDisowned
		default:
			// Empty ledger: the first commit's version is accepted
			// as-is (spec.md §9, permissive behavior preserved).
		}

		l.commits = append(l.commits, commitrecord.New(
			plan.Version, plan.FileDescriptor, plan.CommitTimestamp, plan.IsDisown,
		))

		if hooks.AfterAppend != nil {
			if err := hooks.AfterAppend(); err != nil {
				return err
			}
		}
	}

	if plan.HasLastKnownBackfilled {
		l.applyBackfillLocked(plan.LastKnownBackfilledVersion)
	}

	return nil
}

// GetCommits returns the unbackfilled commits with version in
// [start, end] (defaulting to [0, last]) in ascending order, paired
// with the ledger's last ratified version.
func (l *TableLedger) GetCommits(start, end *types.Version) ([]commitrecord.View, types.Version) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.commits) == 0 {
		return nil, types.NoVersion
	}

	effectiveStart := types.Version(0)
	if start != nil {
		effectiveStart = *start
	}
	effectiveEnd := l.commits[len(l.commits)-1].Version()
	if end != nil {
		effectiveEnd = *end
	}

	var views []commitrecord.View
	for _, c := range l.commits {
		if c.IsBackfilled() {
			continue
		}
		if c.Version() < effectiveStart || c.Version() > effectiveEnd {
			continue
		}
		views = append(views, c.ToView())
	}

	return views, l.lastRatifiedVersionLocked()
}

// LastRatifiedVersion returns the version of the last commit, or
// types.NoVersion if the ledger is empty.
func (l *TableLedger) LastRatifiedVersion() types.Version {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastRatifiedVersionLocked()
}

func (l *TableLedger) lastRatifiedVersionLocked() types.Version {
	if len(l.commits) == 0 {
		return types.NoVersion
	}
	return l.commits[len(l.commits)-1].Version()
}

func (l *TableLedger) isActiveLocked() bool {
	return len(l.commits) > 0 && !l.commits[len(l.commits)-1].IsDisown()
}

func (l *TableLedger) isDisownedLocked() bool {
	return len(l.commits) > 0 && l.commits[len(l.commits)-1].IsDisown()
}

func (l *TableLedger) countUnbackfilledLocked() int {
	n := 0
	for _, c := range l.commits {
		if !c.IsBackfilled() {
			n++
		}
	}
	return n
}

// applyBackfillLocked implements spec.md §4.2's two-branch trim.
func (l *TableLedger) applyBackfillLocked(b types.Version) {
	last := l.lastRatifiedVersionLocked()

	if last != types.NoVersion && b == last {
		sentinel := l.commits[len(l.commits)-1].Backfilled()
		l.commits = []commitrecord.Record{sentinel}
		return
	}

	kept := make([]commitrecord.Record, 0, len(l.commits))
	for _, c := range l.commits {
		if c.Version() > b {
			kept = append(kept, c)
		}
	}
	l.commits = kept
}
