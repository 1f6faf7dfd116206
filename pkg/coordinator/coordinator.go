// Package coordinator implements the Coordinator of spec.md §4.1: a
// keyed collection of TableLedgers exposing commit, get_commits, and
// the fault-injection toggles of §4.4.
//
// Adapted from lsmdb's pkg/store.Store: a small struct wrapping the
// real mutable state (there, a memtable behind an atomic pointer;
// here, a concurrent table-id-to-ledger map) behind a handful of
// public methods, each of which validates before it mutates.
package coordinator

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/zhangyunhao116/skipmap"
	"github.com/zhangyunhao116/skipset"

	"commitcoord/pkg/cerrors"
	"commitcoord/pkg/faultswitch"
	"commitcoord/pkg/ledger"
	"commitcoord/pkg/types"
)

// DefaultMaxUnbackfilled is the window size limit of spec.md §3
// invariant 3, used when New is called with maxUnbackfilled <= 0.
const DefaultMaxUnbackfilled = 10

// Coordinator is a keyed collection of TableLedgers plus the two
// fault-injection toggles of spec.md §4.4. The zero value is not
// usable; construct with New.
type Coordinator struct {
	maxUnbackfilled int

	// tables is the table_id -> ledger map of spec.md §3/§5. skipmap
	// gives the lock-free lookup and atomic insert-if-absent the spec
	// requires (LoadOrStore), the same role skipmap.FuncMap plays for
	// lsmdb's memtable.
	tables *skipmap.StringMap[*ledger.TableLedger]

	// atCapacity records every table_id that has ever observed
	// CommitLimitReached — an admin/metrics affordance, not part of
	// the commit protocol itself (SPEC_FULL.md §4.1).
	atCapacity *skipset.StringSet

	// ThrowBeforeCommit and ThrowAfterCommit are the two public,
	// one-shot fault-injection flags of spec.md §4.4. Any goroutine
	// may Arm() them at any time; Coordinator.Commit test-and-clears
	// them under the target ledger's write lock.
	ThrowBeforeCommit faultswitch.Switch
	ThrowAfterCommit  faultswitch.Switch
}

// New constructs an empty Coordinator. maxUnbackfilled <= 0 is
// replaced with DefaultMaxUnbackfilled.
func New(maxUnbackfilled int) *Coordinator {
	if maxUnbackfilled <= 0 {
		maxUnbackfilled = DefaultMaxUnbackfilled
	}
	return &Coordinator{
		maxUnbackfilled: maxUnbackfilled,
		tables:          skipmap.NewString[*ledger.TableLedger](),
		atCapacity:      skipset.NewString(),
	}
}

// Equivalent implements the Registry's equality contract (spec.md
// §4.3): two in-memory Coordinators are equivalent iff they are the
// same instance. There is no durable identity to compare instead —
// durability is explicitly out of scope (spec.md §1).
func (c *Coordinator) Equivalent(other *Coordinator) bool {
	return c == other
}

// Commit implements spec.md §4.1's commit() operation.
func (c *Coordinator) Commit(req CommitRequest) error {
	if err := validateCommitRequest(req); err != nil {
		return err
	}

	tableKey := req.TableID.String()

	var led *ledger.TableLedger
	if req.Payload != nil {
		candidate := ledger.New(req.TableURI)
		led, _ = c.tables.LoadOrStore(tableKey, candidate)
	} else {
		existing, ok := c.tables.Load(tableKey)
		if !ok {
			return fmt.Errorf("%w: table %s has no ledger and this commit carries no payload to register one",
				cerrors.ErrInvalidArgument, tableKey)
		}
		led = existing
	}

	plan := ledger.CommitPlan{
		TableURI: req.TableURI,
		IsDisown: req.IsDisown,
	}
	if req.LastKnownBackfilledVersion != nil {
		plan.HasLastKnownBackfilled = true
		plan.LastKnownBackfilledVersion = *req.LastKnownBackfilledVersion
	}

	var hooks ledger.Hooks
	if req.Payload != nil {
		plan.HasPayload = true
		plan.Version = *req.Payload.Version
		plan.CommitTimestamp = *req.Payload.CommitTimestamp
		plan.FileDescriptor = types.FileDescriptor{
			Path:    commitFilePath(req.TableURI, *req.Payload.FileName),
			Size:    *req.Payload.FileSize,
			ModTime: *req.Payload.FileModTime,
		}

		hooks.BeforeAppend = func() error {
			if c.ThrowBeforeCommit.TestAndClear() {
				return cerrors.ErrIoFailureBeforeCommit
			}
			return nil
		}
		hooks.AfterAppend = func() error {
			if c.ThrowAfterCommit.TestAndClear() {
				return cerrors.ErrIoFailureAfterCommit
			}
			return nil
		}
	}

	err := led.Commit(plan, c.maxUnbackfilled, hooks)

	if errors.Is(err, cerrors.ErrCommitLimitReached) {
		c.atCapacity.Add(tableKey)
	}

	slog.Debug("commit",
		"commit_id", uuid.New(),
		"table_id", tableKey,
		"has_payload", req.Payload != nil,
		"error", err,
	)

	return err
}

// GetCommits implements spec.md §4.1's get_commits() operation.
func (c *Coordinator) GetCommits(req GetCommitsRequest) (GetCommitsResponse, error) {
	led, ok := c.tables.Load(req.TableID.String())
	if !ok {
		return GetCommitsResponse{LastRatifiedVersion: types.NoVersion}, nil
	}

	if led.TableURI() != req.TableURI {
		return GetCommitsResponse{}, cerrors.ErrInvalidTargetTable
	}

	views, last := led.GetCommits(req.Start, req.End)
	return GetCommitsResponse{Commits: views, LastRatifiedVersion: last}, nil
}

// TablesAtCapacity lists every table_id that has ever observed
// CommitLimitReached (SPEC_FULL.md §4.1's list_tables_at_capacity).
func (c *Coordinator) TablesAtCapacity() []string {
	ids := make([]string, 0)
	c.atCapacity.Range(func(id string) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

func validateCommitRequest(req CommitRequest) error {
	if req.TableID == uuid.Nil {
		return fmt.Errorf("%w: commit request is missing table_id", cerrors.ErrInvalidArgument)
	}
	if req.TableURI == "" {
		return fmt.Errorf("%w: commit request is missing table_uri", cerrors.ErrInvalidArgument)
	}
	if req.Payload == nil && req.LastKnownBackfilledVersion == nil {
		return fmt.Errorf("%w: commit request has neither a commit payload nor last_known_backfilled_version",
			cerrors.ErrInvalidArgument)
	}
	if req.Payload != nil && !req.Payload.complete() {
		return fmt.Errorf("%w: commit payload is missing one of file_name, version, file_size, file_mod_time, commit_timestamp",
			cerrors.ErrInvalidArgument)
	}
	return nil
}

// commitFilePath implements spec.md §6's path-construction rule,
// computed once at commit time. table_uri is URI-shaped (it may be
// "s3://bucket/table", not an OS path), so this joins with plain
// string concatenation rather than path/filepath, which would collapse
// the scheme's "//" when cleaning the path.
func commitFilePath(tableURI, fileName string) string {
	base := trimTrailingSlash(tableURI)
	return base + "/_delta_log/_commits/" + fileName
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
