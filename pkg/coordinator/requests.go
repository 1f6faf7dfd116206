package coordinator

import (
	"time"

	"commitcoord/pkg/commitrecord"
	"commitcoord/pkg/types"
)

// CommitPayload carries the fields of a proposed commit (spec.md
// §4.1/§6). All fields are pointers so a caller (typically a wire
// decoder) can distinguish "absent" from the zero value — version 0
// and an all-zero ModTime are both legitimate.
type CommitPayload struct {
	FileName        *string
	Version         *types.Version
	FileSize        *int64
	FileModTime     *time.Time
	CommitTimestamp *types.LogicalTimestamp
}

// complete reports whether every commit-payload field is present.
// spec.md §4.1: "If any commit-payload field is present, all of
// {file_name, version, file_size, file_mod_time, commit_timestamp}
// are present."
func (p *CommitPayload) complete() bool {
	return p.FileName != nil && p.Version != nil && p.FileSize != nil &&
		p.FileModTime != nil && p.CommitTimestamp != nil
}

// CommitRequest is the value callers submit to Coordinator.Commit.
type CommitRequest struct {
	TableID  types.TableID
	TableURI string

	// Payload is nil when this call only carries backfill progress.
	Payload *CommitPayload

	LastKnownBackfilledVersion *types.Version

	IsDisown bool

	// Protocol and Metadata are opaque pass-throughs; the core never
	// interprets them (spec.md §6).
	Protocol map[string]string
	Metadata []byte
}

// GetCommitsRequest is the value callers submit to
// Coordinator.GetCommits.
type GetCommitsRequest struct {
	TableID  types.TableID
	TableURI string
	Start    *types.Version
	End      *types.Version
}

// GetCommitsResponse is spec.md §6's (commits, last_ratified_version)
// tuple.
type GetCommitsResponse struct {
	Commits             []commitrecord.View
	LastRatifiedVersion types.Version
}
