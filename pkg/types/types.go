// Package types holds small value types shared across the coordinator,
// the ledger, and the registry, the way lsmdb's pkg/types held the
// primitives shared across its storage engine.
package types

import (
	"time"

	"github.com/google/uuid"
)

// TableID identifies a table the coordinator holds a ledger for. It is
// opaque to the core: callers mint it (typically from the table-format
// layer, out of scope here) and the coordinator only ever compares it
// for equality or uses it as a map key.
type TableID = uuid.UUID

// ParseTableID validates a caller-supplied string as a TableID.
func ParseTableID(s string) (TableID, error) {
	return uuid.Parse(s)
}

// Version is a commit's position in a table's ledger. Versions are
// strictly increasing and, after the first commit, contiguous.
type Version = int64

// NoVersion is the last-ratified-version sentinel for an empty ledger.
const NoVersion Version = -1

// LogicalTimestamp is a caller-supplied logical commit time. The core
// never interprets it beyond carrying it through.
type LogicalTimestamp = int64

// FileDescriptor locates the on-disk commit file a CommitRecord
// refers to. The core never opens or reads this file; it is carried
// through unchanged.
type FileDescriptor struct {
	Path    string
	Size    int64
	ModTime time.Time
}
