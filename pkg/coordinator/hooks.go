package coordinator

import (
	"github.com/google/uuid"

	"commitcoord/pkg/commitrecord"
)

// PostCommitHook lets a caller observe a ratified commit without
// reaching into ledger internals. The core never invokes one itself
// — hook execution is out of scope (spec.md §6) — this only defines
// the contract a future wiring point would call through.
//
// Grounded in original_source's ChecksumFullHook.java, a
// checksum-generation hook fired after a commit lands; checksum
// generation itself stays unimplemented here, since it belongs to the
// table-format layer.
type PostCommitHook interface {
	AfterCommit(tableID uuid.UUID, record commitrecord.View)
}
