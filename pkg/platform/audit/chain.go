package audit

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Seal fills defaults and computes the entry hash on top of prev.
// CreatedAt is normalized to UTC microseconds so the hash survives a
// round trip through Postgres timestamptz.
func (e *Entry) Seal(prev []byte, now time.Time) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Microsecond)
	e.PrevHash = append([]byte(nil), prev...)
	e.Hash = e.computeHash()
}

func (e *Entry) computeHash() []byte {
	h, _ := blake2b.New256(nil)
	var lenBuf [4]byte
	write := func(b []byte) {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
		h.Write(lenBuf[:])
		h.Write(b)
	}
	write(e.PrevHash)
	write(e.ID[:])
	write([]byte(e.ActionType))
	write([]byte(e.ActorType))
	write([]byte(e.ActorID))
	write([]byte(e.TargetType))
	write([]byte(e.TargetID))
	write(e.BeforeState)
	write(e.AfterState)
	write([]byte(e.Severity))
	write([]byte(strconv.FormatBool(e.SecurityFinding)))
	write([]byte(e.RequestID))
	write([]byte(e.CreatedAt.UTC().Format(time.RFC3339Nano)))
	return h.Sum(nil)
}

// ChainError describes the first entry that does not verify.
type ChainError struct {
	EntryID uuid.UUID
	Chain   string
	Reason  string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("audit chain %s broken at %s: %s", e.Chain, e.EntryID, e.Reason)
}

// VerifyChain checks entries in append order. Entries from several chains
// may be interleaved; each chain is verified independently from its first
// entry, which must have an empty PrevHash.
func VerifyChain(entries []*Entry) error {
	heads := make(map[string][]byte)
	for _, e := range entries {
		key := e.ChainKey()
		prev := heads[key]
		if !bytes.Equal(e.PrevHash, prev) {
			return &ChainError{EntryID: e.ID, Chain: key, Reason: "previous hash mismatch"}
		}
		if !bytes.Equal(e.Hash, e.computeHash()) {
			return &ChainError{EntryID: e.ID, Chain: key, Reason: "content hash mismatch"}
		}
		heads[key] = e.Hash
	}
	return nil
}
